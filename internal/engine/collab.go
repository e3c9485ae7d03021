package engine

import "context"

// Collaborators — внешние вызовы, внедряемые на каждый запуск.
//
// Ядро вызывает их синхронно внутри шага и не навязывает таймаутов:
// коллаборатор, которому нужны дедлайны, обязан уважать ctx сам.
// Любое nil-поле означает, что соответствующий оператор в этом
// запуске недоступен и его выполнение фатально.
type Collaborators struct {
	// ExecuteAgentCall — вызов внешнего исполнителя (APX_EXEC).
	ExecuteAgentCall func(ctx context.Context, target string, payload map[string]any) (map[string]any, error)

	// BuildPackage — сборка пакета из манифеста (BUILD VPKG).
	BuildPackage func(ctx context.Context, manifest any) (map[string]any, error)

	// DeployService — развёртывание артефакта под именем сервиса
	// (DEPLOY SERVICE). Результат обычно содержит endpoint.
	DeployService func(ctx context.Context, artifact any, serviceName string) (map[string]any, error)

	// ObserveText — наблюдатель текстовых выходов (OUTPUT_TEXT).
	// Вызывается синхронно, результат ядру не принадлежит;
	// ошибки наблюдателя запуск не прерывают.
	ObserveText func(text string, runContext map[string]any)
}
