package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/voike/voike/internal/engine"
)

const (
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 10 * 1024 * 1024 // 10 MB
)

// ErrBadStatus — внешний сервис ответил не-2xx статусом.
var ErrBadStatus = errors.New("unexpected status")

// HTTPClients — HTTP-реализации коллабораторов.
type HTTPClients struct {
	client *http.Client
	logger *slog.Logger

	apxURL    string
	vpkgURL   string
	deployURL string
}

// NewHTTPClients создаёт клиенты по переменным окружения.
func NewHTTPClients(logger *slog.Logger) *HTTPClients {
	return &HTTPClients{
		client: &http.Client{Timeout: defaultTimeout},
		logger: logger,

		apxURL:    envOr("APX_URL", "http://localhost:8090"),
		vpkgURL:   envOr("VPKG_URL", "http://localhost:8091"),
		deployURL: envOr("DEPLOY_URL", "http://localhost:8092"),
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Collaborators собирает engine.Collaborators из HTTP-клиентов
// и лог-наблюдателя текстовых выходов.
func (c *HTTPClients) Collaborators() engine.Collaborators {
	return engine.Collaborators{
		ExecuteAgentCall: c.ExecuteAgentCall,
		BuildPackage:     c.BuildPackage,
		DeployService:    c.DeployService,
		ObserveText:      c.ObserveText,
	}
}

// ExecuteAgentCall вызывает внешний исполнитель (APX_EXEC).
func (c *HTTPClients) ExecuteAgentCall(ctx context.Context, target string, payload map[string]any) (map[string]any, error) {
	return c.postJSON(ctx, c.apxURL+"/execute", map[string]any{
		"target":  target,
		"payload": payload,
	})
}

// BuildPackage вызывает сборщик пакетов (BUILD VPKG).
func (c *HTTPClients) BuildPackage(ctx context.Context, manifest any) (map[string]any, error) {
	return c.postJSON(ctx, c.vpkgURL+"/build", map[string]any{
		"manifest": manifest,
	})
}

// DeployService вызывает сервис развёртывания (DEPLOY SERVICE).
func (c *HTTPClients) DeployService(ctx context.Context, artifact any, serviceName string) (map[string]any, error) {
	return c.postJSON(ctx, c.deployURL+"/deploy", map[string]any{
		"artifact":    artifact,
		"serviceName": serviceName,
	})
}

// ObserveText — наблюдатель OUTPUT_TEXT: пишет текст в структурный лог.
// Fire-and-forget: ошибок не возвращает и запуск не прерывает.
func (c *HTTPClients) ObserveText(text string, runContext map[string]any) {
	c.logger.Info("flow text output", "text", text, "context", runContext)
}

// postJSON выполняет POST с JSON телом и разбирает JSON ответа.
func (c *HTTPClients) postJSON(ctx context.Context, url string, body any) (map[string]any, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s from %s: %s", ErrBadStatus, resp.Status, url, truncate(data, 256))
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decode response from %s: %w", url, err)
	}
	return result, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
