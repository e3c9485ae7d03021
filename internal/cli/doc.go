// Package cli реализует инструмент командной строки Voike.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с Voike API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// CLI используется для работы с FLOW-документами, запусками,
// расписаниями и VVM-программами.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для Voike API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	flows, err := client.ListFlows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON (json.MarshalIndent) — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: voike flow list --json | jq .
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - flow: list, show, parse, plan, activate, version
//   - plan: list, show
//   - run: list, start, show, cancel
//   - schedule: list, create, show, update, delete, enable, disable
//   - vvm: run
//
// Каждая группа создаётся через фабричную функцию (NewFlowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
