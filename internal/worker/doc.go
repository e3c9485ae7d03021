// Package worker выполняет асинхронные запуски FLOW-документов.
//
// Worker — stateless компонент системы, который:
//   - Получает события run.pending из очереди RabbitMQ (event-driven)
//   - Периодически проверяет pending runs в БД (polling fallback)
//   - Загружает исходный текст версии flow, компилирует план и
//     выполняет его до завершения
//   - Сохраняет выходы и метрики успешного запуска либо ошибку шага
//
// План не хранится: одна и та же версия исходника детерминированно
// компилируется в один и тот же план, где бы её ни выполняли.
//
// Workers масштабируются горизонтально — несколько экземпляров
// могут потреблять из одной очереди.
package worker
