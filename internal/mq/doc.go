// Package mq — инфраструктура очередей на RabbitMQ.
//
// Структура:
//   - connection.go — соединение с reconnect и graceful shutdown
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Асинхронные запуски FLOW идут через единственный поток событий:
// API или scheduler создаёт run в статусе PENDING и публикует
// run.pending; воркер потребляет очередь и выполняет запуск целиком.
//
// Exchanges:
//   - voike.flow — события запусков
//   - voike.dlq  — dead letter queue для неразборных сообщений
package mq
