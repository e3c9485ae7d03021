package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeFlow Exchange = "voike.flow"
	ExchangeDLQ  Exchange = "voike.dlq"
)

// Queues — имена очередей.
const (
	QueueRunsPending Queue = "runs.pending"
	QueueDLQRuns     Queue = "dlq.runs"
)

// Routing keys.
const (
	RoutingKeyPending RoutingKey = "pending"
	RoutingKeyDLQRuns RoutingKey = "runs"
)

// SetupTopology объявляет обменники, очереди и привязки.
// Идемпотентно: повторное объявление тех же сущностей безопасно.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		for _, ex := range []Exchange{ExchangeFlow, ExchangeDLQ} {
			err := ch.ExchangeDeclare(
				string(ex), // name
				"direct",   // type
				true,       // durable
				false,      // auto-deleted
				false,      // internal
				false,      // no-wait
				nil,        // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", ex, err)
			}
		}

		// runs.pending отправляет неразборные сообщения в DLQ
		queues := []struct {
			name Queue
			args amqp.Table
		}{
			{QueueRunsPending, amqp.Table{
				"x-dead-letter-exchange":    string(ExchangeDLQ),
				"x-dead-letter-routing-key": string(RoutingKeyDLQRuns),
			}},
			{QueueDLQRuns, nil},
		}
		for _, q := range queues {
			_, err := ch.QueueDeclare(
				string(q.name), // name
				true,           // durable
				false,          // delete when unused
				false,          // exclusive
				false,          // no-wait
				q.args,         // arguments
			)
			if err != nil {
				return fmt.Errorf("declare queue %s: %w", q.name, err)
			}
		}

		bindings := []struct {
			queue      Queue
			routingKey RoutingKey
			exchange   Exchange
		}{
			{QueueRunsPending, RoutingKeyPending, ExchangeFlow},
			{QueueDLQRuns, RoutingKeyDLQRuns, ExchangeDLQ},
		}
		for _, b := range bindings {
			err := ch.QueueBind(
				string(b.queue),      // queue name
				string(b.routingKey), // routing key
				string(b.exchange),   // exchange
				false,                // no-wait
				nil,                  // arguments
			)
			if err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Voike RabbitMQ Topology:

    voike.flow (direct)
    └── runs.pending [routing: pending]
            Consumer: Worker
            DLQ: dlq.runs

    voike.dlq (direct)
    └── dlq.runs [routing: runs]
            Manual processing
  `
}
