package mq

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// fakeAck фиксирует подтверждение, отданное consumer'ом.
type fakeAck struct {
	acked   bool
	nacked  bool
	requeue bool
}

func (f *fakeAck) Ack(_ uint64, _ bool) error { f.acked = true; return nil }

func (f *fakeAck) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func (f *fakeAck) Reject(_ uint64, requeue bool) error {
	f.nacked = true
	f.requeue = requeue
	return nil
}

func testConsumer(handler Handler) *Consumer {
	return NewConsumer(nil, slog.Default(), ConsumerConfig{
		Queue:   "runs.pending",
		Handler: handler,
	})
}

func TestDispatch_AckOnSuccess(t *testing.T) {
	c := testConsumer(func(_ context.Context, _ *Delivery) error { return nil })

	ack := &fakeAck{}
	c.dispatch(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"id":"m1","type":"run.pending","payload":{}}`),
	})

	if !ack.acked || ack.nacked {
		t.Errorf("expected ack, got %+v", ack)
	}
}

func TestDispatch_FirstFailureRequeues(t *testing.T) {
	c := testConsumer(func(_ context.Context, _ *Delivery) error {
		return errors.New("boom")
	})

	ack := &fakeAck{}
	c.dispatch(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`{"id":"m1","type":"run.pending","payload":{}}`),
	})

	if !ack.nacked || !ack.requeue {
		t.Errorf("expected nack with requeue, got %+v", ack)
	}
}

func TestDispatch_RedeliveredFailureGoesToDLQ(t *testing.T) {
	c := testConsumer(func(_ context.Context, _ *Delivery) error {
		return errors.New("boom")
	})

	ack := &fakeAck{}
	c.dispatch(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Redelivered:  true,
		Body:         []byte(`{"id":"m1","type":"run.pending","payload":{}}`),
	})

	// Повторная неудача не крутится в очереди бесконечно
	if !ack.nacked || ack.requeue {
		t.Errorf("expected nack without requeue, got %+v", ack)
	}
}

func TestDispatch_MalformedBodyGoesToDLQ(t *testing.T) {
	called := false
	c := testConsumer(func(_ context.Context, _ *Delivery) error {
		called = true
		return nil
	})

	ack := &fakeAck{}
	c.dispatch(context.Background(), amqp.Delivery{
		Acknowledger: ack,
		Body:         []byte(`not json`),
	})

	if called {
		t.Error("handler must not see a malformed message")
	}
	if !ack.nacked || ack.requeue {
		t.Errorf("expected nack without requeue, got %+v", ack)
	}
}

func TestParsePayload_RoundTrip(t *testing.T) {
	runID := uuid.New()
	msg := &Message{
		ID:      "m1",
		Type:    MessageTypeRunPending,
		Payload: map[string]any{"run_id": runID.String()},
	}

	payload, err := ParsePayload[RunPendingPayload](msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.RunID != runID {
		t.Errorf("expected run_id %s, got %s", runID, payload.RunID)
	}
}
