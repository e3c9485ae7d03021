package worker

import (
	"testing"
	"time"
)

func TestNew_DefaultConfig(t *testing.T) {
	w := New(Config{})

	if w.pollInterval != defaultPollInterval {
		t.Errorf("pollInterval = %v, want %v", w.pollInterval, defaultPollInterval)
	}
	if w.batchSize != defaultBatchSize {
		t.Errorf("batchSize = %d, want %d", w.batchSize, defaultBatchSize)
	}
	if w.logger == nil {
		t.Error("logger must be set")
	}
}

func TestNew_CustomConfig(t *testing.T) {
	w := New(Config{
		PollInterval: 3 * time.Second,
		BatchSize:    7,
	})

	if w.pollInterval != 3*time.Second {
		t.Errorf("pollInterval = %v, want 3s", w.pollInterval)
	}
	if w.batchSize != 7 {
		t.Errorf("batchSize = %d, want 7", w.batchSize)
	}
}

func TestWorker_IsStopped(t *testing.T) {
	w := New(Config{})

	if w.IsStopped() {
		t.Error("new worker must not be stopped")
	}

	w.Stop()

	if !w.IsStopped() {
		t.Error("worker must be stopped after Stop")
	}
}
