package scheduler

import (
	"testing"
	"time"

	"github.com/voike/voike/internal/domain"
)

func TestCalculateNextDue_Interval(t *testing.T) {
	sched := &domain.Schedule{IntervalSec: 300, Timezone: "UTC"}
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue: %v", err)
	}

	want := from.Add(5 * time.Minute)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_Cron(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "0 9 * * *", Timezone: "UTC"}
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue: %v", err)
	}

	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_CronWithTimezone(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "0 9 * * *", Timezone: "Europe/Moscow"}
	// 12:00 UTC = 15:00 MSK, ближайшие 9:00 MSK — завтра
	from := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue: %v", err)
	}

	// 9:00 MSK = 6:00 UTC
	want := time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_CronTakesPrecedence(t *testing.T) {
	sched := &domain.Schedule{CronExpr: "*/5 * * * *", IntervalSec: 10, Timezone: "UTC"}
	from := time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC)

	next, err := CalculateNextDue(sched, from)
	if err != nil {
		t.Fatalf("CalculateNextDue: %v", err)
	}

	want := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("next = %v, want %v", next, want)
	}
}

func TestCalculateNextDue_Empty(t *testing.T) {
	sched := &domain.Schedule{Timezone: "UTC"}

	if _, err := CalculateNextDue(sched, time.Now()); err == nil {
		t.Fatal("expected error for schedule without trigger")
	}
}

func TestValidateCronExpr(t *testing.T) {
	if err := ValidateCronExpr("0 9 * * 1-5"); err != nil {
		t.Errorf("valid expression rejected: %v", err)
	}
	if err := ValidateCronExpr("not a cron"); err == nil {
		t.Error("invalid expression accepted")
	}
}
