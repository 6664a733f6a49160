package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTick_RunsJobsInOrder(t *testing.T) {
	var order []string

	r := NewRunner("0 2 * * *", []Job{
		{Name: "ingest", Run: func(context.Context) error {
			order = append(order, "ingest")
			return nil
		}},
		{Name: "qualify", Run: func(context.Context) error {
			order = append(order, "qualify")
			return nil
		}},
	}, discardLogger())

	r.tick(context.Background())

	if len(order) != 2 || order[0] != "ingest" || order[1] != "qualify" {
		t.Fatalf("expected jobs in registration order, got %v", order)
	}
}

func TestTick_JobErrorDoesNotStopCycle(t *testing.T) {
	var ran bool

	r := NewRunner("0 2 * * *", []Job{
		{Name: "broken", Run: func(context.Context) error {
			return errors.New("boom")
		}},
		{Name: "healthy", Run: func(context.Context) error {
			ran = true
			return nil
		}},
	}, discardLogger())

	r.tick(context.Background())

	if !ran {
		t.Fatal("a failing job must not block the next one")
	}
}

func TestTick_StopsOnCancelledContext(t *testing.T) {
	var ran bool

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRunner("0 2 * * *", []Job{
		{Name: "skipped", Run: func(context.Context) error {
			ran = true
			return nil
		}},
	}, discardLogger())

	r.tick(ctx)

	if ran {
		t.Fatal("a cancelled context must skip remaining jobs")
	}
}

func TestStart_InvalidSpec(t *testing.T) {
	r := NewRunner("not a cron spec", nil, discardLogger())
	if err := r.Start(context.Background()); err == nil {
		t.Fatal("expected error for an invalid cron spec")
	}
}

func TestStart_BlocksUntilCancelled(t *testing.T) {
	r := NewRunner("@every 1h", nil, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after context cancellation")
	}
}
