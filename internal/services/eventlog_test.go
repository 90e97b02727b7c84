package services

import (
	"context"
	"errors"
	"testing"

	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
)

func TestEventLogAppend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "appender")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Stretch", 3)

	ev1, err := env.eventLog.Append(ctx, AppendInput{
		UserID:        u.ID,
		HabitID:       h.ID,
		DateKey:       "2025-06-15",
		EventType:     "increment",
		ProgressDelta: 1,
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if ev1.SequenceNumber != 1 {
		t.Fatalf("first event sequence = %d, want 1", ev1.SequenceNumber)
	}
	if ev1.OperationID == "" {
		t.Fatalf("expected generated operation id")
	}
	if ev1.DeviceID != "test-device" {
		t.Fatalf("device id = %q", ev1.DeviceID)
	}

	ev2, err := env.eventLog.Append(ctx, AppendInput{
		UserID:        u.ID,
		HabitID:       h.ID,
		DateKey:       "2025-06-15",
		EventType:     "increment",
		ProgressDelta: 1,
	})
	if err != nil {
		t.Fatalf("append second: %v", err)
	}
	if ev2.SequenceNumber != 2 {
		t.Fatalf("second event sequence = %d, want 2", ev2.SequenceNumber)
	}
	if ev1.ID == ev2.ID {
		t.Fatalf("distinct appends produced the same event id")
	}
}

func TestEventLogAppendIdempotentRetry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "retrier")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Read", 1)

	in := AppendInput{
		UserID:        u.ID,
		HabitID:       h.ID,
		DateKey:       "2025-06-15",
		EventType:     "increment",
		ProgressDelta: 1,
		OperationID:   "op-retry-1",
	}
	first, err := env.eventLog.Append(ctx, in)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	second, err := env.eventLog.Append(ctx, in)
	if err != nil {
		t.Fatalf("retry append: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("retry created a new event: %s vs %s", first.ID, second.ID)
	}
	if second.SequenceNumber != first.SequenceNumber {
		t.Fatalf("retry changed sequence: %d vs %d", second.SequenceNumber, first.SequenceNumber)
	}

	events, err := env.events.ListByHabitDay(dbcFor(ctx), h.ID, "2025-06-15")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 stored event after retry, got %d", len(events))
	}
}

func TestEventLogAppendRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "validator")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Walk", 1)

	_, err := env.eventLog.Append(ctx, AppendInput{
		UserID:        u.ID,
		HabitID:       h.ID,
		DateKey:       "15-06-2025",
		EventType:     "increment",
		ProgressDelta: 1,
	})
	if !errors.Is(err, apperr.ErrInvalidDateKey) {
		t.Fatalf("bad date key: got %v, want ErrInvalidDateKey", err)
	}

	_, err = env.eventLog.Append(ctx, AppendInput{
		UserID:        u.ID,
		HabitID:       h.ID,
		DateKey:       "2025-06-15",
		EventType:     "teleport",
		ProgressDelta: 1,
	})
	if !errors.Is(err, apperr.ErrInvalidArgument) {
		t.Fatalf("bad event type: got %v, want ErrInvalidArgument", err)
	}
}
