package services

import (
	"context"
	"testing"

	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/pointers"
)

func TestCurrentProgressSumsEvents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "viewer")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Pushups", 3)
	day := "2025-06-15"

	for i, delta := range []int{1, 1, -1, 1, 1} {
		testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, int64(i+1), delta, false, env.clock.Now())
	}

	p, done, err := env.view.CurrentProgress(ctx, u.ID, h.ID, day, 3, nil)
	if err != nil {
		t.Fatalf("current progress: %v", err)
	}
	if p != 3 {
		t.Fatalf("progress = %d, want 3", p)
	}
	if !done {
		t.Fatalf("expected goal met at progress 3 / goal 3")
	}
}

func TestCurrentProgressClampsNegative(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "clamper")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Meditate", 1)
	day := "2025-06-15"

	testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 1, 1, false, env.clock.Now())
	testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 2, -3, false, env.clock.Now())

	p, done, err := env.view.CurrentProgress(ctx, u.ID, h.ID, day, 1, nil)
	if err != nil {
		t.Fatalf("current progress: %v", err)
	}
	if p != 0 || done {
		t.Fatalf("got progress=%d done=%v, want 0/false", p, done)
	}
}

// Events always win over the fallback, even when the fallback claims
// more progress.
func TestCurrentProgressEventsBeatFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "authoritative")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Journal", 5)
	day := "2025-06-15"

	testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 1, 2, false, env.clock.Now())

	p, done, err := env.view.CurrentProgress(ctx, u.ID, h.ID, day, 5, pointers.Int(5))
	if err != nil {
		t.Fatalf("current progress: %v", err)
	}
	if p != 2 || done {
		t.Fatalf("got progress=%d done=%v, want 2/false (events authoritative)", p, done)
	}
}

func TestCurrentProgressFallbackChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "fallback")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Hydrate", 2)
	day := "2025-06-15"

	// No events, no record, no legacy value.
	p, done, err := env.view.CurrentProgress(ctx, u.ID, h.ID, day, 2, nil)
	if err != nil {
		t.Fatalf("current progress: %v", err)
	}
	if p != 0 || done {
		t.Fatalf("empty store: got %d/%v, want 0/false", p, done)
	}

	// Legacy fallback wins over the record.
	p, done, err = env.view.CurrentProgress(ctx, u.ID, h.ID, day, 2, pointers.Int(2))
	if err != nil {
		t.Fatalf("current progress: %v", err)
	}
	if p != 2 || !done {
		t.Fatalf("legacy fallback: got %d/%v, want 2/true", p, done)
	}

	// With a persisted record and no legacy value, the record is used.
	rec := &types.CompletionRecord{UserID: u.ID, HabitID: h.ID, DateKey: day, Progress: 1, IsCompleted: false}
	if err := env.completions.Upsert(dbcFor(ctx), rec); err != nil {
		t.Fatalf("upsert record: %v", err)
	}
	p, done, err = env.view.CurrentProgress(ctx, u.ID, h.ID, day, 2, nil)
	if err != nil {
		t.Fatalf("current progress: %v", err)
	}
	if p != 1 || done {
		t.Fatalf("record fallback: got %d/%v, want 1/false", p, done)
	}
}
