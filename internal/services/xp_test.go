package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
)

func TestGrantIfAllComplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "earner")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Exercise", 2)
	day := "2025-06-15"

	granted, err := env.xp.GrantIfAllComplete(ctx, u.ID, day)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if granted {
		t.Fatalf("granted XP for an incomplete day")
	}

	testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 1, 2, false, env.clock.Now())

	granted, err = env.xp.GrantIfAllComplete(ctx, u.ID, day)
	if err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !granted {
		t.Fatalf("completed day not granted")
	}

	prog, err := env.xp.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if prog.TotalXP != DefaultDailyXP {
		t.Fatalf("total xp = %d, want %d", prog.TotalXP, DefaultDailyXP)
	}
	if prog.Level != 1 || prog.CurrentLevelXP != DefaultDailyXP {
		t.Fatalf("level state = %d/%d", prog.Level, prog.CurrentLevelXP)
	}

	// Granting the same day again is a no-op.
	granted, err = env.xp.GrantIfAllComplete(ctx, u.ID, day)
	if err != nil {
		t.Fatalf("regrant: %v", err)
	}
	if granted {
		t.Fatalf("duplicate grant for the same day")
	}
	prog, err = env.xp.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if prog.TotalXP != DefaultDailyXP {
		t.Fatalf("total xp after regrant = %d, want %d", prog.TotalXP, DefaultDailyXP)
	}
}

func TestRevokeIfAnyIncomplete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "revokee")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Floss", 1)
	day := "2025-06-15"

	testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 1, 1, false, env.clock.Now())
	if _, err := env.xp.GrantIfAllComplete(ctx, u.ID, day); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Still complete: revoke declines.
	revoked, err := env.xp.RevokeIfAnyIncomplete(ctx, u.ID, day)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked {
		t.Fatalf("revoked a complete day")
	}

	// A decrement makes the day incomplete; the award is deleted, not
	// negated, and the aggregate follows the ledger.
	testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 2, -1, false, env.clock.Now())
	revoked, err = env.xp.RevokeIfAnyIncomplete(ctx, u.ID, day)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if !revoked {
		t.Fatalf("incomplete day not revoked")
	}

	awards, err := env.xp.ListAwards(ctx, u.ID)
	if err != nil {
		t.Fatalf("list awards: %v", err)
	}
	if len(awards) != 0 {
		t.Fatalf("award rows after revoke = %d, want 0", len(awards))
	}
	prog, err := env.xp.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if prog.TotalXP != 0 {
		t.Fatalf("total xp after revoke = %d, want 0", prog.TotalXP)
	}
}

// The stored aggregate must equal the award ledger sum after every
// grant and revoke, whatever the order.
func TestAggregateAlwaysEqualsLedgerSum(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "ledger")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Steps", 1)

	days := make([]string, 0, 10)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		days = append(days, base.AddDate(0, 0, i).Format("2006-01-02"))
	}

	for _, day := range days {
		testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 1, 1, false, env.clock.Now())
		if _, err := env.xp.GrantIfAllComplete(ctx, u.ID, day); err != nil {
			t.Fatalf("grant %s: %v", day, err)
		}
		assertLedgerConsistent(t, env, ctx, u.ID)
	}

	// Break every other day and revoke it.
	for i, day := range days {
		if i%2 != 0 {
			continue
		}
		testutil.SeedEvent(t, env.tx, u.ID, h.ID, day, 2, -1, false, env.clock.Now())
		if _, err := env.xp.RevokeIfAnyIncomplete(ctx, u.ID, day); err != nil {
			t.Fatalf("revoke %s: %v", day, err)
		}
		assertLedgerConsistent(t, env, ctx, u.ID)
	}

	prog, err := env.xp.GetProgress(ctx, u.ID)
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	wantTotal := 5 * DefaultDailyXP
	if prog.TotalXP != wantTotal {
		t.Fatalf("total xp = %d, want %d", prog.TotalXP, wantTotal)
	}
	if prog.Level != LevelForXP(wantTotal, DefaultLevelStepXP) {
		t.Fatalf("level = %d, want %d", prog.Level, LevelForXP(wantTotal, DefaultLevelStepXP))
	}
}

func assertLedgerConsistent(t *testing.T, env *testEnv, ctx context.Context, userID uuid.UUID) {
	t.Helper()
	sum, err := env.awards.SumXP(dbcFor(ctx), userID)
	if err != nil {
		t.Fatalf("sum xp: %v", err)
	}
	row, err := env.userProg.Get(dbcFor(ctx), userID)
	if err != nil {
		t.Fatalf("get aggregate: %v", err)
	}
	stored := 0
	if row != nil {
		stored = row.TotalXP
	}
	if stored != sum {
		t.Fatalf("aggregate %d diverged from ledger sum %d", stored, sum)
	}
	if row != nil {
		if row.Level != LevelForXP(sum, DefaultLevelStepXP) || row.CurrentLevelXP != CurrentLevelXP(sum, DefaultLevelStepXP) {
			t.Fatalf("level fields inconsistent with total: %+v", row)
		}
	}
}
