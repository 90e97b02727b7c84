package progress

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
)

func TestEventRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewEventRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "amy")
	h := testutil.SeedHabit(t, tx, u.ID, "run", 1)

	now := time.Now()
	e1 := testutil.SeedEvent(t, tx, u.ID, h.ID, "2025-03-01", 1, 1, true, now.Add(-10*24*time.Hour))
	e2 := testutil.SeedEvent(t, tx, u.ID, h.ID, "2025-03-01", 2, -1, false, now.Add(-10*24*time.Hour))
	e3 := testutil.SeedEvent(t, tx, u.ID, h.ID, "2025-03-02", 3, 1, true, now)

	if got, err := repo.GetByOperationID(dbc, u.ID, e1.OperationID); err != nil || got == nil || got.ID != e1.ID {
		t.Fatalf("GetByOperationID: got=%v err=%v", got, err)
	}
	if got, err := repo.GetByOperationID(dbc, u.ID, "missing-op"); err != nil || got != nil {
		t.Fatalf("GetByOperationID missing: got=%v err=%v", got, err)
	}

	if rows, err := repo.ListByHabitDay(dbc, h.ID, "2025-03-01"); err != nil || len(rows) != 2 {
		t.Fatalf("ListByHabitDay: err=%v len=%d", err, len(rows))
	}

	// Only synced events older than the cutoff are compactable.
	cutoff := now.Add(-7 * 24 * time.Hour)
	rows, err := repo.ListCompactable(dbc, u.ID, cutoff)
	if err != nil || len(rows) != 1 || rows[0].ID != e1.ID {
		t.Fatalf("ListCompactable: err=%v rows=%v", err, rows)
	}

	if err := repo.MarkSynced(dbc, []uuid.UUID{e2.ID}); err != nil {
		t.Fatalf("MarkSynced: %v", err)
	}
	rows, err = repo.ListCompactable(dbc, u.ID, cutoff)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListCompactable after MarkSynced: err=%v len=%d", err, len(rows))
	}

	// Tombstoned events disappear from reads.
	if err := repo.Tombstone(dbc, []uuid.UUID{e2.ID}); err != nil {
		t.Fatalf("Tombstone: %v", err)
	}
	if rows, err := repo.ListByHabitDay(dbc, h.ID, "2025-03-01"); err != nil || len(rows) != 1 {
		t.Fatalf("ListByHabitDay after Tombstone: err=%v len=%d", err, len(rows))
	}

	if err := repo.HardDeleteByIDs(dbc, []uuid.UUID{e1.ID, e3.ID}); err != nil {
		t.Fatalf("HardDeleteByIDs: %v", err)
	}
	if rows, err := repo.ListByHabitDay(dbc, h.ID, "2025-03-02"); err != nil || len(rows) != 0 {
		t.Fatalf("ListByHabitDay after HardDelete: err=%v len=%d", err, len(rows))
	}
}

func TestEventRepoDuplicateIdentityRejected(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewEventRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "bo")
	h := testutil.SeedHabit(t, tx, u.ID, "read", 1)
	ev := testutil.SeedEvent(t, tx, u.ID, h.ID, "2025-03-01", 1, 1, false, time.Now())

	dup := *ev
	dup.OperationID = uuid.New().String()
	if err := repo.Insert(dbc, &dup); err == nil {
		t.Fatal("expected duplicate composite identity to be rejected")
	}
}

func TestSequenceRepoMonotonicPerDeviceDay(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSequenceRepo(db, testutil.Logger(t))

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(dbc, "dev-1", "2025-03-01")
		if err != nil || got != want {
			t.Fatalf("Next: got=%d want=%d err=%v", got, want, err)
		}
	}
	// Independent counters per day and per device.
	if got, err := repo.Next(dbc, "dev-1", "2025-03-02"); err != nil || got != 1 {
		t.Fatalf("Next other day: got=%d err=%v", got, err)
	}
	if got, err := repo.Next(dbc, "dev-2", "2025-03-01"); err != nil || got != 1 {
		t.Fatalf("Next other device: got=%d err=%v", got, err)
	}
}
