package habit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
)

func TestHabitRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewHabitRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "eva")

	h1 := &types.Habit{UserID: u.ID, Name: "run", GoalAmount: 1}
	h2 := &types.Habit{UserID: u.ID, Name: "read", GoalAmount: 20}
	if err := repo.Create(dbc, h1); err != nil {
		t.Fatalf("Create h1: %v", err)
	}
	if err := repo.Create(dbc, h2); err != nil {
		t.Fatalf("Create h2: %v", err)
	}

	if got, err := repo.GetByID(dbc, h1.ID); err != nil || got == nil || got.Name != "run" {
		t.Fatalf("GetByID: got=%v err=%v", got, err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID, false); err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser: err=%v len=%d", err, len(rows))
	}
	if n, err := repo.CountByUser(dbc, u.ID); err != nil || n != 2 {
		t.Fatalf("CountByUser: n=%d err=%v", n, err)
	}

	if err := repo.UpdateFields(dbc, h2.ID, map[string]interface{}{"goal_amount": 30}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	if got, _ := repo.GetByID(dbc, h2.ID); got.GoalAmount != 30 {
		t.Fatalf("UpdateFields not applied: %+v", got)
	}

	if err := repo.Archive(dbc, h1.ID, time.Now()); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID, false); err != nil || len(rows) != 1 {
		t.Fatalf("ListByUser excludes archived: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.ListByUser(dbc, u.ID, true); err != nil || len(rows) != 2 {
		t.Fatalf("ListByUser includeArchived: err=%v len=%d", err, len(rows))
	}
	// Archived habits still count as habit records.
	if n, err := repo.CountByUser(dbc, u.ID); err != nil || n != 2 {
		t.Fatalf("CountByUser after archive: n=%d err=%v", n, err)
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{h1.ID, h2.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.ListByUser(dbc, u.ID, true); err != nil || len(rows) != 0 {
		t.Fatalf("ListByUser after delete: err=%v len=%d", err, len(rows))
	}
}

func TestGoalRepoDateVersioning(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewGoalRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "finn")
	h := testutil.SeedHabit(t, tx, u.ID, "pushups", 10)

	g1 := &types.HabitGoal{HabitID: h.ID, Amount: 10, EffectiveFrom: "2025-01-01"}
	g2 := &types.HabitGoal{HabitID: h.ID, Amount: 20, EffectiveFrom: "2025-03-01"}
	if err := repo.Create(dbc, g1); err != nil {
		t.Fatalf("Create g1: %v", err)
	}
	if err := repo.Create(dbc, g2); err != nil {
		t.Fatalf("Create g2: %v", err)
	}

	// Before the first effective date nothing covers the day.
	if got, err := repo.LatestEffective(dbc, h.ID, "2024-12-31"); err != nil || got != nil {
		t.Fatalf("LatestEffective before: got=%v err=%v", got, err)
	}
	if got, err := repo.LatestEffective(dbc, h.ID, "2025-02-15"); err != nil || got == nil || got.Amount != 10 {
		t.Fatalf("LatestEffective mid: got=%v err=%v", got, err)
	}
	// The boundary day picks up the new goal.
	if got, err := repo.LatestEffective(dbc, h.ID, "2025-03-01"); err != nil || got == nil || got.Amount != 20 {
		t.Fatalf("LatestEffective boundary: got=%v err=%v", got, err)
	}
	if rows, err := repo.ListByHabit(dbc, h.ID); err != nil || len(rows) != 2 || rows[0].Amount != 20 {
		t.Fatalf("ListByHabit: err=%v rows=%v", err, rows)
	}
}

func TestSkipRepoIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewSkipRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "gus")
	h := testutil.SeedHabit(t, tx, u.ID, "meditate", 1)

	s := &types.HabitSkip{UserID: u.ID, HabitID: h.ID, DateKey: "2025-03-01", Reason: "travel"}
	if err := repo.Upsert(dbc, s); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.Upsert(dbc, &types.HabitSkip{UserID: u.ID, HabitID: h.ID, DateKey: "2025-03-01"}); err != nil {
		t.Fatalf("Upsert repeat: %v", err)
	}

	if ok, err := repo.Exists(dbc, h.ID, "2025-03-01"); err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}
	if rows, err := repo.ListByUserDay(dbc, u.ID, "2025-03-01"); err != nil || len(rows) != 1 {
		t.Fatalf("ListByUserDay: err=%v len=%d", err, len(rows))
	}

	if err := repo.Remove(dbc, h.ID, "2025-03-01"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, _ := repo.Exists(dbc, h.ID, "2025-03-01"); ok {
		t.Fatal("skip still present after Remove")
	}
}
