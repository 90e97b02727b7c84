package services

import (
	"context"
	"testing"

	habitdomain "github.com/tbexley/habitledger-backend/internal/domain/habit"

	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
)

// 2025-06-15 is a Sunday, 2025-06-16 a Monday.
const (
	sunday = "2025-06-15"
	monday = "2025-06-16"
)

func TestScheduledHabitsRespectsWeekdayMask(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "scheduler")

	daily := testutil.SeedHabit(t, env.tx, u.ID, "Daily", 1)
	weekdayOnly := testutil.SeedHabit(t, env.tx, u.ID, "Weekdays", 1)
	if err := env.habits.UpdateFields(dbcFor(ctx), weekdayOnly.ID, map[string]interface{}{
		"weekday_mask": habitdomain.Monday | habitdomain.Tuesday | habitdomain.Wednesday | habitdomain.Thursday | habitdomain.Friday,
	}); err != nil {
		t.Fatalf("set mask: %v", err)
	}

	onSunday, err := env.schedule.ScheduledHabits(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("scheduled sunday: %v", err)
	}
	if len(onSunday) != 1 || onSunday[0].ID != daily.ID {
		t.Fatalf("sunday schedule: got %d habits, want only the daily one", len(onSunday))
	}

	onMonday, err := env.schedule.ScheduledHabits(ctx, u.ID, monday)
	if err != nil {
		t.Fatalf("scheduled monday: %v", err)
	}
	if len(onMonday) != 2 {
		t.Fatalf("monday schedule: got %d habits, want 2", len(onMonday))
	}
}

func TestScheduledHabitsExcludesArchived(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "archiver")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Old", 1)

	if err := env.habitSvc.Archive(ctx, h.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}
	scheduled, err := env.schedule.ScheduledHabits(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("scheduled: %v", err)
	}
	if len(scheduled) != 0 {
		t.Fatalf("archived habit still scheduled")
	}
}

func TestAllCompleteRules(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "completer")

	// No habits at all: a day with nothing scheduled is not complete.
	complete, err := env.schedule.AllComplete(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("all complete: %v", err)
	}
	if complete {
		t.Fatalf("day with zero scheduled habits reported complete")
	}

	h1 := testutil.SeedHabit(t, env.tx, u.ID, "One", 1)
	h2 := testutil.SeedHabit(t, env.tx, u.ID, "Two", 2)

	complete, err = env.schedule.AllComplete(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("all complete: %v", err)
	}
	if complete {
		t.Fatalf("incomplete habits reported complete")
	}

	testutil.SeedEvent(t, env.tx, u.ID, h1.ID, sunday, 1, 1, false, env.clock.Now())
	testutil.SeedEvent(t, env.tx, u.ID, h2.ID, sunday, 1, 2, false, env.clock.Now())

	complete, err = env.schedule.AllComplete(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("all complete: %v", err)
	}
	if !complete {
		t.Fatalf("day with all goals met reported incomplete")
	}
}

func TestAllCompleteSkippedHabits(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "skipper")
	h1 := testutil.SeedHabit(t, env.tx, u.ID, "Done", 1)
	h2 := testutil.SeedHabit(t, env.tx, u.ID, "Skipped", 1)

	testutil.SeedEvent(t, env.tx, u.ID, h1.ID, sunday, 1, 1, false, env.clock.Now())
	if err := env.habitSvc.Skip(ctx, u.ID, h2.ID, sunday); err != nil {
		t.Fatalf("skip: %v", err)
	}

	complete, err := env.schedule.AllComplete(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("all complete: %v", err)
	}
	if !complete {
		t.Fatalf("skipped habit should not block completion")
	}

	// Everything skipped still counts as a completed day.
	if err := env.habitSvc.Skip(ctx, u.ID, h1.ID, sunday); err != nil {
		t.Fatalf("skip: %v", err)
	}
	complete, err = env.schedule.AllComplete(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("all complete: %v", err)
	}
	if !complete {
		t.Fatalf("all-skipped day reported incomplete")
	}
}

func TestDaySummary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "summarizer")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Run", 2)

	testutil.SeedEvent(t, env.tx, u.ID, h.ID, sunday, 1, 1, false, env.clock.Now())

	sum, err := env.schedule.Summary(ctx, u.ID, sunday)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum.Habits) != 1 {
		t.Fatalf("summary habits = %d, want 1", len(sum.Habits))
	}
	st := sum.Habits[0]
	if st.Progress != 1 || st.Goal != 2 || st.IsCompleted {
		t.Fatalf("habit status = %+v", st)
	}
	if sum.AllComplete {
		t.Fatalf("summary should not be all-complete")
	}
}

func TestGoalVersioningInSchedule(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := testutil.SeedUser(t, env.tx, "goalsetter")
	h := testutil.SeedHabit(t, env.tx, u.ID, "Pages", 2)

	// Raise the goal from Monday; Sunday keeps the old target.
	if _, err := env.goals.SetGoal(ctx, h.ID, 5, monday); err != nil {
		t.Fatalf("set goal: %v", err)
	}

	got, err := env.goals.GoalAmount(ctx, h.ID, sunday)
	if err != nil {
		t.Fatalf("goal sunday: %v", err)
	}
	if got != 2 {
		t.Fatalf("sunday goal = %d, want base 2", got)
	}
	got, err = env.goals.GoalAmount(ctx, h.ID, monday)
	if err != nil {
		t.Fatalf("goal monday: %v", err)
	}
	if got != 5 {
		t.Fatalf("monday goal = %d, want 5", got)
	}

	testutil.SeedEvent(t, env.tx, u.ID, h.ID, sunday, 1, 2, false, env.clock.Now())
	done, err := env.schedule.MeetsCompletionCriteria(ctx, u.ID, h.ID, sunday)
	if err != nil {
		t.Fatalf("meets criteria: %v", err)
	}
	if !done {
		t.Fatalf("sunday should be complete against the pre-change goal")
	}
}
