package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	habitrepo "github.com/tbexley/habitledger-backend/internal/data/repos/habit"
	progressrepo "github.com/tbexley/habitledger-backend/internal/data/repos/progress"
	"github.com/tbexley/habitledger-backend/internal/data/repos/testutil"
	userrepo "github.com/tbexley/habitledger-backend/internal/data/repos/user"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/pkg/userlock"
	"github.com/tbexley/habitledger-backend/internal/platform/clock"
	"github.com/tbexley/habitledger-backend/internal/platform/device"
)

// testEnv wires the full service stack against a per-test transaction.
// Service-level InTx calls become savepoints inside it, so everything a
// test writes is rolled back on cleanup.
type testEnv struct {
	tx    *gorm.DB
	clock *clock.Manual

	users       userrepo.UserRepo
	habits      habitrepo.HabitRepo
	goalsRepo   habitrepo.GoalRepo
	skips       habitrepo.SkipRepo
	events      progressrepo.EventRepo
	completions progressrepo.CompletionRepo
	awards      progressrepo.AwardRepo
	userProg    progressrepo.UserProgressRepo

	eventLog   EventLogService
	view       ProgressViewService
	goals      GoalService
	habitSvc   HabitService
	schedule   ScheduleService
	xp         XPService
	compaction CompactionService
	integrity  IntegrityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	clk := clock.NewManual(time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC))
	locks := userlock.NewRegistry()
	txr := aggregates.NewGormTxRunner(tx)

	env := &testEnv{
		tx:          tx,
		clock:       clk,
		users:       userrepo.NewUserRepo(tx, log),
		habits:      habitrepo.NewHabitRepo(tx, log),
		goalsRepo:   habitrepo.NewGoalRepo(tx, log),
		skips:       habitrepo.NewSkipRepo(tx, log),
		events:      progressrepo.NewEventRepo(tx, log),
		completions: progressrepo.NewCompletionRepo(tx, log),
		awards:      progressrepo.NewAwardRepo(tx, log),
		userProg:    progressrepo.NewUserProgressRepo(tx, log),
	}

	seq := progressrepo.NewSequenceRepo(tx, log)
	env.eventLog = NewEventLogService(log, txr, locks, clk, device.Static("test-device"), env.events, seq, time.UTC)
	env.view = NewProgressViewService(log, env.events, env.completions)
	env.goals = NewGoalService(log, env.habits, env.goalsRepo)
	env.habitSvc = NewHabitService(log, clk, env.habits, env.skips)
	env.schedule = NewScheduleService(log, env.habits, env.skips, env.goals, env.view)
	env.xp = NewXPService(log, XPConfig{}, txr, locks, clk, env.schedule, env.awards, env.userProg, nil)
	env.compaction = NewCompactionService(log, DefaultCompactAgeDays, txr, locks, clk, env.users, env.events, env.completions, env.goals)
	env.integrity = NewIntegrityService(
		log, IntegrityConfig{}, XPConfig{}, txr, locks, clk,
		env.schedule, env.view, env.goals,
		env.habits, env.events, env.completions, env.awards, env.userProg, nil,
	)
	return env
}

func dbcFor(ctx context.Context) dbctx.Context { return dbctx.From(ctx) }
