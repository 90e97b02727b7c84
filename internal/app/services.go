package app

import (
	"gorm.io/gorm"

	"github.com/tbexley/habitledger-backend/internal/clients/redis"
	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	"github.com/tbexley/habitledger-backend/internal/pkg/userlock"
	"github.com/tbexley/habitledger-backend/internal/platform/clock"
	"github.com/tbexley/habitledger-backend/internal/platform/device"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type Services struct {
	User       services.UserService
	Habit      services.HabitService
	Goal       services.GoalService
	EventLog   services.EventLogService
	View       services.ProgressViewService
	Schedule   services.ScheduleService
	XP         services.XPService
	Compaction services.CompactionService
	Integrity  services.IntegrityService
}

func wireServices(
	db *gorm.DB,
	log *logger.Logger,
	cfg Config,
	repos Repos,
	dev device.Provider,
	cache *redis.AggregateCache,
) Services {
	log.Info("Wiring services...")

	clk := clock.System()
	txr := aggregates.NewGormTxRunner(db)
	locks := userlock.NewRegistry()

	user := services.NewUserService(log, repos.User)
	habit := services.NewHabitService(log, clk, repos.Habit, repos.Skip)
	goal := services.NewGoalService(log, repos.Habit, repos.Goal)
	view := services.NewProgressViewService(log, repos.Event, repos.Completion)
	schedule := services.NewScheduleService(log, repos.Habit, repos.Skip, goal, view)
	eventLog := services.NewEventLogService(log, txr, locks, clk, dev, repos.Event, repos.Sequence, cfg.Location)
	xp := services.NewXPService(log, cfg.XP, txr, locks, clk, schedule, repos.Award, repos.UserProgress, cache)
	compaction := services.NewCompactionService(log, cfg.CompactAgeDays, txr, locks, clk, repos.User, repos.Event, repos.Completion, goal)
	integrity := services.NewIntegrityService(
		log, cfg.Integrity, cfg.XP, txr, locks, clk,
		schedule, view, goal,
		repos.Habit, repos.Event, repos.Completion, repos.Award, repos.UserProgress,
		cache,
	)

	return Services{
		User:       user,
		Habit:      habit,
		Goal:       goal,
		EventLog:   eventLog,
		View:       view,
		Schedule:   schedule,
		XP:         xp,
		Compaction: compaction,
		Integrity:  integrity,
	}
}
