package app

import (
	httpH "github.com/tbexley/habitledger-backend/internal/http/handlers"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type Handlers struct {
	Health   *httpH.HealthHandler
	User     *httpH.UserHandler
	Habit    *httpH.HabitHandler
	Progress *httpH.ProgressHandler
	Day      *httpH.DayHandler
	XP       *httpH.XPHandler
	Admin    *httpH.AdminHandler
}

func wireHandlers(log *logger.Logger, svcs Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		User:     httpH.NewUserHandler(svcs.User),
		Habit:    httpH.NewHabitHandler(svcs.Habit, svcs.Goal),
		Progress: httpH.NewProgressHandler(svcs.EventLog, svcs.View, svcs.Goal),
		Day:      httpH.NewDayHandler(svcs.Schedule),
		XP:       httpH.NewXPHandler(svcs.XP),
		Admin:    httpH.NewAdminHandler(svcs.Compaction, svcs.Integrity),
	}
}
