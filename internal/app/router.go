package app

import (
	"github.com/google/uuid"

	httpserver "github.com/tbexley/habitledger-backend/internal/http"
	"github.com/tbexley/habitledger-backend/internal/observability"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

func wireServer(log *logger.Logger, metrics *observability.Metrics, defaultUserID uuid.UUID, handlers Handlers) *httpserver.Server {
	log.Info("Wiring router...")
	return httpserver.NewServer(httpserver.RouterConfig{
		Log:           log,
		Metrics:       metrics,
		DefaultUserID: defaultUserID,

		HealthHandler:   handlers.Health,
		UserHandler:     handlers.User,
		HabitHandler:    handlers.Habit,
		ProgressHandler: handlers.Progress,
		DayHandler:      handlers.Day,
		XPHandler:       handlers.XP,
		AdminHandler:    handlers.Admin,
	})
}
