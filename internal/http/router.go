package http

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	httpH "github.com/tbexley/habitledger-backend/internal/http/handlers"
	httpMW "github.com/tbexley/habitledger-backend/internal/http/middleware"
	"github.com/tbexley/habitledger-backend/internal/observability"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	// DefaultUserID is the local user every request falls back to when
	// no X-User-Id header is present.
	DefaultUserID uuid.UUID

	UserHandler     *httpH.UserHandler
	HabitHandler    *httpH.HabitHandler
	ProgressHandler *httpH.ProgressHandler
	DayHandler      *httpH.DayHandler
	XPHandler       *httpH.XPHandler
	AdminHandler    *httpH.AdminHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.Default()
	r.Use(httpMW.CORS())
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		api.Use(httpMW.ResolveUser(cfg.DefaultUserID))

		// User (Me)
		if cfg.UserHandler != nil {
			api.GET("/me", cfg.UserHandler.GetMe)
		}

		// Habit catalog
		if cfg.HabitHandler != nil {
			api.POST("/habits", cfg.HabitHandler.Create)
			api.GET("/habits", cfg.HabitHandler.List)
			api.GET("/habits/:id", cfg.HabitHandler.Get)
			api.PATCH("/habits/:id", cfg.HabitHandler.Update)
			api.DELETE("/habits/:id", cfg.HabitHandler.Archive)
			api.POST("/habits/:id/skip", cfg.HabitHandler.Skip)
			api.POST("/habits/:id/goal", cfg.HabitHandler.SetGoal)
			api.GET("/habits/:id/goals", cfg.HabitHandler.GoalHistory)
		}

		// Progress event log + materialized view
		if cfg.ProgressHandler != nil {
			api.POST("/progress/events", cfg.ProgressHandler.AppendEvent)
			api.GET("/habits/:id/progress", cfg.ProgressHandler.GetHabitProgress)
		}

		// Day summary
		if cfg.DayHandler != nil {
			api.GET("/days/:date/summary", cfg.DayHandler.Summary)
		}

		// XP ledger + aggregate
		if cfg.XPHandler != nil {
			api.POST("/xp/grant", cfg.XPHandler.Grant)
			api.POST("/xp/revoke", cfg.XPHandler.Revoke)
			api.GET("/xp", cfg.XPHandler.GetProgress)
			api.GET("/xp/awards", cfg.XPHandler.ListAwards)
		}

		// Maintenance
		if cfg.AdminHandler != nil {
			api.POST("/admin/compact", cfg.AdminHandler.Compact)
			api.POST("/admin/integrity/run", cfg.AdminHandler.RunIntegrity)
		}
	}

	return r
}
