package app

import (
	"time"

	"github.com/tbexley/habitledger-backend/internal/platform/envutil"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
	"github.com/tbexley/habitledger-backend/internal/services"
)

type Config struct {
	HTTPAddr    string
	MetricsAddr string
	DataDir     string
	RedisAddr   string

	// Timezone drives local-day boundaries for date keys; the location
	// is resolved once at startup so every component shares it.
	Timezone string
	Location *time.Location

	XP services.XPConfig

	CompactAgeDays int
	CompactHour    int

	Integrity services.IntegrityConfig
}

func LoadConfig(log *logger.Logger) Config {
	tzName := envutil.String("TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Warn("Unknown TIMEZONE, falling back to system local", "timezone", tzName, "error", err)
		loc = time.Local
	}

	return Config{
		HTTPAddr:    envutil.String("HTTP_ADDR", ":8080"),
		MetricsAddr: envutil.String("METRICS_ADDR", ""),
		DataDir:     envutil.String("DATA_DIR", "./data"),
		RedisAddr:   envutil.String("REDIS_ADDR", ""),
		Timezone:    tzName,
		Location:    loc,
		XP: services.XPConfig{
			DailyXP:     envutil.Int("DAILY_XP", services.DefaultDailyXP),
			LevelStepXP: envutil.Int("LEVEL_STEP_XP", services.DefaultLevelStepXP),
		},
		CompactAgeDays: envutil.Int("COMPACT_AGE_DAYS", services.DefaultCompactAgeDays),
		CompactHour:    envutil.Int("COMPACT_HOUR", 3),
		Integrity: services.IntegrityConfig{
			RecencyWindow:  envutil.DurationSeconds("RECONCILE_RECENCY_SECONDS", 5*time.Minute),
			DeltaThreshold: envutil.Int("RECONCILE_DELTA_THRESHOLD", 3),
		},
	}
}
