package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbexley/habitledger-backend/internal/clients/redis"
	"github.com/tbexley/habitledger-backend/internal/db"
	httpserver "github.com/tbexley/habitledger-backend/internal/http"
	"github.com/tbexley/habitledger-backend/internal/jobs"
	"github.com/tbexley/habitledger-backend/internal/observability"
	"github.com/tbexley/habitledger-backend/internal/platform/device"
	"github.com/tbexley/habitledger-backend/internal/platform/envutil"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

const observabilityShutdownTimeout = 5 * time.Second

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *httpserver.Server
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services

	LocalUserID uuid.UUID

	cache     *redis.AggregateCache
	scheduler *jobs.Scheduler
	metrics   *observability.Metrics

	cancel       context.CancelFunc
	otelShutdown func(context.Context) error
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	metrics := observability.Init(log)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Sync()
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbs, err := db.New(log, cfg.DataDir)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		log.Sync()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	theDB := dbs.DB()

	dev, err := device.NewFileProvider(cfg.DataDir, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init device id: %w", err)
	}

	cache, err := redis.NewAggregateCache(context.Background(), cfg.RedisAddr, log)
	if err != nil {
		// Cache is an accelerator, not a dependency. Run without it.
		log.Warn("Redis unavailable, running without aggregate cache", "error", err)
		cache = nil
	}

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, dev, cache)

	// The local single-user install always has exactly one default user.
	localUser, err := serviceset.User.EnsureLocalUser(context.Background(),
		envutil.String("LOCAL_USER_NAME", "Local User"), cfg.Timezone)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("ensure local user: %w", err)
	}

	// Self-heal the XP aggregate before serving traffic.
	if err := serviceset.Integrity.CheckAndRepair(context.Background(), localUser.ID); err != nil {
		log.Warn("Startup integrity repair failed", "user_id", localUser.ID.String(), "error", err)
	}

	handlerset := wireHandlers(log, serviceset)
	server := wireServer(log, metrics, localUser.ID, handlerset)

	scheduler := jobs.NewScheduler(log, cfg.Location, serviceset.Compaction, serviceset.Integrity, reposet.User)

	return &App{
		Log:         log,
		DB:          theDB,
		Server:      server,
		Router:      server.Engine,
		Cfg:         cfg,
		Repos:       reposet,
		Services:    serviceset,
		LocalUserID: localUser.ID,
		cache:       cache,
		scheduler:   scheduler,
		metrics:     metrics,
	}, nil
}

func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.otelShutdown = observability.InitOTel(ctx, a.Log, observability.OtelConfig{
		ServiceName: "habitledger",
		Environment: envutil.String("ENVIRONMENT", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})

	if a.metrics != nil {
		a.metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.metrics.StartDBCollector(ctx, a.Log, a.DB)
		a.metrics.StartRedisCollector(ctx, a.Log, a.Cfg.RedisAddr)
	}

	return a.scheduler.Start(ctx, a.Cfg.CompactHour)
}

func (a *App) Run(addr string) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Server.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.scheduler != nil {
		a.scheduler.Stop()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), observabilityShutdownTimeout)
		_ = a.otelShutdown(shutdownCtx)
		cancel()
		a.otelShutdown = nil
	}
	a.cache.Close()
	if a.Log != nil {
		a.Log.Sync()
	}
}
