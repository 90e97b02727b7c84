package db

import (
	"fmt"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/platform/envutil"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// Service owns the gorm handle. The default driver is an on-disk sqlite
// file under the data directory; DB_DRIVER=postgres switches to the
// POSTGRES_* connection settings.
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func New(log *logger.Logger, dataDir string) (*Service, error) {
	serviceLog := log.With("service", "DBService")

	driver := envutil.String("DB_DRIVER", "sqlite")

	var (
		dial gorm.Dialector
		desc string
	)
	switch driver {
	case "postgres":
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "habitledger")
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		dial = postgres.Open(dsn)
		desc = fmt.Sprintf("postgres %s:%s/%s", host, port, name)
	case "sqlite":
		path := filepath.Join(dataDir, "habitledger.db")
		dial = sqlite.Open("file:" + path + "?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
		desc = "sqlite " + path
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}

	log.Info("Connecting to database...", "target", desc)
	db, err := gorm.Open(dial, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Error("Failed to connect to database", "target", desc, "error", err)
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Service{db: db, log: serviceLog}, nil
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Habit{},
		&types.HabitGoal{},
		&types.HabitSkip{},
		&types.ProgressEvent{},
		&types.DeviceSequence{},
		&types.CompletionRecord{},
		&types.DailyAward{},
		&types.UserProgress{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
