package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	userrepo "github.com/tbexley/habitledger-backend/internal/data/repos/user"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
	"github.com/tbexley/habitledger-backend/internal/services"
)

const (
	compactionRunTimeout = 5 * time.Minute
	integrityRunTimeout  = 2 * time.Minute
)

// Scheduler owns the background maintenance cadence: one compaction
// pass per day and one integrity sweep shortly after it.
type Scheduler struct {
	log        *logger.Logger
	cron       *cron.Cron
	compaction services.CompactionService
	integrity  services.IntegrityService
	users      userrepo.UserRepo
}

// cronLogger adapts the service logger to cron's logging interface so
// panics recovered inside jobs end up in the normal log stream.
type cronLogger struct {
	log *logger.Logger
}

func (cl cronLogger) Info(msg string, keysAndValues ...interface{}) {
	cl.log.Info(msg, keysAndValues...)
}

func (cl cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	cl.log.Error(msg, append(keysAndValues, "error", err)...)
}

func NewScheduler(
	baseLog *logger.Logger,
	loc *time.Location,
	compaction services.CompactionService,
	integrity services.IntegrityService,
	users userrepo.UserRepo,
) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	log := baseLog.With("component", "Scheduler")
	return &Scheduler{
		log: log,
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLogger{log: log})),
		),
		compaction: compaction,
		integrity:  integrity,
		users:      users,
	}
}

// Start registers the daily jobs and kicks off the cron loop.
// compactHour is the local hour (0-23) for the compaction pass; the
// integrity sweep follows thirty minutes later.
func (s *Scheduler) Start(ctx context.Context, compactHour int) error {
	if compactHour < 0 || compactHour > 23 {
		compactHour = 3
	}

	compactSpec := fmt.Sprintf("0 0 %d * * *", compactHour)
	if _, err := s.cron.AddFunc(compactSpec, func() { s.runCompaction(ctx) }); err != nil {
		return fmt.Errorf("schedule compaction: %w", err)
	}

	integritySpec := fmt.Sprintf("0 30 %d * * *", compactHour)
	if _, err := s.cron.AddFunc(integritySpec, func() { s.runIntegrity(ctx) }); err != nil {
		return fmt.Errorf("schedule integrity sweep: %w", err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started", "compact_spec", compactSpec, "integrity_spec", integritySpec)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	if s == nil || s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runCompaction(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, compactionRunTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.compaction.Compact(ctx)
	if err != nil {
		s.log.Error("Scheduled compaction failed",
			"error", err,
			"events_deleted", result.EventsDeleted,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}
	s.log.Info("Scheduled compaction finished",
		"events_processed", result.EventsProcessed,
		"records_updated", result.RecordsUpdated,
		"events_deleted", result.EventsDeleted,
		"duration_ms", time.Since(start).Milliseconds())
}

func (s *Scheduler) runIntegrity(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, integrityRunTimeout)
	defer cancel()

	ids, err := s.users.ListIDs(dbctx.From(ctx))
	if err != nil {
		s.log.Error("Integrity sweep could not list users", "error", err)
		return
	}
	repaired := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			s.log.Warn("Integrity sweep cut short", "error", err, "users_done", repaired)
			return
		}
		if err := s.integrity.CheckAndRepair(ctx, id); err != nil {
			s.log.Error("Integrity sweep failed for user", "user_id", id.String(), "error", err)
			continue
		}
		repaired++
	}
	s.log.Info("Integrity sweep finished", "users", len(ids))
}
