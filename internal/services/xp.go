package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/tbexley/habitledger-backend/internal/clients/redis"
	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	progressrepo "github.com/tbexley/habitledger-backend/internal/data/repos/progress"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	"github.com/tbexley/habitledger-backend/internal/observability"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/pkg/userlock"
	"github.com/tbexley/habitledger-backend/internal/platform/clock"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// XPConfig carries the tunable XP parameters. Zero values fall back to
// the package defaults.
type XPConfig struct {
	DailyXP     int
	LevelStepXP int
}

func (c XPConfig) dailyXP() int {
	if c.DailyXP > 0 {
		return c.DailyXP
	}
	return DefaultDailyXP
}

func (c XPConfig) stepXP() int {
	if c.LevelStepXP > 0 {
		return c.LevelStepXP
	}
	return DefaultLevelStepXP
}

// XPService owns the award ledger and the UserProgress aggregate. Award
// rows are the source of truth; the aggregate is recomputed as the full
// ledger sum inside the same transaction as any ledger change.
type XPService interface {
	GrantIfAllComplete(ctx context.Context, userID uuid.UUID, dateKey string) (bool, error)
	RevokeIfAnyIncomplete(ctx context.Context, userID uuid.UUID, dateKey string) (bool, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*types.UserProgress, error)
	ListAwards(ctx context.Context, userID uuid.UUID) ([]*types.DailyAward, error)
}

type xpService struct {
	log      *logger.Logger
	cfg      XPConfig
	txr      aggregates.TxRunner
	locks    *userlock.Registry
	clock    clock.Clock
	schedule ScheduleService
	awards   progressrepo.AwardRepo
	userProg progressrepo.UserProgressRepo
	cache    *redisclient.AggregateCache
}

func NewXPService(
	baseLog *logger.Logger,
	cfg XPConfig,
	txr aggregates.TxRunner,
	locks *userlock.Registry,
	clk clock.Clock,
	schedule ScheduleService,
	awards progressrepo.AwardRepo,
	userProg progressrepo.UserProgressRepo,
	cache *redisclient.AggregateCache,
) XPService {
	return &xpService{
		log:      baseLog.With("service", "XPService"),
		cfg:      cfg,
		txr:      txr,
		locks:    locks,
		clock:    clk,
		schedule: schedule,
		awards:   awards,
		userProg: userProg,
		cache:    cache,
	}
}

func (s *xpService) GrantIfAllComplete(ctx context.Context, userID uuid.UUID, dateKey string) (bool, error) {
	if userID == uuid.Nil {
		return false, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	if !progress.ValidDateKey(dateKey) {
		return false, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}

	granted := false
	err := s.locks.Do(userID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			existing, err := s.awards.Get(dbc, userID, dateKey)
			if err != nil {
				return err
			}
			if existing != nil {
				return nil
			}
			complete, err := s.schedule.AllCompleteTx(dbc, userID, dateKey)
			if err != nil {
				return err
			}
			if !complete {
				return nil
			}
			award := &types.DailyAward{
				ID:                 uuid.New(),
				UserID:             userID,
				DateKey:            dateKey,
				XPGranted:          s.cfg.dailyXP(),
				AllHabitsCompleted: true,
				CreatedAt:          s.clock.Now(),
			}
			if err := s.awards.Insert(dbc, award); err != nil {
				return err
			}
			if err := s.recomputeAggregate(dbc, userID, aggregates.WriterXPService); err != nil {
				return err
			}
			granted = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	if granted {
		s.cache.Invalidate(ctx, userID)
		observability.Current().IncXPGrant()
		s.log.Info("Daily XP granted", "user_id", userID.String(), "date_key", dateKey, "xp", s.cfg.dailyXP())
	}
	return granted, nil
}

func (s *xpService) RevokeIfAnyIncomplete(ctx context.Context, userID uuid.UUID, dateKey string) (bool, error) {
	if userID == uuid.Nil {
		return false, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	if !progress.ValidDateKey(dateKey) {
		return false, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}

	revoked := false
	err := s.locks.Do(userID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			existing, err := s.awards.Get(dbc, userID, dateKey)
			if err != nil {
				return err
			}
			if existing == nil {
				return nil
			}
			complete, err := s.schedule.AllCompleteTx(dbc, userID, dateKey)
			if err != nil {
				return err
			}
			if complete {
				return nil
			}
			if err := s.awards.DeleteByIDs(dbc, []uuid.UUID{existing.ID}); err != nil {
				return err
			}
			if err := s.recomputeAggregate(dbc, userID, aggregates.WriterXPService); err != nil {
				return err
			}
			revoked = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	if revoked {
		s.cache.Invalidate(ctx, userID)
		observability.Current().IncXPRevocation()
		s.log.Info("Daily XP revoked", "user_id", userID.String(), "date_key", dateKey)
	}
	return revoked, nil
}

func (s *xpService) GetProgress(ctx context.Context, userID uuid.UUID) (*types.UserProgress, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	if cached, ok := s.cache.GetProgress(ctx, userID); ok {
		return cached, nil
	}
	dbc := dbctx.From(ctx)
	row, err := s.userProg.Get(dbc, userID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &types.UserProgress{
			UserID:         userID,
			TotalXP:        0,
			Level:          1,
			CurrentLevelXP: 0,
		}
	}
	s.cache.SetProgress(ctx, row)
	return row, nil
}

func (s *xpService) ListAwards(ctx context.Context, userID uuid.UUID) ([]*types.DailyAward, error) {
	return s.awards.ListByUser(dbctx.From(ctx), userID)
}

// recomputeAggregate rewrites the UserProgress row from the full award
// ledger sum. Must run inside the same transaction as the ledger change.
func (s *xpService) recomputeAggregate(dbc dbctx.Context, userID uuid.UUID, writerTag string) error {
	return recomputeUserAggregate(dbc, s.awards, s.userProg, s.cfg, s.clock.Now(), userID, writerTag)
}

// recomputeUserAggregate is shared with the integrity repairer, which
// writes under its own aggregate-writer tag.
func recomputeUserAggregate(
	dbc dbctx.Context,
	awards progressrepo.AwardRepo,
	userProg progressrepo.UserProgressRepo,
	cfg XPConfig,
	now time.Time,
	userID uuid.UUID,
	writerTag string,
) error {
	total, err := awards.SumXP(dbc, userID)
	if err != nil {
		return err
	}
	step := cfg.stepXP()
	row := &types.UserProgress{
		UserID:         userID,
		TotalXP:        total,
		Level:          LevelForXP(total, step),
		CurrentLevelXP: CurrentLevelXP(total, step),
		UpdatedAt:      now,
	}
	return userProg.Upsert(dbc, row, writerTag)
}
