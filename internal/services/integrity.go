package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	redisclient "github.com/tbexley/habitledger-backend/internal/clients/redis"
	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	habitrepo "github.com/tbexley/habitledger-backend/internal/data/repos/habit"
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

// Award invalidity reasons.
const (
	ReasonNoScheduledHabits = "no_scheduled_habits"
	ReasonHabitsIncomplete  = "habits_incomplete"
)

// AwardValidation is the verdict for one ledger entry, re-derived from
// the store as it is now.
type AwardValidation struct {
	AwardID         uuid.UUID   `json:"award_id"`
	DateKey         string      `json:"date_key"`
	Valid           bool        `json:"valid"`
	Reason          string      `json:"reason,omitempty"`
	FailingHabitIDs []uuid.UUID `json:"failing_habit_ids,omitempty"`
}

// IntegrityConfig tunes the reconciliation skip heuristics.
type IntegrityConfig struct {
	// RecencyWindow protects records a live writer may just have touched.
	RecencyWindow time.Duration
	// DeltaThreshold is the largest |stored - recalculated| gap the
	// reconciler will overwrite without refusing.
	DeltaThreshold int
}

func (c IntegrityConfig) recency() time.Duration {
	if c.RecencyWindow > 0 {
		return c.RecencyWindow
	}
	return 5 * time.Minute
}

func (c IntegrityConfig) deltaThreshold() int {
	if c.DeltaThreshold > 0 {
		return c.DeltaThreshold
	}
	return 3
}

// IntegrityService audits and repairs the XP aggregate and completion
// records against their sources of truth.
type IntegrityService interface {
	Verify(ctx context.Context, userID uuid.UUID) (bool, error)
	Repair(ctx context.Context, userID uuid.UUID) error
	CheckAndRepair(ctx context.Context, userID uuid.UUID) error
	ValidateAwards(ctx context.Context, userID uuid.UUID) ([]AwardValidation, error)
	CleanupInvalidAwards(ctx context.Context, userID uuid.UUID) (int, error)
	// ReconcileCompletionRecord overwrites a completion record with the
	// event-derived value, unless a skip heuristic says the mismatch is
	// more likely concurrent activity than corruption. Returns whether
	// the record was rewritten.
	ReconcileCompletionRecord(ctx context.Context, userID, habitID uuid.UUID, dateKey string) (bool, error)
}

type integrityService struct {
	log      *logger.Logger
	cfg      IntegrityConfig
	xpCfg    XPConfig
	txr      aggregates.TxRunner
	locks    *userlock.Registry
	clock    clock.Clock
	schedule ScheduleService
	view     ProgressViewService
	goals    GoalService
	habits   habitrepo.HabitRepo
	events   progressrepo.EventRepo
	compl    progressrepo.CompletionRepo
	awards   progressrepo.AwardRepo
	userProg progressrepo.UserProgressRepo
	cache    *redisclient.AggregateCache
}

func NewIntegrityService(
	baseLog *logger.Logger,
	cfg IntegrityConfig,
	xpCfg XPConfig,
	txr aggregates.TxRunner,
	locks *userlock.Registry,
	clk clock.Clock,
	schedule ScheduleService,
	view ProgressViewService,
	goals GoalService,
	habits habitrepo.HabitRepo,
	events progressrepo.EventRepo,
	compl progressrepo.CompletionRepo,
	awards progressrepo.AwardRepo,
	userProg progressrepo.UserProgressRepo,
	cache *redisclient.AggregateCache,
) IntegrityService {
	return &integrityService{
		log:      baseLog.With("service", "IntegrityService"),
		cfg:      cfg,
		xpCfg:    xpCfg,
		txr:      txr,
		locks:    locks,
		clock:    clk,
		schedule: schedule,
		view:     view,
		goals:    goals,
		habits:   habits,
		events:   events,
		compl:    compl,
		awards:   awards,
		userProg: userProg,
		cache:    cache,
	}
}

func (s *integrityService) Verify(ctx context.Context, userID uuid.UUID) (bool, error) {
	if userID == uuid.Nil {
		return false, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	dbc := dbctx.From(ctx)
	ledgerSum, err := s.awards.SumXP(dbc, userID)
	if err != nil {
		return false, err
	}
	row, err := s.userProg.Get(dbc, userID)
	if err != nil {
		return false, err
	}
	stored := 0
	if row != nil {
		stored = row.TotalXP
	}
	consistent := stored == ledgerSum
	observability.Current().IncIntegrityCheck(consistent)
	if !consistent {
		s.log.Warn("XP aggregate mismatch",
			"user_id", userID.String(),
			"stored_total_xp", stored,
			"ledger_sum", ledgerSum,
		)
	}
	return consistent, nil
}

func (s *integrityService) Repair(ctx context.Context, userID uuid.UUID) error {
	if userID == uuid.Nil {
		return fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	err := s.locks.Do(userID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			return recomputeUserAggregate(dbc, s.awards, s.userProg, s.xpCfg, s.clock.Now(), userID, aggregates.WriterIntegrityService)
		})
	})
	if err != nil {
		return err
	}
	s.cache.Invalidate(ctx, userID)
	observability.Current().IncIntegrityRepair()
	s.log.Info("XP aggregate repaired", "user_id", userID.String())
	return nil
}

func (s *integrityService) CheckAndRepair(ctx context.Context, userID uuid.UUID) error {
	consistent, err := s.Verify(ctx, userID)
	if err != nil {
		return err
	}
	if consistent {
		return nil
	}
	return s.Repair(ctx, userID)
}

func (s *integrityService) ValidateAwards(ctx context.Context, userID uuid.UUID) ([]AwardValidation, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	awards, err := s.awards.ListByUser(dbctx.From(ctx), userID)
	if err != nil {
		return nil, err
	}
	if len(awards) == 0 {
		return nil, nil
	}

	out := make([]AwardValidation, len(awards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, award := range awards {
		g.Go(func() error {
			v, err := s.validateOne(gctx, userID, award)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateKey < out[j].DateKey })
	return out, nil
}

func (s *integrityService) validateOne(ctx context.Context, userID uuid.UUID, award *types.DailyAward) (AwardValidation, error) {
	v := AwardValidation{AwardID: award.ID, DateKey: award.DateKey}
	dbc := dbctx.From(ctx)

	scheduled, err := s.schedule.ScheduledHabitsTx(dbc, userID, award.DateKey)
	if err != nil {
		return v, err
	}
	if len(scheduled) == 0 {
		v.Reason = ReasonNoScheduledHabits
		return v, nil
	}

	skips, err := s.habitSkips(dbc, userID, award.DateKey)
	if err != nil {
		return v, err
	}
	var failing []uuid.UUID
	for _, h := range scheduled {
		if skips[h.ID] {
			continue
		}
		goal, err := s.goals.GoalAmountTx(dbc, h.ID, award.DateKey)
		if err != nil {
			return v, err
		}
		_, done, err := s.view.CurrentProgressTx(dbc, userID, h.ID, award.DateKey, goal, nil)
		if err != nil {
			return v, err
		}
		if !done {
			failing = append(failing, h.ID)
		}
	}
	if len(failing) > 0 {
		v.Reason = ReasonHabitsIncomplete
		v.FailingHabitIDs = failing
		return v, nil
	}
	v.Valid = true
	return v, nil
}

func (s *integrityService) habitSkips(dbc dbctx.Context, userID uuid.UUID, dateKey string) (map[uuid.UUID]bool, error) {
	set := map[uuid.UUID]bool{}
	scheduled, err := s.schedule.ScheduledHabitsTx(dbc, userID, dateKey)
	if err != nil {
		return nil, err
	}
	for _, h := range scheduled {
		skipped, err := s.schedule.IsSkipped(dbc.Ctx, h.ID, dateKey)
		if err != nil {
			return nil, err
		}
		if skipped {
			set[h.ID] = true
		}
	}
	return set, nil
}

// CleanupInvalidAwards removes every award that fails validation and
// recomputes the aggregate. When the user has no habit rows at all the
// store likely failed to load, so cleanup refuses rather than wiping
// the whole ledger.
func (s *integrityService) CleanupInvalidAwards(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	habitCount, err := s.habits.CountByUser(dbctx.From(ctx), userID)
	if err != nil {
		return 0, err
	}
	if habitCount == 0 {
		s.log.Warn("Skipping award cleanup, user has no habit rows", "user_id", userID.String())
		return 0, nil
	}

	validations, err := s.ValidateAwards(ctx, userID)
	if err != nil {
		return 0, err
	}
	var invalid []uuid.UUID
	for _, v := range validations {
		if !v.Valid {
			invalid = append(invalid, v.AwardID)
		}
	}
	if len(invalid) == 0 {
		return 0, nil
	}

	err = s.locks.Do(userID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			if err := s.awards.DeleteByIDs(dbc, invalid); err != nil {
				return err
			}
			return recomputeUserAggregate(dbc, s.awards, s.userProg, s.xpCfg, s.clock.Now(), userID, aggregates.WriterIntegrityService)
		})
	})
	if err != nil {
		return 0, err
	}
	s.cache.Invalidate(ctx, userID)
	observability.Current().AddAwardsCleaned(len(invalid))
	s.log.Info("Invalid awards removed", "user_id", userID.String(), "count", len(invalid))
	return len(invalid), nil
}

func (s *integrityService) ReconcileCompletionRecord(ctx context.Context, userID, habitID uuid.UUID, dateKey string) (bool, error) {
	if userID == uuid.Nil || habitID == uuid.Nil {
		return false, fmt.Errorf("%w: user and habit are required", apperr.ErrInvalidArgument)
	}
	if !progress.ValidDateKey(dateKey) {
		return false, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}
	reconciled := false
	err := s.locks.Do(userID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			rec, err := s.compl.Get(dbc, userID, habitID, dateKey)
			if err != nil {
				return err
			}
			if rec == nil {
				return nil
			}
			events, err := s.events.ListByHabitDay(dbc, habitID, dateKey)
			if err != nil {
				return err
			}
			recalc := 0
			for _, ev := range events {
				recalc += ev.ProgressDelta
			}
			if recalc < 0 {
				recalc = 0
			}
			if recalc == rec.Progress {
				return nil
			}

			if s.clock.Now().Sub(rec.UpdatedAt) < s.cfg.recency() {
				observability.Current().IncReconcileSkipped("recent_update")
				return nil
			}
			if recalc <= 0 && rec.Progress > 0 {
				// A zero recalculation against real stored progress is
				// more likely a partial event load than user intent.
				observability.Current().IncReconcileSkipped("suspicious_zero")
				return nil
			}
			if diff := recalc - rec.Progress; diff > s.cfg.deltaThreshold() || -diff > s.cfg.deltaThreshold() {
				observability.Current().IncReconcileSkipped("delta_too_large")
				s.log.Warn("Reconciliation delta exceeds threshold, leaving record",
					"user_id", userID.String(),
					"habit_id", habitID.String(),
					"date_key", dateKey,
					"stored", rec.Progress,
					"recalculated", recalc,
				)
				return nil
			}

			goal, err := s.goals.GoalAmountTx(dbc, habitID, dateKey)
			if err != nil {
				return err
			}
			rec.Progress = recalc
			rec.IsCompleted = recalc >= goal
			if err := s.compl.Upsert(dbc, rec); err != nil {
				return err
			}
			reconciled = true
			return nil
		})
	})
	if err != nil {
		return false, err
	}
	if reconciled {
		s.log.Info("Completion record reconciled",
			"user_id", userID.String(),
			"habit_id", habitID.String(),
			"date_key", dateKey,
		)
	}
	return reconciled, nil
}
