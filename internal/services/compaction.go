package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	progressrepo "github.com/tbexley/habitledger-backend/internal/data/repos/progress"
	userrepo "github.com/tbexley/habitledger-backend/internal/data/repos/user"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/observability"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/pkg/userlock"
	"github.com/tbexley/habitledger-backend/internal/platform/clock"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// DefaultCompactAgeDays is how old a synced event must be before a
// compaction pass will fold it away.
const DefaultCompactAgeDays = 7

// CompactionResult reports one pass over one or more users.
type CompactionResult struct {
	EventsProcessed int `json:"events_processed"`
	RecordsUpdated  int `json:"records_updated"`
	EventsDeleted   int `json:"events_deleted"`
}

func (r *CompactionResult) add(o CompactionResult) {
	r.EventsProcessed += o.EventsProcessed
	r.RecordsUpdated += o.RecordsUpdated
	r.EventsDeleted += o.EventsDeleted
}

// CompactionService folds old, synced progress events into their
// CompletionRecord and deletes them. Folding happens before deletion
// inside a single transaction per user, so an interrupted pass never
// loses progress data and rerunning it is safe.
type CompactionService interface {
	Compact(ctx context.Context) (CompactionResult, error)
	CompactWithThreshold(ctx context.Context, days int) (CompactionResult, error)
	CompactUser(ctx context.Context, userID uuid.UUID, ageDays int) (CompactionResult, error)
}

type compactionService struct {
	log     *logger.Logger
	ageDays int
	txr     aggregates.TxRunner
	locks   *userlock.Registry
	clock   clock.Clock
	users   userrepo.UserRepo
	events  progressrepo.EventRepo
	compl   progressrepo.CompletionRepo
	goals   GoalService
}

func NewCompactionService(
	baseLog *logger.Logger,
	ageDays int,
	txr aggregates.TxRunner,
	locks *userlock.Registry,
	clk clock.Clock,
	users userrepo.UserRepo,
	events progressrepo.EventRepo,
	compl progressrepo.CompletionRepo,
	goals GoalService,
) CompactionService {
	if ageDays <= 0 {
		ageDays = DefaultCompactAgeDays
	}
	return &compactionService{
		log:     baseLog.With("service", "CompactionService"),
		ageDays: ageDays,
		txr:     txr,
		locks:   locks,
		clock:   clk,
		users:   users,
		events:  events,
		compl:   compl,
		goals:   goals,
	}
}

func (s *compactionService) Compact(ctx context.Context) (CompactionResult, error) {
	return s.CompactWithThreshold(ctx, s.ageDays)
}

func (s *compactionService) CompactWithThreshold(ctx context.Context, days int) (CompactionResult, error) {
	if days <= 0 {
		days = s.ageDays
	}
	start := s.clock.Now()
	var total CompactionResult
	ids, err := s.users.ListIDs(dbctx.From(ctx))
	if err != nil {
		return total, err
	}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			observability.Current().ObserveCompaction("interrupted", total.EventsDeleted, total.RecordsUpdated, time.Since(start))
			return total, fmt.Errorf("compaction interrupted: %w", err)
		}
		res, err := s.CompactUser(ctx, id, days)
		total.add(res)
		if err != nil {
			observability.Current().ObserveCompaction("failed", total.EventsDeleted, total.RecordsUpdated, time.Since(start))
			return total, err
		}
	}
	observability.Current().ObserveCompaction("ok", total.EventsDeleted, total.RecordsUpdated, time.Since(start))
	if total.EventsDeleted > 0 {
		s.log.Info("Compaction pass complete",
			"events_processed", total.EventsProcessed,
			"records_updated", total.RecordsUpdated,
			"events_deleted", total.EventsDeleted,
		)
	}
	return total, nil
}

type foldGroup struct {
	habitID uuid.UUID
	dateKey string
	ids     []uuid.UUID
	sum     int
}

func (s *compactionService) CompactUser(ctx context.Context, userID uuid.UUID, ageDays int) (CompactionResult, error) {
	var result CompactionResult
	if userID == uuid.Nil {
		return result, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	if ageDays <= 0 {
		ageDays = s.ageDays
	}
	// The cutoff is fixed once per pass so a slow pass never widens its
	// own window.
	cutoff := s.clock.Now().Add(-time.Duration(ageDays) * 24 * time.Hour)

	err := s.locks.Do(userID, func() error {
		return s.txr.InTx(ctx, func(dbc dbctx.Context) error {
			events, err := s.events.ListCompactable(dbc, userID, cutoff)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				return nil
			}
			result.EventsProcessed = len(events)

			var groups []*foldGroup
			byKey := map[string]*foldGroup{}
			for _, ev := range events {
				k := ev.HabitID.String() + "|" + ev.DateKey
				g, ok := byKey[k]
				if !ok {
					g = &foldGroup{habitID: ev.HabitID, dateKey: ev.DateKey}
					byKey[k] = g
					groups = append(groups, g)
				}
				g.ids = append(g.ids, ev.ID)
				g.sum += ev.ProgressDelta
			}

			for _, g := range groups {
				if err := ctx.Err(); err != nil {
					return fmt.Errorf("compaction interrupted: %w", err)
				}
				folded := g.sum
				if folded < 0 {
					folded = 0
				}
				goal, err := s.goals.GoalAmountTx(dbc, g.habitID, g.dateKey)
				if err != nil {
					return err
				}
				// Live events shadow any stored record in the view, so
				// the fold result replaces the record outright. Adding
				// the two would double-count and change the value a
				// reader saw before the pass.
				rec := &types.CompletionRecord{
					UserID:      userID,
					HabitID:     g.habitID,
					DateKey:     g.dateKey,
					Progress:    folded,
					IsCompleted: folded >= goal,
				}
				if err := s.compl.Upsert(dbc, rec); err != nil {
					return err
				}
				result.RecordsUpdated++
				if err := s.events.HardDeleteByIDs(dbc, g.ids); err != nil {
					return err
				}
				result.EventsDeleted += len(g.ids)
			}
			return nil
		})
	})
	if err != nil {
		// The transaction rolled back; report nothing as applied.
		return CompactionResult{}, err
	}
	return result, nil
}
