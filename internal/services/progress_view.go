package services

import (
	"context"

	"github.com/google/uuid"

	progressrepo "github.com/tbexley/habitledger-backend/internal/data/repos/progress"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// ProgressViewService derives a habit's progress for one day from the
// event log. The view is read-only; events stay authoritative.
type ProgressViewService interface {
	// CurrentProgress returns the day's progress and whether it meets
	// the goal. With zero live events it falls back to legacyFallback
	// when given, else the persisted CompletionRecord, else zero.
	CurrentProgress(ctx context.Context, userID, habitID uuid.UUID, dateKey string, goal int, legacyFallback *int) (int, bool, error)

	// CurrentProgressTx is CurrentProgress inside an existing transaction.
	CurrentProgressTx(dbc dbctx.Context, userID, habitID uuid.UUID, dateKey string, goal int, legacyFallback *int) (int, bool, error)
}

type progressViewService struct {
	log         *logger.Logger
	events      progressrepo.EventRepo
	completions progressrepo.CompletionRepo
}

func NewProgressViewService(
	baseLog *logger.Logger,
	events progressrepo.EventRepo,
	completions progressrepo.CompletionRepo,
) ProgressViewService {
	return &progressViewService{
		log:         baseLog.With("service", "ProgressViewService"),
		events:      events,
		completions: completions,
	}
}

func (s *progressViewService) CurrentProgress(ctx context.Context, userID, habitID uuid.UUID, dateKey string, goal int, legacyFallback *int) (int, bool, error) {
	return s.CurrentProgressTx(dbctx.From(ctx), userID, habitID, dateKey, goal, legacyFallback)
}

func (s *progressViewService) CurrentProgressTx(dbc dbctx.Context, userID, habitID uuid.UUID, dateKey string, goal int, legacyFallback *int) (int, bool, error) {
	events, err := s.events.ListByHabitDay(dbc, habitID, dateKey)
	if err != nil {
		return 0, false, err
	}

	if len(events) == 0 {
		p := 0
		switch {
		case legacyFallback != nil:
			p = *legacyFallback
		default:
			rec, err := s.completions.Get(dbc, userID, habitID, dateKey)
			if err != nil {
				return 0, false, err
			}
			if rec != nil {
				p = rec.Progress
			}
		}
		if p < 0 {
			p = 0
		}
		return p, completed(p, goal), nil
	}

	total := 0
	for _, ev := range events {
		total += ev.ProgressDelta
	}
	if total < 0 {
		total = 0
	}
	return total, completed(total, goal), nil
}

func completed(progress, goal int) bool {
	if goal <= 0 {
		goal = 1
	}
	return progress >= goal
}
