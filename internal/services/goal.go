package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	habitrepo "github.com/tbexley/habitledger-backend/internal/data/repos/habit"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// GoalService answers "what was the goal for this habit on this day".
// Goals are date-versioned; changing one never rewrites history.
type GoalService interface {
	SetGoal(ctx context.Context, habitID uuid.UUID, amount int, effectiveFrom string) (*types.HabitGoal, error)
	GoalAmount(ctx context.Context, habitID uuid.UUID, dateKey string) (int, error)
	GoalAmountTx(dbc dbctx.Context, habitID uuid.UUID, dateKey string) (int, error)
	History(ctx context.Context, habitID uuid.UUID) ([]*types.HabitGoal, error)
}

type goalService struct {
	log    *logger.Logger
	habits habitrepo.HabitRepo
	goals  habitrepo.GoalRepo
}

func NewGoalService(baseLog *logger.Logger, habits habitrepo.HabitRepo, goals habitrepo.GoalRepo) GoalService {
	return &goalService{
		log:    baseLog.With("service", "GoalService"),
		habits: habits,
		goals:  goals,
	}
}

func (s *goalService) SetGoal(ctx context.Context, habitID uuid.UUID, amount int, effectiveFrom string) (*types.HabitGoal, error) {
	if habitID == uuid.Nil {
		return nil, fmt.Errorf("%w: habit is required", apperr.ErrInvalidArgument)
	}
	if amount < 1 {
		return nil, fmt.Errorf("%w: goal amount must be at least 1", apperr.ErrInvalidArgument)
	}
	if !progress.ValidDateKey(effectiveFrom) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, effectiveFrom)
	}
	dbc := dbctx.From(ctx)
	h, err := s.habits.GetByID(dbc, habitID)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: habit %s", apperr.ErrNotFound, habitID)
	}
	row := &types.HabitGoal{
		HabitID:       habitID,
		Amount:        amount,
		EffectiveFrom: effectiveFrom,
	}
	if err := s.goals.Create(dbc, row); err != nil {
		return nil, err
	}
	s.log.Info("Goal updated", "habit_id", habitID.String(), "amount", amount, "effective_from", effectiveFrom)
	return row, nil
}

func (s *goalService) GoalAmount(ctx context.Context, habitID uuid.UUID, dateKey string) (int, error) {
	return s.GoalAmountTx(dbctx.From(ctx), habitID, dateKey)
}

func (s *goalService) GoalAmountTx(dbc dbctx.Context, habitID uuid.UUID, dateKey string) (int, error) {
	row, err := s.goals.LatestEffective(dbc, habitID, dateKey)
	if err != nil {
		return 0, err
	}
	if row != nil {
		return row.Amount, nil
	}
	h, err := s.habits.GetByID(dbc, habitID)
	if err != nil {
		return 0, err
	}
	if h == nil {
		return 0, fmt.Errorf("%w: habit %s", apperr.ErrNotFound, habitID)
	}
	if h.GoalAmount < 1 {
		return 1, nil
	}
	return h.GoalAmount, nil
}

func (s *goalService) History(ctx context.Context, habitID uuid.UUID) ([]*types.HabitGoal, error) {
	return s.goals.ListByHabit(dbctx.From(ctx), habitID)
}
