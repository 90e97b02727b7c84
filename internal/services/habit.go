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
	"github.com/tbexley/habitledger-backend/internal/platform/clock"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type CreateHabitInput struct {
	UserID      uuid.UUID
	Name        string
	Notes       string
	GoalAmount  int
	WeekdayMask uint8
}

type UpdateHabitInput struct {
	Name        *string
	Notes       *string
	WeekdayMask *uint8
}

// HabitService manages the habit catalog and per-day skip records.
type HabitService interface {
	Create(ctx context.Context, in CreateHabitInput) (*types.Habit, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Habit, error)
	List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error)
	Update(ctx context.Context, id uuid.UUID, in UpdateHabitInput) (*types.Habit, error)
	Archive(ctx context.Context, id uuid.UUID) error

	Skip(ctx context.Context, userID, habitID uuid.UUID, dateKey string) error
	Unskip(ctx context.Context, habitID uuid.UUID, dateKey string) error
}

type habitService struct {
	log    *logger.Logger
	clock  clock.Clock
	habits habitrepo.HabitRepo
	skips  habitrepo.SkipRepo
}

func NewHabitService(baseLog *logger.Logger, clk clock.Clock, habits habitrepo.HabitRepo, skips habitrepo.SkipRepo) HabitService {
	return &habitService{
		log:    baseLog.With("service", "HabitService"),
		clock:  clk,
		habits: habits,
		skips:  skips,
	}
}

func (s *habitService) Create(ctx context.Context, in CreateHabitInput) (*types.Habit, error) {
	if in.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: user is required", apperr.ErrInvalidArgument)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrInvalidArgument)
	}
	goal := in.GoalAmount
	if goal < 1 {
		goal = 1
	}
	row := &types.Habit{
		UserID:      in.UserID,
		Name:        in.Name,
		Notes:       in.Notes,
		GoalAmount:  goal,
		WeekdayMask: in.WeekdayMask,
	}
	if err := s.habits.Create(dbctx.From(ctx), row); err != nil {
		return nil, err
	}
	s.log.Info("Habit created", "habit_id", row.ID.String(), "name", row.Name)
	return row, nil
}

func (s *habitService) Get(ctx context.Context, id uuid.UUID) (*types.Habit, error) {
	h, err := s.habits.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: habit %s", apperr.ErrNotFound, id)
	}
	return h, nil
}

func (s *habitService) List(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error) {
	return s.habits.ListByUser(dbctx.From(ctx), userID, includeArchived)
}

func (s *habitService) Update(ctx context.Context, id uuid.UUID, in UpdateHabitInput) (*types.Habit, error) {
	dbc := dbctx.From(ctx)
	h, err := s.habits.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, fmt.Errorf("%w: habit %s", apperr.ErrNotFound, id)
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		if *in.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", apperr.ErrInvalidArgument)
		}
		updates["name"] = *in.Name
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.WeekdayMask != nil {
		updates["weekday_mask"] = *in.WeekdayMask
	}
	if len(updates) == 0 {
		return h, nil
	}
	if err := s.habits.UpdateFields(dbc, id, updates); err != nil {
		return nil, err
	}
	return s.habits.GetByID(dbc, id)
}

func (s *habitService) Archive(ctx context.Context, id uuid.UUID) error {
	dbc := dbctx.From(ctx)
	h, err := s.habits.GetByID(dbc, id)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: habit %s", apperr.ErrNotFound, id)
	}
	if h.Archived() {
		return nil
	}
	return s.habits.Archive(dbc, id, s.clock.Now())
}

// Skip marks the habit as intentionally not done for the day. Skipped
// habits drop out of the day's completion criteria.
func (s *habitService) Skip(ctx context.Context, userID, habitID uuid.UUID, dateKey string) error {
	if !progress.ValidDateKey(dateKey) {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}
	dbc := dbctx.From(ctx)
	h, err := s.habits.GetByID(dbc, habitID)
	if err != nil {
		return err
	}
	if h == nil {
		return fmt.Errorf("%w: habit %s", apperr.ErrNotFound, habitID)
	}
	return s.skips.Upsert(dbc, &types.HabitSkip{
		UserID:  userID,
		HabitID: habitID,
		DateKey: dateKey,
	})
}

func (s *habitService) Unskip(ctx context.Context, habitID uuid.UUID, dateKey string) error {
	if !progress.ValidDateKey(dateKey) {
		return fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}
	return s.skips.Remove(dbctx.From(ctx), habitID, dateKey)
}
