package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	habitrepo "github.com/tbexley/habitledger-backend/internal/data/repos/habit"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// HabitDayStatus is one habit's standing within a day summary.
type HabitDayStatus struct {
	HabitID     uuid.UUID `json:"habit_id"`
	Name        string    `json:"name"`
	Goal        int       `json:"goal"`
	Progress    int       `json:"progress"`
	IsCompleted bool      `json:"is_completed"`
	Skipped     bool      `json:"skipped"`
}

// DaySummary is the full per-day picture used by the XP and integrity
// services and exposed over the API.
type DaySummary struct {
	DateKey     string           `json:"date_key"`
	Habits      []HabitDayStatus `json:"habits"`
	AllComplete bool             `json:"all_complete"`
}

// ScheduleService decides which habits count on a given day and whether
// the day as a whole is complete.
type ScheduleService interface {
	// ScheduledHabits returns the non-archived habits whose weekday mask
	// covers the day. Skips do not remove a habit from this list.
	ScheduledHabits(ctx context.Context, userID uuid.UUID, dateKey string) ([]*types.Habit, error)
	ScheduledHabitsTx(dbc dbctx.Context, userID uuid.UUID, dateKey string) ([]*types.Habit, error)

	IsSkipped(ctx context.Context, habitID uuid.UUID, dateKey string) (bool, error)
	MeetsCompletionCriteria(ctx context.Context, userID, habitID uuid.UUID, dateKey string) (bool, error)

	// AllComplete reports whether every scheduled, non-skipped habit met
	// its goal. A day with no scheduled habits at all is not complete; a
	// day whose scheduled habits were all skipped is.
	AllComplete(ctx context.Context, userID uuid.UUID, dateKey string) (bool, error)
	AllCompleteTx(dbc dbctx.Context, userID uuid.UUID, dateKey string) (bool, error)

	Summary(ctx context.Context, userID uuid.UUID, dateKey string) (*DaySummary, error)
}

type scheduleService struct {
	log    *logger.Logger
	habits habitrepo.HabitRepo
	skips  habitrepo.SkipRepo
	goals  GoalService
	view   ProgressViewService
}

func NewScheduleService(
	baseLog *logger.Logger,
	habits habitrepo.HabitRepo,
	skips habitrepo.SkipRepo,
	goals GoalService,
	view ProgressViewService,
) ScheduleService {
	return &scheduleService{
		log:    baseLog.With("service", "ScheduleService"),
		habits: habits,
		skips:  skips,
		goals:  goals,
		view:   view,
	}
}

func weekdayOf(dateKey string) (time.Weekday, error) {
	t, err := time.Parse(progress.DateKeyLayout, dateKey)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}
	return t.Weekday(), nil
}

func (s *scheduleService) ScheduledHabits(ctx context.Context, userID uuid.UUID, dateKey string) ([]*types.Habit, error) {
	return s.ScheduledHabitsTx(dbctx.From(ctx), userID, dateKey)
}

func (s *scheduleService) ScheduledHabitsTx(dbc dbctx.Context, userID uuid.UUID, dateKey string) ([]*types.Habit, error) {
	if !progress.ValidDateKey(dateKey) {
		return nil, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}
	wd, err := weekdayOf(dateKey)
	if err != nil {
		return nil, err
	}
	all, err := s.habits.ListByUser(dbc, userID, false)
	if err != nil {
		return nil, err
	}
	var out []*types.Habit
	for _, h := range all {
		if h.ScheduledOn(wd) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *scheduleService) IsSkipped(ctx context.Context, habitID uuid.UUID, dateKey string) (bool, error) {
	return s.skips.Exists(dbctx.From(ctx), habitID, dateKey)
}

func (s *scheduleService) MeetsCompletionCriteria(ctx context.Context, userID, habitID uuid.UUID, dateKey string) (bool, error) {
	dbc := dbctx.From(ctx)
	goal, err := s.goals.GoalAmountTx(dbc, habitID, dateKey)
	if err != nil {
		return false, err
	}
	_, done, err := s.view.CurrentProgressTx(dbc, userID, habitID, dateKey, goal, nil)
	return done, err
}

func (s *scheduleService) AllComplete(ctx context.Context, userID uuid.UUID, dateKey string) (bool, error) {
	return s.AllCompleteTx(dbctx.From(ctx), userID, dateKey)
}

func (s *scheduleService) AllCompleteTx(dbc dbctx.Context, userID uuid.UUID, dateKey string) (bool, error) {
	scheduled, err := s.ScheduledHabitsTx(dbc, userID, dateKey)
	if err != nil {
		return false, err
	}
	if len(scheduled) == 0 {
		return false, nil
	}
	skipped, err := s.skippedSet(dbc, userID, dateKey)
	if err != nil {
		return false, err
	}
	active := 0
	for _, h := range scheduled {
		if skipped[h.ID] {
			continue
		}
		active++
		goal, err := s.goals.GoalAmountTx(dbc, h.ID, dateKey)
		if err != nil {
			return false, err
		}
		_, done, err := s.view.CurrentProgressTx(dbc, userID, h.ID, dateKey, goal, nil)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
	}
	// active == 0 means every scheduled habit was skipped on purpose,
	// which still counts as a completed day.
	return true, nil
}

func (s *scheduleService) Summary(ctx context.Context, userID uuid.UUID, dateKey string) (*DaySummary, error) {
	dbc := dbctx.From(ctx)
	scheduled, err := s.ScheduledHabitsTx(dbc, userID, dateKey)
	if err != nil {
		return nil, err
	}
	skipped, err := s.skippedSet(dbc, userID, dateKey)
	if err != nil {
		return nil, err
	}
	out := &DaySummary{DateKey: dateKey, Habits: make([]HabitDayStatus, 0, len(scheduled))}
	allComplete := len(scheduled) > 0
	for _, h := range scheduled {
		goal, err := s.goals.GoalAmountTx(dbc, h.ID, dateKey)
		if err != nil {
			return nil, err
		}
		p, done, err := s.view.CurrentProgressTx(dbc, userID, h.ID, dateKey, goal, nil)
		if err != nil {
			return nil, err
		}
		st := HabitDayStatus{
			HabitID:     h.ID,
			Name:        h.Name,
			Goal:        goal,
			Progress:    p,
			IsCompleted: done,
			Skipped:     skipped[h.ID],
		}
		if !st.Skipped && !st.IsCompleted {
			allComplete = false
		}
		out.Habits = append(out.Habits, st)
	}
	out.AllComplete = allComplete
	return out, nil
}

func (s *scheduleService) skippedSet(dbc dbctx.Context, userID uuid.UUID, dateKey string) (map[uuid.UUID]bool, error) {
	rows, err := s.skips.ListByUserDay(dbc, userID, dateKey)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]bool, len(rows))
	for _, r := range rows {
		set[r.HabitID] = true
	}
	return set, nil
}
