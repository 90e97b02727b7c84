package habit

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type GoalRepo interface {
	Create(dbc dbctx.Context, row *types.HabitGoal) error
	ListByHabit(dbc dbctx.Context, habitID uuid.UUID) ([]*types.HabitGoal, error)
	// LatestEffective returns the goal row with the greatest
	// effective_from that is not after dateKey, or nil when none covers
	// the date.
	LatestEffective(dbc dbctx.Context, habitID uuid.UUID, dateKey string) (*types.HabitGoal, error)
}

type goalRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGoalRepo(db *gorm.DB, baseLog *logger.Logger) GoalRepo {
	return &goalRepo{db: db, log: baseLog.With("repo", "GoalRepo")}
}

func (r *goalRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *goalRepo) Create(dbc dbctx.Context, row *types.HabitGoal) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base(dbc).Create(row).Error
}

func (r *goalRepo) ListByHabit(dbc dbctx.Context, habitID uuid.UUID) ([]*types.HabitGoal, error) {
	var out []*types.HabitGoal
	if habitID == uuid.Nil {
		return out, nil
	}
	if err := r.base(dbc).
		Where("habit_id = ?", habitID).
		Order("effective_from DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *goalRepo) LatestEffective(dbc dbctx.Context, habitID uuid.UUID, dateKey string) (*types.HabitGoal, error) {
	if habitID == uuid.Nil || dateKey == "" {
		return nil, nil
	}
	var out types.HabitGoal
	err := r.base(dbc).
		Where("habit_id = ? AND effective_from <= ?", habitID, dateKey).
		Order("effective_from DESC").
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
