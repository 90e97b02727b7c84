package habit

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type SkipRepo interface {
	// Upsert records a skip for (habit, day); repeating it is a no-op.
	Upsert(dbc dbctx.Context, row *types.HabitSkip) error
	Exists(dbc dbctx.Context, habitID uuid.UUID, dateKey string) (bool, error)
	ListByUserDay(dbc dbctx.Context, userID uuid.UUID, dateKey string) ([]*types.HabitSkip, error)
	Remove(dbc dbctx.Context, habitID uuid.UUID, dateKey string) error
}

type skipRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSkipRepo(db *gorm.DB, baseLog *logger.Logger) SkipRepo {
	return &skipRepo{db: db, log: baseLog.With("repo", "SkipRepo")}
}

func (r *skipRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *skipRepo) Upsert(dbc dbctx.Context, row *types.HabitSkip) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "habit_id"}, {Name: "date_key"}},
		DoNothing: true,
	}).Create(row).Error
}

func (r *skipRepo) Exists(dbc dbctx.Context, habitID uuid.UUID, dateKey string) (bool, error) {
	if habitID == uuid.Nil || dateKey == "" {
		return false, nil
	}
	var n int64
	err := r.base(dbc).Model(&types.HabitSkip{}).
		Where("habit_id = ? AND date_key = ?", habitID, dateKey).
		Count(&n).Error
	return n > 0, err
}

func (r *skipRepo) ListByUserDay(dbc dbctx.Context, userID uuid.UUID, dateKey string) ([]*types.HabitSkip, error) {
	var out []*types.HabitSkip
	if userID == uuid.Nil || dateKey == "" {
		return out, nil
	}
	if err := r.base(dbc).
		Where("user_id = ? AND date_key = ?", userID, dateKey).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *skipRepo) Remove(dbc dbctx.Context, habitID uuid.UUID, dateKey string) error {
	if habitID == uuid.Nil || dateKey == "" {
		return nil
	}
	return r.base(dbc).
		Where("habit_id = ? AND date_key = ?", habitID, dateKey).
		Delete(&types.HabitSkip{}).Error
}
