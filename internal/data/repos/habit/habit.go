package habit

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type HabitRepo interface {
	Create(dbc dbctx.Context, row *types.Habit) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Habit, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error)
	CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	Archive(dbc dbctx.Context, id uuid.UUID, at time.Time) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type habitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHabitRepo(db *gorm.DB, baseLog *logger.Logger) HabitRepo {
	return &habitRepo{db: db, log: baseLog.With("repo", "HabitRepo")}
}

func (r *habitRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *habitRepo) Create(dbc dbctx.Context, row *types.Habit) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base(dbc).Create(row).Error
}

func (r *habitRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Habit, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out types.Habit
	err := r.base(dbc).Where("id = ?", id).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *habitRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, includeArchived bool) ([]*types.Habit, error) {
	var out []*types.Habit
	if userID == uuid.Nil {
		return out, nil
	}
	q := r.base(dbc).Where("user_id = ?", userID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CountByUser counts every habit row for the user, archived included.
// The integrity cleanup pass uses this as its empty-store guard.
func (r *habitRepo) CountByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	var n int64
	if userID == uuid.Nil {
		return 0, nil
	}
	err := r.base(dbc).Model(&types.Habit{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *habitRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return r.base(dbc).Model(&types.Habit{}).Where("id = ?", id).Updates(updates).Error
}

func (r *habitRepo) Archive(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	if id == uuid.Nil {
		return nil
	}
	return r.base(dbc).Model(&types.Habit{}).Where("id = ?", id).Update("archived_at", at).Error
}

func (r *habitRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.base(dbc).Where("id IN ?", ids).Delete(&types.Habit{}).Error
}
