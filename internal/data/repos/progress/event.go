package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type EventRepo interface {
	Insert(dbc dbctx.Context, row *types.ProgressEvent) error

	GetByOperationID(dbc dbctx.Context, userID uuid.UUID, operationID string) (*types.ProgressEvent, error)
	ListByHabitDay(dbc dbctx.Context, habitID uuid.UUID, dateKey string) ([]*types.ProgressEvent, error)
	ListCompactable(dbc dbctx.Context, userID uuid.UUID, before time.Time) ([]*types.ProgressEvent, error)

	MarkSynced(dbc dbctx.Context, ids []uuid.UUID) error
	Tombstone(dbc dbctx.Context, ids []uuid.UUID) error
	HardDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type eventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEventRepo(db *gorm.DB, baseLog *logger.Logger) EventRepo {
	return &eventRepo{db: db, log: baseLog.With("repo", "EventRepo")}
}

func (r *eventRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *eventRepo) Insert(dbc dbctx.Context, row *types.ProgressEvent) error {
	if row == nil {
		return nil
	}
	return r.base(dbc).Create(row).Error
}

func (r *eventRepo) GetByOperationID(dbc dbctx.Context, userID uuid.UUID, operationID string) (*types.ProgressEvent, error) {
	if userID == uuid.Nil || operationID == "" {
		return nil, nil
	}
	var out types.ProgressEvent
	err := r.base(dbc).
		Where("user_id = ? AND operation_id = ?", userID, operationID).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *eventRepo) ListByHabitDay(dbc dbctx.Context, habitID uuid.UUID, dateKey string) ([]*types.ProgressEvent, error) {
	var out []*types.ProgressEvent
	if habitID == uuid.Nil || dateKey == "" {
		return out, nil
	}
	if err := r.base(dbc).
		Where("habit_id = ? AND date_key = ?", habitID, dateKey).
		Order("device_id ASC, sequence_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListCompactable returns events eligible for compaction: synced, live
// (not tombstoned) and created strictly before the cutoff.
func (r *eventRepo) ListCompactable(dbc dbctx.Context, userID uuid.UUID, before time.Time) ([]*types.ProgressEvent, error) {
	var out []*types.ProgressEvent
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.base(dbc).
		Where("user_id = ? AND synced = ? AND created_at < ?", userID, true, before).
		Order("habit_id ASC, date_key ASC, device_id ASC, sequence_number ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *eventRepo) MarkSynced(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.base(dbc).Model(&types.ProgressEvent{}).
		Where("id IN ?", ids).
		Update("synced", true).Error
}

func (r *eventRepo) Tombstone(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.base(dbc).Where("id IN ?", ids).Delete(&types.ProgressEvent{}).Error
}

func (r *eventRepo) HardDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.base(dbc).Unscoped().Where("id IN ?", ids).Delete(&types.ProgressEvent{}).Error
}
