package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbexley/habitledger-backend/internal/data/aggregates"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type UserProgressRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error)
	// Upsert replaces the aggregate row. writerTag identifies the calling
	// component and is checked against the aggregate-writer allowlist.
	Upsert(dbc dbctx.Context, row *types.UserProgress, writerTag string) error
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return &userProgressRepo{db: db, log: baseLog.With("repo", "UserProgressRepo")}
}

func (r *userProgressRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var out types.UserProgress
	err := r.base(dbc).Where("user_id = ?", userID).First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *userProgressRepo) Upsert(dbc dbctx.Context, row *types.UserProgress, writerTag string) error {
	if row == nil {
		return nil
	}
	if err := aggregates.AssertAggregateWriter(writerTag); err != nil {
		return err
	}
	row.UpdatedAt = time.Now()
	return r.base(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_xp":         row.TotalXP,
			"level":            row.Level,
			"current_level_xp": row.CurrentLevelXP,
			"updated_at":       row.UpdatedAt,
		}),
	}).Create(row).Error
}
