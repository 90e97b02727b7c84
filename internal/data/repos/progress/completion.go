package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type CompletionRepo interface {
	Get(dbc dbctx.Context, userID, habitID uuid.UUID, dateKey string) (*types.CompletionRecord, error)
	Upsert(dbc dbctx.Context, row *types.CompletionRecord) error
	ListByUserDay(dbc dbctx.Context, userID uuid.UUID, dateKey string) ([]*types.CompletionRecord, error)
}

type completionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCompletionRepo(db *gorm.DB, baseLog *logger.Logger) CompletionRepo {
	return &completionRepo{db: db, log: baseLog.With("repo", "CompletionRepo")}
}

func (r *completionRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *completionRepo) Get(dbc dbctx.Context, userID, habitID uuid.UUID, dateKey string) (*types.CompletionRecord, error) {
	if userID == uuid.Nil || habitID == uuid.Nil || dateKey == "" {
		return nil, nil
	}
	var out types.CompletionRecord
	err := r.base(dbc).
		Where("user_id = ? AND habit_id = ? AND date_key = ?", userID, habitID, dateKey).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Upsert writes the folded values for the (user, habit, day) triple,
// creating the record when absent.
func (r *completionRepo) Upsert(dbc dbctx.Context, row *types.CompletionRecord) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return r.base(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "habit_id"}, {Name: "date_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"progress":     row.Progress,
			"is_completed": row.IsCompleted,
			"updated_at":   row.UpdatedAt,
		}),
	}).Create(row).Error
}

func (r *completionRepo) ListByUserDay(dbc dbctx.Context, userID uuid.UUID, dateKey string) ([]*types.CompletionRecord, error) {
	var out []*types.CompletionRecord
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
