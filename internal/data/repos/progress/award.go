package progress

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type AwardRepo interface {
	Insert(dbc dbctx.Context, row *types.DailyAward) error
	Get(dbc dbctx.Context, userID uuid.UUID, dateKey string) (*types.DailyAward, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.DailyAward, error)
	SumXP(dbc dbctx.Context, userID uuid.UUID) (int, error)
	DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type awardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAwardRepo(db *gorm.DB, baseLog *logger.Logger) AwardRepo {
	return &awardRepo{db: db, log: baseLog.With("repo", "AwardRepo")}
}

func (r *awardRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *awardRepo) Insert(dbc dbctx.Context, row *types.DailyAward) error {
	if row == nil {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	return r.base(dbc).Create(row).Error
}

func (r *awardRepo) Get(dbc dbctx.Context, userID uuid.UUID, dateKey string) (*types.DailyAward, error) {
	if userID == uuid.Nil || dateKey == "" {
		return nil, nil
	}
	var out types.DailyAward
	err := r.base(dbc).
		Where("user_id = ? AND date_key = ?", userID, dateKey).
		First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *awardRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.DailyAward, error) {
	var out []*types.DailyAward
	if userID == uuid.Nil {
		return out, nil
	}
	if err := r.base(dbc).
		Where("user_id = ?", userID).
		Order("date_key ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SumXP is the ledger sum, the authoritative total XP for the user.
func (r *awardRepo) SumXP(dbc dbctx.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, nil
	}
	var total int64
	err := r.base(dbc).Model(&types.DailyAward{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(xp_granted), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return int(total), nil
}

func (r *awardRepo) DeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.base(dbc).Where("id IN ?", ids).Delete(&types.DailyAward{}).Error
}
