package progress

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type SequenceRepo interface {
	// Next increments and returns the monotonic counter for the
	// (device, day) pair. Callers must hold the user's writer lock.
	Next(dbc dbctx.Context, deviceID, dateKey string) (int64, error)
}

type sequenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSequenceRepo(db *gorm.DB, baseLog *logger.Logger) SequenceRepo {
	return &sequenceRepo{db: db, log: baseLog.With("repo", "SequenceRepo")}
}

func (r *sequenceRepo) base(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *sequenceRepo) Next(dbc dbctx.Context, deviceID, dateKey string) (int64, error) {
	db := r.base(dbc)
	var row types.DeviceSequence
	err := db.Where("device_id = ? AND date_key = ?", deviceID, dateKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = types.DeviceSequence{
			ID:       uuid.New(),
			DeviceID: deviceID,
			DateKey:  dateKey,
			Counter:  1,
		}
		if err := db.Create(&row).Error; err != nil {
			return 0, err
		}
		return row.Counter, nil
	}
	if err != nil {
		return 0, err
	}
	row.Counter++
	if err := db.Model(&types.DeviceSequence{}).
		Where("id = ?", row.ID).
		Update("counter", row.Counter).Error; err != nil {
		return 0, err
	}
	return row.Counter, nil
}
