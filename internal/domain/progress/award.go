package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/domain/user"
)

// DailyAward is one ledger entry: XP granted for one fully-completed day.
// At most one row exists per (user, day); the ledger is the sole source of
// truth for total XP. Entries are deleted, never negated, when a day is
// later found incomplete.
type DailyAward struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index:idx_award_day,unique,priority:1" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	DateKey            string `gorm:"column:date_key;not null;index:idx_award_day,unique,priority:2" json:"date_key"`
	XPGranted          int    `gorm:"column:xp_granted;not null" json:"xp_granted"`
	AllHabitsCompleted bool   `gorm:"column:all_habits_completed;not null;default:true" json:"all_habits_completed"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
}

func (DailyAward) TableName() string { return "daily_award" }
