package habit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitSkip exempts one habit from one day's completion requirement.
// Skipping never counts against the day; a day where every scheduled habit
// is skipped still counts as complete.
type HabitSkip struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	HabitID uuid.UUID `gorm:"type:uuid;not null;index:idx_habit_skip_day,unique,priority:1" json:"habit_id"`
	Habit   *Habit    `gorm:"constraint:OnDelete:CASCADE;foreignKey:HabitID;references:ID" json:"habit,omitempty"`

	DateKey string `gorm:"column:date_key;not null;index:idx_habit_skip_day,unique,priority:2" json:"date_key"`
	Reason  string `gorm:"column:reason" json:"reason,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HabitSkip) TableName() string { return "habit_skip" }
