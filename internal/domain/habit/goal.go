package habit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitGoal is a date-versioned goal amount. The row effective for a date
// is the one with the greatest EffectiveFrom not after that date; a goal
// set "effective from" a date never rewrites progress recorded before it.
type HabitGoal struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	HabitID uuid.UUID `gorm:"type:uuid;not null;index;index:idx_habit_goal_effective,unique,priority:1" json:"habit_id"`
	Habit   *Habit    `gorm:"constraint:OnDelete:CASCADE;foreignKey:HabitID;references:ID" json:"habit,omitempty"`

	Amount int `gorm:"not null" json:"amount"`
	// EffectiveFrom is a local date key ("YYYY-MM-DD").
	EffectiveFrom string `gorm:"column:effective_from;not null;index:idx_habit_goal_effective,unique,priority:2" json:"effective_from"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (HabitGoal) TableName() string { return "habit_goal" }
