package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/tbexley/habitledger-backend/internal/domain/habit"
)

// CompletionRecord is the materialized view of one (user, habit, day):
// the folded progress value and completion flag. Events, when present,
// are authoritative over this record; the record is cache.
type CompletionRecord struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_day,unique,priority:1" json:"user_id"`

	HabitID uuid.UUID    `gorm:"type:uuid;not null;index:idx_completion_day,unique,priority:2" json:"habit_id"`
	Habit   *habit.Habit `gorm:"constraint:OnDelete:CASCADE;foreignKey:HabitID;references:ID" json:"habit,omitempty"`

	DateKey     string `gorm:"column:date_key;not null;index:idx_completion_day,unique,priority:3" json:"date_key"`
	Progress    int    `gorm:"column:progress;not null;default:0" json:"progress"`
	IsCompleted bool   `gorm:"column:is_completed;not null;default:false" json:"is_completed"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;index" json:"updated_at"`
}

func (CompletionRecord) TableName() string { return "completion_record" }
