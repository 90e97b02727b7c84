package habit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbexley/habitledger-backend/internal/domain/user"
)

// Weekday bits for Habit.WeekdayMask, Monday first. A zero mask means the
// habit is scheduled every day.
const (
	Monday uint8 = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
	EveryDay uint8 = 0
)

type Habit struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Name  string `gorm:"not null" json:"name"`
	Notes string `gorm:"column:notes" json:"notes,omitempty"`

	// GoalAmount is the base daily goal, used when no date-versioned
	// HabitGoal row covers a date.
	GoalAmount  int   `gorm:"column:goal_amount;not null;default:1" json:"goal_amount"`
	WeekdayMask uint8 `gorm:"column:weekday_mask;not null;default:0" json:"weekday_mask"`

	ArchivedAt *time.Time     `gorm:"column:archived_at;index" json:"archived_at,omitempty"`
	CreatedAt  time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Habit) TableName() string { return "habit" }

// ScheduledOn reports whether the habit is scheduled on the given weekday.
func (h *Habit) ScheduledOn(wd time.Weekday) bool {
	if h.WeekdayMask == EveryDay {
		return true
	}
	var bit uint8
	switch wd {
	case time.Monday:
		bit = Monday
	case time.Tuesday:
		bit = Tuesday
	case time.Wednesday:
		bit = Wednesday
	case time.Thursday:
		bit = Thursday
	case time.Friday:
		bit = Friday
	case time.Saturday:
		bit = Saturday
	case time.Sunday:
		bit = Sunday
	}
	return h.WeekdayMask&bit != 0
}

func (h *Habit) Archived() bool { return h.ArchivedAt != nil }
