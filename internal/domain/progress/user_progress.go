package progress

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is the derived XP aggregate. TotalXP must always equal the
// sum of the user's daily awards; the row is a reconcilable projection,
// never independently authoritative, and only the aggregate recompute
// path may write it.
type UserProgress struct {
	UserID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalXP        int       `gorm:"column:total_xp;not null;default:0" json:"total_xp"`
	Level          int       `gorm:"column:level;not null;default:1" json:"level"`
	CurrentLevelXP int       `gorm:"column:current_level_xp;not null;default:0" json:"current_level_xp"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
