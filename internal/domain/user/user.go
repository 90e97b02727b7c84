package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the local account a device tracks habits for. There is normally
// exactly one per install, but nothing below assumes that.
type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DisplayName string         `gorm:"column:display_name;not null" json:"display_name"`
	Timezone    string         `gorm:"column:timezone;not null" json:"timezone"`
	CreatedAt   time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (User) TableName() string { return "user" }
