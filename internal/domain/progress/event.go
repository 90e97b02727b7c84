package progress

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbexley/habitledger-backend/internal/domain/habit"
	"github.com/tbexley/habitledger-backend/internal/domain/user"
)

const (
	EventIncrement      = "increment"
	EventDecrement      = "decrement"
	EventToggleComplete = "toggle_complete"
)

// eventNamespace seeds the deterministic event id so replaying the same
// logical operation always yields the same identity.
var eventNamespace = uuid.MustParse("9a1c3c6e-1f6b-4a74-9a54-7f1d2b8e0c42")

// EventKey is the deterministic composite identity of a progress event.
// Two events are the same event iff all four parts match.
type EventKey struct {
	HabitID        uuid.UUID
	DateKey        string
	DeviceID       string
	SequenceNumber int64
}

// UUID derives the stable event id from the composite key.
func (k EventKey) UUID() uuid.UUID {
	name := fmt.Sprintf("%s|%s|%s|%d", k.HabitID, k.DateKey, k.DeviceID, k.SequenceNumber)
	return uuid.NewSHA1(eventNamespace, []byte(name))
}

// ProgressEvent is an immutable progress change for one habit on one local
// calendar day. Rows are never updated after insert; they are tombstoned
// or physically removed by compaction.
type ProgressEvent struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID  `gorm:"type:uuid;not null;index;index:idx_event_operation,unique,priority:1" json:"user_id"`
	User   *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	HabitID uuid.UUID    `gorm:"type:uuid;not null;index:idx_event_identity,unique,priority:1;index:idx_event_habit_day,priority:1" json:"habit_id"`
	Habit   *habit.Habit `gorm:"constraint:OnDelete:CASCADE;foreignKey:HabitID;references:ID" json:"habit,omitempty"`

	DateKey        string `gorm:"column:date_key;not null;index:idx_event_identity,unique,priority:2;index:idx_event_habit_day,priority:2" json:"date_key"`
	DeviceID       string `gorm:"column:device_id;not null;index:idx_event_identity,unique,priority:3" json:"device_id"`
	SequenceNumber int64  `gorm:"column:sequence_number;not null;index:idx_event_identity,unique,priority:4" json:"sequence_number"`

	EventType     string `gorm:"column:event_type;not null" json:"event_type"`
	ProgressDelta int    `gorm:"column:progress_delta;not null" json:"progress_delta"`

	// OperationID is the caller-supplied idempotency token; a duplicate
	// submission with the same operation id returns the original event.
	OperationID string `gorm:"column:operation_id;not null;index:idx_event_operation,unique,priority:2" json:"operation_id"`

	TimezoneID  string    `gorm:"column:timezone_id;not null" json:"timezone_id"`
	UTCDayStart time.Time `gorm:"column:utc_day_start;not null;index" json:"utc_day_start"`
	UTCDayEnd   time.Time `gorm:"column:utc_day_end;not null" json:"utc_day_end"`

	Note     string         `gorm:"column:note" json:"note,omitempty"`
	Metadata datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`

	Synced    bool           `gorm:"column:synced;not null;default:false;index" json:"synced"`
	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (ProgressEvent) TableName() string { return "progress_event" }

// Key reconstructs the composite identity of the event.
func (e *ProgressEvent) Key() EventKey {
	return EventKey{
		HabitID:        e.HabitID,
		DateKey:        e.DateKey,
		DeviceID:       e.DeviceID,
		SequenceNumber: e.SequenceNumber,
	}
}

// DeviceSequence is the monotonic per-(device, day) counter that orders
// events within one device and day.
type DeviceSequence struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID string    `gorm:"column:device_id;not null;index:idx_device_sequence,unique,priority:1" json:"device_id"`
	DateKey  string    `gorm:"column:date_key;not null;index:idx_device_sequence,unique,priority:2" json:"date_key"`
	Counter  int64     `gorm:"column:counter;not null;default:0" json:"counter"`

	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DeviceSequence) TableName() string { return "device_sequence" }
