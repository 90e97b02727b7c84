package testutil

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/tbexley/habitledger-backend/internal/domain"
)

func SeedUser(tb testing.TB, tx *gorm.DB, name string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		DisplayName: name,
		Timezone:    "UTC",
	}
	if err := tx.Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedHabit(tb testing.TB, tx *gorm.DB, userID uuid.UUID, name string, goal int) *types.Habit {
	tb.Helper()
	h := &types.Habit{
		ID:         uuid.New(),
		UserID:     userID,
		Name:       name,
		GoalAmount: goal,
	}
	if err := tx.Create(h).Error; err != nil {
		tb.Fatalf("seed habit: %v", err)
	}
	return h
}

func SeedEvent(tb testing.TB, tx *gorm.DB, userID, habitID uuid.UUID, dateKey string, seq int64, delta int, synced bool, createdAt time.Time) *types.ProgressEvent {
	tb.Helper()
	key := types.EventKey{HabitID: habitID, DateKey: dateKey, DeviceID: "test-device", SequenceNumber: seq}
	start, _ := time.Parse("2006-01-02", dateKey)
	eventType := "increment"
	if delta < 0 {
		eventType = "decrement"
	}
	ev := &types.ProgressEvent{
		ID:             key.UUID(),
		UserID:         userID,
		HabitID:        habitID,
		DateKey:        dateKey,
		DeviceID:       key.DeviceID,
		SequenceNumber: seq,
		EventType:      eventType,
		ProgressDelta:  delta,
		OperationID:    uuid.New().String(),
		TimezoneID:     "UTC",
		UTCDayStart:    start,
		UTCDayEnd:      start.Add(24 * time.Hour),
		Synced:         synced,
		CreatedAt:      createdAt,
	}
	if err := tx.Create(ev).Error; err != nil {
		tb.Fatalf("seed event: %v", err)
	}
	return ev
}
