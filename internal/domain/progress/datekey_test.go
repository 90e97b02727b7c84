package progress

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
)

func TestValidDateKey(t *testing.T) {
	valid := []string{"2025-03-30", "2024-02-29", "1999-12-31"}
	for _, s := range valid {
		if !ValidDateKey(s) {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	invalid := []string{"", "2025-3-30", "2025-03-30T00:00:00Z", "2025-02-30", "2025-13-01", "not-a-date", "20250330"}
	for _, s := range invalid {
		if ValidDateKey(s) {
			t.Fatalf("expected %q to be invalid", s)
		}
	}
}

func TestDayWindowUTC(t *testing.T) {
	start, end, err := DayWindow("2025-03-15", time.UTC)
	if err != nil {
		t.Fatalf("DayWindow: %v", err)
	}
	if got := end.Sub(start); got != 24*time.Hour {
		t.Fatalf("expected 24h window, got %v", got)
	}
	if start.Format(time.RFC3339) != "2025-03-15T00:00:00Z" {
		t.Fatalf("unexpected start %v", start)
	}
}

func TestDayWindowDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// Spring-forward day: 23 local hours.
	start, end, err := DayWindow("2025-03-30", loc)
	if err != nil {
		t.Fatalf("DayWindow: %v", err)
	}
	if got := end.Sub(start); got != 23*time.Hour {
		t.Fatalf("expected 23h window on DST start day, got %v", got)
	}
	// Fall-back day: 25 local hours.
	start, end, err = DayWindow("2025-10-26", loc)
	if err != nil {
		t.Fatalf("DayWindow: %v", err)
	}
	if got := end.Sub(start); got != 25*time.Hour {
		t.Fatalf("expected 25h window on DST end day, got %v", got)
	}
}

func TestDayWindowRejectsBadInput(t *testing.T) {
	if _, _, err := DayWindow("2025-02-30", time.UTC); !errors.Is(err, apperr.ErrInvalidDateKey) {
		t.Fatalf("expected ErrInvalidDateKey, got %v", err)
	}
	if _, _, err := DayWindow("2025-03-15", nil); !errors.Is(err, apperr.ErrDateCalculation) {
		t.Fatalf("expected ErrDateCalculation, got %v", err)
	}
}

func TestEventKeyDeterministicIdentity(t *testing.T) {
	habitID := uuid.New()
	k1 := EventKey{HabitID: habitID, DateKey: "2025-03-30", DeviceID: "device-a", SequenceNumber: 4}
	k2 := EventKey{HabitID: habitID, DateKey: "2025-03-30", DeviceID: "device-a", SequenceNumber: 4}
	if k1.UUID() != k2.UUID() {
		t.Fatal("same key must derive same id")
	}
	k3 := k1
	k3.SequenceNumber = 5
	if k1.UUID() == k3.UUID() {
		t.Fatal("different sequence must derive different id")
	}
	k4 := k1
	k4.DeviceID = "device-b"
	if k1.UUID() == k4.UUID() {
		t.Fatal("different device must derive different id")
	}
}
