package progress

import (
	"fmt"
	"regexp"
	"time"

	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
)

const DateKeyLayout = "2006-01-02"

var dateKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidDateKey reports whether s is a real local calendar day in
// "YYYY-MM-DD" form. Normalizing dates like 2025-02-30 are rejected.
func ValidDateKey(s string) bool {
	if !dateKeyPattern.MatchString(s) {
		return false
	}
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return false
	}
	return t.Format(DateKeyLayout) == s
}

// DayWindow resolves the UTC instants bounding the local calendar day.
// The window is computed from local midnights so it stays correct across
// DST transitions (a local day may be 23 or 25 hours long).
func DayWindow(dateKey string, loc *time.Location) (time.Time, time.Time, error) {
	if !ValidDateKey(dateKey) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", apperr.ErrInvalidDateKey, dateKey)
	}
	if loc == nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: nil location", apperr.ErrDateCalculation)
	}
	day, err := time.ParseInLocation(DateKeyLayout, dateKey, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", apperr.ErrDateCalculation, err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, loc)
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: empty day window for %q", apperr.ErrDateCalculation, dateKey)
	}
	return start.UTC(), end.UTC(), nil
}

// DateKeyOf formats t as a local date key in loc.
func DateKeyOf(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}
