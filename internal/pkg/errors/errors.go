package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is a generic sentinel for invalid input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidDateKey marks a date key that is not local-calendar
	// "YYYY-MM-DD" form.
	ErrInvalidDateKey = errors.New("invalid date key")
	// ErrDateCalculation marks a failure to resolve local-day UTC
	// boundaries for a date key.
	ErrDateCalculation = errors.New("date calculation failed")
)
