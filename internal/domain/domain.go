// Package domain re-exports the persistence models so callers can refer
// to them through one import.
package domain

import (
	"github.com/tbexley/habitledger-backend/internal/domain/habit"
	"github.com/tbexley/habitledger-backend/internal/domain/progress"
	"github.com/tbexley/habitledger-backend/internal/domain/user"
)

type User = user.User

type Habit = habit.Habit
type HabitGoal = habit.HabitGoal
type HabitSkip = habit.HabitSkip

type ProgressEvent = progress.ProgressEvent
type EventKey = progress.EventKey
type DeviceSequence = progress.DeviceSequence
type CompletionRecord = progress.CompletionRecord
type DailyAward = progress.DailyAward
type UserProgress = progress.UserProgress
