package app

import (
	"gorm.io/gorm"

	habitrepo "github.com/tbexley/habitledger-backend/internal/data/repos/habit"
	progressrepo "github.com/tbexley/habitledger-backend/internal/data/repos/progress"
	userrepo "github.com/tbexley/habitledger-backend/internal/data/repos/user"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

type Repos struct {
	User userrepo.UserRepo

	Habit habitrepo.HabitRepo
	Goal  habitrepo.GoalRepo
	Skip  habitrepo.SkipRepo

	Event        progressrepo.EventRepo
	Sequence     progressrepo.SequenceRepo
	Completion   progressrepo.CompletionRepo
	Award        progressrepo.AwardRepo
	UserProgress progressrepo.UserProgressRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         userrepo.NewUserRepo(db, log),
		Habit:        habitrepo.NewHabitRepo(db, log),
		Goal:         habitrepo.NewGoalRepo(db, log),
		Skip:         habitrepo.NewSkipRepo(db, log),
		Event:        progressrepo.NewEventRepo(db, log),
		Sequence:     progressrepo.NewSequenceRepo(db, log),
		Completion:   progressrepo.NewCompletionRepo(db, log),
		Award:        progressrepo.NewAwardRepo(db, log),
		UserProgress: progressrepo.NewUserProgressRepo(db, log),
	}
}
