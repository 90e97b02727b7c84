package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	userrepo "github.com/tbexley/habitledger-backend/internal/data/repos/user"
	types "github.com/tbexley/habitledger-backend/internal/domain"
	"github.com/tbexley/habitledger-backend/internal/pkg/dbctx"
	apperr "github.com/tbexley/habitledger-backend/internal/pkg/errors"
	"github.com/tbexley/habitledger-backend/internal/platform/logger"
)

// UserService resolves the local account. The store is single-user by
// default; EnsureLocalUser bootstraps the row on first run.
type UserService interface {
	EnsureLocalUser(ctx context.Context, displayName, timezone string) (*types.User, error)
	GetMe(ctx context.Context, id uuid.UUID) (*types.User, error)
}

type userService struct {
	log   *logger.Logger
	users userrepo.UserRepo
}

func NewUserService(baseLog *logger.Logger, users userrepo.UserRepo) UserService {
	return &userService{log: baseLog.With("service", "UserService"), users: users}
}

func (s *userService) EnsureLocalUser(ctx context.Context, displayName, timezone string) (*types.User, error) {
	dbc := dbctx.From(ctx)
	existing, err := s.users.First(dbc)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	if displayName == "" {
		displayName = "Local User"
	}
	if timezone == "" {
		timezone = "UTC"
	}
	row := &types.User{
		ID:          uuid.New(),
		DisplayName: displayName,
		Timezone:    timezone,
	}
	if err := s.users.Create(dbc, row); err != nil {
		return nil, err
	}
	s.log.Info("Local user created", "user_id", row.ID.String())
	return row, nil
}

func (s *userService) GetMe(ctx context.Context, id uuid.UUID) (*types.User, error) {
	u, err := s.users.GetByID(dbctx.From(ctx), id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	return u, nil
}
