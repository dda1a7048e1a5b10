package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/R3E-Network/user_service/internal/app/domain/user"
	"github.com/R3E-Network/user_service/internal/app/storage"
	"github.com/R3E-Network/user_service/pkg/logger"
)

var (
	// ErrValidation wraps business rule violations on create and update.
	ErrValidation = errors.New("user validation failed")
	// ErrStore wraps any failure reported by the persistence layer, including
	// constraint violations.
	ErrStore = errors.New("user store failure")
)

// Service applies business rules on top of a storage.UserStore. It is not safe
// for concurrent use on its own; callers share it through a Handle.
type Service struct {
	store storage.UserStore
	log   *logger.Logger
}

// New creates a user service backed by the provided store.
func New(store storage.UserStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("users")
	}
	return &Service{store: store, log: log}
}

// CreateUser validates u and inserts it. The store assigns the identifier.
func (s *Service) CreateUser(ctx context.Context, u user.User) error {
	if err := user.Validate(u); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	if err := s.store.CreateUser(ctx, user.User{Name: u.Name, Email: u.Email}); err != nil {
		return fmt.Errorf("%w: create: %w", ErrStore, err)
	}
	s.log.WithField("email", u.Email).Info("user created")
	return nil
}

// GetUserByID looks up a user. Non-positive ids never match and skip the store.
func (s *Service) GetUserByID(ctx context.Context, id int64) (user.User, bool, error) {
	if id <= 0 {
		return user.User{}, false, nil
	}
	u, ok, err := s.store.GetUser(ctx, id)
	if err != nil {
		return user.User{}, false, fmt.Errorf("%w: get %d: %w", ErrStore, id, err)
	}
	return u, ok, nil
}

// GetAllUsers returns every stored user.
func (s *Service) GetAllUsers(ctx context.Context) ([]user.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStore, err)
	}
	return users, nil
}

// UpdateUser replaces name and email of user id. It reports false when no row
// matched; non-positive ids report false before the payload is looked at.
func (s *Service) UpdateUser(ctx context.Context, id int64, u user.User) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	if err := user.Validate(u); err != nil {
		return false, fmt.Errorf("%w: %w", ErrValidation, err)
	}
	affected, err := s.store.UpdateUser(ctx, id, u)
	if err != nil {
		return false, fmt.Errorf("%w: update %d: %w", ErrStore, id, err)
	}
	if affected > 0 {
		s.log.WithField("user_id", id).Info("user updated")
	}
	return affected > 0, nil
}

// DeleteUser removes user id, reporting false when nothing matched.
func (s *Service) DeleteUser(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	affected, err := s.store.DeleteUser(ctx, id)
	if err != nil {
		return false, fmt.Errorf("%w: delete %d: %w", ErrStore, id, err)
	}
	if affected > 0 {
		s.log.WithField("user_id", id).Info("user deleted")
	}
	return affected > 0, nil
}
