package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/R3E-Network/user_service/internal/app/domain/user"
	"github.com/R3E-Network/user_service/internal/app/storage"
)

// ErrDuplicateEmail mirrors the unique constraint on users.email.
var ErrDuplicateEmail = fmt.Errorf("duplicate key value violates unique constraint %q", "users_email_key")

// Store is an in-memory implementation of storage.UserStore. It is safe for
// concurrent use and is intended for tests and local development.
type Store struct {
	mu     sync.RWMutex
	nextID int64
	order  []int64
	users  map[int64]user.User
	emails map[string]int64

	calls    int
	failNext error
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates an empty store. Identifiers start at 1 like a serial column.
func New() *Store {
	return &Store{
		nextID: 1,
		users:  make(map[int64]user.User),
		emails: make(map[string]int64),
	}
}

// FailNext makes the next store call return err.
func (s *Store) FailNext(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = err
}

// Calls reports how many store operations were attempted.
func (s *Store) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calls
}

// Len reports the number of stored users.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// enterLocked counts the call and returns any injected failure.
func (s *Store) enterLocked() error {
	s.calls++
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	return nil
}

func (s *Store) CreateUser(_ context.Context, u user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterLocked(); err != nil {
		return err
	}

	if _, taken := s.emails[u.Email]; taken {
		return ErrDuplicateEmail
	}
	id := s.nextID
	s.nextID++
	s.users[id] = user.WithID(id, u.Name, u.Email)
	s.emails[u.Email] = id
	s.order = append(s.order, id)
	return nil
}

func (s *Store) GetUser(_ context.Context, id int64) (user.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterLocked(); err != nil {
		return user.User{}, false, err
	}

	u, ok := s.users[id]
	return u, ok, nil
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterLocked(); err != nil {
		return nil, err
	}

	result := make([]user.User, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.users[id])
	}
	return result, nil
}

func (s *Store) UpdateUser(_ context.Context, id int64, u user.User) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterLocked(); err != nil {
		return 0, err
	}

	existing, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	if owner, taken := s.emails[u.Email]; taken && owner != id {
		return 0, ErrDuplicateEmail
	}
	delete(s.emails, existing.Email)
	s.users[id] = user.WithID(id, u.Name, u.Email)
	s.emails[u.Email] = id
	return 1, nil
}

func (s *Store) DeleteUser(_ context.Context, id int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enterLocked(); err != nil {
		return 0, err
	}

	existing, ok := s.users[id]
	if !ok {
		return 0, nil
	}
	delete(s.users, id)
	delete(s.emails, existing.Email)
	for i, candidate := range s.order {
		if candidate == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }
