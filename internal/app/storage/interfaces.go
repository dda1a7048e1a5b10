package storage

import (
	"context"

	"github.com/R3E-Network/user_service/internal/app/domain/user"
)

// UserStore persists user records. Every method maps to one parameterized
// statement; zero matching rows is reported through the return values, never
// as an error.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) error
	GetUser(ctx context.Context, id int64) (user.User, bool, error)
	ListUsers(ctx context.Context) ([]user.User, error)
	UpdateUser(ctx context.Context, id int64, u user.User) (int64, error)
	DeleteUser(ctx context.Context, id int64) (int64, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
