package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/R3E-Network/user_service/internal/app/domain/user"
	"github.com/R3E-Network/user_service/internal/app/storage"
)

// Store implements storage.UserStore backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.Pinger = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: sqlx.NewDb(db, "postgres")}
}

type userRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r userRow) toUser() user.User {
	return user.WithID(r.ID, r.Name, r.Email)
}

func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
	`, u.Name, u.Email)
	return err
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, bool, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, false, nil
	}
	if err != nil {
		return user.User{}, false, err
	}
	return row.toUser(), true, nil
}

// ListUsers returns every row in the table's natural scan order.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, email
		FROM users
	`); err != nil {
		return nil, err
	}

	result := make([]user.User, 0, len(rows))
	for _, row := range rows {
		result = append(result, row.toUser())
	}
	return result, nil
}

func (s *Store) UpdateUser(ctx context.Context, id int64, u user.User) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = $1, email = $2
		WHERE id = $3
	`, u.Name, u.Email, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM users WHERE id = $1
	`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Ping checks that the underlying connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
