package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/R3E-Network/user_service/internal/app/domain/user"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return New(db), mock
}

func TestCreateUserBindsParameters(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO users \(name, email\)\s+VALUES \(\$1, \$2\)`).
		WithArgs("Robert'); DROP TABLE users;--", "bob@example.com").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.CreateUser(context.Background(), user.User{Name: "Robert'); DROP TABLE users;--", Email: "bob@example.com"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserPropagatesConstraintViolation(t *testing.T) {
	store, mock := newMockStore(t)
	violation := errors.New(`pq: duplicate key value violates unique constraint "users_email_key"`)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("Ada", "ada@example.com").
		WillReturnError(violation)

	err := store.CreateUser(context.Background(), user.User{Name: "Ada", Email: "ada@example.com"})
	assert.ErrorIs(t, err, violation)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUser(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email\s+FROM users\s+WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).AddRow(7, "Ada", "ada@example.com"))

	got, ok, err := store.GetUser(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, user.WithID(7, "Ada", "ada@example.com"), got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserNoRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	_, ok, err := store.GetUser(context.Background(), 8)
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserQueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(int64(8)).
		WillReturnError(errors.New("connection refused"))

	_, ok, err := store.GetUser(context.Background(), 8)
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestListUsers(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email\s+FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(2, "Bob", "bob@example.com").
			AddRow(1, "Ada", "ada@example.com"))

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Bob", users[0].Name)
	assert.Equal(t, int64(1), *users[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersEmpty(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, name, email`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}))

	users, err := store.ListUsers(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Empty(t, users)
}

func TestUpdateUserReturnsAffectedRows(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
	}{
		{"matched", 1},
		{"missing", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectExec(`UPDATE users\s+SET name = \$1, email = \$2\s+WHERE id = \$3`).
				WithArgs("Ada", "ada@example.com", int64(3)).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			n, err := store.UpdateUser(context.Background(), 3, user.User{Name: "Ada", Email: "ada@example.com"})
			require.NoError(t, err)
			assert.Equal(t, tt.affected, n)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteUserReturnsAffectedRows(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	n, err := store.DeleteUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = store.DeleteUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteUserExecError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`DELETE FROM users`).
		WithArgs(int64(5)).
		WillReturnError(errors.New("timeout"))

	_, err := store.DeleteUser(context.Background(), 5)
	assert.Error(t, err)
}
