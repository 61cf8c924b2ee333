package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"secwatch/internal/errs"
	"secwatch/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func userRows(id uuid.UUID, username string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows([]string{
		"id", "username", "email", "hashed_password", "role", "full_name", "is_active",
		"login_attempts", "locked_until", "last_login", "created_at", "updated_at",
	}).AddRow(id, username, username+"@example.com", "$2a$12$hash", "user", "", true,
		0, nil, nil, now, now)
}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{
		ID:             uuid.Must(uuid.NewV4()),
		Username:       "u",
		Email:          "u@example.com",
		HashedPassword: "$2a$12$hash",
		Role:           "user",
		IsActive:       true,
	}

	// OK
	mock.ExpectExec(`INSERT INTO users \(id, username, email, hashed_password, role, full_name, is_active\)`).
		WithArgs(u.ID, u.Username, u.Email, u.HashedPassword, u.Role, u.FullName, u.IsActive).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, u))

	// Unique violation
	mock.ExpectExec(`INSERT INTO users \(id, username, email, hashed_password, role, full_name, is_active\)`).
		WithArgs(u.ID, u.Username, u.Email, u.HashedPassword, u.Role, u.FullName, u.IsActive).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := r.Create(ctx, u)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestUserRepo_GetByUsername(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`FROM users WHERE username=\$1`).
		WithArgs("alice").
		WillReturnRows(userRows(id, "alice"))
	u, err := r.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Nil(t, u.LockedUntil)

	mock.ExpectQuery(`FROM users WHERE username=\$1`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByUsername(ctx, "ghost")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_UpdateLoginState_GuardedWrite(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	until := time.Now().Add(15 * time.Minute)
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Username: "alice", LoginAttempts: 5, LockedUntil: &until}

	mock.ExpectExec(`UPDATE users\s+SET login_attempts=\$2, locked_until=\$3, last_login=\$4, updated_at=now\(\)\s+WHERE id=\$1 AND login_attempts=\$5`).
		WithArgs(u.ID, 5, &until, pgxmock.AnyArg(), 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdateLoginState(ctx, u, 4))

	// Concurrent attempt already moved the counter: no row matches.
	mock.ExpectExec(`UPDATE users\s+SET login_attempts=\$2`).
		WithArgs(u.ID, 5, &until, pgxmock.AnyArg(), 4).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	err := r.UpdateLoginState(ctx, u, 4)
	require.ErrorIs(t, err, errs.ErrVersionConflict)
}

func TestUserRepo_UpdateProfile(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	u := &model.User{ID: uuid.Must(uuid.NewV4()), Email: "new@example.com", FullName: "N", HashedPassword: "$2a$12$hash"}

	mock.ExpectExec(`UPDATE users\s+SET email=\$2, full_name=\$3, hashed_password=\$4, updated_at=now\(\)\s+WHERE id=\$1`).
		WithArgs(u.ID, u.Email, u.FullName, u.HashedPassword).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, r.UpdateProfile(ctx, u))

	// Email already taken elsewhere.
	mock.ExpectExec(`UPDATE users\s+SET email=\$2`).
		WithArgs(u.ID, u.Email, u.FullName, u.HashedPassword).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.UpdateProfile(ctx, u), errs.ErrAlreadyExists)

	mock.ExpectExec(`UPDATE users\s+SET email=\$2`).
		WithArgs(u.ID, u.Email, u.FullName, u.HashedPassword).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	require.ErrorIs(t, r.UpdateProfile(ctx, u), errs.ErrNotFound)
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()

	rows := userRows(uuid.Must(uuid.NewV4()), "a")
	now := time.Now()
	rows.AddRow(uuid.Must(uuid.NewV4()), "b", "b@example.com", "$2a$12$hash", "admin", "B", true,
		0, nil, nil, now, now)
	mock.ExpectQuery(`FROM users ORDER BY created_at`).
		WillReturnRows(rows)

	out, err := r.List(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "admin", out[1].Role)
}
