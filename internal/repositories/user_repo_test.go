package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chioma-app/api/internal/models"
)

const userSelectPattern = `SELECT id, email, password_hash, first_name, last_name, role, status,`

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return mock
}

func userRow(id, email, role string) *pgxmock.Rows {
	now := time.Now()
	first := "Ada"
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "first_name", "last_name", "role", "status",
		"email_verified", "mfa_enabled", "totp_secret_enc", "totp_secret_nonce",
		"mfa_enrolled_at", "password_changed_at", "created_at", "updated_at",
	}).AddRow(
		id, email, strPtr("$2a$12$hash"), &first, (*string)(nil), role, "active",
		true, false, []byte(nil), []byte(nil),
		(*time.Time)(nil), &now, now, now,
	)
}

func strPtr(s string) *string { return &s }

func TestUserRepository_GetByEmail(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery(userSelectPattern).
		WithArgs("tenant@example.com").
		WillReturnRows(userRow("user-1", "tenant@example.com", models.RoleTenant))

	user, err := repo.GetByEmail(context.Background(), "tenant@example.com")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, models.RoleTenant, user.Role)
	assert.Equal(t, "$2a$12$hash", user.PasswordHash)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery(userSelectPattern).
		WithArgs("missing@example.com").
		WillReturnError(pgx.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_Create_UniqueViolation(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{
		Email:        "taken@example.com",
		PasswordHash: "$2a$12$hash",
	})
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("$2a$12$newhash", pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "user-1", "$2a$12$newhash"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_UnknownUser(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	mock.ExpectExec(`UPDATE users SET password_hash`).
		WithArgs("$2a$12$newhash", pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdatePassword(context.Background(), "ghost", "$2a$12$newhash")
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestUserRepository_EnableMFA(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewUserRepository(mock)

	secret := []byte("sealed")
	nonce := []byte("nonce")

	mock.ExpectExec(`UPDATE users SET mfa_enabled = TRUE`).
		WithArgs(secret, nonce, pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.EnableMFA(context.Background(), "user-1", secret, nonce))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTokenRevocationRepository_IsTokenRevoked(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewTokenRevocationRepository(mock)

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("jti-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := repo.IsTokenRevoked(context.Background(), "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestTokenRevocationRepository_CleanupExpiredTokens(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewTokenRevocationRepository(mock)

	mock.ExpectExec(`DELETE FROM revoked_tokens`).
		WithArgs(pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	removed, err := repo.CleanupExpiredTokens(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)
}

func TestPasswordHistoryRepository_RecentHashes(t *testing.T) {
	mock := newMockPool(t)
	defer mock.Close()
	repo := NewPasswordHistoryRepository(mock)

	mock.ExpectQuery(`SELECT password_hash FROM password_history`).
		WithArgs("user-1", 5).
		WillReturnRows(pgxmock.NewRows([]string{"password_hash"}).
			AddRow("$2a$12$h1").
			AddRow("$2a$12$h2"))

	hashes, err := repo.RecentHashes(context.Background(), "user-1", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"$2a$12$h1", "$2a$12$h2"}, hashes)
}
