package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chioma-app/api/internal/database"
	"github.com/chioma-app/api/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, status,
	email_verified, mfa_enabled, totp_secret_enc, totp_secret_nonce,
	mfa_enrolled_at, password_changed_at, created_at, updated_at`

type UserRepository struct {
	db database.Querier
}

func NewUserRepository(db database.Querier) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner lets scanUserRow serve both QueryRow and Rows iteration
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var passwordHash *string

	err := scanner.Scan(
		&user.ID, &user.Email, &passwordHash, &user.FirstName, &user.LastName,
		&user.Role, &user.Status, &user.EmailVerified, &user.MFAEnabled,
		&user.TOTPSecretEnc, &user.TOTPSecretNonce,
		&user.MFAEnrolledAt, &user.PasswordChangedAt,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	if passwordHash != nil {
		user.PasswordHash = *passwordHash
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUserRow(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUserRow(r.db.QueryRow(ctx, query, email))
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleTenant
	}
	if user.Status == "" {
		user.Status = "active"
	}
	if user.PasswordChangedAt == nil {
		user.PasswordChangedAt = &now
	}

	query := `
		INSERT INTO users (id, email, password_hash, first_name, last_name, role, status,
			email_verified, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + userColumns

	var passwordHash *string
	if user.PasswordHash != "" {
		passwordHash = &user.PasswordHash
	}

	return scanUserRow(r.db.QueryRow(ctx, query,
		user.ID, user.Email, passwordHash, user.FirstName, user.LastName,
		user.Role, user.Status, user.EmailVerified,
		user.PasswordChangedAt, user.CreatedAt, user.UpdatedAt,
	))
}

func (r *UserRepository) Update(ctx context.Context, id string, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET first_name = $1, last_name = $2, role = $3, status = $4,
			email_verified = $5, password_changed_at = $6, updated_at = $7
		WHERE id = $8
		RETURNING ` + userColumns

	return scanUserRow(r.db.QueryRow(ctx, query,
		user.FirstName, user.LastName, user.Role, user.Status,
		user.EmailVerified, user.PasswordChangedAt, user.UpdatedAt, id,
	))
}

// UpdatePassword swaps the credential and stamps password_changed_at.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = $1, password_changed_at = $2, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(ctx, query, passwordHash, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// EnableMFA stores the sealed TOTP secret and marks the account enrolled.
func (r *UserRepository) EnableMFA(ctx context.Context, id string, secretEnc, nonce []byte) error {
	query := `
		UPDATE users SET mfa_enabled = TRUE, totp_secret_enc = $1, totp_secret_nonce = $2,
			mfa_enrolled_at = $3, updated_at = $3
		WHERE id = $4
	`

	result, err := r.db.Exec(ctx, query, secretEnc, nonce, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// DisableMFA clears all second-factor material from the account.
func (r *UserRepository) DisableMFA(ctx context.Context, id string) error {
	query := `
		UPDATE users SET mfa_enabled = FALSE, totp_secret_enc = NULL, totp_secret_nonce = NULL,
			mfa_enrolled_at = NULL, updated_at = $1
		WHERE id = $2
	`

	result, err := r.db.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
