package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chioma-app/api/internal/database"
)

// PasswordHistoryRepository stores bcrypt hashes of previous passwords so
// the policy can reject recent reuse. Hashes only; plaintext never lands
// here.
type PasswordHistoryRepository struct {
	db database.Querier
}

func NewPasswordHistoryRepository(db database.Querier) *PasswordHistoryRepository {
	return &PasswordHistoryRepository{db: db}
}

// Add records a password hash at the moment it becomes the active
// credential.
func (r *PasswordHistoryRepository) Add(ctx context.Context, userID, passwordHash string) error {
	query := `
		INSERT INTO password_history (id, user_id, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(ctx, query, uuid.New().String(), userID, passwordHash, time.Now())
	if err != nil {
		return database.MapPostgresError(err)
	}

	return nil
}

// RecentHashes returns up to limit most recent password hashes for the user,
// newest first.
func (r *PasswordHistoryRepository) RecentHashes(ctx context.Context, userID string, limit int) ([]string, error) {
	query := `
		SELECT password_hash FROM password_history
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query password history: %w", err)
	}
	defer rows.Close()

	hashes := make([]string, 0, limit)
	for rows.Next() {
		var hash string
		if err := rows.Scan(&hash); err != nil {
			return nil, fmt.Errorf("failed to scan password history: %w", err)
		}
		hashes = append(hashes, hash)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating password history: %w", err)
	}

	return hashes, nil
}

// Prune keeps only the keep most recent entries per user.
func (r *PasswordHistoryRepository) Prune(ctx context.Context, userID string, keep int) error {
	query := `
		DELETE FROM password_history
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM password_history
			WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
		)
	`

	_, err := r.db.Exec(ctx, query, userID, keep)
	return database.MapPostgresError(err)
}
