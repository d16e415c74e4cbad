package services

import (
	"context"
	"fmt"

	pkgauth "github.com/chioma-app/api/pkg/auth"
)

// PasswordHistoryChecker adapts the history repository to the policy's
// HistoryChecker contract by bcrypt-comparing the candidate against the
// retained hashes.
type PasswordHistoryChecker struct {
	history PasswordHistoryRepository
	depth   int
}

func NewPasswordHistoryChecker(history PasswordHistoryRepository) *PasswordHistoryChecker {
	return &PasswordHistoryChecker{history: history, depth: passwordHistoryDepth}
}

var _ pkgauth.HistoryChecker = (*PasswordHistoryChecker)(nil)

func (c *PasswordHistoryChecker) WasUsed(ctx context.Context, userID, password string) (bool, error) {
	hashes, err := c.history.RecentHashes(ctx, userID, c.depth)
	if err != nil {
		return false, fmt.Errorf("failed to load password history: %w", err)
	}

	for _, hash := range hashes {
		if pkgauth.ComparePassword(hash, password) == nil {
			return true, nil
		}
	}

	return false, nil
}
