package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chioma-app/api/internal/models"
)

func newVerificationFixture() (*EmailVerificationService, *MockEmailVerificationRepository, *MockUserRepository, *MockEmailSender) {
	tokens := &MockEmailVerificationRepository{}
	users := &MockUserRepository{}
	mailer := &MockEmailSender{}
	svc := NewEmailVerificationService(tokens, users, mailer, testLogger(), 24*time.Hour)
	return svc, tokens, users, mailer
}

func TestEmailVerificationService_SendStoresOnlyTheHash(t *testing.T) {
	svc, tokens, _, mailer := newVerificationFixture()

	var storedHash, mailedToken string
	tokens.CreateFunc = func(ctx context.Context, userID, tokenHash, email string, expiresAt time.Time) (*models.EmailVerificationToken, error) {
		storedHash = tokenHash
		assert.Equal(t, "user-1", userID)
		assert.Equal(t, "tenant@example.com", email)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)
		return &models.EmailVerificationToken{ID: "t-1", UserID: userID, TokenHash: tokenHash}, nil
	}
	mailer.VerificationFunc = func(ctx context.Context, to, token string, expiresAt time.Time) error {
		mailedToken = token
		return nil
	}

	require.NoError(t, svc.SendVerification(context.Background(), "user-1", "tenant@example.com"))

	require.NotEmpty(t, mailedToken)
	require.NotEmpty(t, storedHash)
	assert.NotEqual(t, mailedToken, storedHash)

	sum := sha256.Sum256([]byte(mailedToken))
	assert.Equal(t, hex.EncodeToString(sum[:]), storedHash)
}

func TestEmailVerificationService_VerifyMarksUserVerified(t *testing.T) {
	svc, tokens, users, _ := newVerificationFixture()

	plain := "the-plain-token"
	sum := sha256.Sum256([]byte(plain))
	hash := hex.EncodeToString(sum[:])

	tokens.GetByTokenHashFunc = func(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error) {
		require.Equal(t, hash, tokenHash)
		return &models.EmailVerificationToken{
			ID:        "t-1",
			UserID:    "user-1",
			TokenHash: tokenHash,
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}

	var marked bool
	tokens.MarkAsUsedFunc = func(ctx context.Context, id string) error {
		marked = true
		return nil
	}

	user := &models.User{ID: "user-1", Email: "tenant@example.com"}
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}

	var updated *models.User
	users.UpdateFunc = func(ctx context.Context, id string, u *models.User) (*models.User, error) {
		updated = u
		return u, nil
	}

	userID, err := svc.Verify(context.Background(), plain)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
	assert.True(t, marked)
	require.NotNil(t, updated)
	assert.True(t, updated.EmailVerified)
}

func TestEmailVerificationService_VerifyRejections(t *testing.T) {
	used := time.Now().Add(-time.Minute)

	tests := []struct {
		name  string
		token *models.EmailVerificationToken
	}{
		{
			name: "already used",
			token: &models.EmailVerificationToken{
				ID: "t-1", UserID: "user-1",
				ExpiresAt: time.Now().Add(time.Hour),
				UsedAt:    &used,
			},
		},
		{
			name: "expired",
			token: &models.EmailVerificationToken{
				ID: "t-1", UserID: "user-1",
				ExpiresAt: time.Now().Add(-time.Hour),
			},
		},
		{
			name:  "unknown",
			token: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tokens, _, _ := newVerificationFixture()
			tokens.GetByTokenHashFunc = func(ctx context.Context, tokenHash string) (*models.EmailVerificationToken, error) {
				if tt.token == nil {
					return nil, models.ErrNotFound
				}
				return tt.token, nil
			}

			_, err := svc.Verify(context.Background(), "some-token")
			assert.ErrorIs(t, err, models.ErrUnauthorized)
		})
	}
}

func TestEmailVerificationService_VerifyEmptyToken(t *testing.T) {
	svc, _, _, _ := newVerificationFixture()

	_, err := svc.Verify(context.Background(), "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestEmailVerificationService_ResendWithinCooldownIsSuppressed(t *testing.T) {
	svc, tokens, _, mailer := newVerificationFixture()

	tokens.GetPendingByEmailFunc = func(ctx context.Context, email string) (*models.EmailVerificationToken, error) {
		return &models.EmailVerificationToken{
			ID: "t-1", UserID: "user-1", Email: email,
			CreatedAt: time.Now().Add(-time.Minute),
			ExpiresAt: time.Now().Add(time.Hour),
		}, nil
	}

	var sent bool
	mailer.VerificationFunc = func(ctx context.Context, to, token string, expiresAt time.Time) error {
		sent = true
		return nil
	}

	require.NoError(t, svc.ResendVerification(context.Background(), "tenant@example.com"))
	assert.False(t, sent)
}

func TestEmailVerificationService_ResendAfterCooldownReplacesToken(t *testing.T) {
	svc, tokens, _, mailer := newVerificationFixture()

	tokens.GetPendingByEmailFunc = func(ctx context.Context, email string) (*models.EmailVerificationToken, error) {
		return &models.EmailVerificationToken{
			ID: "t-1", UserID: "user-1", Email: email,
			CreatedAt: time.Now().Add(-time.Hour),
			ExpiresAt: time.Now().Add(23 * time.Hour),
		}, nil
	}

	var deleted, sent bool
	tokens.DeleteByUserIDFunc = func(ctx context.Context, userID string) error {
		deleted = true
		assert.Equal(t, "user-1", userID)
		return nil
	}
	mailer.VerificationFunc = func(ctx context.Context, to, token string, expiresAt time.Time) error {
		sent = true
		assert.Equal(t, "tenant@example.com", to)
		return nil
	}

	require.NoError(t, svc.ResendVerification(context.Background(), "tenant@example.com"))
	assert.True(t, deleted)
	assert.True(t, sent)
}

func TestEmailVerificationService_ResendUnknownEmailReportsSuccess(t *testing.T) {
	svc, tokens, _, mailer := newVerificationFixture()

	tokens.GetPendingByEmailFunc = func(ctx context.Context, email string) (*models.EmailVerificationToken, error) {
		return nil, models.ErrNotFound
	}

	var sent bool
	mailer.VerificationFunc = func(ctx context.Context, to, token string, expiresAt time.Time) error {
		sent = true
		return nil
	}

	require.NoError(t, svc.ResendVerification(context.Background(), "nobody@example.com"))
	assert.False(t, sent)
}
