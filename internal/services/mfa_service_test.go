package services

import (
	"context"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chioma-app/api/internal/auth"
	"github.com/chioma-app/api/internal/models"
)

func newMFAServiceFixture(t *testing.T) (*MFAService, *MockUserRepository) {
	t.Helper()
	users := &MockUserRepository{}
	totpMgr, err := auth.NewTOTPManager([]byte("0123456789abcdef0123456789abcdef"), "Chioma")
	require.NoError(t, err)

	svc := NewMFAService(users, totpMgr, &MockEmailSender{}, testLogger(), testAuditLogger())
	return svc, users
}

func TestMFAService_SetupAndVerify(t *testing.T) {
	svc, users := newMFAServiceFixture(t)
	user := activeUser(t, testPassword)
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}

	var enabledSecret, enabledNonce []byte
	users.EnableMFAFunc = func(ctx context.Context, id string, secretEnc, nonce []byte) error {
		require.Equal(t, "user-1", id)
		enabledSecret = secretEnc
		enabledNonce = nonce
		return nil
	}

	resp, err := svc.InitiateSetup(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Secret)
	assert.NotEmpty(t, resp.QRCodePNG)
	assert.Contains(t, resp.OTPAuthURL, "otpauth://totp/")

	code, err := totp.GenerateCode(resp.Secret, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.VerifySetup(context.Background(), "user-1", code))
	assert.NotEmpty(t, enabledSecret)
	assert.NotEmpty(t, enabledNonce)
}

func TestMFAService_VerifySetup_WrongCode(t *testing.T) {
	svc, users := newMFAServiceFixture(t)
	user := activeUser(t, testPassword)
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}
	users.EnableMFAFunc = func(ctx context.Context, id string, secretEnc, nonce []byte) error {
		t.Fatal("MFA must not be enabled on a failed verification")
		return nil
	}

	_, err := svc.InitiateSetup(context.Background(), "user-1")
	require.NoError(t, err)

	err = svc.VerifySetup(context.Background(), "user-1", "000000")
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestMFAService_VerifySetup_WithoutSetup(t *testing.T) {
	svc, _ := newMFAServiceFixture(t)

	err := svc.VerifySetup(context.Background(), "user-1", "123456")
	require.ErrorIs(t, err, models.ErrBadRequest)
}

func TestMFAService_InitiateSetup_AlreadyEnabled(t *testing.T) {
	svc, users := newMFAServiceFixture(t)
	user := activeUser(t, testPassword)
	user.MFAEnabled = true
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}

	_, err := svc.InitiateSetup(context.Background(), "user-1")
	require.ErrorIs(t, err, models.ErrConflict)
}

func TestMFAService_Disable(t *testing.T) {
	svc, users := newMFAServiceFixture(t)

	enrollment, err := svc.totp.GenerateEnrollment(testEmail)
	require.NoError(t, err)

	user := activeUser(t, testPassword)
	user.MFAEnabled = true
	user.TOTPSecretEnc = enrollment.EncryptedSecret
	user.TOTPSecretNonce = enrollment.Nonce
	users.GetByIDFunc = func(ctx context.Context, id string) (*models.User, error) {
		return user, nil
	}

	var disabled bool
	users.DisableMFAFunc = func(ctx context.Context, id string) error {
		disabled = true
		return nil
	}

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	require.NoError(t, svc.Disable(context.Background(), "user-1", testPassword, code))
	assert.True(t, disabled)

	// Wrong password must not disable even with a valid code
	disabled = false
	code, err = totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)
	err = svc.Disable(context.Background(), "user-1", "WrongP@ss123", code)
	require.ErrorIs(t, err, models.ErrUnauthorized)
	assert.False(t, disabled)
}
