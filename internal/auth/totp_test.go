package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTOTPManager(t *testing.T) *TOTPManager {
	t.Helper()
	key := bytes.Repeat([]byte("k"), 32)
	tm, err := NewTOTPManager(key, "Chioma")
	require.NoError(t, err)
	return tm
}

func TestNewTOTPManager_KeyLength(t *testing.T) {
	_, err := NewTOTPManager([]byte("short"), "Chioma")
	assert.Error(t, err)
}

func TestTOTPManager_Enrollment(t *testing.T) {
	tm := newTestTOTPManager(t)

	enrollment, err := tm.GenerateEnrollment("tenant@example.com")
	require.NoError(t, err)

	assert.NotEmpty(t, enrollment.Secret)
	assert.NotEmpty(t, enrollment.QRCodePNG)
	assert.Contains(t, enrollment.OTPAuthURL, "otpauth://totp/")
	assert.Contains(t, enrollment.OTPAuthURL, "Chioma")

	// Stored form round-trips to the displayed secret
	plaintext, err := tm.DecryptSecret(enrollment.EncryptedSecret, enrollment.Nonce)
	require.NoError(t, err)
	assert.Equal(t, enrollment.Secret, string(plaintext))
}

func TestTOTPManager_EncryptDecryptSecret(t *testing.T) {
	tm := newTestTOTPManager(t)

	secret := []byte("JBSWY3DPEHPK3PXP")
	encrypted, nonce, err := tm.EncryptSecret(secret)
	require.NoError(t, err)
	assert.NotEqual(t, secret, encrypted)

	decrypted, err := tm.DecryptSecret(encrypted, nonce)
	require.NoError(t, err)
	assert.Equal(t, secret, decrypted)

	// Wrong nonce must not decrypt
	badNonce := bytes.Repeat([]byte{0}, len(nonce))
	_, err = tm.DecryptSecret(encrypted, badNonce)
	assert.Error(t, err)
}

func TestTOTPManager_ValidateCode(t *testing.T) {
	tm := newTestTOTPManager(t)

	enrollment, err := tm.GenerateEnrollment("tenant@example.com")
	require.NoError(t, err)

	code, err := totp.GenerateCode(enrollment.Secret, time.Now())
	require.NoError(t, err)

	valid, err := tm.ValidateCode([]byte(enrollment.Secret), code)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = tm.ValidateCode([]byte(enrollment.Secret), "000000")
	require.NoError(t, err)
	assert.False(t, valid)
}
