package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testService(t *testing.T, cfg Config) *Service {
	t.Helper()
	if cfg.Secret == nil {
		cfg.Secret = []byte("test-secret")
	}
	if cfg.AdminEmail == "" {
		cfg.AdminEmail = "admin@example.com"
	}
	return NewService(cfg)
}

func TestLogin_PlainPassword(t *testing.T) {
	svc := testService(t, Config{Username: "curator", Password: "hunter2"})

	resp, err := svc.Login(LoginRequest{Username: "curator", Password: "hunter2"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "admin@example.com", resp.Email)
	assert.Greater(t, resp.ExpiresAt, time.Now().UnixMilli())
}

func TestLogin_RejectsBadCredentials(t *testing.T) {
	svc := testService(t, Config{Username: "curator", Password: "hunter2"})

	tests := []struct {
		name string
		req  LoginRequest
	}{
		{"wrong password", LoginRequest{Username: "curator", Password: "nope"}},
		{"wrong username", LoginRequest{Username: "someone", Password: "hunter2"}},
		{"empty", LoginRequest{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(tt.req)
			assert.ErrorIs(t, err, ErrInvalidCreds)
		})
	}
}

func TestLogin_NoConfiguredPasswordDisablesLogin(t *testing.T) {
	svc := testService(t, Config{Username: "curator"})

	_, err := svc.Login(LoginRequest{Username: "curator", Password: ""})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	_, err = svc.Login(LoginRequest{Username: "curator", Password: "anything"})
	assert.ErrorIs(t, err, ErrInvalidCreds)
}

func TestLogin_BcryptHashTakesPrecedence(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	svc := testService(t, Config{Username: "curator", Password: "ignored", PasswordHash: string(hash)})

	_, err = svc.Login(LoginRequest{Username: "curator", Password: "ignored"})
	assert.ErrorIs(t, err, ErrInvalidCreds)

	resp, err := svc.Login(LoginRequest{Username: "curator", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestParseToken_RoundTrip(t *testing.T) {
	svc := testService(t, Config{Username: "curator", Password: "hunter2"})

	resp, err := svc.Login(LoginRequest{Username: "curator", Password: "hunter2"})
	require.NoError(t, err)

	email, err := svc.ParseToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", email)
}

func TestParseToken_RejectsForgedAndExpired(t *testing.T) {
	svc := testService(t, Config{Username: "curator", Password: "hunter2"})
	other := testService(t, Config{Username: "curator", Password: "hunter2", Secret: []byte("different")})

	resp, err := other.Login(LoginRequest{Username: "curator", Password: "hunter2"})
	require.NoError(t, err)

	_, err = svc.ParseToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidCreds)

	expired := testService(t, Config{Username: "curator", Password: "hunter2", TokenTTL: -time.Minute})
	resp, err = expired.Login(LoginRequest{Username: "curator", Password: "hunter2"})
	require.NoError(t, err)

	_, err = expired.ParseToken(resp.Token)
	assert.ErrorIs(t, err, ErrInvalidCreds)
}
