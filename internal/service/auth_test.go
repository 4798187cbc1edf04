package service

import (
	"context"
	"testing"
	"time"

	"github.com/GoPolymarket/clawdash/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authConfig() config.AuthConfig {
	return config.AuthConfig{
		Username:      "operator",
		Password:      "correct horse",
		SessionSecret: "0123456789abcdef0123",
		SessionTTL:    30 * 24 * time.Hour,
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	svc := NewAuthService(authConfig(), nil)
	ctx := context.Background()

	token, err := svc.Login(ctx, "operator", "correct horse")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "operator", claims.Username())
	assert.NotEmpty(t, claims.ID)
}

func TestLoginRejectsMismatch(t *testing.T) {
	svc := NewAuthService(authConfig(), nil)
	ctx := context.Background()

	for _, pair := range [][2]string{
		{"operator", "wrong"},
		{"someone", "correct horse"},
		{"", ""},
	} {
		token, err := svc.Login(ctx, pair[0], pair[1])
		assert.ErrorIs(t, err, ErrInvalidCredentials, pair)
		assert.Empty(t, token)
	}
}

func TestLoginWithBcryptHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hashed secret"), bcrypt.MinCost)
	require.NoError(t, err)
	cfg := authConfig()
	cfg.Password = ""
	cfg.PasswordHash = string(hash)
	svc := NewAuthService(cfg, nil)

	_, err = svc.Login(context.Background(), "operator", "hashed secret")
	assert.NoError(t, err)
	_, err = svc.Login(context.Background(), "operator", "correct horse")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestVerifyRejectsForgedAndExpired(t *testing.T) {
	svc := NewAuthService(authConfig(), nil)
	ctx := context.Background()

	_, err := svc.Verify(ctx, "operator:deadbeef")
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Signed with another secret.
	other := authConfig()
	other.SessionSecret = "another-secret-value-000"
	forged, err := NewAuthService(other, svc.store).Login(ctx, "operator", "correct horse")
	require.NoError(t, err)
	_, err = svc.Verify(ctx, forged)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// alg=none is never accepted.
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject: "operator", ID: "x", Issuer: sessionIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Verify(ctx, none)
	assert.ErrorIs(t, err, ErrInvalidSession)

	token, err := svc.Login(ctx, "operator", "correct horse")
	require.NoError(t, err)
	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestLogoutRevokesSession(t *testing.T) {
	svc := NewAuthService(authConfig(), nil)
	ctx := context.Background()

	token, err := svc.Login(ctx, "operator", "correct horse")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(ctx, token))

	_, err = svc.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)

	assert.NoError(t, svc.Logout(ctx, "garbage"))
}

func TestMemorySessionStoreExpiry(t *testing.T) {
	store := NewMemorySessionStore()
	now := time.Now()
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", "operator", time.Minute))
	ok, err := store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = store.Exists(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}
