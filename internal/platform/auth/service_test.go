package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"PONTO-backend/internal/platform/config"
	"PONTO-backend/internal/platform/db/dbtest"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService(t *testing.T) *Service {
	t.Helper()
	conn, dialect := dbtest.NewSQLite(t)
	return NewService(conn, dialect, config.AuthConfig{
		JWTSecret:  string(testSecret),
		TokenTTL:   time.Hour,
		CookieName: "ponto_session",
	})
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Register(ctx, RegisterInput{Email: " Ana@Example.com ", Password: "s3cret-pass", Name: "Ana"}))

	sess, err := svc.Login(ctx, "ana@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ana@example.com", sess.Account.ID)
	assert.Equal(t, RoleUser, sess.Account.Role)

	claims, ok := parseToken(testSecret, sess.Token)
	require.True(t, ok)
	assert.Equal(t, "ana@example.com", claims["sub"])
	assert.Equal(t, "Ana", claims["name"])
}

func TestService_RegisterRejects(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "12345678"}))

	tests := []struct {
		name string
		in   RegisterInput
		want error
	}{
		{"duplicate", RegisterInput{Email: "A@B.com", Password: "12345678"}, ErrAlreadyExists},
		{"short password", RegisterInput{Email: "c@b.com", Password: "1234"}, ErrInvalidInput},
		{"bad email", RegisterInput{Email: "nope", Password: "12345678"}, ErrInvalidInput},
		{"bad role", RegisterInput{Email: "d@b.com", Password: "12345678", Role: "root"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, svc.Register(ctx, tt.in), tt.want)
		})
	}
}

func TestService_LoginFailures(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "12345678"}))

	_, err := svc.Login(ctx, "a@b.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "missing@b.com", "12345678")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_LoginAlwaysComparesHash(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "12345678"}))

	compared := 0
	svc.compare = func(hash, password []byte) error {
		compared++
		return bcrypt.CompareHashAndPassword(hash, password)
	}

	for _, email := range []string{"a@b.com", "missing@b.com"} {
		before := compared
		_, err := svc.Login(ctx, email, "wrong-password")
		assert.ErrorIs(t, err, ErrInvalidCredentials, email)
		assert.Equal(t, before+1, compared, email)
	}
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.Register(ctx, RegisterInput{Email: "a@b.com", Password: "12345678"}))

	require.NoError(t, svc.Delete(ctx, "a@b.com"))
	assert.ErrorIs(t, svc.Delete(ctx, "a@b.com"), ErrNotFound)

	_, err := svc.Get(ctx, "a@b.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseToken_Rejects(t *testing.T) {
	acct := &Account{ID: "a@b.com", Role: RoleUser}
	now := time.Now()

	expired, err := IssueToken(testSecret, acct, now.Add(-2*time.Hour), now.Add(-time.Hour))
	require.NoError(t, err)
	_, ok := parseToken(testSecret, expired)
	assert.False(t, ok, "expired")

	other, err := IssueToken([]byte("another-secret-another-secret-xx"), acct, now, now.Add(time.Hour))
	require.NoError(t, err)
	_, ok = parseToken(testSecret, other)
	assert.False(t, ok, "wrong secret")

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "a@b.com", "exp": now.Add(time.Hour).Unix()}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok = parseToken(testSecret, none)
	assert.False(t, ok, "alg none")

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "a@b.com"}).SignedString(testSecret)
	require.NoError(t, err)
	_, ok = parseToken(testSecret, noExp)
	assert.False(t, ok, "missing exp")
}
