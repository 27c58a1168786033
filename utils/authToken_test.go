package utils

import (
	"CareDesk/apperrors"
	"CareDesk/cache"
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func TestPasetoRoundTrip(t *testing.T) {
	issuer, err := NewPasetoIssuer(testKey)
	require.NoError(t, err)

	access, refresh, err := issuer.GenerateTokens("user-1")
	require.NoError(t, err)

	id, err := issuer.Verify(context.Background(), access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id.UserID)

	_, err = issuer.Verify(context.Background(), refresh)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	claims, err := issuer.VerifyRefresh(refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestPasetoExpiry(t *testing.T) {
	issuer, err := NewPasetoIssuer(testKey)
	require.NoError(t, err)
	start := time.Now()
	issuer.now = func() time.Time { return start }

	access, _, err := issuer.GenerateTokens("user-1")
	require.NoError(t, err)

	issuer.now = func() time.Time { return start.Add(AccessTokenExpiry + time.Minute) }
	_, err = issuer.Verify(context.Background(), access)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))
}

func TestPasetoKeyLength(t *testing.T) {
	_, err := NewPasetoIssuer("too-short")
	assert.Error(t, err)
}

func TestJWTVerifier(t *testing.T) {
	secret := "hosted-provider-secret"
	v := NewJWTVerifier(secret)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwtClaims) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}

	good := sign(jwt.SigningMethodHS256, []byte(secret), jwtClaims{
		Email: "ada@example.com",
		Name:  "Ada",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-9",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	id, err := v.Verify(context.Background(), good)
	require.NoError(t, err)
	assert.Equal(t, &Identity{UserID: "user-9", Email: "ada@example.com", Name: "Ada"}, id)

	wrongKey := sign(jwt.SigningMethodHS256, []byte("another-secret"), jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	_, err = v.Verify(context.Background(), wrongKey)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthenticated))

	noExpiry := sign(jwt.SigningMethodHS256, []byte(secret), jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-9"},
	})
	_, err = v.Verify(context.Background(), noExpiry)
	assert.Error(t, err)

	noSubject := sign(jwt.SigningMethodHS256, []byte(secret), jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	_, err = v.Verify(context.Background(), noSubject)
	assert.Error(t, err)
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("Str0ng!pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Str0ng!pass"))
	assert.False(t, CheckPassword(hash, "Str0ng!pasS"))
}

func TestResetCodesLocal(t *testing.T) {
	ctx := context.Background()
	codes := NewResetCodes(cache.New(nil))
	start := time.Now()
	codes.now = func() time.Time { return start }

	code, err := GenerateResetCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)

	require.NoError(t, codes.Set(ctx, "ada@example.com", code))
	ok, err := codes.Verify(ctx, "ada@example.com", code)
	require.NoError(t, err)
	assert.True(t, ok)

	codes.now = func() time.Time { return start.Add(16 * time.Minute) }
	ok, err = codes.Verify(ctx, "ada@example.com", code)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResetCodesDiscardedAfterMisses(t *testing.T) {
	ctx := context.Background()
	codes := NewResetCodes(cache.New(nil))
	require.NoError(t, codes.Set(ctx, "ada@example.com", "123456"))

	for i := 0; i < MaxResetAttempts-1; i++ {
		ok, err := codes.Verify(ctx, "ada@example.com", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err := codes.Verify(ctx, "ada@example.com", "123456")
	require.NoError(t, err)
	assert.True(t, ok, "a code survives fewer misses than the limit")

	require.NoError(t, codes.Set(ctx, "ada@example.com", "654321"))
	for i := 0; i < MaxResetAttempts; i++ {
		ok, err = codes.Verify(ctx, "ada@example.com", "000000")
		require.NoError(t, err)
		assert.False(t, ok)
	}
	ok, err = codes.Verify(ctx, "ada@example.com", "654321")
	require.NoError(t, err)
	assert.False(t, ok)
}
