package utils

import (
	"CareDesk/apperrors"
	"context"
	"time"

	"github.com/o1egl/paseto"
	"github.com/pkg/errors"
)

const (
	// Set expiration times for access and refresh tokens.
	AccessTokenExpiry  = 24 * time.Hour
	RefreshTokenExpiry = 7 * 24 * time.Hour
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Identity is what an identity provider vouches for. Email and Name are only
// filled by providers that carry them.
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// TokenVerifier turns a bearer token into an authenticated identity.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// TokenClaims is the payload of a PASETO token.
type TokenClaims struct {
	UserID string    `json:"userId"`
	Kind   string    `json:"kind"`
	Expiry time.Time `json:"expiry"`
}

// PasetoIssuer issues and verifies v2 local tokens for the built-in provider.
type PasetoIssuer struct {
	key []byte
	now func() time.Time
}

// NewPasetoIssuer requires a 32 byte symmetric key.
func NewPasetoIssuer(symmetricKey string) (*PasetoIssuer, error) {
	if len(symmetricKey) != 32 {
		return nil, errors.Errorf("SYMMETRIC_KEY must be 32 bytes long, got %d", len(symmetricKey))
	}
	return &PasetoIssuer{key: []byte(symmetricKey), now: time.Now}, nil
}

// GenerateTokens generates both the access token and refresh token for the given user ID.
func (p *PasetoIssuer) GenerateTokens(userID string) (accessToken, refreshToken string, err error) {
	accessToken, err = p.generate(userID, tokenAccess, AccessTokenExpiry)
	if err != nil {
		return "", "", err
	}
	refreshToken, err = p.generate(userID, tokenRefresh, RefreshTokenExpiry)
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func (p *PasetoIssuer) generate(userID, kind string, expiry time.Duration) (string, error) {
	claims := TokenClaims{
		UserID: userID,
		Kind:   kind,
		Expiry: p.now().Add(expiry),
	}
	token, err := paseto.NewV2().Encrypt(p.key, claims, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate token")
	}
	return token, nil
}

// Verify accepts access tokens only.
func (p *PasetoIssuer) Verify(_ context.Context, token string) (*Identity, error) {
	claims, err := p.parse(token, tokenAccess)
	if err != nil {
		return nil, err
	}
	return &Identity{UserID: claims.UserID}, nil
}

// VerifyRefresh validates a refresh token and returns its claims.
func (p *PasetoIssuer) VerifyRefresh(token string) (*TokenClaims, error) {
	return p.parse(token, tokenRefresh)
}

func (p *PasetoIssuer) parse(token, kind string) (*TokenClaims, error) {
	var claims TokenClaims
	if err := paseto.NewV2().Decrypt(token, p.key, &claims, nil); err != nil {
		return nil, apperrors.Unauthenticated("invalid token")
	}
	if claims.Kind != kind {
		return nil, apperrors.Unauthenticated("wrong token type")
	}
	if p.now().After(claims.Expiry) {
		return nil, apperrors.Unauthenticated("token expired")
	}
	if claims.UserID == "" {
		return nil, apperrors.Unauthenticated("token has no subject")
	}
	return &claims, nil
}
