package auth

import (
	"chispa/domain"
	chisperrors "chispa/errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the authenticated caller as seen by every handler: identity plus
// the tier driving quota decisions. The tier is snapshotted at login, an
// upgrade takes effect on the next token.
type Session struct {
	UserID string
	Tier   domain.Tier
}

type sessionClaims struct {
	Tier string `json:"tier"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	key      []byte
	duration time.Duration
}

func NewTokenManager(key string, duration time.Duration) *TokenManager {
	return &TokenManager{key: []byte(key), duration: duration}
}

func (m *TokenManager) Issue(userID string, tier domain.Tier) (string, error) {
	now := time.Now().UTC()
	claims := sessionClaims{
		Tier: string(tier),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
}

// Verify parses and validates a token. An unknown tier value in the claims
// degrades to basic through ParseTier, never to an error.
func (m *TokenManager) Verify(token string) (Session, error) {
	var claims sessionClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Session{}, chisperrors.ErrInvalidCredentials
	}
	return Session{UserID: claims.Subject, Tier: domain.ParseTier(claims.Tier)}, nil
}
