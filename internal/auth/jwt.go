package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token expired")
)

// DefaultTTL is the lifetime of a management session.
const DefaultTTL = 15 * time.Minute

// Claims grant management access to a single link. Fingerprint ties the
// grant to the stored row that issued it, so a token recreated under the
// same name by someone else is not covered.
type Claims struct {
	Link        string `json:"link"`
	Fingerprint string `json:"fp"`
	jwt.RegisteredClaims
}

type JWTService struct {
	secretKey []byte
	ttl       time.Duration
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &JWTService{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

// GenerateToken issues a session token for link bound to fingerprint.
func (j *JWTService) GenerateToken(link, fingerprint string) (string, error) {
	now := time.Now()
	claims := Claims{
		Link:        link,
		Fingerprint: fingerprint,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   link,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secretKey)
}

func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return j.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.Link == "" || claims.Fingerprint == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// Fingerprint derives the row binding of a session from the stored link
// and its password.
func (j *JWTService) Fingerprint(link, password string) string {
	mac := hmac.New(sha256.New, j.secretKey)
	mac.Write([]byte(link))
	mac.Write([]byte{0})
	mac.Write([]byte(password))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// TTL returns the lifetime of issued tokens.
func (j *JWTService) TTL() time.Duration {
	return j.ttl
}

type contextKey string

const sessionKey contextKey = "session"

// Session is a validated management grant.
type Session struct {
	Link        string
	Fingerprint string
}

// SessionOf extracts the grant carried by claims.
func SessionOf(claims *Claims) Session {
	return Session{Link: claims.Link, Fingerprint: claims.Fingerprint}
}

// WithSession stores the grant a request is authorised with.
func WithSession(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}

// SessionFromContext returns the grant of the request, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionKey).(Session)
	return session, ok && session.Link != ""
}
