package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/oksasatya/storefront-auth/internal/domain/service"
)

// DefaultTokenTTL is the validity window of a login token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

var defaultManager *JWTManager

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	m := &JWTManager{
		Secret: []byte(secret),
		TTL:    ttl,
		now:    time.Now,
	}
	defaultManager = m
	return m
}

// DefaultJWT returns the last constructed JWTManager (used for auto-wiring routes)
func DefaultJWT() *JWTManager { return defaultManager }

// Claims binds a token to a single user id.
type Claims struct {
	UserID string `json:"_id"`
	jwt.RegisteredClaims
}

func (m *JWTManager) clock() time.Time {
	if m.now != nil {
		return m.now()
	}
	return time.Now()
}

// GenerateToken signs a token for userID valid for m.TTL.
func (m *JWTManager) GenerateToken(userID string) (string, time.Time, error) {
	now := m.clock()
	exp := now.Add(m.TTL)
	claims := &Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

func (m *JWTManager) ParseToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.clock),
	)
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

// Issue implements service.TokenService.
func (m *JWTManager) Issue(userID string) (string, time.Time, error) {
	return m.GenerateToken(userID)
}

// Verify implements service.TokenService. Every parse failure collapses to
// ok == false.
func (m *JWTManager) Verify(token string) (*service.TokenClaims, bool) {
	if token == "" {
		return nil, false
	}
	claims, err := m.ParseToken(token)
	if err != nil {
		return nil, false
	}
	out := &service.TokenClaims{UserID: claims.UserID}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, true
}

var _ service.TokenService = (*JWTManager)(nil)
