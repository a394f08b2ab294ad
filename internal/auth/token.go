package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/facilityops/visit-booking/internal/domain"
)

// TokenManager handles issuing and validating JWT tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{secret: []byte(secret), ttl: time.Duration(ttlMinutes) * time.Minute, now: time.Now}
}

// Claims describes JWT payload. The actor id travels in the registered subject.
type Claims struct {
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
	TaxID string      `json:"tax_id,omitempty"`
	jwt.RegisteredClaims
}

// Actor returns the caller described by the claims.
func (c *Claims) Actor() domain.Actor {
	return domain.Actor{ID: c.Subject, Name: c.Name, Role: c.Role}
}

// GenerateToken builds and signs a JWT for the actor. taxID binds a PROVIDER token to one provider.
func (tm *TokenManager) GenerateToken(actor domain.Actor, taxID string) (string, time.Time, error) {
	if actor.ID == "" {
		return "", time.Time{}, errors.New("actor id required")
	}
	if !actor.Role.Valid() {
		return "", time.Time{}, errors.New("unknown role")
	}
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Name:  actor.Name,
		Role:  actor.Role,
		TaxID: taxID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates and returns claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, errors.New("token lacks subject or role")
	}
	return claims, nil
}
