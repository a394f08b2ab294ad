package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facilityops/visit-booking/internal/domain"
	apperrors "github.com/facilityops/visit-booking/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Actor domain.Actor
	// TaxID scopes a PROVIDER principal to one provider. Empty means unscoped.
	TaxID string
}

// OwnsProvider reports whether the principal may act for the provider with taxID.
func (p *Principal) OwnsProvider(taxID string) bool {
	if p.Actor.Role != domain.RoleProvider || p.TaxID == "" {
		return true
	}
	return p.TaxID == taxID
}

// AuthMiddleware validates bearer tokens and stores the principal.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{Actor: claims.Actor(), TaxID: claims.TaxID})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorFromContext returns the authenticated actor, or nil for anonymous calls.
func ActorFromContext(c *fiber.Ctx) *domain.Actor {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil
	}
	actor := principal.Actor
	return &actor
}
