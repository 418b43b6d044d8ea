package httpapi

import (
	"strings"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/gofiber/fiber/v2"
)

const (
	// TokenCookieName is the cookie carrying the session token.
	TokenCookieName = "token"

	// userContextKey is the fiber locals key holding the verified claims.
	userContextKey = "user"
)

// tokenFromRequest extracts the session token from the "token" cookie, with
// the Authorization Bearer header as a fallback for non-browser clients.
func tokenFromRequest(c *fiber.Ctx) string {
	if token := c.Cookies(TokenCookieName); token != "" {
		return token
	}
	if header := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// AuthMiddleware rejects requests without a valid session token before any
// handler runs, so gated operations never observe or mutate state when the
// caller is unauthenticated.
func AuthMiddleware(secretKey []byte) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := tokenFromRequest(c)
		if token == "" {
			return respondError(c, common.ErrUnauthorized)
		}

		claims, err := auth.ParseToken(token, secretKey)
		if err != nil {
			return respondError(c, common.ErrUnauthorized)
		}

		c.Locals(userContextKey, claims)
		return c.Next()
	}
}

// claimsFromCtx returns the claims stored by AuthMiddleware, or nil when the
// request was not authenticated.
func claimsFromCtx(c *fiber.Ctx) *auth.Claims {
	claims, _ := c.Locals(userContextKey).(*auth.Claims)
	return claims
}
