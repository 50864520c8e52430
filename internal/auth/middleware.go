package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const claimsKey = "session_claims"

// Identify decodes a bearer token when one is sent and stores its
// claims on the request. Requests without a valid token pass through
// unchanged; no route requires a session.
func Identify(tokens *TokenManager, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Next()
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Next()
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			logger.Debug("ignoring invalid session token", zap.Error(err))
			return c.Next()
		}
		c.Locals(claimsKey, claims)
		return c.Next()
	}
}

// ClaimsFromContext returns the claims stored by Identify.
func ClaimsFromContext(c *fiber.Ctx) (*Claims, bool) {
	val := c.Locals(claimsKey)
	if val == nil {
		return nil, false
	}
	claims, ok := val.(*Claims)
	return claims, ok
}
