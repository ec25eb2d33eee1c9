package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/heybearc/quantshift-sub001/internal/auth/domain"
	"github.com/heybearc/quantshift-sub001/pkg/constant"
)

const localUserID = "user_id"

// RequireRole verifies the access token from the cookie or Authorization
// header and rejects requests whose role does not match.
func (h *AuthHandler) RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Cookies(constant.AccessTokenCookie)
		if tokenString == "" {
			auth := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") {
				tokenString = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing access token"})
		}

		claims, err := h.tokens.VerifyAccessToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid access token"})
		}

		if claims.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}

		c.Locals(localUserID, claims.UserID)

		return c.Next()
	}
}
