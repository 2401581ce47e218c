package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/nawaz1711/vibelog-pro/internal/utils"
)

// JWTFromHeader reads a bearer token from the Authorization header and
// stores the parsed token in locals.
func JWTFromHeader(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth := c.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			return fiber.ErrUnauthorized
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

		token, err := jwt.ParseWithClaims(tokenStr, &utils.Claims{}, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			return fiber.ErrUnauthorized
		}

		c.Locals("user", token)
		return c.Next()
	}
}
