package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

const apiKeyHeader = "X-API-Key"

// APIKeyAuth rejects requests whose X-API-Key does not match the bcrypt
// hash. An empty hash disables the check.
func APIKeyAuth(hash string) fiber.Handler {
	hashed := []byte(strings.TrimSpace(hash))
	return func(c *fiber.Ctx) error {
		if len(hashed) == 0 {
			return c.Next()
		}
		key := strings.TrimSpace(c.Get(apiKeyHeader))
		if key == "" {
			if authz := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				key = strings.TrimSpace(authz[len("Bearer "):])
			}
		}
		if key == "" {
			return fiber.NewError(http.StatusUnauthorized, "missing api key")
		}
		if err := bcrypt.CompareHashAndPassword(hashed, []byte(key)); err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid api key")
		}
		c.Locals(apiKeyHeader, true)
		return c.Next()
	}
}

// HashAPIKey returns the bcrypt hash to configure for key.
func HashAPIKey(key string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
