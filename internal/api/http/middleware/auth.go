package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// AdminToken accepts only "Authorization: Bearer <token>". The comparison
// runs in constant time. An empty token rejects everything.
func AdminToken(token string) fiber.Handler {
	want := []byte(token)
	return func(c fiber.Ctx) error {
		scheme, got, found := strings.Cut(c.Get("Authorization"), " ")
		if !found || !strings.EqualFold(scheme, "Bearer") || len(want) == 0 {
			return fiber.ErrUnauthorized
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), want) != 1 {
			return fiber.ErrUnauthorized
		}
		return c.Next()
	}
}
