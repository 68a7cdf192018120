package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	clientIDHeader    = "client-id"
	adminSecretHeader = "x-admin-secret"
)

// ClientAuth requires a valid client-id header and stashes it in the request
// locals. Clients are provisioned out of band; here the id only has to be a
// well-formed UUID.
func ClientAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		clientID := c.Get(clientIDHeader)
		if clientID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing client-id header")
		}
		if _, err := uuid.Parse(clientID); err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "client-id must be a UUID")
		}

		c.Locals("client_id", clientID)

		return c.Next()
	}
}

// AdminAuth gates operator endpoints behind a shared secret, accepted either
// in the x-admin-secret header or as a bearer token. When the configured
// value is a bcrypt hash the presented secret is verified against it,
// otherwise comparison is constant time.
func AdminAuth(secret string) fiber.Handler {
	hashed := strings.HasPrefix(secret, "$2a$") || strings.HasPrefix(secret, "$2b$")

	return func(c *fiber.Ctx) error {
		presented := c.Get(adminSecretHeader)
		if presented == "" {
			auth := c.Get(fiber.HeaderAuthorization)
			if strings.HasPrefix(auth, "Bearer ") {
				presented = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if presented == "" {
			return fiber.NewError(fiber.StatusForbidden, "admin credentials required")
		}

		if hashed {
			if err := bcrypt.CompareHashAndPassword([]byte(secret), []byte(presented)); err != nil {
				return fiber.NewError(fiber.StatusForbidden, "invalid admin credentials")
			}
		} else if subtle.ConstantTimeCompare([]byte(secret), []byte(presented)) != 1 {
			return fiber.NewError(fiber.StatusForbidden, "invalid admin credentials")
		}

		return c.Next()
	}
}
