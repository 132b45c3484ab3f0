package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/spincycle/backend/internal/config"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOperator Role = "operator"
)

const (
	localsRole  = "role"
	localsActor = "actor"
)

func requestToken(c *fiber.Ctx) string {
	token := c.Get("X-Admin-Token")
	if token == "" {
		token = c.Get("X-Operator-Token")
	}
	if token == "" {
		auth := c.Get("Authorization")
		const prefix = "Bearer "
		if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
			token = auth[len(prefix):]
		}
	}
	if token == "" {
		// browsers cannot set headers on a websocket handshake
		token = c.Query("token")
	}
	return token
}

func tokenEquals(got, want string) bool {
	return want != "" && subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// Auth resolves the caller's role from X-Admin-Token, X-Operator-Token or a
// bearer token. With no tokens configured every caller is an admin, which is
// the local development setup.
func Auth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		adminKey := cfg.Auth.AdminAPIKey
		operatorToken := cfg.Auth.OperatorToken

		role := RoleAdmin
		if adminKey != "" || operatorToken != "" {
			token := requestToken(c)
			switch {
			case tokenEquals(token, adminKey):
				role = RoleAdmin
			case tokenEquals(token, operatorToken):
				role = RoleOperator
			default:
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "unauthorized",
				})
			}
		}

		c.Locals(localsRole, role)
		actor := c.Get("X-Actor")
		if actor == "" {
			actor = string(role)
		}
		c.Locals(localsActor, actor)
		return c.Next()
	}
}

// AdminOnly rejects callers that did not authenticate as admin.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !IsPrivileged(c) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "admin role required",
			})
		}
		return c.Next()
	}
}

// IsPrivileged reports whether the caller may override machine number
// ranges and run admin operations.
func IsPrivileged(c *fiber.Ctx) bool {
	role, _ := c.Locals(localsRole).(Role)
	return role == RoleAdmin
}

func Actor(c *fiber.Ctx) string {
	actor, _ := c.Locals(localsActor).(string)
	return actor
}
