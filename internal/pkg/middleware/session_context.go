package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tsunagi-works/tsunagi/internal/pkg/session"
	"github.com/tsunagi-works/tsunagi/internal/pkg/usercontext"
)

// SessionContextMiddleware runs the session lifecycle (timeout check plus
// identifier rotation) once per request and publishes the resulting
// identity as an explicit UserContext in Locals.
func SessionContextMiddleware(manager *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		manager.Init(c)

		if !manager.IsAuthenticated(c) {
			c.Locals(usercontext.ContextKey, usercontext.UserContext{IsLoggedIn: false})
			return c.Next()
		}

		c.Locals(usercontext.ContextKey, usercontext.UserContext{
			UserID:     manager.UserID(c),
			Email:      manager.UserEmail(c),
			IsLoggedIn: true,
		})
		return c.Next()
	}
}

// RequireAPISessionAuth gates API routes on a live session, answering with
// JSON 401 instead of a redirect.
func RequireAPISessionAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}
	return c.Next()
}
