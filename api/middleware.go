package api

import (
	"chispa/auth"
	"strings"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const sessionKey = "session"

// requireSession authenticates the request through a Bearer token and stores
// the decoded session in the request locals.
func (s *Server) requireSession(c *fiber.Ctx) error {
	header := c.Get(fiber.HeaderAuthorization)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
	}

	session, err := s.tokens.Verify(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
	}

	c.Locals(sessionKey, session)
	return c.Next()
}

func sessionFrom(c *fiber.Ctx) auth.Session {
	session, _ := c.Locals(sessionKey).(auth.Session)
	return session
}

// upgradeRequired gates the websocket route to actual upgrade requests.
func upgradeRequired(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return c.SendStatus(fiber.StatusUpgradeRequired)
}
