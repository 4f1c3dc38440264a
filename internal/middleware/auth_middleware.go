package middleware

import (
	"encoding/base64"
	"errors"
	"strings"

	"biro-server/internal/service"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Keys of the values RequireSession and RequireWSTicket leave in c.Locals.
const (
	LocalToken    = "session_token"
	LocalUserID   = "user_id"
	LocalUsername = "user_name"
)

var (
	ErrMissingToken = errors.New("missing authorization token")
	ErrTokenFormat  = errors.New("invalid authorization format, use: Bearer <base64 token>")
)

// FailFunc writes the rejection in the shape the route normally replies with.
type FailFunc func(c *fiber.Ctx, status int, err error) error

// BearerToken decodes "Authorization: Bearer <base64>".
func BearerToken(c *fiber.Ctx) ([]byte, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return nil, ErrMissingToken
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return nil, ErrTokenFormat
	}

	token, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil || len(token) == 0 {
		return nil, ErrTokenFormat
	}
	return token, nil
}

// RequireSession verifies the bearer token (extending the session) and
// stores the token and its owner in Locals.
func RequireSession(sessions service.SessionManager, fail FailFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := BearerToken(c)
		if err != nil {
			return fail(c, fiber.StatusUnauthorized, err)
		}

		ctx := c.UserContext()
		ok, err := sessions.Verify(ctx, token)
		if err != nil {
			return fail(c, fiber.StatusInternalServerError, err)
		}
		if !ok {
			return fail(c, fiber.StatusUnauthorized, service.ErrUnauthorized)
		}

		user, err := sessions.Lookup(ctx, token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				return fail(c, fiber.StatusUnauthorized, err)
			}
			return fail(c, fiber.StatusInternalServerError, err)
		}

		c.Locals(LocalToken, token)
		c.Locals(LocalUserID, user.ID)
		c.Locals(LocalUsername, user.Username)
		return c.Next()
	}
}

// RequireWSTicket guards the websocket upgrade with a ticket from
// POST /api/v1/auth/ws-ticket passed as ?ticket=.
func RequireWSTicket(auth service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}

		claims, err := auth.ValidateWSTicket(c.Query("ticket"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired ticket"})
		}

		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		return c.Next()
	}
}

// Token returns the verified session token stored by RequireSession.
func Token(c *fiber.Ctx) []byte {
	token, _ := c.Locals(LocalToken).([]byte)
	return token
}
