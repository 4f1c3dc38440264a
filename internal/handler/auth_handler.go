package handler

import (
	"biro-server/internal/middleware"
	"biro-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	log         *zap.SugaredLogger
	fail        middleware.FailFunc
}

func NewAuthHandler(authService service.AuthService, log *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log, fail: JSONFail(log)}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ValidateTokenRequest carries the token base64 encoded, as LoginResult
// returns it.
type ValidateTokenRequest struct {
	Token []byte `json:"token"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(LoginResult{})
	}
	if req.Username == "" || req.Password == "" {
		return c.Status(fiber.StatusBadRequest).JSON(LoginResult{})
	}

	token, err := h.authService.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		status := statusOf(err)
		logFailure(h.log, c, status, err)
		return c.Status(status).JSON(LoginResult{})
	}

	return c.JSON(LoginResult{Success: true, Token: token})
}

// ValidateToken checks and extends a session token
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.StatusBadRequest, badRequest("Invalid JSON"))
	}
	if len(req.Token) == 0 {
		return h.fail(c, fiber.StatusBadRequest, badRequest("Token is required"))
	}

	valid, err := h.authService.ValidateToken(c.UserContext(), req.Token)
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(fiber.Map{"valid": valid})
}

// Me returns the identity behind the bearer token
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	me, err := h.authService.Me(c.UserContext(), middleware.Token(c))
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(me)
}

// WSTicket mints a ticket for the websocket upgrade
// POST /api/v1/auth/ws-ticket
func (h *AuthHandler) WSTicket(c *fiber.Ctx) error {
	ticket, err := h.authService.IssueWSTicket(c.UserContext(), middleware.Token(c))
	if err != nil {
		return h.fail(c, statusOf(err), err)
	}
	return c.JSON(ticket)
}

// Fail is the rejection used by RequireSession on auth routes.
func (h *AuthHandler) Fail(c *fiber.Ctx, status int, err error) error {
	return h.fail(c, status, err)
}
