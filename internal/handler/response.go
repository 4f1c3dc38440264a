package handler

import (
	"errors"
	"strconv"

	"biro-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type LoginResult struct {
	Success bool   `json:"success"`
	Token   []byte `json:"token"`
}

// CrudResult is the reply of every customer, product type and product
// route. Count is -1 on failure.
type CrudResult struct {
	Result      interface{}    `json:"result"`
	Count       int            `json:"count"`
	UserContext map[int]string `json:"user_context,omitempty"`
	Error       string         `json:"error,omitempty"`
}

type ReserveResult struct {
	Success               bool   `json:"success"`
	CorrectedSerialNumber int    `json:"corrected_serial_number"`
	Error                 string `json:"error,omitempty"`
}

// statusOf maps service errors onto HTTP statuses.
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized), errors.Is(err, service.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

// messageOf hides internal errors from clients.
func messageOf(status int, err error) string {
	if status == fiber.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

func logFailure(log *zap.SugaredLogger, c *fiber.Ctx, status int, err error) {
	if status >= fiber.StatusInternalServerError {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
}

// CrudFail replies with a failed CrudResult. It doubles as the middleware
// rejection for CRUD routes.
func CrudFail(log *zap.SugaredLogger) func(c *fiber.Ctx, status int, err error) error {
	return func(c *fiber.Ctx, status int, err error) error {
		logFailure(log, c, status, err)
		return c.Status(status).JSON(CrudResult{Count: -1, Error: messageOf(status, err)})
	}
}

// ReserveFail replies with a failed ReserveResult.
func ReserveFail(log *zap.SugaredLogger) func(c *fiber.Ctx, status int, err error) error {
	return func(c *fiber.Ctx, status int, err error) error {
		logFailure(log, c, status, err)
		return c.Status(status).JSON(ReserveResult{Error: messageOf(status, err)})
	}
}

// JSONFail replies with the plain {"error": ...} object used by auth routes.
func JSONFail(log *zap.SugaredLogger) func(c *fiber.Ctx, status int, err error) error {
	return func(c *fiber.Ctx, status int, err error) error {
		logFailure(log, c, status, err)
		return c.Status(status).JSON(fiber.Map{"error": messageOf(status, err)})
	}
}

func badRequest(msg string) error {
	return &service.ValidationError{Field: "request", Reason: msg}
}

// presentQuery returns the query arguments among keys that the request
// carries, including empty ones.
func presentQuery(c *fiber.Ctx, keys ...string) map[string]string {
	args := c.Context().QueryArgs()
	found := make(map[string]string)
	for _, k := range keys {
		if args.Has(k) {
			found[k] = string(args.Peek(k))
		}
	}
	return found
}

func queryInt(v, name string) (*int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, &service.ValidationError{Field: name, Reason: name + " must be an integer"}
	}
	return &n, nil
}

func paramID(c *fiber.Ctx) (int, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return 0, &service.ValidationError{Field: "id", Reason: "id must be a positive integer"}
	}
	return id, nil
}
