package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"biro-server/internal/clock"
	"biro-server/internal/model"
	"biro-server/internal/repository/memory"
	"biro-server/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func rejectWith(c *fiber.Ctx, status int, err error) error {
	return c.Status(status).SendString(err.Error())
}

func newSessionApp(t *testing.T) (*fiber.App, []byte) {
	t.Helper()
	store := memory.NewStore()
	user := &model.User{ID: 7, Username: "Test_123", PasswordHash: []byte{1}, Salt: []byte{2}}
	require.NoError(t, store.Users().Create(context.Background(), user))

	clk := clock.NewFixed(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	sessions := service.NewSessionManager(store.Sessions(), clk, time.Hour, time.Minute, zaptest.NewLogger(t).Sugar())
	token, err := sessions.IssueOrRenew(context.Background(), user)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/who", RequireSession(sessions, rejectWith), func(c *fiber.Ctx) error {
		assert.Equal(t, token, Token(c))
		return c.SendString(c.Locals(LocalUsername).(string))
	})
	return app, token
}

func TestRequireSession(t *testing.T) {
	app, token := newSessionApp(t)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"valid", "Bearer " + base64.StdEncoding.EncodeToString(token), http.StatusOK},
		{"lowercase scheme", "bearer " + base64.StdEncoding.EncodeToString(token), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"not base64", "Bearer %%%", http.StatusUnauthorized},
		{"unknown token", "Bearer " + base64.StdEncoding.EncodeToString([]byte("other")), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/who", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
