package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"strive/pkg/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whoAmI(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	return c.SendString(userID)
}

func TestLocalAuthMiddleware(t *testing.T) {
	jwtAuth, err := auth.NewLocalJWTAuth("test-secret", time.Hour)
	require.NoError(t, err)
	token, err := jwtAuth.GenerateAccessToken("65f0c0ffee0000000000beef", "lifter", false)
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/me", LocalAuthMiddleware(jwtAuth), whoAmI)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "65f0c0ffee0000000000beef"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"bad scheme", "Token " + token, http.StatusUnauthorized, ""},
		{"tampered token", "Bearer " + token + "x", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.wantBody != "" {
				body, _ := io.ReadAll(resp.Body)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}

func TestLocalAuthMiddleware_DevBypass(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")

	app := fiber.New()
	app.Get("/me", LocalAuthMiddleware(nil), whoAmI)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, DevUserID, string(body))
}

func TestLocalAuthMiddleware_UnknownEnvironmentWithoutAuth(t *testing.T) {
	t.Setenv("ENVIRONMENT", "staging")

	app := fiber.New()
	app.Get("/me", LocalAuthMiddleware(nil), whoAmI)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestQuestGenerateRateLimiter_InProcess(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	cfg.QuestGenerateMax = 2

	app := fiber.New()
	app.Post("/generate", func(c *fiber.Ctx) error {
		c.Locals("user_id", c.Get("X-User"))
		return c.Next()
	}, QuestGenerateRateLimiter(cfg, nil), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})

	send := func(user string) int {
		req := httptest.NewRequest(http.MethodPost, "/generate", nil)
		req.Header.Set("X-User", user)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}

func TestLoadRateLimitConfig(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("RATE_LIMIT_QUEST_GENERATE", "3")
	t.Setenv("RATE_LIMIT_AUTHENTICATED", "-1")

	cfg := LoadRateLimitConfig()
	assert.Equal(t, 3, cfg.QuestGenerateMax)
	assert.Equal(t, 60, cfg.AuthenticatedMax)
	assert.Equal(t, 200, cfg.GlobalAPIMax)
}
