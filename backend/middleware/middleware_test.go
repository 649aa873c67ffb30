package middleware_test

import (
	"bytes"
	"log"
	"net/http/httptest"
	"testing"

	"capdigital/backend/middleware"
	"capdigital/backend/models"
	"capdigital/backend/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddlewareStoresUserID(t *testing.T) {
	cfg := testutil.Config()
	db := testutil.OpenInMemoryDB(t)
	user := testutil.CreateUser(t, db, "learner@example.com")

	app := fiber.New()
	app.Get("/me", middleware.AuthMiddleware(cfg), func(c *fiber.Ctx) error {
		id, ok := middleware.UserID(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.SendString(id.String())
	})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", testutil.BearerToken(t, cfg, user.ID))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminMiddleware(t *testing.T) {
	cfg := testutil.Config()
	db := testutil.OpenInMemoryDB(t)
	learner := testutil.CreateUser(t, db, "learner@example.com")
	admin := testutil.CreateUser(t, db, "admin@example.com")
	require.NoError(t, db.Model(&admin).Update("role", models.RoleAdmin).Error)

	app := fiber.New()
	app.Get("/admin", middleware.AuthMiddleware(cfg), middleware.AdminMiddleware(db), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	for _, tc := range []struct {
		name   string
		auth   string
		status int
	}{
		{"admin", testutil.BearerToken(t, cfg, admin.ID), fiber.StatusOK},
		{"learner", testutil.BearerToken(t, cfg, learner.ID), fiber.StatusForbidden},
		{"no token", "", fiber.StatusUnauthorized},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)

	app := fiber.New()
	app.Use(middleware.LoggingMiddleware(logger, false))
	app.Get("/lessons/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/lessons/7", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Contains(t, buf.String(), "GET /lessons/7 204")
}
