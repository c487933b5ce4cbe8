package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

func newRoleGateApp(setup fiber.Handler) *fiber.App {
	app := fiber.New()
	handlers := []fiber.Handler{}
	if setup != nil {
		handlers = append(handlers, setup)
	}
	handlers = append(handlers, RequireRole("evaluator", "/login"), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	app.Get("/api/v1/evaluator/submissions", handlers...)
	return app
}

func TestRequireRoleRedirectsAnonymous(t *testing.T) {
	app := newRoleGateApp(nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluator/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireRoleRedirectsWrongRole(t *testing.T) {
	app := newRoleGateApp(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		c.Locals("user_role", "developer")
		return c.Next()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluator/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	app := newRoleGateApp(func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(9))
		c.Locals("user_role", "Evaluator")
		return c.Next()
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/evaluator/submissions", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}
