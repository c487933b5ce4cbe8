package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signSessionToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newSessionApp(secret string, gotID *interface{}, gotRole *interface{}) *fiber.App {
	app := fiber.New()
	app.Use(Session(secret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		*gotID = c.Locals("user_id")
		*gotRole = c.Locals("user_role")
		return c.SendString("ok")
	})
	return app
}

func TestSessionResolvesBearerToken(t *testing.T) {
	var gotID, gotRole interface{}
	app := newSessionApp("unit-secret", &gotID, &gotRole)

	token := signSessionToken(t, "unit-secret", jwt.MapClaims{
		"sub":  "42",
		"role": "developer",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(42), gotID)
	require.Equal(t, "developer", gotRole)
}

func TestSessionAcceptsQueryToken(t *testing.T) {
	var gotID, gotRole interface{}
	app := newSessionApp("unit-secret", &gotID, &gotRole)

	token := signSessionToken(t, "unit-secret", jwt.MapClaims{
		"sub":  "7",
		"role": "evaluator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami?token="+token, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, uint(7), gotID)
	require.Equal(t, "evaluator", gotRole)
}

func TestSessionIgnoresForgedToken(t *testing.T) {
	var gotID, gotRole interface{}
	app := newSessionApp("unit-secret", &gotID, &gotRole)

	forged := signSessionToken(t, "other-secret", jwt.MapClaims{
		"sub":  "42",
		"role": "evaluator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+forged)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Nil(t, gotID)
	require.Nil(t, gotRole)
}

func TestSessionIgnoresMissingToken(t *testing.T) {
	var gotID, gotRole interface{}
	app := newSessionApp("unit-secret", &gotID, &gotRole)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Nil(t, gotID)
	require.Nil(t, gotRole)
}
