package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// RequireRole guards a route group behind one role. Both unauthenticated
// visitors and authenticated accounts with a different role are redirected to
// the login path, never shown a forbidden page. The gate runs once per request
// chain; downstream handlers trust the identity it resolved.
func RequireRole(role, loginPath string) fiber.Handler {
	required := strings.ToLower(strings.TrimSpace(role))
	if loginPath == "" {
		loginPath = "/login"
	}

	return func(c *fiber.Ctx) error {
		if c.Locals("user_id") == nil {
			return c.Redirect(loginPath, fiber.StatusSeeOther)
		}

		if normalizeRoleValue(c.Locals("user_role")) != required {
			return c.Redirect(loginPath, fiber.StatusSeeOther)
		}

		return c.Next()
	}
}

func normalizeRoleValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(v))
	case fmt.Stringer:
		return strings.ToLower(strings.TrimSpace(v.String()))
	default:
		if value == nil {
			return ""
		}
		return strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", value)))
	}
}
