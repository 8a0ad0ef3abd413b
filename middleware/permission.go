package middleware

import (
	"github.com/gofiber/fiber/v2"
)

// AdminOnly lets the request through only for admin sessions. It must run after JWTMiddleware.
func AdminOnly(c *fiber.Ctx) error {
	session, ok := CurrentSession(c)
	if !ok {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	if !session.IsAdmin() {
		return JsonResponse(c, fiber.StatusForbidden, false, "You do not have permission to access this resource!", nil)
	}
	return c.Next()
}
