package serverutils

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
)

// OperatorKeyHeader carries the shared key for operator-only routes.
const OperatorKeyHeader = "X-Operator-Key"

// OperatorKeyMiddleware guards routes meant for operators rather than
// session holders. An empty key disables those routes.
func OperatorKeyMiddleware(key string) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if key == "" {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Operator routes are disabled"))
		}
		given := ctx.Get(OperatorKeyHeader)
		if given == "" {
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, "Missing operator key"))
		}
		if subtle.ConstantTimeCompare([]byte(given), []byte(key)) != 1 {
			return ctx.Status(fiber.StatusForbidden).JSON(ErrorResponse(fiber.StatusForbidden, "Invalid operator key"))
		}
		return ctx.Next()
	}
}
