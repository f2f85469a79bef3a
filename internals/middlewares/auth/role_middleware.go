package auth

import (
	"github.com/gofiber/fiber/v2"

	"feeledger_backend/internals/constants"
	helper "feeledger_backend/internals/helpers"
)

// RequireRoles: lolos jika token punya salah satu role.
func RequireRoles(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(helper.GetRolesFromToken(c)) == 0 {
			return helper.JsonError(c, fiber.StatusUnauthorized, "Unauthorized: missing role information")
		}
		if !helper.HasAnyRole(c, roles...) {
			return helper.JsonError(c, fiber.StatusForbidden, constants.RoleErrorFinance(c.Path()))
		}
		return c.Next()
	}
}
