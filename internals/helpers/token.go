// file: internals/helpers/token.go
package helper

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Key Locals yang diisi middleware auth
const (
	LocRawToken   = "raw_token"
	LocUserID     = "user_id"
	LocStudentRef = "student_ref"
	LocRoles      = "roles"
)

// GetRawAccessToken mengembalikan access token dari:
// 1) Locals("raw_token") yang diset middleware
// 2) Authorization header "Bearer <token>"
// 3) cookie "access_token"
func GetRawAccessToken(c *fiber.Ctx) string {
	if v, ok := c.Locals(LocRawToken).(string); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[len("bearer "):])
	}
	return strings.TrimSpace(c.Cookies("access_token"))
}

func SetRawAccessToken(c *fiber.Ctx, raw string) {
	if strings.TrimSpace(raw) != "" {
		c.Locals(LocRawToken, strings.TrimSpace(raw))
	}
}

// GetStudentRefFromToken: 401 kalau belum login, 403 kalau token bukan milik student.
func GetStudentRefFromToken(c *fiber.Ctx) (string, error) {
	if _, ok := c.Locals(LocUserID).(string); !ok {
		return "", fiber.NewError(fiber.StatusUnauthorized, "User belum login")
	}
	ref, _ := c.Locals(LocStudentRef).(string)
	if strings.TrimSpace(ref) == "" {
		return "", fiber.NewError(fiber.StatusForbidden, "Token tidak terhubung ke student")
	}
	return strings.TrimSpace(ref), nil
}

func GetRolesFromToken(c *fiber.Ctx) []string {
	roles, _ := c.Locals(LocRoles).([]string)
	return roles
}

func HasAnyRole(c *fiber.Ctx, allowed ...string) bool {
	for _, r := range GetRolesFromToken(c) {
		for _, a := range allowed {
			if strings.EqualFold(r, a) {
				return true
			}
		}
	}
	return false
}

func ParseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(c.Params(name)))
}
