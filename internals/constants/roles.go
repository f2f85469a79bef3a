package constants

import "fmt"

// Role yang dibaca dari claim "roles" / "role" token
const (
	RoleAdmin   = "admin"
	RoleFinance = "finance"
	RoleStudent = "student"
)

// Template pesan error role
const ErrOnlyFinanceCanAccess = "❌ Hanya admin atau staf keuangan yang boleh mengakses fitur %s."

func RoleErrorFinance(feature string) string {
	return fmt.Sprintf(ErrOnlyFinanceCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	FinanceStaff = []string{
		RoleAdmin,
		RoleFinance,
	}

	AllRoles = []string{
		RoleAdmin,
		RoleFinance,
		RoleStudent,
	}
)
