package auth

import "context"

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
)

const (
	PermWorkdayRead    = "workday.read"
	PermWorkdayWrite   = "workday.write"
	PermSettingsWrite  = "settings.write"
	PermAbsenceRead    = "absence.read"
	PermAbsenceWrite   = "absence.write"
	PermAbsenceApprove = "absence.approve"
	PermReportsRead    = "reports.read"
	PermAuditRead      = "audit.read"
)

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermWorkdayRead,
		PermWorkdayWrite,
		PermSettingsWrite,
		PermAbsenceRead,
		PermAbsenceWrite,
		PermReportsRead,
	},
	RoleManager: {
		PermWorkdayRead,
		PermWorkdayWrite,
		PermSettingsWrite,
		PermAbsenceRead,
		PermAbsenceWrite,
		PermAbsenceApprove,
		PermReportsRead,
		PermAuditRead,
	},
}

func ValidRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

// StaticPermissions answers permission checks from RolePermissions.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(ctx context.Context, role, permission string) (bool, error) {
	for _, p := range RolePermissions[role] {
		if p == permission {
			return true, nil
		}
	}
	return false, nil
}
