package auth

import (
	"fmt"
)

type Permission string

const (
	PermCreateUser   Permission = "create_user"
	PermDeleteUser   Permission = "delete_user"
	PermAssignRoles  Permission = "assign_roles"
	PermViewAllUsers Permission = "view_all_users"

	PermCreateClient   Permission = "create_client"
	PermEditClient     Permission = "edit_client"
	PermDeleteClient   Permission = "delete_client"
	PermViewAllClients Permission = "view_all_clients"

	PermCreateApplication   Permission = "create_application"
	PermEditApplication     Permission = "edit_application"
	PermDeleteApplication   Permission = "delete_application"
	PermAssignApplication   Permission = "assign_application"
	PermViewAllApplications Permission = "view_all_applications"

	PermViewFinancialData Permission = "view_financial_data"
	PermEditFinancialData Permission = "edit_financial_data"
	PermGenerateReports   Permission = "generate_reports"

	PermSystemSettings Permission = "system_settings"
	PermViewLogs       Permission = "view_logs"
)

var allPermissions = []Permission{
	PermCreateUser, PermDeleteUser, PermAssignRoles, PermViewAllUsers,
	PermCreateClient, PermEditClient, PermDeleteClient, PermViewAllClients,
	PermCreateApplication, PermEditApplication, PermDeleteApplication, PermAssignApplication, PermViewAllApplications,
	PermViewFinancialData, PermEditFinancialData, PermGenerateReports,
	PermSystemSettings, PermViewLogs,
}

// rolePermissions is the authored matrix. It is deliberately not derived from the
// hierarchy: supervisors cannot edit financial data although accountants can.
var rolePermissions = map[Role][]Permission{
	RoleAdmin: allPermissions,
	RoleSupervisor: {
		PermCreateUser, PermViewAllUsers,
		PermCreateClient, PermEditClient, PermDeleteClient, PermViewAllClients,
		PermCreateApplication, PermEditApplication, PermDeleteApplication, PermAssignApplication, PermViewAllApplications,
		PermViewFinancialData, PermGenerateReports,
	},
	RoleAccountant: {
		PermViewAllClients, PermEditClient,
		PermViewAllApplications, PermEditApplication,
		PermViewFinancialData, PermEditFinancialData, PermGenerateReports,
	},
	RoleOperator: {
		PermCreateClient, PermEditClient,
		PermCreateApplication, PermEditApplication,
	},
}

var matrix map[Role]map[Permission]struct{}

func init() {
	if err := ValidateMatrix(); err != nil {
		panic(err)
	}
	matrix = make(map[Role]map[Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		matrix[role] = set
	}
}

// AllPermissions returns every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(allPermissions))
	copy(out, allPermissions)
	return out
}

func (p Permission) Valid() bool {
	for _, known := range allPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// ValidateMatrix checks that every role has an entry and that entries only
// reference known roles and permissions.
func ValidateMatrix() error {
	for _, role := range Roles() {
		if _, ok := rolePermissions[role]; !ok {
			return fmt.Errorf("permission matrix: no entry for role %q", role)
		}
	}
	for role, perms := range rolePermissions {
		if !role.Valid() {
			return fmt.Errorf("permission matrix: unknown role %q", role)
		}
		for _, p := range perms {
			if !p.Valid() {
				return fmt.Errorf("permission matrix: role %q references unknown permission %q", role, p)
			}
		}
	}
	return nil
}

// PermissionsFor returns a copy of the role's permissions, empty for unknown roles.
func PermissionsFor(role Role) []Permission {
	set := matrix[role]
	out := make([]Permission, 0, len(set))
	for _, p := range allPermissions {
		if _, ok := set[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

func RoleHasPermission(role Role, p Permission) bool {
	_, ok := matrix[role][p]
	return ok
}

// HasPermission reports whether the user's role grants p.
func HasPermission(u *User, p Permission) bool {
	if u == nil {
		return false
	}
	return RoleHasPermission(u.Role, p)
}
