package auth

// CanAssign reports whether actor may create a user with, or change a user to, target.
// The rules are enumerated by hand and do not follow the hierarchy.
func CanAssign(actor, target Role) bool {
	switch actor {
	case RoleAdmin:
		return target.Valid()
	case RoleSupervisor:
		return target == RoleOperator || target == RoleAccountant
	default:
		return false
	}
}

// AllowedRolesToAssign lists the roles actor may hand out, most privileged first.
func AllowedRolesToAssign(actor Role) []Role {
	switch actor {
	case RoleAdmin:
		return Roles()
	case RoleSupervisor:
		return []Role{RoleAccountant, RoleOperator}
	default:
		return []Role{}
	}
}
