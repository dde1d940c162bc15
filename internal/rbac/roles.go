package rbac

// Role names. Keep these stable; they are part of auth/RBAC contracts.
// Owners may trigger syncs; analysts are read-only.
const (
	RoleOwner      = "owner"
	RoleAnalyst    = "analyst"
	RoleSuperAdmin = "super_admin"
)

// ReadRoles may use every read endpoint.
var ReadRoles = []string{RoleOwner, RoleAnalyst}

func IsSuperAdmin(role string) bool { return role == RoleSuperAdmin }

// Valid reports whether role is one the service issues tokens for.
func Valid(role string) bool {
	switch role {
	case RoleOwner, RoleAnalyst, RoleSuperAdmin:
		return true
	default:
		return false
	}
}
