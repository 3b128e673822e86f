package entity

// Role nivel de permisos global (independiente del tenant) asignado a un actor.
// El conjunto es cerrado: cualquier valor fuera de Roles() se trata como no autenticado.
type Role string

// Roles válidos.
const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleManager    Role = "manager"
	RoleCashier    Role = "cashier"
	RoleViewer     Role = "viewer"
	RoleEmployee   Role = "employee"

	// RoleUnauthenticated resultado de un actor sin rol resoluble: no concede nada.
	RoleUnauthenticated Role = "unauthenticated"
)

// Roles devuelve el conjunto cerrado de roles asignables.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleManager, RoleCashier, RoleViewer, RoleEmployee}
}

// ParseRole convierte el valor almacenado en un Role. ok=false si no pertenece al conjunto.
func ParseRole(s string) (Role, bool) {
	for _, r := range Roles() {
		if string(r) == s {
			return r, true
		}
	}
	return RoleUnauthenticated, false
}

// Actor identidad autenticada que actúa dentro de un tenant.
type Actor struct {
	ID            string
	TenantID      string
	GlobalRole    Role // pista del token; la fuente de verdad es el RoleResolver
	Authenticated bool
}

// SameContext indica si dos actores comparten identidad y tenant.
func (a Actor) SameContext(other Actor) bool {
	return a.ID == other.ID && a.TenantID == other.TenantID
}
