package entity

import "time"

// Permission permiso con nombre consultable vía Guard.HasPermission.
type Permission string

// Permisos de la tabla de roles.
const (
	PermViewDashboard    Permission = "view_dashboard"
	PermManageProducts   Permission = "manage_products"
	PermManageSales      Permission = "manage_sales"
	PermManagePurchases  Permission = "manage_purchases"
	PermManageCategories Permission = "manage_categories"
	PermManageSuppliers  Permission = "manage_suppliers"
	PermManageUsers      Permission = "manage_users"
	PermViewReports      Permission = "view_reports"
)

// Capacidades finas de empleado (mismo vocabulario que EmployeeCapabilities).
const (
	PermCanMakeSales    Permission = "can_make_sales"
	PermCanViewProducts Permission = "can_view_products"
	PermCanViewReports  Permission = "can_view_reports"
	PermCanManageStock  Permission = "can_manage_stock"
)

// TablePermissions permisos derivados de la tabla de roles, en orden estable.
func TablePermissions() []Permission {
	return []Permission{
		PermViewDashboard, PermManageProducts, PermManageSales, PermManagePurchases,
		PermManageCategories, PermManageSuppliers, PermManageUsers, PermViewReports,
	}
}

// CapabilityPermissions permisos de capacidad de empleado.
func CapabilityPermissions() []Permission {
	return []Permission{PermCanMakeSales, PermCanViewProducts, PermCanViewReports, PermCanManageStock}
}

// EmployeeCapabilities capacidades explícitas de un actor con rol employee.
// La ausencia de registro equivale al valor cero: todo denegado.
type EmployeeCapabilities struct {
	CanMakeSales    bool
	CanViewProducts bool
	CanViewReports  bool
	CanManageStock  bool
}

// Any indica si al menos una capacidad está concedida.
func (c EmployeeCapabilities) Any() bool {
	return c.CanMakeSales || c.CanViewProducts || c.CanViewReports || c.CanManageStock
}

// PermissionSnapshot resultado inmutable de una resolución de permisos para (actor, tenant).
// Se reemplaza completo en cada resolución; nunca se modifica después de publicado.
type PermissionSnapshot struct {
	actorID     string
	tenantID    string
	role        Role
	plan        PlanType
	permissions map[Permission]bool
	features    *FeatureSet
	resolvedAt  time.Time
	degraded    bool
}

// SnapshotParams datos para construir un snapshot.
type SnapshotParams struct {
	ActorID     string
	TenantID    string
	Role        Role
	Plan        PlanType
	Permissions map[Permission]bool
	Features    *FeatureSet
	ResolvedAt  time.Time
	Degraded    bool // el plan se resolvió por fail-open
}

// NewPermissionSnapshot construye el snapshot copiando el mapa de permisos.
func NewPermissionSnapshot(p SnapshotParams) *PermissionSnapshot {
	perms := make(map[Permission]bool, len(p.Permissions))
	for k, v := range p.Permissions {
		perms[k] = v
	}
	features := p.Features
	if features == nil {
		features = AllFeaturesEnabled(p.Plan)
	}
	return &PermissionSnapshot{
		actorID:     p.ActorID,
		tenantID:    p.TenantID,
		role:        p.Role,
		plan:        p.Plan,
		permissions: perms,
		features:    features,
		resolvedAt:  p.ResolvedAt,
		degraded:    p.Degraded,
	}
}

func (s *PermissionSnapshot) ActorID() string       { return s.actorID }
func (s *PermissionSnapshot) TenantID() string      { return s.tenantID }
func (s *PermissionSnapshot) Role() Role            { return s.role }
func (s *PermissionSnapshot) PlanType() PlanType    { return s.plan }
func (s *PermissionSnapshot) Features() *FeatureSet { return s.features }
func (s *PermissionSnapshot) ResolvedAt() time.Time { return s.resolvedAt }
func (s *PermissionSnapshot) Degraded() bool        { return s.degraded }

// Allows consulta un permiso. Claves desconocidas se deniegan.
func (s *PermissionSnapshot) Allows(p Permission) bool {
	return s.permissions[p]
}

// FeatureEnabled consulta una feature del plan.
func (s *PermissionSnapshot) FeatureEnabled(key string) bool {
	return s.features.Enabled(key)
}

// Permissions copia del mapa de permisos.
func (s *PermissionSnapshot) Permissions() map[Permission]bool {
	cp := make(map[Permission]bool, len(s.permissions))
	for k, v := range s.permissions {
		cp[k] = v
	}
	return cp
}

// SameContext indica si el snapshot pertenece al mismo (actor, tenant) que otro.
func (s *PermissionSnapshot) SameContext(other *PermissionSnapshot) bool {
	return other != nil && s.actorID == other.actorID && s.tenantID == other.tenantID
}
