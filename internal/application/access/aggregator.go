package access

import (
	"time"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// roleRow una fila de la tabla rol → permisos. Al ser un struct, cada permiso
// de la tabla es un campo y no puede quedar sin decidir.
type roleRow struct {
	ViewDashboard    bool
	ManageProducts   bool
	ManageSales      bool
	ManagePurchases  bool
	ManageCategories bool
	ManageSuppliers  bool
	ManageUsers      bool
	ViewReports      bool
}

var (
	fullAccessRow = roleRow{
		ViewDashboard: true, ManageProducts: true, ManageSales: true, ManagePurchases: true,
		ManageCategories: true, ManageSuppliers: true, ManageUsers: true, ViewReports: true,
	}
	managerRow = roleRow{
		ViewDashboard: true, ManageProducts: true, ManageSales: true, ManagePurchases: true,
		ManageCategories: true, ManageSuppliers: true, ManageUsers: false, ViewReports: true,
	}
	cashierRow = roleRow{ViewDashboard: true, ManageSales: true}
	viewerRow  = roleRow{ViewDashboard: true, ViewReports: true}
	noAccess   = roleRow{}
)

// tableRow despacho cerrado sobre el conjunto de roles. employee no usa la tabla
// (sus permisos vienen de las capacidades) y cualquier valor ajeno al conjunto cae en noAccess.
func tableRow(role entity.Role) roleRow {
	switch role {
	case entity.RoleSuperAdmin, entity.RoleAdmin:
		return fullAccessRow
	case entity.RoleManager:
		return managerRow
	case entity.RoleCashier:
		return cashierRow
	case entity.RoleViewer:
		return viewerRow
	case entity.RoleEmployee, entity.RoleUnauthenticated:
		return noAccess
	}
	return noAccess
}

func (r roleRow) permissions() map[entity.Permission]bool {
	return map[entity.Permission]bool{
		entity.PermViewDashboard:    r.ViewDashboard,
		entity.PermManageProducts:   r.ManageProducts,
		entity.PermManageSales:      r.ManageSales,
		entity.PermManagePurchases:  r.ManagePurchases,
		entity.PermManageCategories: r.ManageCategories,
		entity.PermManageSuppliers:  r.ManageSuppliers,
		entity.PermManageUsers:      r.ManageUsers,
		entity.PermViewReports:      r.ViewReports,
	}
}

// capabilitiesFromRow capacidades estructurales de los roles que no son employee.
func capabilitiesFromRow(r roleRow) entity.EmployeeCapabilities {
	return entity.EmployeeCapabilities{
		CanMakeSales:    r.ManageSales,
		CanViewProducts: r.ManageProducts || r.ManageSales,
		CanViewReports:  r.ViewReports,
		CanManageStock:  r.ManageProducts,
	}
}

// rowFromCapabilities puente de capacidades de empleado hacia las claves de la tabla.
func rowFromCapabilities(c entity.EmployeeCapabilities) roleRow {
	return roleRow{
		ViewDashboard: c.Any(),
		ManageSales:   c.CanMakeSales,
		ViewReports:   c.CanViewReports,
	}
}

func capabilityPermissions(c entity.EmployeeCapabilities) map[entity.Permission]bool {
	return map[entity.Permission]bool{
		entity.PermCanMakeSales:    c.CanMakeSales,
		entity.PermCanViewProducts: c.CanViewProducts,
		entity.PermCanViewReports:  c.CanViewReports,
		entity.PermCanManageStock:  c.CanManageStock,
	}
}

// Aggregate combina los tres resultados en un snapshot inmutable. Es una función pura:
// mismos resultados de entrada y mismo instante => mismo snapshot.
//
// Rol y plan son ejes ortogonales: los permisos salen solo del rol (o de las capacidades
// para employee) y las features salen solo del plan.
func Aggregate(actor entity.Actor, role RoleOutcome, plan PlanOutcome, caps CapabilityOutcome, now time.Time) *entity.PermissionSnapshot {
	var (
		row  roleRow
		capa entity.EmployeeCapabilities
	)
	switch {
	case !role.Authenticated():
		row = noAccess
	case role.Role == entity.RoleEmployee:
		if caps.Applicable {
			capa = caps.Capabilities
		}
		row = rowFromCapabilities(capa)
	default:
		row = tableRow(role.Role)
		capa = capabilitiesFromRow(row)
	}

	perms := row.permissions()
	for k, v := range capabilityPermissions(capa) {
		perms[k] = v
	}

	resolvedRole := role.Role
	if !role.Authenticated() {
		resolvedRole = entity.RoleUnauthenticated
	}

	return entity.NewPermissionSnapshot(entity.SnapshotParams{
		ActorID:     actor.ID,
		TenantID:    actor.TenantID,
		Role:        resolvedRole,
		Plan:        plan.PlanType,
		Permissions: perms,
		Features:    plan.Features,
		ResolvedAt:  now,
		Degraded:    plan.Degraded(),
	})
}
