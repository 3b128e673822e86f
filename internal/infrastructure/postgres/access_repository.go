package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
)

var (
	_ repository.RoleRepository               = (*RoleRepo)(nil)
	_ repository.EmployeeCapabilityRepository = (*EmployeeCapabilityRepo)(nil)
)

// RoleRepo rol global de cada usuario (tabla user_roles).
type RoleRepo struct {
	q Querier
}

// NewRoleRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRoleRepository(q Querier) *RoleRepo {
	return &RoleRepo{q: q}
}

// GetRole devuelve el rol tal como está guardado; "" si el usuario no tiene fila.
// La validación contra el conjunto de roles la hace el RoleResolver.
func (r *RoleRepo) GetRole(ctx context.Context, actorID string) (string, error) {
	var role string
	err := r.q.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, actorID).Scan(&role)
	if err != nil {
		if isNoRows(err) {
			return "", nil
		}
		return "", fmt.Errorf("get role: %w", err)
	}
	return role, nil
}

// SetRole asigna el rol (seed y administración).
func (r *RoleRepo) SetRole(ctx context.Context, actorID string, role entity.Role) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_roles (user_id, role, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = now()`,
		actorID, string(role))
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return nil
}

// EmployeeCapabilityRepo capacidades de empleados (tabla employee_capabilities).
type EmployeeCapabilityRepo struct {
	q Querier
}

// NewEmployeeCapabilityRepository construye el adaptador. Pasar pool o tx (Querier).
func NewEmployeeCapabilityRepository(q Querier) *EmployeeCapabilityRepo {
	return &EmployeeCapabilityRepo{q: q}
}

// GetEmployeeCapabilities devuelve (nil, nil) si el empleado no tiene registro.
func (r *EmployeeCapabilityRepo) GetEmployeeCapabilities(ctx context.Context, actorID string) (*entity.EmployeeCapabilities, error) {
	query := `
		SELECT can_make_sales, can_view_products, can_view_reports, can_manage_stock
		FROM employee_capabilities WHERE user_id = $1`
	var c entity.EmployeeCapabilities
	err := r.q.QueryRow(ctx, query, actorID).Scan(&c.CanMakeSales, &c.CanViewProducts, &c.CanViewReports, &c.CanManageStock)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get employee capabilities: %w", err)
	}
	return &c, nil
}
