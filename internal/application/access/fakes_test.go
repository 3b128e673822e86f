package access_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes de los puertos del colaborador de identidad/tenant
// ──────────────────────────────────────────────────────────────────────────────

type fakeRoles struct {
	mu    sync.Mutex
	roles map[string]string
	err   error
	calls atomic.Int32
	// started/release permiten observar y retener la consulta (concurrencia).
	started chan struct{}
	release chan struct{}
}

// GetRole lee el valor al llegar la consulta y después queda retenida, como una lectura
// que ya tomó su fila pero aún no respondió.
func (f *fakeRoles) GetRole(ctx context.Context, actorID string) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	role, err := f.roles[actorID], f.err
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

func (f *fakeRoles) set(actorID string, role entity.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.roles[actorID] = string(role)
}

type fakeSubscriptions struct {
	mu      sync.Mutex
	subs    map[string]*entity.TenantSubscription
	err     error
	calls   atomic.Int32
	started chan struct{}
	release chan struct{}
}

func (f *fakeSubscriptions) GetActiveSubscription(ctx context.Context, tenantID string) (*entity.TenantSubscription, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.subs[tenantID], nil
}

type fakeFlags struct {
	mu    sync.Mutex
	flags map[entity.PlanType]map[string]bool
	err   error
	calls atomic.Int32
}

func (f *fakeFlags) GetFeatureFlags(ctx context.Context, plan entity.PlanType) (map[string]bool, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.flags[plan], nil
}

type fakeCapabilities struct {
	mu    sync.Mutex
	caps  map[string]*entity.EmployeeCapabilities
	err   error
	calls atomic.Int32
}

func (f *fakeCapabilities) GetEmployeeCapabilities(ctx context.Context, actorID string) (*entity.EmployeeCapabilities, error) {
	f.calls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.caps[actorID], nil
}

type fixture struct {
	roles *fakeRoles
	subs  *fakeSubscriptions
	flags *fakeFlags
	caps  *fakeCapabilities
}

func newFixture() *fixture {
	return &fixture{
		roles: &fakeRoles{roles: map[string]string{}},
		subs:  &fakeSubscriptions{subs: map[string]*entity.TenantSubscription{}},
		flags: &fakeFlags{flags: entity.DefaultFeatureCatalog()},
		caps:  &fakeCapabilities{caps: map[string]*entity.EmployeeCapabilities{}},
	}
}

func (f *fixture) withRole(actorID string, role entity.Role) *fixture {
	f.roles.roles[actorID] = string(role)
	return f
}

func (f *fixture) withPlan(tenantID string, plan entity.PlanType) *fixture {
	f.subs.subs[tenantID] = &entity.TenantSubscription{
		ID: "sub-" + tenantID, TenantID: tenantID, PlanType: plan, Status: entity.SubscriptionActive,
	}
	return f
}

func (f *fixture) service() *access.Service {
	return access.NewService(
		access.NewRoleResolver(f.roles, nil),
		access.NewPlanEntitlementResolver(f.subs, f.flags, 0, nil),
		access.NewEmployeeCapabilityResolver(f.caps, nil),
		0, nil,
	)
}

func actor(id, tenant string, hint entity.Role) entity.Actor {
	return entity.Actor{ID: id, TenantID: tenant, GlobalRole: hint, Authenticated: true}
}
