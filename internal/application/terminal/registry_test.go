package terminal_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/application/session"
	"github.com/jhoicas/restopos-api/internal/application/terminal"
	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Store en memoria que implementa todos los puertos del colaborador
// ──────────────────────────────────────────────────────────────────────────────

type memStore struct {
	mu    sync.Mutex
	roles map[string]string
	plans map[string]entity.PlanType
	pins  map[string]string
}

func newStore() *memStore {
	return &memStore{roles: map[string]string{}, plans: map[string]entity.PlanType{}, pins: map[string]string{}}
}

func (m *memStore) set(f func(*memStore)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m)
}

func (m *memStore) GetRole(ctx context.Context, actorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.roles[actorID], nil
}

func (m *memStore) GetActiveSubscription(ctx context.Context, tenantID string) (*entity.TenantSubscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	plan, ok := m.plans[tenantID]
	if !ok {
		return nil, nil
	}
	return &entity.TenantSubscription{TenantID: tenantID, PlanType: plan, Status: entity.SubscriptionActive}, nil
}

func (m *memStore) GetFeatureFlags(ctx context.Context, plan entity.PlanType) (map[string]bool, error) {
	return entity.DefaultFeatureCatalog()[plan], nil
}

func (m *memStore) GetEmployeeCapabilities(ctx context.Context, actorID string) (*entity.EmployeeCapabilities, error) {
	return nil, nil
}

func (m *memStore) VerifyPin(ctx context.Context, actorID, pin string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pins[actorID] == pin, nil
}

func newRegistry(store *memStore) *terminal.Registry {
	svc := access.NewService(
		access.NewRoleResolver(store, nil),
		access.NewPlanEntitlementResolver(store, store, 0, nil),
		access.NewEmployeeCapabilityResolver(store, nil),
		0, nil,
	)
	return terminal.NewRegistry(svc, store, session.DefaultConfig(), nil)
}

func who(id, tenant string) entity.Actor {
	return entity.Actor{ID: id, TenantID: tenant, Authenticated: true}
}

// ──────────────────────────────────────────────────────────────────────────────
// Ciclo de vida
// ──────────────────────────────────────────────────────────────────────────────

func TestRegistry_AttachResuelveYBloquea(t *testing.T) {
	store := newStore()
	store.set(func(m *memStore) { m.roles["u1"] = "cashier"; m.plans["t1"] = entity.PlanPro; m.pins["u1"] = "4321" })
	reg := newRegistry(store)

	term, err := reg.Attach(context.Background(), "pos-1", who("u1", "t1"))
	require.NoError(t, err)

	require.NotNil(t, term.Guard.Current())
	assert.True(t, term.Lock.IsLocked())
	assert.False(t, term.Guard.HasPermission("manage_sales"), "bloqueado")
	assert.True(t, term.Guard.HasPermission("view_dashboard"))

	require.NoError(t, term.Lock.Unlock(context.Background(), "4321"))
	assert.True(t, term.Guard.HasPermission("manage_sales"))
}

func TestRegistry_DatosInvalidos(t *testing.T) {
	reg := newRegistry(newStore())
	_, err := reg.Attach(context.Background(), "", who("u1", "t1"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = reg.Attach(context.Background(), "pos-1", who("u1", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRegistry_CambioDeTenantConservaBloqueo(t *testing.T) {
	store := newStore()
	store.set(func(m *memStore) { m.roles["u1"] = "admin"; m.plans["t1"] = entity.PlanBasic; m.plans["t2"] = entity.PlanEnterprise; m.pins["u1"] = "1" })
	reg := newRegistry(store)

	first, err := reg.Attach(context.Background(), "pos-1", who("u1", "t1"))
	require.NoError(t, err)
	require.NoError(t, first.Lock.Unlock(context.Background(), "1"))

	second, err := reg.Attach(context.Background(), "pos-1", who("u1", "t2"))
	require.NoError(t, err)

	assert.Same(t, first.Lock, second.Lock)
	assert.NotSame(t, first.Guard, second.Guard)
	assert.Nil(t, first.Guard.Current(), "el snapshot del tenant anterior se descarta")
	assert.Equal(t, entity.PlanEnterprise, second.Guard.Current().PlanType())
	assert.False(t, second.Lock.IsLocked())
}

func TestRegistry_OtroActorArrancaBloqueado(t *testing.T) {
	store := newStore()
	store.set(func(m *memStore) { m.roles["u1"] = "admin"; m.roles["u2"] = "cashier"; m.pins["u1"] = "1" })
	reg := newRegistry(store)

	first, _ := reg.Attach(context.Background(), "pos-1", who("u1", "t1"))
	require.NoError(t, first.Lock.Unlock(context.Background(), "1"))

	second, err := reg.Attach(context.Background(), "pos-1", who("u2", "t1"))
	require.NoError(t, err)
	assert.NotSame(t, first.Lock, second.Lock)
	assert.True(t, second.Lock.IsLocked())
	assert.Equal(t, entity.RoleCashier, second.Guard.Current().Role())
}

func TestRegistry_Detach(t *testing.T) {
	store := newStore()
	store.set(func(m *memStore) { m.roles["u1"] = "admin" })
	reg := newRegistry(store)

	term, _ := reg.Attach(context.Background(), "pos-1", who("u1", "t1"))
	require.NoError(t, reg.Detach("pos-1"))

	assert.Nil(t, term.Guard.Current())
	assert.True(t, term.Lock.IsLocked())
	_, err := reg.Get("pos-1")
	assert.ErrorIs(t, err, domain.ErrTerminalNotAttached)
	assert.ErrorIs(t, reg.Detach("pos-1"), domain.ErrTerminalNotAttached)
}

// ──────────────────────────────────────────────────────────────────────────────
// Invalidaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestRegistry_InvalidacionDeRolRefresca(t *testing.T) {
	store := newStore()
	store.set(func(m *memStore) { m.roles["u1"] = "viewer" })
	reg := newRegistry(store)
	term, _ := reg.Attach(context.Background(), "pos-1", who("u1", "t1"))
	assert.False(t, term.Guard.HasPermission("manage_products"))

	store.set(func(m *memStore) { m.roles["u1"] = "manager" })
	n, err := reg.HandleInvalidation(context.Background(), entity.Invalidation{Kind: entity.InvalidateRole, ActorID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, term.Guard.HasPermission("manage_products"))
}

func TestRegistry_InvalidacionDePlanSoloAlTenant(t *testing.T) {
	store := newStore()
	store.set(func(m *memStore) {
		m.roles["u1"], m.roles["u2"] = "admin", "admin"
		m.plans["t1"], m.plans["t2"] = entity.PlanBasic, entity.PlanBasic
	})
	reg := newRegistry(store)
	a, _ := reg.Attach(context.Background(), "pos-1", who("u1", "t1"))
	b, _ := reg.Attach(context.Background(), "pos-2", who("u2", "t2"))

	store.set(func(m *memStore) { m.plans["t1"], m.plans["t2"] = entity.PlanPro, entity.PlanPro })
	n, err := reg.HandleInvalidation(context.Background(), entity.Invalidation{Kind: entity.InvalidatePlan, TenantID: "t1"})
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	assert.True(t, a.Guard.HasFeature(entity.FeatureKitchenDisplay))
	assert.False(t, b.Guard.HasFeature(entity.FeatureKitchenDisplay), "t2 sigue con el plan cacheado")
}

func TestRegistry_InvalidacionInvalida(t *testing.T) {
	reg := newRegistry(newStore())
	_, err := reg.HandleInvalidation(context.Background(), entity.Invalidation{Kind: "otra"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
