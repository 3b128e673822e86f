package access_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de resolución completa
// ──────────────────────────────────────────────────────────────────────────────

func TestResolvePermissions_ViewerEnBasic(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleViewer).withPlan("t1", entity.PlanBasic)

	snap, err := f.service().ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleViewer))
	require.NoError(t, err)

	assert.Equal(t, entity.RoleViewer, snap.Role())
	assert.Equal(t, entity.PlanBasic, snap.PlanType())
	assert.False(t, snap.Allows(entity.PermManageSales))
	assert.True(t, snap.Allows(entity.PermViewReports))
	assert.False(t, snap.FeatureEnabled(entity.FeatureKitchenDisplay))
	assert.False(t, snap.Degraded())
}

func TestResolvePermissions_EmpleadoSinRegistro(t *testing.T) {
	f := newFixture().withRole("e1", entity.RoleEmployee).withPlan("t1", entity.PlanPro)

	snap, err := f.service().ResolvePermissions(context.Background(), actor("e1", "t1", entity.RoleEmployee))
	require.NoError(t, err)

	assert.Equal(t, entity.RoleEmployee, snap.Role())
	for _, p := range entity.CapabilityPermissions() {
		assert.False(t, snap.Allows(p), "capacidad %s", p)
	}
}

func TestResolvePermissions_PlanCaidoFailOpen(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin)
	f.subs.err = errStore

	snap, err := f.service().ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleAdmin))
	require.NoError(t, err)

	assert.True(t, snap.Degraded())
	assert.Equal(t, entity.PlanEnterprise, snap.PlanType())
	assert.True(t, snap.FeatureEnabled(entity.FeatureKitchenDisplay))
	assert.True(t, snap.Allows(entity.PermManageUsers))
}

func TestResolvePermissions_RolCaidoFailClosed(t *testing.T) {
	f := newFixture().withPlan("t1", entity.PlanEnterprise)
	f.roles.err = errStore

	snap, err := f.service().ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleAdmin))
	require.NoError(t, err)

	assert.Equal(t, entity.RoleUnauthenticated, snap.Role())
	for p, allowed := range snap.Permissions() {
		assert.False(t, allowed, "permiso %s", p)
	}
	assert.True(t, snap.FeatureEnabled(entity.FeatureMultiBranch), "las features del plan siguen resueltas")
}

func TestResolvePermissions_PistaDeRolDistintaDeEmployee(t *testing.T) {
	f := newFixture().withRole("e1", entity.RoleEmployee).withPlan("t1", entity.PlanBasic)
	f.caps.caps["e1"] = &entity.EmployeeCapabilities{CanMakeSales: true}

	// El token dice cashier pero el store dice employee.
	snap, err := f.service().ResolvePermissions(context.Background(), actor("e1", "t1", entity.RoleCashier))
	require.NoError(t, err)

	assert.Equal(t, entity.RoleEmployee, snap.Role())
	assert.True(t, snap.Allows(entity.PermCanMakeSales))
	assert.Equal(t, int32(1), f.caps.calls.Load())
}

func TestResolvePermissions_PistaEmployeeRolDistinto(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleManager).withPlan("t1", entity.PlanBasic)
	f.caps.caps["u1"] = &entity.EmployeeCapabilities{CanMakeSales: true, CanManageStock: true}

	snap, err := f.service().ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleEmployee))
	require.NoError(t, err)

	assert.Equal(t, entity.RoleManager, snap.Role())
	assert.True(t, snap.Allows(entity.PermManageProducts))
	assert.True(t, snap.Allows(entity.PermCanManageStock), "derivado de la fila de manager, no del registro")
	assert.False(t, snap.Allows(entity.PermManageUsers))
}

// ──────────────────────────────────────────────────────────────────────────────
// Concurrencia
// ──────────────────────────────────────────────────────────────────────────────

func TestResolvePermissions_RolYPlanEnParalelo(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanPro)
	f.roles.started = make(chan struct{}, 1)
	f.roles.release = make(chan struct{})
	f.subs.started = make(chan struct{}, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.service().ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleAdmin))
	}()

	<-f.roles.started
	select {
	case <-f.subs.started:
		// la consulta de plan arrancó mientras la de rol sigue retenida
	case <-time.After(2 * time.Second):
		t.Fatal("la resolución del plan esperó a la del rol")
	}
	close(f.roles.release)
	<-done
}

func TestResolvePermissions_DisparosConcurrentesSeUnen(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanPro)
	f.roles.started = make(chan struct{}, 8)
	f.roles.release = make(chan struct{})
	svc := f.service()

	var wg sync.WaitGroup
	snaps := make([]*entity.PermissionSnapshot, 4)
	for i := range snaps {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			snaps[i], _ = svc.ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleAdmin))
		}(i)
	}
	<-f.roles.started
	time.Sleep(50 * time.Millisecond) // que el resto se sume a la resolución en curso
	close(f.roles.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.roles.calls.Load(), "una única resolución de rol")
	for _, s := range snaps[1:] {
		assert.Same(t, snaps[0], s)
	}
}

func TestResolvePermissions_CancelacionDelQueEspera(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanPro)
	f.roles.started = make(chan struct{}, 2)
	f.roles.release = make(chan struct{})
	svc := f.service()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := svc.ResolvePermissions(ctx, actor("u1", "t1", entity.RoleAdmin))
		errCh <- err
	}()
	<-f.roles.started
	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)

	// La resolución compartida sigue viva y la aprovecha el siguiente llamador.
	resCh := make(chan *entity.PermissionSnapshot, 1)
	go func() {
		s, _ := svc.ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleAdmin))
		resCh <- s
	}()
	close(f.roles.release)
	snap := <-resCh
	require.NotNil(t, snap)
	assert.Equal(t, entity.RoleAdmin, snap.Role())
}

// ──────────────────────────────────────────────────────────────────────────────
// Invalidación
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyInvalidation_PlanDelTenant(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanBasic)
	svc := f.service()
	a := actor("u1", "t1", entity.RoleAdmin)

	snap, _ := svc.ResolvePermissions(context.Background(), a)
	assert.False(t, snap.FeatureEnabled(entity.FeatureKitchenDisplay))

	f.withPlan("t1", entity.PlanPro)
	snap, _ = svc.ResolvePermissions(context.Background(), a)
	assert.False(t, snap.FeatureEnabled(entity.FeatureKitchenDisplay), "plan aún cacheado")

	svc.ApplyInvalidation(entity.Invalidation{Kind: entity.InvalidatePlan, TenantID: "t1"})
	snap, _ = svc.ResolvePermissions(context.Background(), a)
	assert.True(t, snap.FeatureEnabled(entity.FeatureKitchenDisplay))
	assert.Equal(t, entity.PlanPro, snap.PlanType())
}

func TestApplyInvalidation_RolNoTocaCacheDePlan(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanBasic)
	svc := f.service()
	a := actor("u1", "t1", entity.RoleAdmin)

	_, _ = svc.ResolvePermissions(context.Background(), a)
	svc.ApplyInvalidation(entity.Invalidation{Kind: entity.InvalidateRole, TenantID: "t1"})
	_, _ = svc.ResolvePermissions(context.Background(), a)

	assert.Equal(t, int32(1), f.subs.calls.Load())
	assert.Equal(t, int32(2), f.roles.calls.Load(), "el rol nunca se cachea")
}

func TestApplyInvalidation_NoSeUneAResolucionPrevia(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanPro)
	f.roles.started = make(chan struct{}, 4)
	f.roles.release = make(chan struct{})
	svc := f.service()
	a := actor("u1", "t1", entity.RoleAdmin)

	before := make(chan *entity.PermissionSnapshot, 1)
	go func() {
		s, _ := svc.ResolvePermissions(context.Background(), a)
		before <- s
	}()
	<-f.roles.started // la primera resolución ya leyó "admin"

	f.roles.set("u1", entity.RoleViewer)
	svc.ApplyInvalidation(entity.Invalidation{Kind: entity.InvalidateRole, ActorID: "u1"})

	after := make(chan *entity.PermissionSnapshot, 1)
	go func() {
		s, _ := svc.ResolvePermissions(context.Background(), a)
		after <- s
	}()
	<-f.roles.started // la segunda arrancó su propia consulta
	close(f.roles.release)

	stale, fresh := <-before, <-after
	require.NotNil(t, fresh)
	assert.Equal(t, entity.RoleViewer, fresh.Role())
	assert.False(t, fresh.Allows(entity.PermManageUsers))
	assert.Equal(t, int32(2), f.roles.calls.Load())

	// Aunque la resolución vieja se publique después, el Guard conserva la nueva.
	g := access.NewGuard(nil)
	g.Publish(fresh)
	g.Publish(stale)
	assert.Same(t, fresh, g.Current())
	assert.False(t, g.HasPermission(string(entity.PermManageUsers)))
}

func TestApplyInvalidation_SinCambiosLosDisparosSiguenUnidos(t *testing.T) {
	f := newFixture().withRole("u1", entity.RoleAdmin).withPlan("t1", entity.PlanPro)
	f.roles.started = make(chan struct{}, 4)
	f.roles.release = make(chan struct{})
	svc := f.service()
	svc.ApplyInvalidation(entity.Invalidation{Kind: entity.InvalidateRole, ActorID: "u1"})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ResolvePermissions(context.Background(), actor("u1", "t1", entity.RoleAdmin))
		}()
	}
	<-f.roles.started
	time.Sleep(50 * time.Millisecond)
	close(f.roles.release)
	wg.Wait()

	assert.Equal(t, int32(1), f.roles.calls.Load())
}
