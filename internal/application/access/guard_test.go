package access_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/restopos-api/internal/application/access"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

type stubLock struct{ locked atomic.Bool }

func (s *stubLock) IsLocked() bool { return s.locked.Load() }

func cashierSnapshot(at time.Time) *entity.PermissionSnapshot {
	return access.Aggregate(actor("u1", "t1", entity.RoleCashier), access.RoleOutcome{Role: entity.RoleCashier}, basicPlan(), access.CapabilityOutcome{}, at)
}

func TestGuard_AntesDeResolver(t *testing.T) {
	g := access.NewGuard(nil)
	assert.Nil(t, g.Current())
	for _, p := range append(entity.TablePermissions(), entity.CapabilityPermissions()...) {
		assert.False(t, g.HasPermission(string(p)), "permiso %s", p)
	}
	assert.True(t, g.HasFeature(entity.FeatureKitchenDisplay))
	assert.True(t, g.HasFeature("cualquier_cosa"))
}

func TestGuard_FuncionesSobreSnapshotNil(t *testing.T) {
	assert.False(t, access.HasPermission(nil, string(entity.PermViewDashboard)))
	assert.True(t, access.HasFeature(nil, entity.FeatureAttendance))
}

func TestGuard_PublicaYConsulta(t *testing.T) {
	g := access.NewGuard(nil)
	g.Publish(cashierSnapshot(fixedNow))

	assert.True(t, g.HasPermission(string(entity.PermManageSales)))
	assert.False(t, g.HasPermission(string(entity.PermManageUsers)))
	assert.False(t, g.HasPermission("permiso_inexistente"))
	assert.False(t, g.HasFeature(entity.FeatureKitchenDisplay))
}

func TestGuard_BloqueoNiegaPermisosPOS(t *testing.T) {
	lock := &stubLock{}
	lock.locked.Store(true)
	g := access.NewGuard(lock)
	g.Publish(cashierSnapshot(fixedNow))

	assert.True(t, g.Locked())
	assert.False(t, g.HasPermission(string(entity.PermManageSales)))
	assert.True(t, g.HasPermission(string(entity.PermViewDashboard)), "el bloqueo solo afecta permisos POS")

	lock.locked.Store(false)
	assert.True(t, g.HasPermission(string(entity.PermManageSales)))
}

func TestGuard_IsPOSScoped(t *testing.T) {
	assert.True(t, access.IsPOSScoped("manage_sales"))
	assert.True(t, access.IsPOSScoped("can_make_sales"))
	assert.False(t, access.IsPOSScoped("view_reports"))
}

func TestGuard_SnapshotViejoSeDescarta(t *testing.T) {
	g := access.NewGuard(nil)
	newer := cashierSnapshot(fixedNow.Add(time.Minute))
	g.Publish(newer)
	g.Publish(cashierSnapshot(fixedNow))

	assert.Same(t, newer, g.Current())
}

func TestGuard_OtroContextoReemplaza(t *testing.T) {
	g := access.NewGuard(nil)
	g.Publish(cashierSnapshot(fixedNow.Add(time.Minute)))
	other := access.Aggregate(actor("u2", "t1", entity.RoleViewer), access.RoleOutcome{Role: entity.RoleViewer}, basicPlan(), access.CapabilityOutcome{}, fixedNow)
	g.Publish(other)

	assert.Same(t, other, g.Current())
	assert.False(t, g.HasPermission(string(entity.PermManageSales)))
}

func TestGuard_Clear(t *testing.T) {
	g := access.NewGuard(nil)
	g.Publish(cashierSnapshot(fixedNow))
	g.Clear()

	assert.Nil(t, g.Current())
	assert.False(t, g.HasPermission(string(entity.PermManageSales)))
	assert.True(t, g.HasFeature(entity.FeatureKitchenDisplay))
}
