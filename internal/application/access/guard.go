package access

import (
	"sync/atomic"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// LockStatus estado de bloqueo consultado por el Guard (lo implementa session.LockController).
type LockStatus interface {
	IsLocked() bool
}

// posScoped permisos que el bloqueo de sesión anula aunque el snapshot los conceda.
var posScoped = map[entity.Permission]struct{}{
	entity.PermManageSales:  {},
	entity.PermCanMakeSales: {},
}

// IsPOSScoped indica si el permiso depende del desbloqueo del terminal.
func IsPOSScoped(key string) bool {
	_, ok := posScoped[entity.Permission(key)]
	return ok
}

// HasPermission consulta un snapshot. Sin snapshot (carga inicial) todo se deniega.
func HasPermission(s *entity.PermissionSnapshot, key string) bool {
	if s == nil {
		return false
	}
	return s.Allows(entity.Permission(key))
}

// HasFeature consulta un snapshot. Sin snapshot rige el default-allow de features.
func HasFeature(s *entity.PermissionSnapshot, key string) bool {
	if s == nil {
		return true
	}
	return s.FeatureEnabled(key)
}

// Guard superficie de consulta síncrona sobre el snapshot vigente de un contexto de actor.
// Las lecturas no bloquean: mientras hay una resolución en curso se sirve el snapshot anterior.
type Guard struct {
	current atomic.Pointer[entity.PermissionSnapshot]
	lock    LockStatus
}

// NewGuard crea un Guard. lock puede ser nil si el contexto no tiene terminal POS.
func NewGuard(lock LockStatus) *Guard {
	return &Guard{lock: lock}
}

// Publish reemplaza el snapshot vigente. Un snapshot más viejo del mismo (actor, tenant)
// que llegue tarde se descarta.
func (g *Guard) Publish(s *entity.PermissionSnapshot) {
	if s == nil {
		return
	}
	for {
		old := g.current.Load()
		if old != nil && old.SameContext(s) && old.ResolvedAt().After(s.ResolvedAt()) {
			return
		}
		if g.current.CompareAndSwap(old, s) {
			return
		}
	}
}

// Current snapshot vigente o nil.
func (g *Guard) Current() *entity.PermissionSnapshot {
	return g.current.Load()
}

// Clear descarta el snapshot al terminar el contexto del actor.
func (g *Guard) Clear() {
	g.current.Store(nil)
}

// Locked indica si el terminal asociado está bloqueado.
func (g *Guard) Locked() bool {
	return g.lock != nil && g.lock.IsLocked()
}

// HasPermission consulta el snapshot vigente; con el terminal bloqueado los permisos POS se niegan.
func (g *Guard) HasPermission(key string) bool {
	if IsPOSScoped(key) && g.Locked() {
		return false
	}
	return HasPermission(g.current.Load(), key)
}

// HasFeature consulta las features del plan vigente.
func (g *Guard) HasFeature(key string) bool {
	return HasFeature(g.current.Load(), key)
}
