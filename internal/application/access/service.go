package access

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// DefaultResolveTimeout tope de una resolución compartida.
const DefaultResolveTimeout = 10 * time.Second

// Service pipeline de resolución de permisos: lanza los tres resolvedores en paralelo,
// espera a que todos terminen y agrega el resultado en un snapshot nuevo.
type Service struct {
	roles   *RoleResolver
	plans   *PlanEntitlementResolver
	caps    *EmployeeCapabilityResolver
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
	group   singleflight.Group
	gen     atomic.Uint64 // se incrementa en cada invalidación; forma parte de la clave de vuelo
}

// NewService construye el pipeline. timeout <= 0 usa DefaultResolveTimeout.
func NewService(roles *RoleResolver, plans *PlanEntitlementResolver, caps *EmployeeCapabilityResolver, timeout time.Duration, log *logger.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		roles:   roles,
		plans:   plans,
		caps:    caps,
		timeout: timeout,
		now:     time.Now,
		log:     log.Component("access"),
	}
}

// Plans expone el resolvedor de planes para invalidaciones manuales.
func (s *Service) Plans() *PlanEntitlementResolver {
	return s.plans
}

// ResolvePermissions resuelve el snapshot del actor. Disparos concurrentes para el mismo
// (actor, tenant) se unen a la resolución en curso en lugar de duplicarla, salvo que entre
// ambos haya llegado una invalidación: entonces arranca una resolución nueva.
//
// Los fallos de los resolvedores nunca se devuelven: se absorben en sus defaults. El único
// error posible es la cancelación de ctx por parte de quien espera.
func (s *Service) ResolvePermissions(ctx context.Context, actor entity.Actor) (*entity.PermissionSnapshot, error) {
	key := fmt.Sprintf("%s|%s#%d", actor.ID, actor.TenantID, s.gen.Load())
	ch := s.group.DoChan(key, func() (interface{}, error) {
		// La resolución compartida no depende de la cancelación del primer llamador.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.resolve(rctx, actor), nil
	})
	select {
	case res := <-ch:
		return res.Val.(*entity.PermissionSnapshot), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ApplyInvalidation descarta el estado cacheado que afecta al aviso y separa las
// resoluciones posteriores de las que ya estaban en curso. La re-resolución de los
// contextos vivos la dispara quien los mantiene (terminal.Registry).
func (s *Service) ApplyInvalidation(inv entity.Invalidation) {
	s.gen.Add(1)
	if inv.Kind != entity.InvalidatePlan {
		return
	}
	if inv.TenantID == "" {
		s.plans.InvalidateAll()
		return
	}
	s.plans.Invalidate(inv.TenantID)
}

func (s *Service) resolve(ctx context.Context, actor entity.Actor) *entity.PermissionSnapshot {
	var (
		roleOut RoleOutcome
		planOut PlanOutcome
		capsOut CapabilityOutcome
		g       errgroup.Group
	)
	start := s.now()

	g.Go(func() error {
		roleOut = s.roles.Resolve(ctx, actor)
		return nil
	})
	g.Go(func() error {
		planOut = s.plans.Resolve(ctx, actor.TenantID)
		return nil
	})
	// Las capacidades corren en paralelo usando el rol del token como pista; si el rol
	// resuelto resulta ser employee y la pista no lo era, se consultan a continuación.
	g.Go(func() error {
		capsOut = s.caps.Resolve(ctx, actor.ID, actor.GlobalRole)
		return nil
	})
	_ = g.Wait()

	switch {
	case roleOut.Role == entity.RoleEmployee && !capsOut.Applicable:
		capsOut = s.caps.Resolve(ctx, actor.ID, entity.RoleEmployee)
	case roleOut.Role != entity.RoleEmployee:
		capsOut = CapabilityOutcome{}
	}

	// El snapshot se fecha al inicio: una resolución arrancada antes pierde frente a una
	// posterior aunque termine más tarde (Guard.Publish).
	snap := Aggregate(actor, roleOut, planOut, capsOut, start)
	ev := s.log.Debug().
		Str("actor_id", actor.ID).
		Str("tenant_id", actor.TenantID).
		Str("role", string(snap.Role())).
		Str("plan", string(snap.PlanType())).
		Bool("degraded", snap.Degraded()).
		Dur("took", s.now().Sub(start))
	if roleOut.Reason != nil {
		ev = ev.AnErr("role_reason", roleOut.Reason)
	}
	ev.Msg("permisos resueltos")
	return snap
}
