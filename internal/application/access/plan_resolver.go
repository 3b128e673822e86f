package access

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// DefaultPlanCacheTTL ventana de frescura del caché de planes.
const DefaultPlanCacheTTL = 5 * time.Minute

// PlanOutcome plan y features efectivos de un tenant. Reason no nil => resultado fail-open.
type PlanOutcome struct {
	PlanType entity.PlanType
	Features *entity.FeatureSet
	Reason   error
}

// Degraded indica que el plan se resolvió por fail-open.
func (o PlanOutcome) Degraded() bool {
	return o.Reason != nil
}

type planCacheEntry struct {
	outcome   PlanOutcome
	expiresAt time.Time
}

// PlanEntitlementResolver resuelve el plan del tenant y sus features, con caché por tenant.
//
// Política fail-open: un fallo del colaborador nunca bloquea a un tenant que paga; se
// concede el máximo (enterprise, todo habilitado) y se registra como warning.
// El caché es el único estado mutable compartido del núcleo y solo lo escribe este resolvedor.
type PlanEntitlementResolver struct {
	subs  repository.SubscriptionRepository
	flags repository.FeatureFlagRepository
	ttl   time.Duration
	now   func() time.Time
	log   *logger.Logger

	mu    sync.RWMutex
	cache map[string]planCacheEntry
	gen   map[string]uint64 // se incrementa en cada invalidación del tenant
	epoch uint64            // se incrementa en InvalidateAll
	group singleflight.Group
}

// NewPlanEntitlementResolver construye el resolvedor. ttl <= 0 usa DefaultPlanCacheTTL.
func NewPlanEntitlementResolver(subs repository.SubscriptionRepository, flags repository.FeatureFlagRepository, ttl time.Duration, log *logger.Logger) *PlanEntitlementResolver {
	if ttl <= 0 {
		ttl = DefaultPlanCacheTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PlanEntitlementResolver{
		subs:  subs,
		flags: flags,
		ttl:   ttl,
		now:   time.Now,
		log:   log.Component("plan_resolver"),
		cache: make(map[string]planCacheEntry),
		gen:   make(map[string]uint64),
	}
}

// Resolve devuelve el plan del tenant. Dentro de la ventana del caché devuelve la misma
// instancia de FeatureSet sin consultar el store; misses concurrentes comparten una consulta.
func (r *PlanEntitlementResolver) Resolve(ctx context.Context, tenantID string) PlanOutcome {
	if out, ok := r.cached(tenantID); ok {
		return out
	}

	r.mu.RLock()
	gen, epoch := r.gen[tenantID], r.epoch
	r.mu.RUnlock()

	v, _, _ := r.group.Do(r.flightKey(tenantID, gen, epoch), func() (interface{}, error) {
		out := r.load(ctx, tenantID)
		if !out.Degraded() {
			r.store(tenantID, gen, epoch, out)
		}
		return out, nil
	})
	return v.(PlanOutcome)
}

// Invalidate descarta el plan cacheado del tenant (upgrade/downgrade de plan).
func (r *PlanEntitlementResolver) Invalidate(tenantID string) {
	r.mu.Lock()
	delete(r.cache, tenantID)
	r.gen[tenantID]++
	r.mu.Unlock()
}

// InvalidateAll vacía el caché completo (cambio del catálogo de features).
func (r *PlanEntitlementResolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]planCacheEntry)
	r.epoch++
	r.mu.Unlock()
}

func (r *PlanEntitlementResolver) cached(tenantID string) (PlanOutcome, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.cache[tenantID]
	if !ok || !r.now().Before(entry.expiresAt) {
		return PlanOutcome{}, false
	}
	return entry.outcome, true
}

// store guarda el resultado salvo que el tenant se haya invalidado mientras se consultaba.
func (r *PlanEntitlementResolver) store(tenantID string, gen, epoch uint64, out PlanOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen[tenantID] != gen || r.epoch != epoch {
		return
	}
	r.cache[tenantID] = planCacheEntry{outcome: out, expiresAt: r.now().Add(r.ttl)}
}

func (r *PlanEntitlementResolver) flightKey(tenantID string, gen, epoch uint64) string {
	return fmt.Sprintf("%s#%d.%d", tenantID, gen, epoch)
}

func (r *PlanEntitlementResolver) load(ctx context.Context, tenantID string) PlanOutcome {
	sub, err := r.subs.GetActiveSubscription(ctx, tenantID)
	if err != nil {
		r.log.Warn().Err(err).Str("tenant_id", tenantID).Msg("suscripción no disponible, fail-open a enterprise")
		return PlanOutcome{
			PlanType: entity.PlanEnterprise,
			Features: entity.AllFeaturesEnabled(entity.PlanEnterprise),
			Reason:   fmt.Errorf("%w: suscripción: %v", domain.ErrResolutionUnavailable, err),
		}
	}

	plan := entity.PlanBasic
	if sub != nil && sub.Status == entity.SubscriptionActive && sub.PlanType != "" {
		plan = sub.PlanType
	}

	flags, err := r.flags.GetFeatureFlags(ctx, plan)
	if err != nil {
		r.log.Warn().Err(err).Str("tenant_id", tenantID).Str("plan", string(plan)).Msg("features no disponibles, fail-open")
		return PlanOutcome{
			PlanType: plan,
			Features: entity.AllFeaturesEnabled(plan),
			Reason:   fmt.Errorf("%w: features: %v", domain.ErrResolutionUnavailable, err),
		}
	}
	return PlanOutcome{PlanType: plan, Features: entity.NewFeatureSet(plan, flags)}
}
