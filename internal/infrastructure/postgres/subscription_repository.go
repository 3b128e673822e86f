package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
)

var (
	_ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)
	_ repository.FeatureFlagRepository  = (*FeatureFlagRepo)(nil)
)

// SubscriptionRepo suscripciones de tenants (tabla tenant_subscriptions).
type SubscriptionRepo struct {
	q Querier
}

// NewSubscriptionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSubscriptionRepository(q Querier) *SubscriptionRepo {
	return &SubscriptionRepo{q: q}
}

// GetActiveSubscription devuelve la suscripción activa más reciente del tenant o nil.
func (r *SubscriptionRepo) GetActiveSubscription(ctx context.Context, tenantID string) (*entity.TenantSubscription, error) {
	query := `
		SELECT id, tenant_id, plan_type, status, created_at
		FROM tenant_subscriptions
		WHERE tenant_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1`
	var s entity.TenantSubscription
	var plan, status string
	err := r.q.QueryRow(ctx, query, tenantID, string(entity.SubscriptionActive)).Scan(
		&s.ID, &s.TenantID, &plan, &status, &s.CreatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active subscription: %w", err)
	}
	s.PlanType = entity.PlanType(plan)
	s.Status = entity.SubscriptionStatus(status)
	return &s, nil
}

// FeatureFlagRepo catálogo de features por plan (tabla plan_features).
type FeatureFlagRepo struct {
	q Querier
}

// NewFeatureFlagRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFeatureFlagRepository(q Querier) *FeatureFlagRepo {
	return &FeatureFlagRepo{q: q}
}

// GetFeatureFlags devuelve las features definidas para el plan. Las que no tengan fila
// quedan fuera del mapa y el FeatureSet las trata como habilitadas.
func (r *FeatureFlagRepo) GetFeatureFlags(ctx context.Context, plan entity.PlanType) (map[string]bool, error) {
	rows, err := r.q.Query(ctx, `SELECT feature_key, enabled FROM plan_features WHERE plan_type = $1`, string(plan))
	if err != nil {
		return nil, fmt.Errorf("get feature flags: %w", err)
	}
	defer rows.Close()

	flags := make(map[string]bool)
	for rows.Next() {
		var key string
		var enabled bool
		if err := rows.Scan(&key, &enabled); err != nil {
			return nil, fmt.Errorf("scan feature flag: %w", err)
		}
		flags[key] = enabled
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feature flags: %w", err)
	}
	return flags, nil
}

// UpsertFeatureFlags guarda el catálogo de un plan (cmd/seed_access).
func (r *FeatureFlagRepo) UpsertFeatureFlags(ctx context.Context, plan entity.PlanType, flags map[string]bool) error {
	for key, enabled := range flags {
		_, err := r.q.Exec(ctx, `
			INSERT INTO plan_features (plan_type, feature_key, enabled) VALUES ($1, $2, $3)
			ON CONFLICT (plan_type, feature_key) DO UPDATE SET enabled = EXCLUDED.enabled`,
			string(plan), key, enabled)
		if err != nil {
			return fmt.Errorf("upsert feature %s/%s: %w", plan, key, err)
		}
	}
	return nil
}
