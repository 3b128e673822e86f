package repository

import (
	"context"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// SubscriptionRepository puerto del colaborador de facturación/tenant (solo lectura).
type SubscriptionRepository interface {
	// GetActiveSubscription devuelve la suscripción activa más reciente del tenant, o (nil, nil) si no hay.
	GetActiveSubscription(ctx context.Context, tenantID string) (*entity.TenantSubscription, error)
}

// FeatureFlagRepository puerto para el catálogo de features por plan.
type FeatureFlagRepository interface {
	GetFeatureFlags(ctx context.Context, plan entity.PlanType) (map[string]bool, error)
}
