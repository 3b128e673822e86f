package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

type countingSubs struct{ calls int }

func (c *countingSubs) GetActiveSubscription(ctx context.Context, tenantID string) (*entity.TenantSubscription, error) {
	c.calls++
	return &entity.TenantSubscription{TenantID: tenantID, PlanType: entity.PlanPro, Status: entity.SubscriptionActive}, nil
}

type staticFlags struct{}

func (staticFlags) GetFeatureFlags(ctx context.Context, plan entity.PlanType) (map[string]bool, error) {
	return map[string]bool{entity.FeatureKitchenDisplay: true}, nil
}

func TestPlanResolver_VentanaDeFrescura(t *testing.T) {
	subs := &countingSubs{}
	r := NewPlanEntitlementResolver(subs, staticFlags{}, 0, nil)
	clock := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	first := r.Resolve(context.Background(), "t1")

	clock = clock.Add(DefaultPlanCacheTTL - time.Second)
	assert.Same(t, first.Features, r.Resolve(context.Background(), "t1").Features)
	assert.Equal(t, 1, subs.calls)

	clock = clock.Add(2 * time.Second)
	again := r.Resolve(context.Background(), "t1")
	assert.Equal(t, 2, subs.calls, "pasada la ventana se vuelve a consultar")
	assert.NotSame(t, first.Features, again.Features)
}
