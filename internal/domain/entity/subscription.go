package entity

import "time"

// PlanType nivel de facturación del tenant.
type PlanType string

// Planes disponibles.
const (
	PlanBasic      PlanType = "basic"
	PlanPro        PlanType = "pro"
	PlanEnterprise PlanType = "enterprise"
)

// SubscriptionStatus estado de una suscripción.
type SubscriptionStatus string

// Estados de suscripción; solo active habilita el plan contratado.
const (
	SubscriptionActive  SubscriptionStatus = "active"
	SubscriptionTrial   SubscriptionStatus = "trial"
	SubscriptionExpired SubscriptionStatus = "expired"
)

// TenantSubscription suscripción de un tenant (propiedad del servicio de facturación, solo lectura aquí).
type TenantSubscription struct {
	ID        string
	TenantID  string
	PlanType  PlanType
	Status    SubscriptionStatus
	CreatedAt time.Time
}

// Feature keys conocidas por la aplicación. Cualquier otra clave es válida y,
// si el plan no la define, se considera habilitada.
const (
	FeatureKitchenDisplay = "kitchen_display"
	FeatureAttendance     = "attendance"
	FeatureInventory      = "inventory"
	FeatureReports        = "advanced_reports"
	FeatureMultiBranch    = "multi_branch"
	FeatureTableService   = "table_service"
	FeatureDelivery       = "delivery"
)

// DefaultFeatureCatalog catálogo inicial de features por plan (usado por cmd/seed_access).
func DefaultFeatureCatalog() map[PlanType]map[string]bool {
	return map[PlanType]map[string]bool{
		PlanBasic: {
			FeatureKitchenDisplay: false,
			FeatureAttendance:     true,
			FeatureInventory:      true,
			FeatureReports:        false,
			FeatureMultiBranch:    false,
			FeatureTableService:   true,
			FeatureDelivery:       false,
		},
		PlanPro: {
			FeatureKitchenDisplay: true,
			FeatureAttendance:     true,
			FeatureInventory:      true,
			FeatureReports:        true,
			FeatureMultiBranch:    false,
			FeatureTableService:   true,
			FeatureDelivery:       true,
		},
		PlanEnterprise: {
			FeatureKitchenDisplay: true,
			FeatureAttendance:     true,
			FeatureInventory:      true,
			FeatureReports:        true,
			FeatureMultiBranch:    true,
			FeatureTableService:   true,
			FeatureDelivery:       true,
		},
	}
}
