package dto

import (
	"time"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// SnapshotResponse permisos y features vigentes del actor en el terminal.
type SnapshotResponse struct {
	ActorID            string          `json:"actor_id"`
	TenantID           string          `json:"tenant_id"`
	Role               string          `json:"role"`
	Plan               string          `json:"plan"`
	Permissions        map[string]bool `json:"permissions"`
	Features           map[string]bool `json:"features"`
	AllFeaturesEnabled bool            `json:"all_features_enabled"`
	Degraded           bool            `json:"degraded"`
	Locked             bool            `json:"locked"`
	ResolvedAt         time.Time       `json:"resolved_at"`
}

// NewSnapshotResponse convierte un snapshot; los permisos POS reflejan el bloqueo.
func NewSnapshotResponse(s *entity.PermissionSnapshot, locked bool, posScoped func(string) bool) SnapshotResponse {
	perms := make(map[string]bool)
	for k, v := range s.Permissions() {
		if locked && posScoped(string(k)) {
			v = false
		}
		perms[string(k)] = v
	}
	return SnapshotResponse{
		ActorID:            s.ActorID(),
		TenantID:           s.TenantID(),
		Role:               string(s.Role()),
		Plan:               string(s.PlanType()),
		Permissions:        perms,
		Features:           s.Features().Flags(),
		AllFeaturesEnabled: s.Features().AllEnabled(),
		Degraded:           s.Degraded(),
		Locked:             locked,
		ResolvedAt:         s.ResolvedAt(),
	}
}

// CheckResponse resultado de una consulta puntual de permiso o feature.
type CheckResponse struct {
	Key     string `json:"key"`
	Allowed bool   `json:"allowed"`
}

// InvalidationRequest aviso de cambio de rol, plan o capacidades.
type InvalidationRequest struct {
	Kind     string `json:"kind"`
	TenantID string `json:"tenant_id"`
	ActorID  string `json:"actor_id"`
}

// InvalidationResponse terminales refrescados en esta instancia.
type InvalidationResponse struct {
	Refreshed int  `json:"refreshed"`
	Published bool `json:"published"`
}
