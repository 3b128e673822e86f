package entity

// InvalidationKind qué cambió fuera del núcleo.
type InvalidationKind string

const (
	InvalidateRole         InvalidationKind = "role"
	InvalidatePlan         InvalidationKind = "plan"
	InvalidateCapabilities InvalidationKind = "capabilities"
)

// Invalidation aviso de cambio de rol, plan o capacidades. TenantID o ActorID vacíos
// significan "todos" en esa dimensión.
type Invalidation struct {
	Kind     InvalidationKind `json:"kind"`
	TenantID string           `json:"tenant_id,omitempty"`
	ActorID  string           `json:"actor_id,omitempty"`
}

// Valid comprueba el tipo.
func (i Invalidation) Valid() bool {
	switch i.Kind {
	case InvalidateRole, InvalidatePlan, InvalidateCapabilities:
		return true
	}
	return false
}

// Matches indica si el aviso afecta al actor dado.
func (i Invalidation) Matches(a Actor) bool {
	if i.TenantID != "" && i.TenantID != a.TenantID {
		return false
	}
	if i.ActorID != "" && i.ActorID != a.ID {
		return false
	}
	return true
}
