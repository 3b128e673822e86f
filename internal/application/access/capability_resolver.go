package access

import (
	"context"
	"fmt"

	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// CapabilityOutcome resultado del EmployeeCapabilityResolver.
//   - Applicable=false: el rol no es employee y no se consultó nada.
//   - Reason=ErrCapabilityUnset: sin registro (o store caído); todas las capacidades en false.
type CapabilityOutcome struct {
	Capabilities entity.EmployeeCapabilities
	Applicable   bool
	Reason       error
}

// EmployeeCapabilityResolver capacidades finas para actores con rol employee.
// Política fail-closed: lo no resuelto significa "nunca concedido".
type EmployeeCapabilityResolver struct {
	repo repository.EmployeeCapabilityRepository
	log  *logger.Logger
}

// NewEmployeeCapabilityResolver construye el resolvedor.
func NewEmployeeCapabilityResolver(repo repository.EmployeeCapabilityRepository, log *logger.Logger) *EmployeeCapabilityResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &EmployeeCapabilityResolver{repo: repo, log: log.Component("capability_resolver")}
}

// Resolve consulta las capacidades solo si role es employee.
func (r *EmployeeCapabilityResolver) Resolve(ctx context.Context, actorID string, role entity.Role) CapabilityOutcome {
	if role != entity.RoleEmployee {
		return CapabilityOutcome{}
	}
	caps, err := r.repo.GetEmployeeCapabilities(ctx, actorID)
	if err != nil {
		r.log.Warn().Err(err).Str("actor_id", actorID).Msg("capacidades no disponibles, se deniegan")
		return CapabilityOutcome{Applicable: true, Reason: fmt.Errorf("%w: %v", domain.ErrCapabilityUnset, err)}
	}
	if caps == nil {
		return CapabilityOutcome{Applicable: true, Reason: domain.ErrCapabilityUnset}
	}
	return CapabilityOutcome{Capabilities: *caps, Applicable: true}
}
