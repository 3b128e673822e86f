package access

import (
	"context"
	"fmt"

	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
	"github.com/jhoicas/restopos-api/pkg/logger"
)

// RoleOutcome resultado del RoleResolver. Reason es nil cuando el rol se resolvió.
type RoleOutcome struct {
	Role   entity.Role
	Reason error
}

// Authenticated indica si el actor tiene un rol resoluble.
func (o RoleOutcome) Authenticated() bool {
	return o.Role != entity.RoleUnauthenticated && o.Role != ""
}

// RoleResolver única fuente de verdad del rol global de un actor.
// Cierra ante cualquier duda: sin fila, error de store o valor desconocido => Unauthenticated.
type RoleResolver struct {
	repo repository.RoleRepository
	log  *logger.Logger
}

// NewRoleResolver construye el resolvedor de roles.
func NewRoleResolver(repo repository.RoleRepository, log *logger.Logger) *RoleResolver {
	if log == nil {
		log = logger.Nop()
	}
	return &RoleResolver{repo: repo, log: log.Component("role_resolver")}
}

// Resolve obtiene el rol del actor desde el colaborador de identidad.
func (r *RoleResolver) Resolve(ctx context.Context, actor entity.Actor) RoleOutcome {
	if !actor.Authenticated || actor.ID == "" {
		return unauthenticated(domain.ErrUnauthenticated)
	}
	raw, err := r.repo.GetRole(ctx, actor.ID)
	if err != nil {
		r.log.Warn().Err(err).Str("actor_id", actor.ID).Msg("rol no resoluble, se deniega todo")
		return unauthenticated(fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err))
	}
	if raw == "" {
		return unauthenticated(fmt.Errorf("%w: sin rol asignado", domain.ErrUnauthenticated))
	}
	role, ok := entity.ParseRole(raw)
	if !ok {
		r.log.Warn().Str("actor_id", actor.ID).Str("role", raw).Msg("rol desconocido, se deniega todo")
		return unauthenticated(fmt.Errorf("%w: rol desconocido %q", domain.ErrUnauthenticated, raw))
	}
	return RoleOutcome{Role: role}
}

func unauthenticated(reason error) RoleOutcome {
	return RoleOutcome{Role: entity.RoleUnauthenticated, Reason: reason}
}
