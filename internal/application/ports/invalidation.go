package ports

import (
	"context"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// InvalidationPublisher difunde avisos de cambio de rol, plan o capacidades a otras
// instancias del agente. Sin bus configurado se usa una implementación que no hace nada.
type InvalidationPublisher interface {
	Publish(ctx context.Context, inv entity.Invalidation) error
}

// NopPublisher publicador vacío (instancia única, sin Redis).
type NopPublisher struct{}

// Publish no hace nada.
func (NopPublisher) Publish(context.Context, entity.Invalidation) error { return nil }
