package repository

import (
	"context"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// RoleRepository puerto del colaborador de identidad para el rol global.
type RoleRepository interface {
	// GetRole devuelve el rol almacenado del actor. ("", nil) si no existe registro.
	GetRole(ctx context.Context, actorID string) (string, error)
}

// EmployeeCapabilityRepository puerto para las capacidades finas de empleados.
type EmployeeCapabilityRepository interface {
	// GetEmployeeCapabilities devuelve (nil, nil) si el empleado no tiene registro.
	GetEmployeeCapabilities(ctx context.Context, actorID string) (*entity.EmployeeCapabilities, error)
}

// PinVerifier verificación opaca del PIN de desbloqueo. El núcleo nunca compara PINs:
// envía el intento completo en una sola petición y recibe aceptado/rechazado.
type PinVerifier interface {
	VerifyPin(ctx context.Context, actorID, pin string) (bool, error)
}
