package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrInvalidInput = errors.New("entrada inválida")
	ErrForbidden    = errors.New("acceso denegado")
)

// Taxonomía del núcleo de autorización.
//
// Los errores de resolución (ErrUnauthenticated, ErrResolutionUnavailable, ErrCapabilityUnset)
// nunca llegan a la UI: se absorben en los valores por defecto de cada resolvedor y solo
// viajan como motivo dentro de los resultados para los logs. Los errores de PIN e identidad
// sí se devuelven al operador porque son estados esperados y recuperables.
var (
	ErrUnauthenticated       = errors.New("actor sin rol resoluble")
	ErrResolutionUnavailable = errors.New("datos de plan no disponibles temporalmente")
	ErrCapabilityUnset       = errors.New("empleado sin capacidades asignadas")

	ErrSessionLocked           = errors.New("la sesión del terminal está bloqueada")
	ErrPinRejected             = errors.New("PIN incorrecto")
	ErrPinCooldown             = errors.New("demasiados intentos de PIN, espere antes de reintentar")
	ErrVerificationUnavailable = errors.New("no se pudo verificar el PIN, intente más tarde")

	ErrIdentityUndetected  = errors.New("no se detectó la red local del dispositivo")
	ErrIdentityUnconfirmed = errors.New("el operador no confirmó la red detectada")
	ErrCheckNotFound       = errors.New("verificación de asistencia inexistente o finalizada")
	ErrCheckCancelled      = errors.New("verificación de asistencia cancelada")
	ErrFeatureDisabled     = errors.New("la funcionalidad no está incluida en el plan")
	ErrTerminalNotAttached = errors.New("el terminal no tiene una sesión activa")
)
