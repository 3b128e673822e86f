package entity

import "time"

// NetworkIdentitySample dirección de red local detectada para un intento de asistencia.
// Vive solo durante el intento; el núcleo nunca la persiste por sí mismo.
type NetworkIdentitySample struct {
	IPAddress  string // vacío = no detectada
	DetectedAt time.Time
	Confirmed  bool
}

// Found indica si la sonda encontró una dirección.
func (s NetworkIdentitySample) Found() bool {
	return s.IPAddress != ""
}

// Accepted indica si la muestra puede respaldar una marcación: hay dirección y el
// operador la confirmó.
func (s NetworkIdentitySample) Accepted() bool {
	return s.Found() && s.Confirmed
}

// AttendanceKind tipo de marcación.
type AttendanceKind string

const (
	AttendanceCheckIn  AttendanceKind = "check_in"
	AttendanceCheckOut AttendanceKind = "check_out"
)

// ParseAttendanceKind valida el tipo de marcación recibido.
func ParseAttendanceKind(s string) (AttendanceKind, bool) {
	switch AttendanceKind(s) {
	case AttendanceCheckIn, AttendanceCheckOut:
		return AttendanceKind(s), true
	}
	return "", false
}

// AttendanceRecord marcación aceptada. La IP viaja como evidencia; la validación contra
// los rangos de red autorizados la hace el servidor, no este núcleo.
type AttendanceRecord struct {
	ID          string
	ActorID     string
	TenantID    string
	TerminalID  string
	Kind        AttendanceKind
	IPAddress   string
	DetectedAt  time.Time
	ConfirmedAt time.Time
}

// NewAttendanceRecord arma la marcación a partir de una muestra aceptada.
func NewAttendanceRecord(id string, actor Actor, terminalID string, kind AttendanceKind, sample NetworkIdentitySample, confirmedAt time.Time) *AttendanceRecord {
	return &AttendanceRecord{
		ID:          id,
		ActorID:     actor.ID,
		TenantID:    actor.TenantID,
		TerminalID:  terminalID,
		Kind:        kind,
		IPAddress:   sample.IPAddress,
		DetectedAt:  sample.DetectedAt,
		ConfirmedAt: confirmedAt,
	}
}
