package dto

import "time"

// BeginCheckResponse verificación de asistencia iniciada.
type BeginCheckResponse struct {
	CheckID   string    `json:"check_id"`
	StartedAt time.Time `json:"started_at"`
}

// CheckSampleResponse resultado de la sonda de red.
type CheckSampleResponse struct {
	CheckID    string     `json:"check_id"`
	Status     string     `json:"status"` // pending, detected, undetected
	IPAddress  string     `json:"ip_address,omitempty"`
	DetectedAt *time.Time `json:"detected_at,omitempty"`
}

// ConfirmCheckRequest decisión del operador sobre la red detectada.
type ConfirmCheckRequest struct {
	Confirmed bool   `json:"confirmed"`
	Kind      string `json:"kind"` // check_in, check_out
}

// AttendanceRecordResponse marcación registrada.
type AttendanceRecordResponse struct {
	ID          string    `json:"id"`
	ActorID     string    `json:"actor_id"`
	TenantID    string    `json:"tenant_id"`
	TerminalID  string    `json:"terminal_id"`
	Kind        string    `json:"kind"`
	IPAddress   string    `json:"ip_address"`
	DetectedAt  time.Time `json:"detected_at"`
	ConfirmedAt time.Time `json:"confirmed_at"`
}
