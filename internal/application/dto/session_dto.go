package dto

import "time"

// LockStatusResponse estado del bloqueo de sesión del terminal.
type LockStatusResponse struct {
	TerminalID        string `json:"terminal_id"`
	State             string `json:"state"`
	FailedAttempts    int    `json:"failed_attempts"`
	CooldownRemaining int    `json:"cooldown_remaining_seconds"`
}

// UnlockRequest PIN del operador.
type UnlockRequest struct {
	Pin string `json:"pin"`
}

// AttachResponse contexto de actor asociado al terminal.
type AttachResponse struct {
	TerminalID string           `json:"terminal_id"`
	Lock       string           `json:"lock"`
	Snapshot   SnapshotResponse `json:"snapshot"`
}

// SaleAuthorizationResponse respuesta de la ruta POS de ejemplo.
type SaleAuthorizationResponse struct {
	Authorized bool      `json:"authorized"`
	ActorID    string    `json:"actor_id"`
	At         time.Time `json:"at"`
}
