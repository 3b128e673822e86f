package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthResponse estado del agente.
type HealthResponse struct {
	Status     string `json:"status"`
	TerminalID string `json:"terminal_id,omitempty"`
	Bus        string `json:"bus"`
}
