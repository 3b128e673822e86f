package entity

// LockState estado del bloqueo de sesión de un terminal POS.
type LockState int

const (
	LockLocked   LockState = iota // estado inicial: requiere PIN
	LockUnlocked                  // operaciones POS permitidas
)

// String nombre legible (respuestas HTTP y logs).
func (s LockState) String() string {
	switch s {
	case LockLocked:
		return "locked"
	case LockUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}
