package postgres

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/restopos-api/internal/domain/repository"
)

var _ repository.PinVerifier = (*PinRepo)(nil)

// PinRepo verificación de PIN de desbloqueo (tabla user_pins). El hash nunca sale de aquí.
type PinRepo struct {
	q Querier
}

// NewPinRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPinRepository(q Querier) *PinRepo {
	return &PinRepo{q: q}
}

// VerifyPin compara el PIN con el hash guardado. Sin PIN registrado => false.
func (r *PinRepo) VerifyPin(ctx context.Context, actorID, pin string) (bool, error) {
	var hash string
	err := r.q.QueryRow(ctx, `SELECT pin_hash FROM user_pins WHERE user_id = $1`, actorID).Scan(&hash)
	if err != nil {
		if isNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("get pin hash: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		return false, fmt.Errorf("compare pin: %w", err)
	}
	return true, nil
}

// SetPin guarda el hash bcrypt del PIN.
func (r *PinRepo) SetPin(ctx context.Context, actorID, pin string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash pin: %w", err)
	}
	_, err = r.q.Exec(ctx, `
		INSERT INTO user_pins (user_id, pin_hash, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (user_id) DO UPDATE SET pin_hash = EXCLUDED.pin_hash, updated_at = now()`,
		actorID, string(hash))
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}
