package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jhoicas/restopos-api/internal/domain"
	"github.com/jhoicas/restopos-api/internal/domain/entity"
	"github.com/jhoicas/restopos-api/internal/domain/repository"
)

var _ repository.AttendanceRepository = (*AttendanceRepo)(nil)

// AttendanceRepo marcaciones de asistencia (tabla attendance_records).
type AttendanceRepo struct {
	q Querier
}

// NewAttendanceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAttendanceRepository(q Querier) *AttendanceRepo {
	return &AttendanceRepo{q: q}
}

// Record persiste la marcación con la IP detectada como evidencia.
func (r *AttendanceRepo) Record(ctx context.Context, rec *entity.AttendanceRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	query := `
		INSERT INTO attendance_records (id, user_id, tenant_id, terminal_id, kind, ip_address, detected_at, confirmed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.ActorID, rec.TenantID, rec.TerminalID, string(rec.Kind), rec.IPAddress,
		rec.DetectedAt, rec.ConfirmedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: marcación duplicada", domain.ErrInvalidInput)
		}
		return fmt.Errorf("insert attendance: %w", err)
	}
	return nil
}
