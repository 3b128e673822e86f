package repository

import (
	"context"

	"github.com/jhoicas/restopos-api/internal/domain/entity"
)

// AttendanceRepository escritura de marcaciones ya confirmadas por el operador.
type AttendanceRepository interface {
	Record(ctx context.Context, rec *entity.AttendanceRecord) error
}
