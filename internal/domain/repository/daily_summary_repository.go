package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// DailySummaryRepository puerto para los contadores diarios de envíos.
type DailySummaryRepository interface {
	// Increment suma los deltas al resumen del día (lo crea si no existe).
	Increment(ctx context.Context, day time.Time, sent, accepted, rejected int) error
	ListRange(ctx context.Context, from, to time.Time) ([]*entity.DailySummary, error)
}
