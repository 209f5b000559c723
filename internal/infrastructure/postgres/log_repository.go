package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

var _ repository.LogRepository = (*LogRepo)(nil)

// LogRepo log de auditoría DIAN (solo inserción). Los detalles se guardan en JSONB.
type LogRepo struct {
	q Querier
}

// NewLogRepository construye el adaptador.
func NewLogRepository(q Querier) *LogRepo {
	return &LogRepo{q: q}
}

// Append inserta una entrada.
func (r *LogRepo) Append(ctx context.Context, e *entity.LogEntry) error {
	var details any
	if len(e.Details) > 0 {
		details = e.Details
	}
	_, err := r.q.Exec(ctx, `
		INSERT INTO dian_logs (id, fecha, tipo, source_invoice_id, mensaje, detalles)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Timestamp, e.Category, nullIfEmpty(e.SourceInvoiceID), e.Message, details,
	)
	if err != nil {
		return fmt.Errorf("insert dian log: %w", err)
	}
	return nil
}

// ListRecent devuelve las últimas limit entradas, la más reciente primero.
func (r *LogRepo) ListRecent(ctx context.Context, limit int) ([]*entity.LogEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, fecha, tipo, source_invoice_id, mensaje, detalles
		FROM dian_logs ORDER BY fecha DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list dian logs: %w", err)
	}
	defer rows.Close()
	var list []*entity.LogEntry
	for rows.Next() {
		var e entity.LogEntry
		var sourceID *string
		if err := rows.Scan(&e.ID, &e.Timestamp, &e.Category, &sourceID, &e.Message, &e.Details); err != nil {
			return nil, fmt.Errorf("scan dian log: %w", err)
		}
		e.SourceInvoiceID = stringOrEmpty(sourceID)
		list = append(list, &e)
	}
	return list, rows.Err()
}
