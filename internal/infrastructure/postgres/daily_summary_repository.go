package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

var _ repository.DailySummaryRepository = (*DailySummaryRepo)(nil)

// DailySummaryRepo contadores diarios (tabla dian_summaries, UNIQUE fecha).
type DailySummaryRepo struct {
	q Querier
}

// NewDailySummaryRepository construye el adaptador.
func NewDailySummaryRepository(q Querier) *DailySummaryRepo {
	return &DailySummaryRepo{q: q}
}

// Increment suma los deltas al día indicado con un upsert atómico.
func (r *DailySummaryRepo) Increment(ctx context.Context, day time.Time, sent, accepted, rejected int) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO dian_summaries (fecha, enviadas, aceptadas, rechazadas)
		VALUES ($1::date, $2, $3, $4)
		ON CONFLICT (fecha) DO UPDATE SET
			enviadas   = dian_summaries.enviadas + EXCLUDED.enviadas,
			aceptadas  = dian_summaries.aceptadas + EXCLUDED.aceptadas,
			rechazadas = dian_summaries.rechazadas + EXCLUDED.rechazadas`,
		day.Format("2006-01-02"), sent, accepted, rejected,
	)
	if err != nil {
		return fmt.Errorf("upsert dian summary: %w", err)
	}
	return nil
}

// ListRange devuelve los días en [from, to] en orden ascendente.
func (r *DailySummaryRepo) ListRange(ctx context.Context, from, to time.Time) ([]*entity.DailySummary, error) {
	rows, err := r.q.Query(ctx, `
		SELECT fecha, enviadas, aceptadas, rechazadas
		FROM dian_summaries WHERE fecha BETWEEN $1::date AND $2::date ORDER BY fecha`,
		from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list dian summaries: %w", err)
	}
	defer rows.Close()
	var list []*entity.DailySummary
	for rows.Next() {
		var s entity.DailySummary
		if err := rows.Scan(&s.Date, &s.Sent, &s.Accepted, &s.Rejected); err != nil {
			return nil, fmt.Errorf("scan dian summary: %w", err)
		}
		list = append(list, &s)
	}
	return list, rows.Err()
}
