package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

var _ repository.NumberingResolutionRepository = (*NumberingResolutionRepo)(nil)

// NumberingResolutionRepo implementación de NumberingResolutionRepository.
type NumberingResolutionRepo struct {
	q Querier
}

// NewNumberingResolutionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewNumberingResolutionRepository(q Querier) *NumberingResolutionRepo {
	return &NumberingResolutionRepo{q: q}
}

const resolutionColumns = `id, config_id, numero, prefijo, fecha_desde, fecha_hasta, rango_desde, rango_hasta, created_at, updated_at`

// Create persiste una resolución. ErrDuplicate si ya existe el mismo número para la configuración.
func (r *NumberingResolutionRepo) Create(ctx context.Context, res *entity.NumberingResolution) error {
	query := `INSERT INTO dian_resolutions (` + resolutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		res.ID, res.ConfigID, res.Number, res.Prefix, res.StartDate, res.EndDate,
		res.RangeFrom, res.RangeTo, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: resolución %s", domain.ErrDuplicate, res.Number)
		}
		return fmt.Errorf("insert dian resolution: %w", err)
	}
	return nil
}

// GetByID obtiene una resolución; nil si no existe.
func (r *NumberingResolutionRepo) GetByID(ctx context.Context, id string) (*entity.NumberingResolution, error) {
	var res entity.NumberingResolution
	err := r.q.QueryRow(ctx, `SELECT `+resolutionColumns+` FROM dian_resolutions WHERE id = $1`, id).Scan(
		&res.ID, &res.ConfigID, &res.Number, &res.Prefix, &res.StartDate, &res.EndDate,
		&res.RangeFrom, &res.RangeTo, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dian resolution: %w", err)
	}
	return &res, nil
}

// ListByConfig lista las resoluciones de la configuración, más recientes primero.
func (r *NumberingResolutionRepo) ListByConfig(ctx context.Context, configID string) ([]*entity.NumberingResolution, error) {
	query := `SELECT ` + resolutionColumns + ` FROM dian_resolutions WHERE config_id = $1 ORDER BY fecha_desde DESC`
	rows, err := r.q.Query(ctx, query, configID)
	if err != nil {
		return nil, fmt.Errorf("list dian resolutions: %w", err)
	}
	defer rows.Close()
	var list []*entity.NumberingResolution
	for rows.Next() {
		var res entity.NumberingResolution
		if err := rows.Scan(
			&res.ID, &res.ConfigID, &res.Number, &res.Prefix, &res.StartDate, &res.EndDate,
			&res.RangeFrom, &res.RangeTo, &res.CreatedAt, &res.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dian resolution: %w", err)
		}
		list = append(list, &res)
	}
	return list, rows.Err()
}
