package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// NumberingResolutionRepository define el puerto de persistencia para resoluciones de numeración.
type NumberingResolutionRepository interface {
	Create(ctx context.Context, res *entity.NumberingResolution) error
	GetByID(ctx context.Context, id string) (*entity.NumberingResolution, error)

	// ListByConfig lista las resoluciones de una configuración, vigentes o no.
	// La selección de la resolución vigente la hace el validador de dominio.
	ListByConfig(ctx context.Context, configID string) ([]*entity.NumberingResolution, error)
}
