package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// IssuerConfigRepository define el puerto de persistencia para la configuración del facturador.
type IssuerConfigRepository interface {
	Create(ctx context.Context, cfg *entity.IssuerConfig) error
	GetByID(ctx context.Context, id string) (*entity.IssuerConfig, error)

	// GetActive devuelve la configuración activa o nil, nil si no hay ninguna.
	GetActive(ctx context.Context) (*entity.IssuerConfig, error)

	// DeactivateAll desactiva todas las configuraciones (antes de activar una nueva).
	DeactivateAll(ctx context.Context) error
	Update(ctx context.Context, cfg *entity.IssuerConfig) error
}
