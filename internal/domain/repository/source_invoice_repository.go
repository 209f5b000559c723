package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// SourceInvoiceRepository acceso de solo lectura a las facturas origen y sus líneas.
type SourceInvoiceRepository interface {
	// GetByID devuelve la factura con sus líneas ordenadas, o nil, nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.SourceInvoice, error)
}
