package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// InvoiceSubmissionRepository define el puerto de persistencia para los envíos DIAN.
type InvoiceSubmissionRepository interface {
	// Create inserta el registro. Devuelve domain.ErrDuplicate si ya existe uno para la factura origen.
	Create(ctx context.Context, s *entity.InvoiceSubmission) error

	// GetBySourceInvoiceID devuelve nil, nil si la factura aún no tiene registro de envío.
	GetBySourceInvoiceID(ctx context.Context, sourceInvoiceID string) (*entity.InvoiceSubmission, error)

	// Update persiste todos los campos con control de versión.
	// Devuelve domain.ErrConflict si otro proceso modificó el registro; en éxito incrementa s.Version.
	Update(ctx context.Context, s *entity.InvoiceSubmission) error

	ListByStatus(ctx context.Context, status entity.SubmissionStatus, limit int) ([]*entity.InvoiceSubmission, error)
}
