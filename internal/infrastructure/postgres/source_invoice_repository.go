package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

var _ repository.SourceInvoiceRepository = (*SourceInvoiceRepo)(nil)

// SourceInvoiceRepo lectura de las facturas del sistema comercial.
// NUMERIC se escanea a decimal.Decimal gracias al codec registrado en el pool.
type SourceInvoiceRepo struct {
	q Querier
}

// NewSourceInvoiceRepository construye el adaptador.
func NewSourceInvoiceRepository(q Querier) *SourceInvoiceRepo {
	return &SourceInvoiceRepo{q: q}
}

// GetByID devuelve la factura con sus líneas ordenadas, o nil, nil.
func (r *SourceInvoiceRepo) GetByID(ctx context.Context, id string) (*entity.SourceInvoice, error) {
	var inv entity.SourceInvoice
	err := r.q.QueryRow(ctx, `
		SELECT id, codigo, fecha_emision, moneda, subtotal, impuestos, otros_cargos, total,
		       cliente_nombre, cliente_documento
		FROM source_invoices WHERE id = $1`, id).Scan(
		&inv.ID, &inv.Code, &inv.IssuedAt, &inv.Currency, &inv.Net, &inv.Tax, &inv.OtherCharges, &inv.Total,
		&inv.CustomerName, &inv.CustomerTaxID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get source invoice: %w", err)
	}

	rows, err := r.q.Query(ctx, `
		SELECT descripcion, cantidad, precio_unitario, total
		FROM source_invoice_lines WHERE invoice_id = $1 ORDER BY linea`, id)
	if err != nil {
		return nil, fmt.Errorf("list source invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.SourceInvoiceLine
		if err := rows.Scan(&l.Description, &l.Quantity, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, fmt.Errorf("scan source invoice line: %w", err)
		}
		inv.Lines = append(inv.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}
