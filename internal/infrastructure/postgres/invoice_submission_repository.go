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

var _ repository.InvoiceSubmissionRepository = (*InvoiceSubmissionRepo)(nil)

// InvoiceSubmissionRepo persiste el registro de envío DIAN (tabla dian_invoices).
type InvoiceSubmissionRepo struct {
	q Querier
}

// NewInvoiceSubmissionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceSubmissionRepository(q Querier) *InvoiceSubmissionRepo {
	return &InvoiceSubmissionRepo{q: q}
}

const submissionColumns = `id, source_invoice_id, cufe, cude, xml_content, xml_firmado, qr_code, estado,
	fecha_envio, fecha_respuesta, respuesta_dian, mensaje_error, intentos, version, created_at, updated_at`

// Create inserta el registro. domain.ErrDuplicate si la factura origen ya tiene uno (UNIQUE source_invoice_id).
func (r *InvoiceSubmissionRepo) Create(ctx context.Context, s *entity.InvoiceSubmission) error {
	query := `INSERT INTO dian_invoices (` + submissionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := r.q.Exec(ctx, query, r.args(s)...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert dian invoice: %w", err)
	}
	return nil
}

// GetBySourceInvoiceID devuelve el registro o nil, nil.
func (r *InvoiceSubmissionRepo) GetBySourceInvoiceID(ctx context.Context, sourceInvoiceID string) (*entity.InvoiceSubmission, error) {
	row := r.q.QueryRow(ctx, `SELECT `+submissionColumns+` FROM dian_invoices WHERE source_invoice_id = $1`, sourceInvoiceID)
	s, err := scanSubmission(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dian invoice: %w", err)
	}
	return s, nil
}

// Update reescribe el registro si la versión coincide y la incrementa.
func (r *InvoiceSubmissionRepo) Update(ctx context.Context, s *entity.InvoiceSubmission) error {
	query := `
		UPDATE dian_invoices
		SET cufe = $3, cude = $4, xml_content = $5, xml_firmado = $6, qr_code = $7, estado = $8,
		    fecha_envio = $9, fecha_respuesta = $10, respuesta_dian = $11, mensaje_error = $12,
		    intentos = $13, version = version + 1, updated_at = $14
		WHERE source_invoice_id = $1 AND version = $2`
	tag, err := r.q.Exec(ctx, query,
		s.SourceInvoiceID, s.Version,
		nullIfEmpty(s.CUFE), nullIfEmpty(s.CUDE), nullIfEmpty(s.XML), nullIfEmpty(s.SignedXML), nullIfEmpty(s.QRCode),
		string(s.Status), s.SubmittedAt, s.RespondedAt, nullIfEmpty(s.AuthorityResponse), nullIfEmpty(s.ErrorMessage),
		s.Attempts, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update dian invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM dian_invoices WHERE source_invoice_id = $1)`, s.SourceInvoiceID).Scan(&exists); err != nil {
			return fmt.Errorf("update dian invoice: %w", err)
		}
		if !exists {
			return domain.ErrNotFound
		}
		return fmt.Errorf("%w: envío %s modificado por otro proceso (versión %d)", domain.ErrConflict, s.SourceInvoiceID, s.Version)
	}
	s.Version++
	return nil
}

// ListByStatus lista envíos en un estado, los más antiguos primero.
func (r *InvoiceSubmissionRepo) ListByStatus(ctx context.Context, status entity.SubmissionStatus, limit int) ([]*entity.InvoiceSubmission, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.q.Query(ctx,
		`SELECT `+submissionColumns+` FROM dian_invoices WHERE estado = $1 ORDER BY updated_at ASC LIMIT $2`,
		string(status), limit)
	if err != nil {
		return nil, fmt.Errorf("list dian invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceSubmission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dian invoice: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *InvoiceSubmissionRepo) args(s *entity.InvoiceSubmission) []any {
	return []any{
		s.ID, s.SourceInvoiceID,
		nullIfEmpty(s.CUFE), nullIfEmpty(s.CUDE), nullIfEmpty(s.XML), nullIfEmpty(s.SignedXML), nullIfEmpty(s.QRCode),
		string(s.Status), s.SubmittedAt, s.RespondedAt, nullIfEmpty(s.AuthorityResponse), nullIfEmpty(s.ErrorMessage),
		s.Attempts, s.Version, s.CreatedAt, s.UpdatedAt,
	}
}

func scanSubmission(row pgx.Row) (*entity.InvoiceSubmission, error) {
	var s entity.InvoiceSubmission
	var cufe, cude, xmlContent, signed, qr, raw, errMsg *string
	var status string
	err := row.Scan(
		&s.ID, &s.SourceInvoiceID, &cufe, &cude, &xmlContent, &signed, &qr, &status,
		&s.SubmittedAt, &s.RespondedAt, &raw, &errMsg, &s.Attempts, &s.Version, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.CUFE = stringOrEmpty(cufe)
	s.CUDE = stringOrEmpty(cude)
	s.XML = stringOrEmpty(xmlContent)
	s.SignedXML = stringOrEmpty(signed)
	s.QRCode = stringOrEmpty(qr)
	s.Status = entity.SubmissionStatus(status)
	s.AuthorityResponse = stringOrEmpty(raw)
	s.ErrorMessage = stringOrEmpty(errMsg)
	return &s, nil
}
