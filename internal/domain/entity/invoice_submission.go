package entity

import "time"

// SubmissionStatus estado del envío de una factura a la DIAN.
type SubmissionStatus string

// Estados del ciclo de vida del envío.
const (
	SubmissionPending    SubmissionStatus = "PENDIENTE"
	SubmissionProcessing SubmissionStatus = "PROCESANDO"
	SubmissionSent       SubmissionStatus = "ENVIADO"
	SubmissionAccepted   SubmissionStatus = "ACEPTADO"
	SubmissionRejected   SubmissionStatus = "RECHAZADO"
	SubmissionError      SubmissionStatus = "ERROR"
)

// MaxSubmissionAttempts tope de intentos para reintentos automáticos.
const MaxSubmissionAttempts = 3

// Valid indica si el estado es uno de los valores enumerados.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionProcessing, SubmissionSent,
		SubmissionAccepted, SubmissionRejected, SubmissionError:
		return true
	}
	return false
}

// InvoiceSubmission registro de envío DIAN de una factura origen (uno por factura).
type InvoiceSubmission struct {
	ID                string
	SourceInvoiceID   string // Referencia única a la factura origen
	CUFE              string
	CUDE              string // Código asignado por la DIAN en la respuesta
	XML               string // XML UBL sin firma
	SignedXML         string
	QRCode            string // data URI PNG
	Status            SubmissionStatus
	SubmittedAt       *time.Time
	RespondedAt       *time.Time
	AuthorityResponse string // Respuesta cruda de la DIAN
	ErrorMessage      string
	Attempts          int
	Version           int // Bloqueo optimista
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewInvoiceSubmission crea el registro en estado PENDIENTE.
func NewInvoiceSubmission(sourceInvoiceID string, now time.Time) *InvoiceSubmission {
	return &InvoiceSubmission{
		SourceInvoiceID: sourceInvoiceID,
		Status:          SubmissionPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// IsDelivered indica si la DIAN ya recibió el documento (ENVIADO o ACEPTADO).
func (s *InvoiceSubmission) IsDelivered() bool {
	return s.Status == SubmissionSent || s.Status == SubmissionAccepted
}

// IsRetryable indica si el envío admite un reintento automático.
func (s *InvoiceSubmission) IsRetryable() bool {
	return !s.IsDelivered() && s.Attempts < MaxSubmissionAttempts
}

// CanBeResent indica si un operador puede reenviar la factura (nunca si ya fue aceptada).
func (s *InvoiceSubmission) CanBeResent() bool {
	return s.Status != SubmissionAccepted && s.Attempts < MaxSubmissionAttempts
}
