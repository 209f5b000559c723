package dto

import "time"

// SubmissionResultResponse resultado de send/retry/resend/status.
type SubmissionResultResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	CUFE    string `json:"cufe,omitempty"`
	CUDE    string `json:"cude,omitempty"`
	Status  string `json:"status"`
}

// ResendRequest body de POST /api/dian/invoices/:id/resend.
type ResendRequest struct {
	Confirm bool `json:"confirm"`
}

// BatchSendRequest body de POST /api/dian/batch.
type BatchSendRequest struct {
	InvoiceIDs []string `json:"invoice_ids" validate:"required,min=1,max=100"`
}

// BatchItemResponse resultado de una factura del lote.
type BatchItemResponse struct {
	InvoiceID string                   `json:"invoice_id"`
	Result    SubmissionResultResponse `json:"result"`
}

// BatchSendResponse resumen del lote.
type BatchSendResponse struct {
	Total     int                 `json:"total"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
	Items     []BatchItemResponse `json:"items"`
}

// SubmissionResponse registro de envío DIAN de una factura (GET /api/dian/invoices/:id).
type SubmissionResponse struct {
	ID                string     `json:"id"`
	SourceInvoiceID   string     `json:"invoice_id"`
	Status            string     `json:"status"`
	CUFE              string     `json:"cufe,omitempty"`
	CUDE              string     `json:"cude,omitempty"`
	QRCode            string     `json:"qr_code,omitempty"` // data URI PNG
	Attempts          int        `json:"attempts"`
	ErrorMessage      string     `json:"error_message,omitempty"`
	SubmittedAt       *time.Time `json:"submitted_at,omitempty"`
	RespondedAt       *time.Time `json:"responded_at,omitempty"`
	AuthorityResponse string     `json:"authority_response,omitempty"`
	CanRetry          bool       `json:"can_retry"`
	CanResend         bool       `json:"can_resend"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// ConnectivityResponse resultado de GET /api/dian/connectivity.
type ConnectivityResponse struct {
	Available   bool   `json:"available"`
	Environment string `json:"environment"`
	Message     string `json:"message"`
}

// DIANConfigRequest body de POST /api/dian/config. Crea una nueva configuración y la activa.
type DIANConfigRequest struct {
	Environment  string `json:"environment" validate:"required,oneof=test production"`
	NIT          string `json:"nit" validate:"required"` // con o sin dígito de verificación ("900123456-8")
	LegalName    string `json:"legal_name" validate:"required"`
	CertPath     string `json:"cert_path"`
	CertPassword string `json:"cert_password"`
	SoftwarePIN  string `json:"software_pin" validate:"required"`
}

// DIANConfigResponse configuración (sin secretos).
type DIANConfigResponse struct {
	ID             string    `json:"id"`
	Environment    string    `json:"environment"`
	NIT            string    `json:"nit"`
	LegalName      string    `json:"legal_name"`
	CertPath       string    `json:"cert_path,omitempty"`
	HasCertificate bool      `json:"has_certificate"`
	HasSoftwarePIN bool      `json:"has_software_pin"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
}

// CertificateInfoResponse diagnóstico del certificado.
type CertificateInfoResponse struct {
	Subject         string    `json:"subject"`
	Issuer          string    `json:"issuer"`
	ValidFrom       time.Time `json:"valid_from"`
	ValidTo         time.Time `json:"valid_to"`
	Serial          string    `json:"serial"`
	IsValid         bool      `json:"is_valid"`
	DaysUntilExpiry int       `json:"days_until_expiry"`
}

// ConfigValidationResponse resultado de GET /api/dian/config/validate.
type ConfigValidationResponse struct {
	Valid       bool                     `json:"valid"`
	Errors      []string                 `json:"errors"`
	Certificate *CertificateInfoResponse `json:"certificate,omitempty"`
}

// ResolutionRequest body de POST /api/dian/resolutions. Fechas en formato YYYY-MM-DD.
type ResolutionRequest struct {
	Number    string `json:"number" validate:"required"`
	Prefix    string `json:"prefix"`
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	RangeFrom int64  `json:"range_from" validate:"min=0"`
	RangeTo   int64  `json:"range_to" validate:"min=0"`
}

// ResolutionResponse resolución de numeración.
type ResolutionResponse struct {
	ID        string `json:"id"`
	ConfigID  string `json:"config_id"`
	Number    string `json:"number"`
	Prefix    string `json:"prefix"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	RangeFrom int64  `json:"range_from"`
	RangeTo   int64  `json:"range_to"`
	Active    bool   `json:"active"`
}

// LogEntryResponse entrada del log DIAN.
type LogEntryResponse struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Category  string         `json:"category"`
	InvoiceID string         `json:"invoice_id,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}

// DailySummaryResponse contadores de un día.
type DailySummaryResponse struct {
	Date     string `json:"date"`
	Sent     int    `json:"sent"`
	Accepted int    `json:"accepted"`
	Rejected int    `json:"rejected"`
}
