package billing

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-dian/internal/application/dto"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

const (
	defaultLogLimit    = 50
	maxLogLimit        = 500
	defaultSummaryDays = 30
)

// ReportUseCase consultas de auditoría: log DIAN y resumen diario.
type ReportUseCase struct {
	logs      repository.LogRepository
	summaries repository.DailySummaryRepository
	now       func() time.Time
}

// NewReportUseCase construye el caso de uso.
func NewReportUseCase(logs repository.LogRepository, summaries repository.DailySummaryRepository) *ReportUseCase {
	return &ReportUseCase{logs: logs, summaries: summaries, now: time.Now}
}

// RecentLogs devuelve las últimas entradas del log (50 por defecto, máximo 500).
func (uc *ReportUseCase) RecentLogs(ctx context.Context, limit int) ([]dto.LogEntryResponse, error) {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	if limit > maxLogLimit {
		limit = maxLogLimit
	}
	entries, err := uc.logs.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LogEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.LogEntryResponse{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Category:  e.Category,
			InvoiceID: e.SourceInvoiceID,
			Message:   e.Message,
			Details:   e.Details,
		})
	}
	return out, nil
}

// Summary devuelve los contadores diarios de los últimos days días (30 por defecto).
func (uc *ReportUseCase) Summary(ctx context.Context, days int) ([]dto.DailySummaryResponse, error) {
	if days <= 0 {
		days = defaultSummaryDays
	}
	to := uc.now()
	from := to.AddDate(0, 0, -(days - 1))
	list, err := uc.summaries.ListRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DailySummaryResponse, 0, len(list))
	for _, s := range list {
		out = append(out, dto.DailySummaryResponse{
			Date:     s.Date.Format(dateLayout),
			Sent:     s.Sent,
			Accepted: s.Accepted,
			Rejected: s.Rejected,
		})
	}
	return out, nil
}

// ToSubmissionResponse mapea el registro de envío a su DTO.
func ToSubmissionResponse(s *entity.InvoiceSubmission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		ID:                s.ID,
		SourceInvoiceID:   s.SourceInvoiceID,
		Status:            string(s.Status),
		CUFE:              s.CUFE,
		CUDE:              s.CUDE,
		QRCode:            s.QRCode,
		Attempts:          s.Attempts,
		ErrorMessage:      s.ErrorMessage,
		SubmittedAt:       s.SubmittedAt,
		RespondedAt:       s.RespondedAt,
		AuthorityResponse: s.AuthorityResponse,
		CanRetry:          s.IsRetryable() && s.Status != entity.SubmissionProcessing,
		CanResend:         s.CanBeResent() && s.Status != entity.SubmissionProcessing,
		UpdatedAt:         s.UpdatedAt,
	}
}

// ToSubmissionResultResponse mapea el resultado del orquestador a su DTO.
func ToSubmissionResultResponse(r *SubmissionResult) dto.SubmissionResultResponse {
	return dto.SubmissionResultResponse{
		Success: r.Success,
		Message: r.Message,
		CUFE:    r.CUFE,
		CUDE:    r.CUDE,
		Status:  string(r.Status),
	}
}
