package billing

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-dian/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/metrics"
	pkgdian "github.com/jhoicas/facturacion-dian/pkg/dian"
)

const (
	// DefaultBatchPause pausa entre envíos consecutivos de un lote.
	DefaultBatchPause = time.Second
	// DefaultStaleProcessingAfter antigüedad a partir de la cual un PROCESANDO se considera
	// interrumpido (dos veces el timeout de envío por defecto).
	DefaultStaleProcessingAfter = 2 * infradian.DefaultSubmitTimeout
)

// SubmissionResult resultado de una operación del orquestador.
type SubmissionResult struct {
	Success bool
	Message string
	CUFE    string
	CUDE    string
	Status  entity.SubmissionStatus
}

// BatchItemResult resultado de una factura dentro de un lote.
type BatchItemResult struct {
	SourceInvoiceID string
	Result          *SubmissionResult
}

// BatchResult resumen del envío por lotes.
type BatchResult struct {
	Total     int
	Succeeded int
	Failed    int
	Items     []BatchItemResult
}

// OrchestratorOptions políticas del orquestador.
type OrchestratorOptions struct {
	// AllowUnsignedInTestEnvironment permite enviar XML sin firma solo en ambiente de pruebas
	// y solo cuando el emisor no tiene certificado configurado.
	AllowUnsignedInTestEnvironment bool
	BatchPause                     time.Duration
	// StaleProcessingAfter tiempo sin cambios tras el cual un envío en PROCESANDO
	// puede volver a ejecutarse (proceso caído a mitad del flujo).
	StaleProcessingAfter time.Duration
}

// OrchestratorDeps dependencias del orquestador.
type OrchestratorDeps struct {
	Submissions repository.InvoiceSubmissionRepository
	Sources     repository.SourceInvoiceRepository
	Resolutions repository.NumberingResolutionRepository
	Logs        repository.LogRepository
	Summaries   repository.DailySummaryRepository
	XMLBuilder  XMLBuilder
	Signer      pkgdian.Signer
	Certs       CertificateStore
	QR          QRGenerator
	Transports  TransportFactory
	Logger      zerolog.Logger
	Metrics     *metrics.Metrics
}

// DIANOrchestrator orquesta el ciclo de envío electrónico DIAN de una factura:
//
//	PENDIENTE → PROCESANDO → Resolución → CUFE → XML UBL 2.1 → Firma → Envío → ENVIADO | ERROR
//
// Cada llamada es síncrona: el estado queda persistido antes de retornar.
// Reintentar es re-ejecutar el flujo completo (CUFE, XML y firma se regeneran).
type DIANOrchestrator struct {
	submissions repository.InvoiceSubmissionRepository
	sources     repository.SourceInvoiceRepository
	resolutions repository.NumberingResolutionRepository
	logs        repository.LogRepository
	summaries   repository.DailySummaryRepository
	xmlBuilder  XMLBuilder
	signer      pkgdian.Signer
	certs       CertificateStore
	qr          QRGenerator
	transports  TransportFactory
	opts        OrchestratorOptions
	log         zerolog.Logger
	metrics     *metrics.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDIANOrchestrator construye el orquestador.
func NewDIANOrchestrator(deps OrchestratorDeps, opts OrchestratorOptions) *DIANOrchestrator {
	if opts.BatchPause < 0 {
		opts.BatchPause = 0
	}
	if opts.StaleProcessingAfter <= 0 {
		opts.StaleProcessingAfter = DefaultStaleProcessingAfter
	}
	return &DIANOrchestrator{
		submissions: deps.Submissions,
		sources:     deps.Sources,
		resolutions: deps.Resolutions,
		logs:        deps.Logs,
		summaries:   deps.Summaries,
		xmlBuilder:  deps.XMLBuilder,
		signer:      deps.Signer,
		certs:       deps.Certs,
		qr:          deps.QR,
		transports:  deps.Transports,
		opts:        opts,
		log:         deps.Logger.With().Str("component", "dian_orchestrator").Logger(),
		metrics:     deps.Metrics,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// Submission devuelve el registro de envío de la factura origen. domain.ErrNotFound si no existe.
func (o *DIANOrchestrator) Submission(ctx context.Context, sourceInvoiceID string) (*entity.InvoiceSubmission, error) {
	sub, err := o.submissions.GetBySourceInvoiceID(ctx, sourceInvoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	return sub, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Send / Retry / Resend
// ═══════════════════════════════════════════════════════════════════════════

// Send envía la factura origen a la DIAN. cfg es la configuración activa (nil = sin configuración).
// Los fallos del flujo quedan persistidos como ERROR y se devuelven en el resultado;
// solo los fallos de persistencia se devuelven como error.
// Una factura origen inexistente devuelve domain.ErrNotFound sin crear registro ni consumir intentos.
func (o *DIANOrchestrator) Send(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string) (*SubmissionResult, error) {
	inv, err := o.sourceInvoice(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	sub, err := o.getOrCreate(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	if res := o.guardAutomaticSend(sub); res != nil {
		return res, nil
	}
	o.noteRecovery(ctx, sub)
	return o.run(ctx, cfg, sub, inv)
}

// Retry reintenta un envío fallido: vuelve a PENDIENTE, limpia el error y re-ejecuta Send.
func (o *DIANOrchestrator) Retry(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string) (*SubmissionResult, error) {
	sub, err := o.Submission(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	if res := o.guardAutomaticSend(sub); res != nil {
		return res, nil
	}
	inv, err := o.sourceInvoice(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	o.noteRecovery(ctx, sub)
	from := sub.Status
	sub.Status = entity.SubmissionPending
	sub.ErrorMessage = ""
	sub.UpdatedAt = o.now()
	if err := o.persist(ctx, sub); err != nil {
		return nil, err
	}
	o.metrics.IncStatusTransition(string(from), string(sub.Status))
	return o.run(ctx, cfg, sub, inv)
}

// Resend reenvío manual de un operador. Requiere confirmación explícita y nunca reenvía
// una factura ACEPTADA, aunque el llamador haya omitido la validación.
func (o *DIANOrchestrator) Resend(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string, confirmed bool) (*SubmissionResult, error) {
	if !confirmed {
		return &SubmissionResult{Message: "El reenvío requiere confirmación explícita del operador"}, nil
	}
	sub, err := o.Submission(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	if o.inFlight(sub) {
		return rejected(sub, "La factura tiene un envío en curso"), nil
	}
	if !sub.CanBeResent() {
		return rejected(sub, fmt.Sprintf("La factura no puede reenviarse (estado %s, %d de %d intentos)",
			sub.Status, sub.Attempts, entity.MaxSubmissionAttempts)), nil
	}
	inv, err := o.sourceInvoice(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	o.noteRecovery(ctx, sub)
	o.audit(ctx, entity.LogCategorySubmission, sourceInvoiceID, "Reenvío manual confirmado por el operador",
		map[string]any{"status": string(sub.Status), "attempts": sub.Attempts})
	return o.run(ctx, cfg, sub, inv)
}

// guardAutomaticSend aplica las reglas de idempotencia para Send y Retry.
func (o *DIANOrchestrator) guardAutomaticSend(sub *entity.InvoiceSubmission) *SubmissionResult {
	switch {
	case sub.IsDelivered():
		return rejected(sub, fmt.Sprintf("La factura ya fue enviada a la DIAN (estado %s)", sub.Status))
	case o.inFlight(sub):
		return rejected(sub, "La factura tiene un envío en curso")
	case !sub.IsRetryable():
		return rejected(sub, fmt.Sprintf("Se alcanzó el máximo de %d intentos de envío", entity.MaxSubmissionAttempts))
	}
	return nil
}

// inFlight indica un PROCESANDO reciente. Uno más antiguo que StaleProcessingAfter quedó
// interrumpido y puede re-ejecutarse; la versión optimista sigue impidiendo dos ejecuciones a la vez.
func (o *DIANOrchestrator) inFlight(sub *entity.InvoiceSubmission) bool {
	if sub.Status != entity.SubmissionProcessing {
		return false
	}
	return o.now().Sub(sub.UpdatedAt) < o.opts.StaleProcessingAfter
}

// noteRecovery deja constancia de que se retoma un envío interrumpido.
func (o *DIANOrchestrator) noteRecovery(ctx context.Context, sub *entity.InvoiceSubmission) {
	if sub.Status != entity.SubmissionProcessing {
		return
	}
	o.log.Warn().Str("source_invoice_id", sub.SourceInvoiceID).Time("updated_at", sub.UpdatedAt).
		Msg("[DIAN] envío interrumpido en PROCESANDO, se re-ejecuta")
	o.audit(ctx, entity.LogCategoryError, sub.SourceInvoiceID, "Envío interrumpido en PROCESANDO, se re-ejecuta",
		map[string]any{"attempts": sub.Attempts, "updated_at": sub.UpdatedAt.Format(time.RFC3339)})
}

// run ejecuta el flujo completo sobre el registro ya validado.
func (o *DIANOrchestrator) run(ctx context.Context, cfg *entity.IssuerConfig, sub *entity.InvoiceSubmission, inv *entity.SourceInvoice) (*SubmissionResult, error) {
	log := o.log.With().Str("source_invoice_id", sub.SourceInvoiceID).Logger()

	// 1. PROCESANDO + intento, persistido antes de cualquier otro paso
	from := sub.Status
	sub.Status = entity.SubmissionProcessing
	sub.Attempts++
	sub.UpdatedAt = o.now()
	if err := o.persist(ctx, sub); err != nil {
		return nil, err
	}
	o.metrics.IncStatusTransition(string(from), string(sub.Status))
	log.Info().Int("attempt", sub.Attempts).Msg("[DIAN] iniciando envío")

	// 2. Configuración
	if cfg == nil {
		return o.fail(ctx, sub, "No hay configuración DIAN activa", "")
	}

	// 3. Factura origen
	if err := domdian.ValidateSourceInvoice(inv); err != nil {
		return o.fail(ctx, sub, err.Error(), "")
	}

	// 4. Resolución vigente y rango
	list, err := o.resolutions.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return o.fail(ctx, sub, "Error consultando resoluciones: "+err.Error(), "")
	}
	resolution, _, err := domdian.SelectResolution(list, o.now(), inv.Code)
	if err != nil {
		return o.fail(ctx, sub, errorText(err, domain.ErrResolution), "")
	}

	// 5. CUFE
	buildCtx := &infradian.InvoiceBuildContext{Invoice: inv, Issuer: cfg, Resolution: resolution}
	cufe, err := infradian.CalculateCufe(buildCtx)
	if err != nil {
		return o.fail(ctx, sub, "Error generando el CUFE: "+err.Error(), "")
	}
	sub.CUFE = cufe

	// 6. XML UBL
	xmlBytes, err := o.xmlBuilder.Build(buildCtx)
	if err != nil {
		return o.fail(ctx, sub, "Error generando el XML: "+err.Error(), "")
	}
	sub.XML = string(xmlBytes)

	// 7. Firma (o paso sin firma si la política lo permite)
	signed, cert, msg := o.sign(ctx, cfg, sub.SourceInvoiceID, xmlBytes)
	if msg != "" {
		return o.fail(ctx, sub, msg, "")
	}
	sub.SignedXML = string(signed)

	// 8. Envío
	xmlName, _ := infradian.DIANFilenames(cfg.NIT, inv.Code)
	res, err := o.transports(cfg, cert).Submit(ctx, xmlName, signed)
	if err != nil || res == nil || !res.Accepted {
		message, raw := "Error enviando a la DIAN", ""
		if res != nil {
			raw = res.RawResponse
			if res.Message != "" {
				message = res.Message
			}
		}
		if err != nil && (res == nil || res.Message == "") {
			message = err.Error()
		}
		return o.fail(ctx, sub, message, raw)
	}

	// 9. ENVIADO
	now := o.now()
	sub.Status = entity.SubmissionSent
	sub.SubmittedAt = &now
	sub.AuthorityResponse = res.RawResponse
	if res.CUDE != "" {
		sub.CUDE = res.CUDE
	}
	sub.QRCode = o.qrCode(buildCtx)
	sub.ErrorMessage = ""
	sub.UpdatedAt = now
	if err := o.persist(ctx, sub); err != nil {
		return nil, err
	}
	o.metrics.IncStatusTransition(string(entity.SubmissionProcessing), string(sub.Status))
	o.metrics.IncSubmissionOutcome(string(sub.Status))
	o.bumpSummary(ctx, now, 1, 0, 0)
	o.audit(ctx, entity.LogCategorySubmission, sub.SourceInvoiceID, "Factura enviada a la DIAN", map[string]any{
		"cufe":        sub.CUFE,
		"cude":        sub.CUDE,
		"http_status": res.HTTPStatus,
		"attempt":     sub.Attempts,
	})
	log.Info().Str("cufe", sub.CUFE).Msg("[DIAN] factura enviada")

	return &SubmissionResult{
		Success: true,
		Message: "Factura enviada exitosamente a la DIAN",
		CUFE:    sub.CUFE,
		CUDE:    sub.CUDE,
		Status:  sub.Status,
	}, nil
}

// sign firma el XML. Devuelve un mensaje no vacío si el paso falla.
func (o *DIANOrchestrator) sign(ctx context.Context, cfg *entity.IssuerConfig, sourceID string, xmlBytes []byte) ([]byte, *tls.Certificate, string) {
	if !cfg.HasCertificate() {
		if o.opts.AllowUnsignedInTestEnvironment && !cfg.IsProduction() {
			o.log.Warn().Str("source_invoice_id", sourceID).Msg("[DIAN] enviando XML SIN FIRMA (ambiente de pruebas sin certificado)")
			o.audit(ctx, entity.LogCategorySigning, sourceID, "XML enviado sin firma (ambiente de pruebas)", nil)
			return xmlBytes, nil, ""
		}
		return nil, nil, "No hay certificado digital configurado"
	}
	if !o.certs.Exists(cfg.CertPath) {
		return nil, nil, "Archivo de certificado no encontrado: " + o.certs.Path(cfg.CertPath)
	}
	cert, err := o.certs.Load(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		return nil, nil, errorText(err, domain.ErrCertificate)
	}
	if info, err := o.certs.Inspect(cert); err == nil && !info.IsValid {
		return nil, nil, fmt.Sprintf("El certificado digital expiró el %s", info.ValidTo.Format("2006-01-02"))
	}
	signed, err := o.signer.Sign(xmlBytes, cert)
	if err != nil {
		return nil, nil, err.Error()
	}
	o.audit(ctx, entity.LogCategorySigning, sourceID, "XML firmado", map[string]any{"bytes": len(signed)})
	return signed, &cert, ""
}

// ═══════════════════════════════════════════════════════════════════════════
// QueryStatus / SendBatch / TestConnectivity
// ═══════════════════════════════════════════════════════════════════════════

// QueryStatus consulta el estado en la DIAN y persiste solo si el estado cambia.
func (o *DIANOrchestrator) QueryStatus(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string) (*SubmissionResult, error) {
	sub, err := o.Submission(ctx, sourceInvoiceID)
	if err != nil {
		return nil, err
	}
	if sub.CUFE == "" {
		return rejected(sub, "No hay CUFE para consultar"), nil
	}
	if cfg == nil {
		return rejected(sub, "No hay configuración DIAN activa"), nil
	}

	res, err := o.transports(cfg, o.clientCertificate(cfg)).QueryStatus(ctx, sub.CUFE)
	if err != nil || res == nil || !res.Accepted {
		message := "Error consultando estado en la DIAN"
		if res != nil && res.Message != "" {
			message = res.Message
		} else if err != nil {
			message = err.Error()
		}
		o.audit(ctx, entity.LogCategoryStatusQuery, sourceInvoiceID, message, map[string]any{"cufe": sub.CUFE})
		return rejected(sub, message), nil
	}

	o.audit(ctx, entity.LogCategoryStatusQuery, sourceInvoiceID, "Estado consultado: "+res.Status, map[string]any{"cufe": sub.CUFE})
	to, ok := domdian.MapAuthorityStatus(res.Status)
	if !ok || to == sub.Status {
		return &SubmissionResult{Success: true, Message: "Estado DIAN: " + res.Status, CUFE: sub.CUFE, CUDE: sub.CUDE, Status: sub.Status}, nil
	}
	if !domdian.IsAuthorityTransition(sub.Status, to) {
		o.log.Warn().Str("source_invoice_id", sourceInvoiceID).Str("from", string(sub.Status)).Str("to", string(to)).
			Msg("[DIAN] transición de estado ignorada")
		return &SubmissionResult{Success: true, Message: "Estado DIAN: " + res.Status, CUFE: sub.CUFE, CUDE: sub.CUDE, Status: sub.Status}, nil
	}

	from := sub.Status
	now := o.now()
	sub.Status = to
	sub.RespondedAt = &now
	sub.AuthorityResponse = res.RawResponse
	sub.UpdatedAt = now
	if err := o.persist(ctx, sub); err != nil {
		return nil, err
	}
	o.metrics.IncStatusTransition(string(from), string(to))
	o.metrics.IncSubmissionOutcome(string(to))
	if to == entity.SubmissionAccepted {
		o.bumpSummary(ctx, now, 0, 1, 0)
	} else {
		o.bumpSummary(ctx, now, 0, 0, 1)
	}
	return &SubmissionResult{Success: true, Message: "Estado DIAN: " + res.Status, CUFE: sub.CUFE, CUDE: sub.CUDE, Status: sub.Status}, nil
}

// SendBatch envía las facturas en orden, una a una, con pausa entre envíos consecutivos.
func (o *DIANOrchestrator) SendBatch(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceIDs []string) (*BatchResult, error) {
	pause := o.opts.BatchPause
	if pause == 0 {
		pause = DefaultBatchPause
	}
	out := &BatchResult{Total: len(sourceInvoiceIDs), Items: make([]BatchItemResult, 0, len(sourceInvoiceIDs))}
	for i, id := range sourceInvoiceIDs {
		if i > 0 {
			if err := o.sleep(ctx, pause); err != nil {
				return out, err
			}
		}
		res, err := o.Send(ctx, cfg, id)
		if err != nil {
			res = &SubmissionResult{Message: err.Error(), Status: entity.SubmissionError}
		}
		if res.Success {
			out.Succeeded++
		} else {
			out.Failed++
		}
		out.Items = append(out.Items, BatchItemResult{SourceInvoiceID: id, Result: res})
	}
	o.log.Info().Int("total", out.Total).Int("ok", out.Succeeded).Int("failed", out.Failed).Msg("[DIAN] lote procesado")
	return out, nil
}

// TestConnectivity prueba la disponibilidad del servicio DIAN para la configuración.
func (o *DIANOrchestrator) TestConnectivity(ctx context.Context, cfg *entity.IssuerConfig) bool {
	if cfg == nil {
		return false
	}
	ok := o.transports(cfg, o.clientCertificate(cfg)).TestConnectivity(ctx)
	msg := "Servicio DIAN disponible"
	if !ok {
		msg = "Servicio DIAN no disponible"
	}
	o.audit(ctx, entity.LogCategoryConnectivity, "", msg, map[string]any{"environment": cfg.Environment})
	return ok
}

// ── helpers ───────────────────────────────────────────────────────────────────

// sourceInvoice lee la factura origen. domain.ErrNotFound si no existe.
func (o *DIANOrchestrator) sourceInvoice(ctx context.Context, id string) (*entity.SourceInvoice, error) {
	inv, err := o.sources.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: leer factura origen %s: %v", domain.ErrPersistence, id, err)
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: factura origen %s", domain.ErrNotFound, id)
	}
	return inv, nil
}

func (o *DIANOrchestrator) getOrCreate(ctx context.Context, sourceInvoiceID string) (*entity.InvoiceSubmission, error) {
	sub, err := o.submissions.GetBySourceInvoiceID(ctx, sourceInvoiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	if sub != nil {
		return sub, nil
	}
	sub = entity.NewInvoiceSubmission(sourceInvoiceID, o.now())
	sub.ID = uuid.New().String()
	err = o.submissions.Create(ctx, sub)
	if errors.Is(err, domain.ErrDuplicate) {
		// otro proceso creó el registro en paralelo
		return o.Submission(ctx, sourceInvoiceID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return sub, nil
}

// fail deja el envío en ERROR con un mensaje específico.
func (o *DIANOrchestrator) fail(ctx context.Context, sub *entity.InvoiceSubmission, message, raw string) (*SubmissionResult, error) {
	from := sub.Status
	sub.Status = entity.SubmissionError
	sub.ErrorMessage = message
	if raw != "" {
		sub.AuthorityResponse = raw
	}
	sub.UpdatedAt = o.now()
	if err := o.persist(ctx, sub); err != nil {
		o.log.Error().Err(err).Str("source_invoice_id", sub.SourceInvoiceID).Str("message", message).
			Msg("[DIAN] no se pudo persistir el estado ERROR")
		return nil, err
	}
	o.metrics.IncStatusTransition(string(from), string(sub.Status))
	o.metrics.IncSubmissionOutcome(string(sub.Status))
	o.audit(ctx, entity.LogCategoryError, sub.SourceInvoiceID, message, map[string]any{"attempt": sub.Attempts})
	o.log.Warn().Str("source_invoice_id", sub.SourceInvoiceID).Int("attempt", sub.Attempts).Msg("[DIAN] envío fallido: " + message)
	return &SubmissionResult{Message: message, CUFE: sub.CUFE, CUDE: sub.CUDE, Status: sub.Status}, nil
}

func (o *DIANOrchestrator) persist(ctx context.Context, sub *entity.InvoiceSubmission) error {
	if err := o.submissions.Update(ctx, sub); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return err
		}
		return fmt.Errorf("%w: actualizar envío %s: %v", domain.ErrPersistence, sub.SourceInvoiceID, err)
	}
	return nil
}

// clientCertificate carga el certificado para autenticación TLS; nil si no hay o no se puede cargar.
func (o *DIANOrchestrator) clientCertificate(cfg *entity.IssuerConfig) *tls.Certificate {
	if !cfg.HasCertificate() || !o.certs.Exists(cfg.CertPath) {
		return nil
	}
	cert, err := o.certs.Load(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		o.log.Warn().Err(err).Msg("[DIAN] certificado cliente no disponible; se continúa sin TLS mutuo")
		return nil
	}
	return &cert
}

// qrCode genera el QR; un fallo no interrumpe el envío.
func (o *DIANOrchestrator) qrCode(buildCtx *infradian.InvoiceBuildContext) string {
	if o.qr == nil {
		return ""
	}
	png, err := o.qr.Generate(infradian.QRPayloadFromContext(buildCtx))
	if err != nil {
		o.log.Warn().Err(err).Str("invoice", buildCtx.Invoice.Code).Msg("[DIAN] no se pudo generar el QR")
		return ""
	}
	return png
}

// audit registra en el log DIAN; un fallo de escritura solo se reporta en el log de la aplicación.
func (o *DIANOrchestrator) audit(ctx context.Context, category, sourceID, message string, details map[string]any) {
	if o.logs == nil {
		return
	}
	entry := &entity.LogEntry{
		ID:              uuid.New().String(),
		Timestamp:       o.now(),
		Category:        category,
		SourceInvoiceID: sourceID,
		Message:         message,
		Details:         details,
	}
	if err := o.logs.Append(ctx, entry); err != nil {
		o.log.Warn().Err(err).Str("category", category).Msg("[DIAN] no se pudo escribir el log de auditoría")
	}
}

func (o *DIANOrchestrator) bumpSummary(ctx context.Context, day time.Time, sent, accepted, rejected int) {
	if o.summaries == nil {
		return
	}
	if err := o.summaries.Increment(ctx, day, sent, accepted, rejected); err != nil {
		o.log.Warn().Err(err).Msg("[DIAN] no se pudo actualizar el resumen diario")
	}
}

func rejected(sub *entity.InvoiceSubmission, message string) *SubmissionResult {
	return &SubmissionResult{Message: message, CUFE: sub.CUFE, CUDE: sub.CUDE, Status: sub.Status}
}

// errorText devuelve el mensaje del error sin el prefijo del sentinel.
func errorText(err, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
