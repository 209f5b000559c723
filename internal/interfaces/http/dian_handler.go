package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dian/internal/application/billing"
	"github.com/jhoicas/facturacion-dian/internal/application/dto"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

const maxBatchSize = 100

// submissionService operaciones del orquestador que expone la API.
type submissionService interface {
	Submission(ctx context.Context, sourceInvoiceID string) (*entity.InvoiceSubmission, error)
	Send(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string) (*billing.SubmissionResult, error)
	Retry(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string) (*billing.SubmissionResult, error)
	Resend(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string, confirmed bool) (*billing.SubmissionResult, error)
	QueryStatus(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceID string) (*billing.SubmissionResult, error)
	SendBatch(ctx context.Context, cfg *entity.IssuerConfig, sourceInvoiceIDs []string) (*billing.BatchResult, error)
	TestConnectivity(ctx context.Context, cfg *entity.IssuerConfig) bool
}

// activeConfigProvider resuelve la configuración DIAN activa que se inyecta en cada operación.
type activeConfigProvider interface {
	Active(ctx context.Context) (*entity.IssuerConfig, error)
}

// DIANHandler endpoints del ciclo de envío de facturas a la DIAN (protegido).
type DIANHandler struct {
	svc     submissionService
	configs activeConfigProvider
}

// NewDIANHandler construye el handler.
func NewDIANHandler(svc submissionService, configs activeConfigProvider) *DIANHandler {
	return &DIANHandler{svc: svc, configs: configs}
}

// Get godoc
// @Summary      Estado de envío DIAN de una factura
// @Tags         dian
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura origen"
// @Success      200  {object}  dto.SubmissionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dian/invoices/{id} [get]
func (h *DIANHandler) Get(c *fiber.Ctx) error {
	sub, err := h.svc.Submission(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToSubmissionResponse(sub))
}

// Send godoc
// @Summary      Enviar factura a la DIAN
// @Description  Genera CUFE, XML UBL 2.1, firma XAdES y envía. El resultado queda persistido.
// @Tags         dian
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura origen"
// @Success      200  {object}  dto.SubmissionResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/dian/invoices/{id}/send [post]
func (h *DIANHandler) Send(c *fiber.Ctx) error {
	return h.withConfig(c, func(ctx context.Context, cfg *entity.IssuerConfig) (*billing.SubmissionResult, error) {
		return h.svc.Send(ctx, cfg, c.Params("id"))
	})
}

// Retry godoc
// @Summary      Reintentar un envío fallido
// @Tags         dian
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura origen"
// @Success      200  {object}  dto.SubmissionResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dian/invoices/{id}/retry [post]
func (h *DIANHandler) Retry(c *fiber.Ctx) error {
	return h.withConfig(c, func(ctx context.Context, cfg *entity.IssuerConfig) (*billing.SubmissionResult, error) {
		return h.svc.Retry(ctx, cfg, c.Params("id"))
	})
}

// Resend godoc
// @Summary      Reenvío manual (requiere confirmación)
// @Tags         dian
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true  "ID de la factura origen"
// @Param        body  body  dto.ResendRequest  true  "confirm: true"
// @Success      200   {object}  dto.SubmissionResultResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/dian/invoices/{id}/resend [post]
func (h *DIANHandler) Resend(c *fiber.Ctx) error {
	var in dto.ResendRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	return h.withConfig(c, func(ctx context.Context, cfg *entity.IssuerConfig) (*billing.SubmissionResult, error) {
		return h.svc.Resend(ctx, cfg, c.Params("id"), in.Confirm)
	})
}

// QueryStatus godoc
// @Summary      Consultar estado en la DIAN
// @Tags         dian
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID de la factura origen"
// @Success      200  {object}  dto.SubmissionResultResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dian/invoices/{id}/status [post]
func (h *DIANHandler) QueryStatus(c *fiber.Ctx) error {
	return h.withConfig(c, func(ctx context.Context, cfg *entity.IssuerConfig) (*billing.SubmissionResult, error) {
		return h.svc.QueryStatus(ctx, cfg, c.Params("id"))
	})
}

// SendBatch godoc
// @Summary      Envío por lotes (secuencial)
// @Tags         dian
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchSendRequest  true  "invoice_ids (máximo 100)"
// @Success      200   {object}  dto.BatchSendResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/dian/batch [post]
func (h *DIANHandler) SendBatch(c *fiber.Ctx) error {
	var in dto.BatchSendRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if len(in.InvoiceIDs) == 0 || len(in.InvoiceIDs) > maxBatchSize {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "invoice_ids debe tener entre 1 y 100 elementos"})
	}
	ctx := c.UserContext()
	cfg, err := h.configs.Active(ctx)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.svc.SendBatch(ctx, cfg, in.InvoiceIDs)
	if err != nil && res == nil {
		return writeError(c, err)
	}
	out := dto.BatchSendResponse{Total: res.Total, Succeeded: res.Succeeded, Failed: res.Failed, Items: make([]dto.BatchItemResponse, 0, len(res.Items))}
	for _, it := range res.Items {
		out.Items = append(out.Items, dto.BatchItemResponse{InvoiceID: it.SourceInvoiceID, Result: billing.ToSubmissionResultResponse(it.Result)})
	}
	return c.JSON(out)
}

// Connectivity godoc
// @Summary      Probar conectividad con la DIAN
// @Tags         dian
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ConnectivityResponse
// @Router       /api/dian/connectivity [get]
func (h *DIANHandler) Connectivity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cfg, err := h.configs.Active(ctx)
	if err != nil {
		return writeError(c, err)
	}
	out := dto.ConnectivityResponse{Message: "No hay configuración DIAN activa"}
	if cfg != nil {
		out.Environment = cfg.Environment
		out.Available = h.svc.TestConnectivity(ctx, cfg)
		out.Message = "Servicio DIAN no disponible"
		if out.Available {
			out.Message = "Servicio DIAN disponible"
		}
	}
	return c.JSON(out)
}

// withConfig resuelve la configuración activa y ejecuta la operación del orquestador.
// Un resultado sin éxito se responde 200 con success=false: el fallo ya quedó persistido.
func (h *DIANHandler) withConfig(c *fiber.Ctx, op func(ctx context.Context, cfg *entity.IssuerConfig) (*billing.SubmissionResult, error)) error {
	ctx := c.UserContext()
	cfg, err := h.configs.Active(ctx)
	if err != nil {
		return writeError(c, err)
	}
	res, err := op(ctx, cfg)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(billing.ToSubmissionResultResponse(res))
}
