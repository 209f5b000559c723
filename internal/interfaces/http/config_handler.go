package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dian/internal/application/billing"
	"github.com/jhoicas/facturacion-dian/internal/application/dto"
)

// ConfigHandler configuración del emisor y resoluciones de numeración.
type ConfigHandler struct {
	uc *billing.ConfigUseCase
}

// NewConfigHandler construye el handler.
func NewConfigHandler(uc *billing.ConfigUseCase) *ConfigHandler {
	return &ConfigHandler{uc: uc}
}

// Get godoc
// @Summary      Configuración DIAN activa
// @Tags         dian-config
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DIANConfigResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/dian/config [get]
func (h *ConfigHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetActive(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Save godoc
// @Summary      Guardar y activar configuración DIAN
// @Description  Desactiva la configuración anterior (no la elimina).
// @Tags         dian-config
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.DIANConfigRequest  true  "environment, nit, legal_name, cert_path, cert_password, software_pin"
// @Success      201   {object}  dto.DIANConfigResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/dian/config [post]
func (h *ConfigHandler) Save(c *fiber.Ctx) error {
	var in dto.DIANConfigRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Save(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Validate godoc
// @Summary      Validar configuración, certificado y resolución
// @Tags         dian-config
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.ConfigValidationResponse
// @Router       /api/dian/config/validate [get]
func (h *ConfigHandler) Validate(c *fiber.Ctx) error {
	out, err := h.uc.Validate(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListResolutions godoc
// @Summary      Resoluciones de numeración
// @Tags         dian-config
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.ResolutionResponse
// @Router       /api/dian/resolutions [get]
func (h *ConfigHandler) ListResolutions(c *fiber.Ctx) error {
	out, err := h.uc.ListResolutions(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// CreateResolution godoc
// @Summary      Registrar resolución de numeración
// @Tags         dian-config
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResolutionRequest  true  "number, prefix, start_date, end_date, range_from, range_to"
// @Success      201   {object}  dto.ResolutionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Router       /api/dian/resolutions [post]
func (h *ConfigHandler) CreateResolution(c *fiber.Ctx) error {
	var in dto.ResolutionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.CreateResolution(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
