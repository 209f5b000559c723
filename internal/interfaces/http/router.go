package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-dian/internal/application/auth"
	"github.com/jhoicas/facturacion-dian/internal/application/billing"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC       *auth.AuthUseCase
	Orchestrator submissionService
	ConfigUC     *billing.ConfigUseCase
	ReportUC     *billing.ReportUseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (login público)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)
	operators := RequireRole(entity.RoleAdmin, entity.RoleOperador)
	readers := RequireRole(entity.RoleAdmin, entity.RoleOperador, entity.RoleAuditor)

	protected.Post("/auth/operators", adminOnly, authHandler.CreateOperator)

	dian := protected.Group("/dian")
	dianHandler := NewDIANHandler(deps.Orchestrator, deps.ConfigUC)
	dian.Get("/invoices/:id", readers, dianHandler.Get)
	dian.Post("/invoices/:id/send", operators, dianHandler.Send)
	dian.Post("/invoices/:id/retry", operators, dianHandler.Retry)
	dian.Post("/invoices/:id/status", operators, dianHandler.QueryStatus)
	dian.Post("/invoices/:id/resend", adminOnly, dianHandler.Resend)
	dian.Post("/batch", operators, dianHandler.SendBatch)
	dian.Get("/connectivity", readers, dianHandler.Connectivity)

	configHandler := NewConfigHandler(deps.ConfigUC)
	dian.Get("/config/validate", readers, configHandler.Validate)
	dian.Get("/config", adminOnly, configHandler.Get)
	dian.Post("/config", adminOnly, configHandler.Save)
	dian.Get("/resolutions", adminOnly, configHandler.ListResolutions)
	dian.Post("/resolutions", adminOnly, configHandler.CreateResolution)

	reportHandler := NewReportHandler(deps.ReportUC)
	dian.Get("/logs", readers, reportHandler.Logs)
	dian.Get("/summary", readers, reportHandler.Summary)
}
