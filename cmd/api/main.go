package main

import (
	"context"
	"crypto/tls"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	_ "github.com/jhoicas/facturacion-dian/docs"
	"github.com/jhoicas/facturacion-dian/internal/application/auth"
	"github.com/jhoicas/facturacion-dian/internal/application/billing"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	infradian "github.com/jhoicas/facturacion-dian/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/dian/signer"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/metrics"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/facturacion-dian/internal/interfaces/http"
	"github.com/jhoicas/facturacion-dian/pkg/config"
	"github.com/jhoicas/facturacion-dian/pkg/logger"
)

// @title       Facturación Electrónica DIAN API
// @version     1.0
// @description Envío de facturas electrónicas a la DIAN (UBL 2.1, XAdES-EPES).
// @securityDefinitions.apikey Bearer
// @in          header
// @name        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")
	if cfg.DIAN.AllowUnsignedTest {
		log.Warn().Msg("DIAN_ALLOW_UNSIGNED_TEST activo: en ambiente de pruebas sin certificado se envía XML sin firma")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	userRepo := postgres.NewUserRepository(pool)
	configRepo := postgres.NewIssuerConfigRepository(pool)
	resolutionRepo := postgres.NewNumberingResolutionRepository(pool)
	submissionRepo := postgres.NewInvoiceSubmissionRepository(pool)
	sourceRepo := postgres.NewSourceInvoiceRepository(pool)
	logRepo := postgres.NewLogRepository(pool)
	summaryRepo := postgres.NewDailySummaryRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	certStore := signer.NewFileCertificateStore(cfg.DIAN.CertDir)
	validator := billing.NewConfigValidator(certStore, resolutionRepo)
	configUC := billing.NewConfigUseCase(txRunner, configRepo, resolutionRepo, validator)
	reportUC := billing.NewReportUseCase(logRepo, summaryRepo)

	// Orquestador: CUFE → XML UBL 2.1 → XAdES-EPES → ZIP → Envío → estado persistido
	orchestrator := billing.NewDIANOrchestrator(billing.OrchestratorDeps{
		Submissions: submissionRepo,
		Sources:     sourceRepo,
		Resolutions: resolutionRepo,
		Logs:        logRepo,
		Summaries:   summaryRepo,
		XMLBuilder:  infradian.NewXMLBuilderService(),
		Signer:      signer.NewDigitalSignatureService(),
		Certs:       certStore,
		QR:          infradian.NewQRCodeGenerator(),
		Transports:  transportFactory(cfg.DIAN, log.With().Logger(), m),
		Logger:      log.Component("dian-orchestrator"),
		Metrics:     m,
	}, billing.OrchestratorOptions{
		AllowUnsignedInTestEnvironment: cfg.DIAN.AllowUnsignedTest,
		BatchPause:                     cfg.DIAN.BatchPause,
		StaleProcessingAfter:           2 * cfg.DIAN.SubmitTimeout,
	})

	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.DIAN.SubmitTimeout + 10*time.Second, // el envío es síncrono
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Facturación DIAN API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:       authUC,
		Orchestrator: orchestrator,
		ConfigUC:     configUC,
		ReportUC:     reportUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// transportFactory construye un cliente del web service por operación, con la URL del ambiente
// de la configuración activa y el certificado del emisor para TLS mutuo.
func transportFactory(dc config.DIANConfig, log zerolog.Logger, m *metrics.Metrics) billing.TransportFactory {
	return func(issuer *entity.IssuerConfig, cert *tls.Certificate) billing.DIANTransport {
		baseURL := dc.BaseURLTest
		if issuer.IsProduction() {
			baseURL = dc.BaseURLProduction
		}
		return infradian.NewWebServiceClient(infradian.ClientConfig{
			BaseURL:            baseURL,
			Environment:        issuer.Environment,
			Certificate:        cert,
			InsecureSkipVerify: dc.InsecureSkipVerify,
			SubmitTimeout:      dc.SubmitTimeout,
			StatusTimeout:      dc.StatusTimeout,
			ProbeTimeout:       dc.ProbeTimeout,
			Logger:             log,
			Metrics:            m,
		})
	}
}
