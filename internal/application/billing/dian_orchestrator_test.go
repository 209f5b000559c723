package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	infradian "github.com/jhoicas/facturacion-dian/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/dian/signer"
)

var testNow = time.Date(2024, 6, 15, 14, 0, 0, 0, time.UTC)

const (
	invoiceA = "inv-a"
	invoiceB = "inv-b"
	invoiceC = "inv-c"
)

type orchestratorFixture struct {
	o           *DIANOrchestrator
	submissions *memSubmissions
	sources     memSources
	resolutions *memResolutions
	logs        *memLogs
	summaries   *memSummaries
	certs       *fakeCertStore
	transport   *fakeTransport
	cfg         *entity.IssuerConfig
	sleeps      []time.Duration
}

func sourceInvoice(id, code string) *entity.SourceInvoice {
	return &entity.SourceInvoice{
		ID:            id,
		Code:          code,
		IssuedAt:      time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC),
		Currency:      "COP",
		Net:           decimal.NewFromInt(100000),
		Tax:           decimal.NewFromInt(19000),
		Total:         decimal.NewFromInt(119000),
		CustomerName:  "Cliente Demo",
		CustomerTaxID: "1020304050",
		Lines: []entity.SourceInvoiceLine{{
			Description: "Servicio",
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(100000),
			LineTotal:   decimal.NewFromInt(100000),
		}},
	}
}

func newFixture(t *testing.T, opts OrchestratorOptions) *orchestratorFixture {
	t.Helper()
	f := &orchestratorFixture{
		submissions: newMemSubmissions(),
		sources: memSources{
			invoiceA: sourceInvoice(invoiceA, "SETP990000001"),
			invoiceB: sourceInvoice(invoiceB, "SETP990000002"),
			invoiceC: sourceInvoice(invoiceC, "SETP990000003"),
		},
		resolutions: &memResolutions{list: []*entity.NumberingResolution{{
			ID:        "res-1",
			ConfigID:  "cfg-1",
			Number:    "18760000001",
			Prefix:    "SETP",
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC),
			RangeFrom: 990000000,
			RangeTo:   995000000,
		}}},
		logs:      &memLogs{},
		summaries: newMemSummaries(),
		certs: &fakeCertStore{
			cert:  testCertificate(t),
			files: map[string]bool{"firma.p12": true},
		},
		transport: &fakeTransport{online: true},
		cfg: &entity.IssuerConfig{
			ID:           "cfg-1",
			Environment:  entity.EnvironmentTest,
			NIT:          "900123456",
			LegalName:    "Empresa Demo SAS",
			CertPath:     "firma.p12",
			CertPassword: "secreto",
			SoftwarePIN:  "12345",
			Active:       true,
		},
	}
	f.o = NewDIANOrchestrator(OrchestratorDeps{
		Submissions: f.submissions,
		Sources:     f.sources,
		Resolutions: f.resolutions,
		Logs:        f.logs,
		Summaries:   f.summaries,
		XMLBuilder:  infradian.NewXMLBuilderService(),
		Signer:      signer.NewDigitalSignatureService(),
		Certs:       f.certs,
		QR:          fakeQR{},
		Transports:  f.transport.factory,
		Logger:      zerolog.Nop(),
	}, opts)
	f.o.now = func() time.Time { return testNow }
	f.o.sleep = func(_ context.Context, d time.Duration) error {
		f.sleeps = append(f.sleeps, d)
		return nil
	}
	return f
}

func TestSend_ValidInvoiceEndsSent(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.transport.submitResult = &infradian.SubmitResult{Accepted: true, HTTPStatus: 200, RawResponse: `{"cude":"cude-1"}`, CUDE: "cude-1"}

	res, err := f.o.Send(context.Background(), f.cfg, invoiceA)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, entity.SubmissionSent, res.Status)
	assert.Len(t, res.CUFE, 96)
	assert.Equal(t, "cude-1", res.CUDE)

	sub := f.submissions.get(t, invoiceA)
	assert.Equal(t, entity.SubmissionSent, sub.Status)
	assert.Equal(t, 1, sub.Attempts)
	assert.NotEmpty(t, sub.CUFE)
	assert.NotEmpty(t, sub.XML)
	assert.Contains(t, sub.SignedXML, "ds:Signature")
	assert.Equal(t, "data:image/png;base64,QR-SETP990000001", sub.QRCode)
	assert.Equal(t, `{"cude":"cude-1"}`, sub.AuthorityResponse)
	require.NotNil(t, sub.SubmittedAt)
	assert.Equal(t, testNow, *sub.SubmittedAt)
	assert.Empty(t, sub.ErrorMessage)

	assert.Equal(t, []string{"900123456SETP990000001.xml"}, f.transport.submits)
	require.Len(t, f.transport.clientTLS, 1)
	assert.NotNil(t, f.transport.clientTLS[0], "el certificado se usa también para TLS mutuo")
	assert.Equal(t, 1, f.summaries.byDay["2024-06-15"].Sent)
	assert.Contains(t, f.logs.categories(), entity.LogCategorySigning)
	assert.Contains(t, f.logs.categories(), entity.LogCategorySubmission)
}

func TestSend_FreshSubmissionStartsPending(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	sub, err := f.o.getOrCreate(context.Background(), invoiceA)
	require.NoError(t, err)
	assert.Equal(t, entity.SubmissionPending, sub.Status)
	assert.Equal(t, 0, sub.Attempts)
	assert.NotEmpty(t, sub.ID)

	again, err := f.o.getOrCreate(context.Background(), invoiceA)
	require.NoError(t, err)
	assert.Equal(t, sub.ID, again.ID, "un solo registro por factura")
}

func TestSend_NoActiveConfigEndsError(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})

	res, err := f.o.Send(context.Background(), nil, invoiceA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, entity.SubmissionError, res.Status)
	assert.Equal(t, "No hay configuración DIAN activa", res.Message)

	sub := f.submissions.get(t, invoiceA)
	assert.Equal(t, entity.SubmissionError, sub.Status)
	assert.Empty(t, sub.CUFE)
	assert.Equal(t, 1, sub.Attempts)
	assert.Empty(t, f.transport.submits)
	assert.Contains(t, f.logs.categories(), entity.LogCategoryError)
}

func TestSend_AcceptedIsNeverResubmitted(t *testing.T) {
	for _, st := range []entity.SubmissionStatus{entity.SubmissionAccepted, entity.SubmissionSent, entity.SubmissionProcessing} {
		t.Run(string(st), func(t *testing.T) {
			f := newFixture(t, OrchestratorOptions{})
			f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{
				ID: "s1", SourceInvoiceID: invoiceA, Status: st, CUFE: "abc", Attempts: 1, UpdatedAt: testNow,
			}

			res, err := f.o.Send(context.Background(), f.cfg, invoiceA)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, st, res.Status)
			assert.Empty(t, f.transport.submits)
			assert.Equal(t, 0, f.submissions.updates)
		})
	}
}

func TestSend_UnknownSourceInvoiceConsumesNothing(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		res, err := f.o.Send(ctx, f.cfg, "no-existe")
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, res)
	}
	assert.NotContains(t, f.submissions.bySource, "no-existe", "no se crea registro de envío")
	assert.Empty(t, f.transport.submits)

	// la factura aparece después: se envía en el primer intento
	f.sources["no-existe"] = sourceInvoice("no-existe", "SETP990000004")
	res, err := f.o.Send(ctx, f.cfg, "no-existe")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, f.submissions.get(t, "no-existe").Attempts)
}

func TestProcessing_StaleRunCanBeRecovered(t *testing.T) {
	ctx := context.Background()
	stuck := func(f *orchestratorFixture, age time.Duration) {
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{
			ID: "s1", SourceInvoiceID: invoiceA, Status: entity.SubmissionProcessing,
			Attempts: 1, UpdatedAt: testNow.Add(-age),
		}
	}
	ops := map[string]func(f *orchestratorFixture) (*SubmissionResult, error){
		"send":   func(f *orchestratorFixture) (*SubmissionResult, error) { return f.o.Send(ctx, f.cfg, invoiceA) },
		"retry":  func(f *orchestratorFixture) (*SubmissionResult, error) { return f.o.Retry(ctx, f.cfg, invoiceA) },
		"resend": func(f *orchestratorFixture) (*SubmissionResult, error) { return f.o.Resend(ctx, f.cfg, invoiceA, true) },
	}
	for name, op := range ops {
		t.Run(name+" en curso", func(t *testing.T) {
			f := newFixture(t, OrchestratorOptions{})
			stuck(f, 30*time.Second)

			res, err := op(f)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, "La factura tiene un envío en curso", res.Message)
			assert.Empty(t, f.transport.submits)
		})
		t.Run(name+" interrumpido", func(t *testing.T) {
			f := newFixture(t, OrchestratorOptions{})
			stuck(f, DefaultStaleProcessingAfter+time.Second)

			res, err := op(f)
			require.NoError(t, err)
			assert.True(t, res.Success)
			assert.Len(t, f.transport.submits, 1)
			sub := f.submissions.get(t, invoiceA)
			assert.Equal(t, entity.SubmissionSent, sub.Status)
			assert.Equal(t, 2, sub.Attempts)
			assert.Contains(t, f.logs.categories(), entity.LogCategoryError)
		})
	}

	t.Run("umbral configurable", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{StaleProcessingAfter: 10 * time.Second})
		stuck(f, 30*time.Second)
		res, err := f.o.Retry(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("interrumpido sin intentos disponibles", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		stuck(f, time.Hour)
		sub := f.submissions.bySource[invoiceA]
		sub.Attempts = entity.MaxSubmissionAttempts
		f.submissions.bySource[invoiceA] = sub

		res, err := f.o.Retry(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Empty(t, f.transport.submits)
	})
}

func TestSend_FailureModes(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *orchestratorFixture)
		message string
	}{
		{
			name: "resolución no vigente",
			mutate: func(f *orchestratorFixture) {
				f.resolutions.list[0].EndDate = time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)
			},
			message: "Resolución DIAN no vigente",
		},
		{
			name:    "número fuera de rango",
			mutate:  func(f *orchestratorFixture) { f.resolutions.list[0].RangeTo = 990000000 },
			message: "Número de factura fuera del rango autorizado (SETP990000001)",
		},
		{
			name:    "sin PIN de software",
			mutate:  func(f *orchestratorFixture) { f.cfg.SoftwarePIN = "" },
			message: "Error generando el CUFE",
		},
		{
			name:    "archivo de certificado ausente",
			mutate:  func(f *orchestratorFixture) { f.certs.files = map[string]bool{} },
			message: "Archivo de certificado no encontrado: /certs/firma.p12",
		},
		{
			name: "contraseña incorrecta",
			mutate: func(f *orchestratorFixture) {
				f.certs.loadErr = fmt.Errorf("%w: Certificado inválido o contraseña incorrecta (pkcs12: decryption password incorrect)", domain.ErrCertificate)
			},
			message: "Certificado inválido o contraseña incorrecta",
		},
		{
			name: "certificado expirado",
			mutate: func(f *orchestratorFixture) {
				f.certs.info = &signer.CertificateInfo{IsValid: false, ValidTo: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
			},
			message: "El certificado digital expiró el 2024-03-01",
		},
		{
			name:    "sin certificado y sin política de pruebas",
			mutate:  func(f *orchestratorFixture) { f.cfg.CertPath = "" },
			message: "No hay certificado digital configurado",
		},
		{
			name: "DIAN rechaza por HTTP",
			mutate: func(f *orchestratorFixture) {
				f.transport.submitResult = &infradian.SubmitResult{HTTPStatus: 500, RawResponse: "boom", Message: "La DIAN respondió HTTP 500"}
			},
			message: "La DIAN respondió HTTP 500",
		},
		{
			name: "fallo de red",
			mutate: func(f *orchestratorFixture) {
				f.transport.submitResult = &infradian.SubmitResult{Message: "Error de conexión con la DIAN: timeout"}
				f.transport.submitErr = domain.ErrTransport
			},
			message: "Error de conexión con la DIAN: timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, OrchestratorOptions{})
			tt.mutate(f)

			res, err := f.o.Send(context.Background(), f.cfg, invoiceA)
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Equal(t, entity.SubmissionError, res.Status)
			assert.Contains(t, res.Message, tt.message)

			sub := f.submissions.get(t, invoiceA)
			assert.Equal(t, entity.SubmissionError, sub.Status)
			assert.Contains(t, sub.ErrorMessage, tt.message)
			assert.Equal(t, 1, sub.Attempts)
		})
	}
}

func TestSend_RawResponseKeptOnRejection(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.transport.submitResult = &infradian.SubmitResult{HTTPStatus: 200, RawResponse: `{"isValid":false}`, Message: "Regla FAD06"}

	_, err := f.o.Send(context.Background(), f.cfg, invoiceA)
	require.NoError(t, err)
	sub := f.submissions.get(t, invoiceA)
	assert.Equal(t, `{"isValid":false}`, sub.AuthorityResponse)
	assert.Equal(t, "Regla FAD06", sub.ErrorMessage)
	assert.NotEmpty(t, sub.CUFE, "el CUFE ya se había generado")
}

func TestSend_UnsignedOnlyWhenPolicyAllows(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{AllowUnsignedInTestEnvironment: true})
	f.cfg.CertPath = ""

	res, err := f.o.Send(context.Background(), f.cfg, invoiceA)
	require.NoError(t, err)
	assert.True(t, res.Success)
	sub := f.submissions.get(t, invoiceA)
	assert.Equal(t, sub.XML, sub.SignedXML)
	assert.NotContains(t, sub.SignedXML, "ds:Signature")
	assert.Nil(t, f.transport.clientTLS[0])

	// en producción la política no aplica
	g := newFixture(t, OrchestratorOptions{AllowUnsignedInTestEnvironment: true})
	g.cfg.CertPath = ""
	g.cfg.Environment = entity.EnvironmentProduction
	res, err = g.o.Send(context.Background(), g.cfg, invoiceA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No hay certificado digital configurado", res.Message)
}

func TestSend_AuditFailureDoesNotAbort(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.logs.failing = true

	res, err := f.o.Send(context.Background(), f.cfg, invoiceA)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, entity.SubmissionSent, f.submissions.get(t, invoiceA).Status)
}

func TestSend_QRFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.o.qr = fakeQR{err: errors.New("qr roto")}

	res, err := f.o.Send(context.Background(), f.cfg, invoiceA)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, f.submissions.get(t, invoiceA).QRCode)
}

func TestSend_VersionConflictSurfaces(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	_, err := f.o.getOrCreate(context.Background(), invoiceA)
	require.NoError(t, err)

	// otro proceso actualiza el registro entre la lectura y la escritura
	sub, _ := f.submissions.GetBySourceInvoiceID(context.Background(), invoiceA)
	stale := *sub
	require.NoError(t, f.submissions.Update(context.Background(), sub))

	_, err = f.o.run(context.Background(), f.cfg, &stale, f.sources[invoiceA])
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, f.transport.submits)
}

func TestRetry_GuardAfterThreeFailures(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.transport.submitResult = &infradian.SubmitResult{HTTPStatus: 503, Message: "La DIAN respondió HTTP 503"}
	ctx := context.Background()

	res, err := f.o.Send(ctx, f.cfg, invoiceA)
	require.NoError(t, err)
	require.False(t, res.Success)
	for i := 0; i < 2; i++ {
		res, err = f.o.Retry(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		require.Equal(t, entity.SubmissionError, res.Status)
	}
	require.Equal(t, 3, f.submissions.get(t, invoiceA).Attempts)
	require.Len(t, f.transport.submits, 3)

	res, err = f.o.Retry(ctx, f.cfg, invoiceA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "máximo de 3 intentos")
	assert.Equal(t, 3, f.submissions.get(t, invoiceA).Attempts, "no incrementa intentos")
	assert.Len(t, f.transport.submits, 3, "no invoca el transporte")

	// Send tampoco reintenta automáticamente
	res, err = f.o.Send(ctx, f.cfg, invoiceA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Len(t, f.transport.submits, 3)
}

func TestRetry_SucceedsAfterFailure(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.transport.submitResult = &infradian.SubmitResult{HTTPStatus: 503, Message: "La DIAN respondió HTTP 503"}
	ctx := context.Background()

	_, err := f.o.Send(ctx, f.cfg, invoiceA)
	require.NoError(t, err)
	firstCUFE := f.submissions.get(t, invoiceA).CUFE

	f.transport.submitResult = nil
	res, err := f.o.Retry(ctx, f.cfg, invoiceA)
	require.NoError(t, err)
	assert.True(t, res.Success)

	sub := f.submissions.get(t, invoiceA)
	assert.Equal(t, entity.SubmissionSent, sub.Status)
	assert.Equal(t, 2, sub.Attempts)
	assert.Empty(t, sub.ErrorMessage)
	assert.Equal(t, firstCUFE, sub.CUFE, "el CUFE regenerado es idéntico")
}

func TestRetry_RefusesDeliveredAndUnknown(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionSent, Attempts: 1}

	res, err := f.o.Retry(context.Background(), f.cfg, invoiceA)
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, f.transport.submits)

	_, err = f.o.Retry(context.Background(), f.cfg, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResend(t *testing.T) {
	ctx := context.Background()

	t.Run("requiere confirmación", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionSent, Attempts: 1}
		res, err := f.o.Resend(ctx, f.cfg, invoiceA, false)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Empty(t, f.transport.submits)
	})

	t.Run("reenvía un documento ENVIADO", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionSent, Attempts: 1}
		res, err := f.o.Resend(ctx, f.cfg, invoiceA, true)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Len(t, f.transport.submits, 1)
		assert.Equal(t, 2, f.submissions.get(t, invoiceA).Attempts)
	})

	t.Run("nunca reenvía ACEPTADO", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionAccepted, Attempts: 1}
		res, err := f.o.Resend(ctx, f.cfg, invoiceA, true)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, entity.SubmissionAccepted, res.Status)
		assert.Empty(t, f.transport.submits)
	})

	t.Run("respeta el tope de intentos", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionRejected, Attempts: 3}
		res, err := f.o.Resend(ctx, f.cfg, invoiceA, true)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Empty(t, f.transport.submits)
	})
}

func TestQueryStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("sin CUFE", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionError}
		res, err := f.o.QueryStatus(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "No hay CUFE para consultar", res.Message)
		assert.Empty(t, f.transport.queries)
	})

	t.Run("ENVIADO pasa a ACEPTADO y se persiste una sola vez", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionSent, CUFE: "cufe-a", Attempts: 1}
		f.transport.statusResult = &infradian.StatusResult{Accepted: true, HTTPStatus: 200, Status: "Aceptado", RawResponse: `{"status":"Aceptado"}`}

		res, err := f.o.QueryStatus(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, entity.SubmissionAccepted, res.Status)
		assert.Equal(t, []string{"cufe-a"}, f.transport.queries)

		sub := f.submissions.get(t, invoiceA)
		assert.Equal(t, entity.SubmissionAccepted, sub.Status)
		require.NotNil(t, sub.RespondedAt)
		assert.Equal(t, testNow, *sub.RespondedAt)
		assert.Equal(t, 1, f.submissions.updates)
		assert.Equal(t, 1, f.summaries.byDay["2024-06-15"].Accepted)

		// misma respuesta: sin escritura redundante
		_, err = f.o.QueryStatus(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.Equal(t, 1, f.submissions.updates)
	})

	t.Run("rechazo", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionSent, CUFE: "cufe-a", Attempts: 1}
		f.transport.statusResult = &infradian.StatusResult{Accepted: true, Status: "Rechazado"}
		res, err := f.o.QueryStatus(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.Equal(t, entity.SubmissionRejected, res.Status)
		assert.Equal(t, 1, f.summaries.byDay["2024-06-15"].Rejected)
	})

	t.Run("error de transporte no modifica el estado", func(t *testing.T) {
		f := newFixture(t, OrchestratorOptions{})
		f.submissions.bySource[invoiceA] = entity.InvoiceSubmission{SourceInvoiceID: invoiceA, Status: entity.SubmissionSent, CUFE: "cufe-a", Attempts: 1}
		f.transport.statusResult = &infradian.StatusResult{Message: "Error de conexión con la DIAN: timeout"}
		f.transport.statusErr = domain.ErrTransport
		res, err := f.o.QueryStatus(ctx, f.cfg, invoiceA)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, entity.SubmissionSent, res.Status)
		assert.Equal(t, 0, f.submissions.updates)
		assert.Contains(t, f.logs.categories(), entity.LogCategoryStatusQuery)
	})
}

func TestSendBatch_SequentialWithPauses(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	out, err := f.o.SendBatch(context.Background(), f.cfg, []string{invoiceA, invoiceB, invoiceC})
	require.NoError(t, err)

	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 3, out.Succeeded)
	assert.Len(t, f.transport.submits, 3)
	assert.Equal(t, []string{
		"900123456SETP990000001.xml",
		"900123456SETP990000002.xml",
		"900123456SETP990000003.xml",
	}, f.transport.submits)
	assert.Equal(t, []time.Duration{DefaultBatchPause, DefaultBatchPause}, f.sleeps)
}

func TestSendBatch_SingleItemHasNoPause(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{BatchPause: 250 * time.Millisecond})
	out, err := f.o.SendBatch(context.Background(), f.cfg, []string{invoiceA})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Succeeded)
	assert.Len(t, f.transport.submits, 1)
	assert.Empty(t, f.sleeps)
}

func TestSendBatch_MixedResultsAndCancellation(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{BatchPause: 250 * time.Millisecond})
	delete(f.sources, invoiceB)

	out, err := f.o.SendBatch(context.Background(), f.cfg, []string{invoiceA, invoiceB, invoiceC})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Succeeded)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, invoiceB, out.Items[1].SourceInvoiceID)
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, f.sleeps)

	g := newFixture(t, OrchestratorOptions{})
	g.o.sleep = func(context.Context, time.Duration) error { return context.Canceled }
	out, err = g.o.SendBatch(context.Background(), g.cfg, []string{invoiceA, invoiceB})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, out.Items, 1)
}

func TestTestConnectivity(t *testing.T) {
	f := newFixture(t, OrchestratorOptions{})
	assert.True(t, f.o.TestConnectivity(context.Background(), f.cfg))
	assert.Equal(t, 1, f.transport.probes)
	assert.Contains(t, f.logs.categories(), entity.LogCategoryConnectivity)

	f.transport.online = false
	assert.False(t, f.o.TestConnectivity(context.Background(), f.cfg))
	assert.False(t, f.o.TestConnectivity(context.Background(), nil))
	assert.Equal(t, 2, f.transport.probes)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
}
