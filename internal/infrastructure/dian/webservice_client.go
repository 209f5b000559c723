package dian

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/metrics"
)

// ── Endpoints y timeouts ──────────────────────────────────────────────────────

const (
	BaseURLTest       = "https://vpfe-hab.dian.gov.co/WcfDianCustomerServices.svc"
	BaseURLProduction = "https://vpfe.dian.gov.co/WcfDianCustomerServices.svc"

	DefaultSubmitTimeout = 60 * time.Second
	DefaultStatusTimeout = 30 * time.Second
	DefaultProbeTimeout  = 10 * time.Second

	pathSubmit = "/SendBillAsync"
	pathStatus = "/GetStatus"

	maxResponseBytes = 1 << 20 // 1 MB
)

// BaseURLFor devuelve la URL base del WS según el ambiente del emisor.
func BaseURLFor(environment string) string {
	if environment == entity.EnvironmentProduction {
		return BaseURLProduction
	}
	return BaseURLTest
}

// ── Resultados ────────────────────────────────────────────────────────────────

// SubmitResult resultado de la entrega del documento al WS DIAN.
type SubmitResult struct {
	Accepted    bool
	HTTPStatus  int
	RawResponse string
	Message     string
	CUDE        string // código devuelto por la DIAN (si viene en la respuesta)
	TrackID     string
}

// StatusResult resultado de la consulta de estado por CUFE.
type StatusResult struct {
	Accepted    bool // la consulta respondió 2xx
	HTTPStatus  int
	RawResponse string
	Status      string // estado informado por la DIAN, tal cual
	Message     string
}

// ── Cliente ───────────────────────────────────────────────────────────────────

// ClientConfig opciones del cliente del web service.
type ClientConfig struct {
	BaseURL            string           // vacío = según Environment
	Environment        string           // entity.EnvironmentTest | entity.EnvironmentProduction
	Certificate        *tls.Certificate // certificado cliente para autenticación TLS (opcional)
	InsecureSkipVerify bool             // solo desarrollo: desactiva la verificación del certificado del servidor
	SubmitTimeout      time.Duration
	StatusTimeout      time.Duration
	ProbeTimeout       time.Duration
	Logger             zerolog.Logger
	Metrics            *metrics.Metrics
}

// WebServiceClient cliente HTTP del WS de factura electrónica DIAN.
// Usa net/http con un timeout fijo por operación.
type WebServiceClient struct {
	baseURL      string
	submitClient *http.Client
	statusClient *http.Client
	probeClient  *http.Client
	log          zerolog.Logger
	metrics      *metrics.Metrics
}

// NewWebServiceClient construye el cliente. Los tres http.Client comparten el transporte TLS.
func NewWebServiceClient(cfg ClientConfig) *WebServiceClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = BaseURLFor(cfg.Environment)
	}
	log := cfg.Logger.With().Str("component", "dian_ws").Str("base_url", baseURL).Logger()

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.Certificate != nil && len(cfg.Certificate.Certificate) > 0 {
		tlsCfg.Certificates = []tls.Certificate{*cfg.Certificate}
	}
	if cfg.InsecureSkipVerify {
		tlsCfg.InsecureSkipVerify = true
		log.Warn().Msg("[DIAN] verificación TLS del servidor DESACTIVADA (DIAN_INSECURE_SKIP_VERIFY); no usar en producción")
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsCfg

	return &WebServiceClient{
		baseURL:      baseURL,
		submitClient: &http.Client{Transport: transport, Timeout: orDefault(cfg.SubmitTimeout, DefaultSubmitTimeout)},
		statusClient: &http.Client{Transport: transport, Timeout: orDefault(cfg.StatusTimeout, DefaultStatusTimeout)},
		probeClient:  &http.Client{Transport: transport, Timeout: orDefault(cfg.ProbeTimeout, DefaultProbeTimeout)},
		log:          log,
		metrics:      cfg.Metrics,
	}
}

// BaseURL URL base efectiva.
func (c *WebServiceClient) BaseURL() string { return c.baseURL }

// ── Submit ────────────────────────────────────────────────────────────────────

// Submit comprime el XML firmado en un ZIP y lo envía como multipart (campo "file").
// Fallo de red: SubmitResult con Accepted=false y error que envuelve domain.ErrTransport.
// HTTP no-2xx: SubmitResult con Accepted=false, HTTPStatus y RawResponse, sin error.
func (c *WebServiceClient) Submit(ctx context.Context, xmlFilename string, signedXML []byte) (*SubmitResult, error) {
	start := time.Now()
	zipName := strings.TrimSuffix(xmlFilename, ".xml") + ".zip"
	zipBytes, err := CompressXMLToZip(signedXML, xmlFilename)
	if err != nil {
		return &SubmitResult{Message: err.Error()}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", zipName)
	if err != nil {
		return &SubmitResult{Message: err.Error()}, fmt.Errorf("%w: multipart: %v", domain.ErrTransport, err)
	}
	if _, err := fw.Write(zipBytes); err != nil {
		return &SubmitResult{Message: err.Error()}, fmt.Errorf("%w: multipart: %v", domain.ErrTransport, err)
	}
	if err := mw.Close(); err != nil {
		return &SubmitResult{Message: err.Error()}, fmt.Errorf("%w: multipart: %v", domain.ErrTransport, err)
	}

	status, raw, err := c.do(ctx, c.submitClient, http.MethodPost, c.baseURL+pathSubmit, mw.FormDataContentType(), &body)
	if err != nil {
		c.metrics.ObserveTransport("submit", false, start)
		msg := "Error de conexión con la DIAN: " + err.Error()
		c.log.Error().Err(err).Str("file", zipName).Msg("[DIAN] envío fallido")
		return &SubmitResult{Message: msg}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}

	res := &SubmitResult{HTTPStatus: status, RawResponse: string(raw)}
	if !is2xx(status) {
		c.metrics.ObserveTransport("submit", false, start)
		res.Message = fmt.Sprintf("La DIAN respondió HTTP %d", status)
		c.log.Warn().Int("http_status", status).Str("file", zipName).Msg("[DIAN] envío rechazado por HTTP")
		return res, nil
	}

	fields, err := parseAuthorityResponse(raw)
	if err != nil {
		c.metrics.ObserveTransport("submit", false, start)
		res.Message = "Respuesta de la DIAN ilegible"
		return res, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	res.CUDE = fields.CUDE
	res.TrackID = fields.TrackID
	res.Message = fields.Message
	res.Accepted = fields.Valid == nil || *fields.Valid
	if !res.Accepted && res.Message == "" {
		res.Message = "La DIAN reportó errores de validación"
	}
	c.metrics.ObserveTransport("submit", res.Accepted, start)
	c.log.Info().Int("http_status", status).Bool("accepted", res.Accepted).Str("file", zipName).Msg("[DIAN] documento enviado")
	return res, nil
}

// ── QueryStatus ───────────────────────────────────────────────────────────────

// QueryStatus consulta el estado del documento por CUFE (POST JSON {"trackId": cufe}).
func (c *WebServiceClient) QueryStatus(ctx context.Context, cufe string) (*StatusResult, error) {
	start := time.Now()
	payload, err := json.Marshal(map[string]string{"trackId": cufe})
	if err != nil {
		return &StatusResult{Message: err.Error()}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	status, raw, err := c.do(ctx, c.statusClient, http.MethodPost, c.baseURL+pathStatus, "application/json", bytes.NewReader(payload))
	if err != nil {
		c.metrics.ObserveTransport("status", false, start)
		c.log.Error().Err(err).Msg("[DIAN] consulta de estado fallida")
		return &StatusResult{Message: "Error de conexión con la DIAN: " + err.Error()}, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	res := &StatusResult{HTTPStatus: status, RawResponse: string(raw)}
	if !is2xx(status) {
		c.metrics.ObserveTransport("status", false, start)
		res.Message = fmt.Sprintf("La DIAN respondió HTTP %d", status)
		return res, nil
	}
	fields, err := parseAuthorityResponse(raw)
	if err != nil {
		c.metrics.ObserveTransport("status", false, start)
		res.Message = "Respuesta de la DIAN ilegible"
		return res, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	c.metrics.ObserveTransport("status", true, start)
	res.Accepted = true
	res.Status = fields.Status
	res.Message = fields.Message
	return res, nil
}

// ── TestConnectivity ──────────────────────────────────────────────────────────

// TestConnectivity hace un HEAD a {base}?wsdl. Cualquier respuesta 200–399 cuenta como disponible.
func (c *WebServiceClient) TestConnectivity(ctx context.Context) bool {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+"?wsdl", nil)
	if err != nil {
		return false
	}
	resp, err := c.probeClient.Do(req)
	if err != nil {
		c.metrics.ObserveTransport("probe", false, start)
		c.log.Warn().Err(err).Msg("[DIAN] servicio no disponible")
		return false
	}
	defer resp.Body.Close()
	ok := resp.StatusCode >= 200 && resp.StatusCode < 400
	c.metrics.ObserveTransport("probe", ok, start)
	return ok
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (c *WebServiceClient) do(ctx context.Context, client *http.Client, method, url, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("crear request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json, text/xml")
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return 0, nil, fmt.Errorf("timeout o cancelación: %w", ctx.Err())
		}
		return 0, nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("leer respuesta: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func is2xx(code int) bool { return code >= 200 && code < 300 }

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// authorityFields campos relevantes de la respuesta de la DIAN.
type authorityFields struct {
	CUDE    string
	TrackID string
	Status  string
	Message string
	Valid   *bool // nil si la respuesta no informa validez
}

var errMalformedResponse = errors.New("respuesta no es JSON ni XML")

// parseAuthorityResponse interpreta la respuesta (JSON o XML SOAP). Un cuerpo vacío no es error.
func parseAuthorityResponse(raw []byte) (authorityFields, error) {
	body := bytes.TrimSpace(raw)
	switch {
	case len(body) == 0:
		return authorityFields{}, nil
	case body[0] == '{':
		return parseJSONResponse(body)
	case body[0] == '<':
		return parseXMLResponse(body)
	default:
		return authorityFields{}, errMalformedResponse
	}
}

func parseJSONResponse(body []byte) (authorityFields, error) {
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return authorityFields{}, fmt.Errorf("JSON inválido: %w", err)
	}
	if data, ok := m["data"].(map[string]any); ok {
		for k, v := range data {
			if _, exists := m[k]; !exists {
				m[k] = v
			}
		}
	}
	f := authorityFields{
		CUDE:    firstString(m, "cude", "CUDE", "XmlDocumentKey"),
		TrackID: firstString(m, "trackId", "TrackId", "ZipKey"),
		Status:  firstString(m, "status", "Status", "StatusDescription"),
		Message: firstString(m, "message", "Message", "StatusMessage"),
	}
	for _, k := range []string{"isValid", "IsValid", "success"} {
		if b, ok := m[k].(bool); ok {
			f.Valid = &b
			break
		}
	}
	if f.Message == "" {
		if errs, ok := m["errors"].([]any); ok && len(errs) > 0 {
			parts := make([]string, 0, len(errs))
			for _, e := range errs {
				parts = append(parts, fmt.Sprint(e))
			}
			f.Message = strings.Join(parts, "; ")
		}
	}
	return f, nil
}

func parseXMLResponse(body []byte) (authorityFields, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return authorityFields{}, fmt.Errorf("XML inválido: %w", err)
	}
	text := func(tags ...string) string {
		for _, t := range tags {
			if el := doc.FindElement("//" + t); el != nil {
				if s := strings.TrimSpace(el.Text()); s != "" {
					return s
				}
			}
		}
		return ""
	}
	f := authorityFields{
		CUDE:    text("XmlDocumentKey", "cude"),
		TrackID: text("ZipKey", "trackId"),
		Status:  text("StatusDescription", "status"),
		Message: text("StatusMessage", "faultstring", "message"),
	}
	if fault := doc.FindElement("//Fault"); fault != nil {
		v := false
		f.Valid = &v
	} else if s := text("IsValid"); s != "" {
		v := strings.EqualFold(s, "true")
		f.Valid = &v
	}
	if f.Valid != nil && !*f.Valid {
		var msgs []string
		for _, el := range doc.FindElements("//ErrorMessage//string") {
			msgs = append(msgs, strings.TrimSpace(el.Text()))
		}
		if len(msgs) > 0 {
			f.Message = strings.Join(msgs, "; ")
		}
	}
	return f, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
