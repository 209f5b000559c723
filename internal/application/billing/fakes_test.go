package billing

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-dian/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/dian/signer"
)

// ── repositorios en memoria ───────────────────────────────────────────────────

type memSubmissions struct {
	bySource map[string]entity.InvoiceSubmission
	updates  int
}

func newMemSubmissions() *memSubmissions {
	return &memSubmissions{bySource: map[string]entity.InvoiceSubmission{}}
}

func (m *memSubmissions) Create(_ context.Context, s *entity.InvoiceSubmission) error {
	if _, ok := m.bySource[s.SourceInvoiceID]; ok {
		return domain.ErrDuplicate
	}
	m.bySource[s.SourceInvoiceID] = *s
	return nil
}

func (m *memSubmissions) GetBySourceInvoiceID(_ context.Context, id string) (*entity.InvoiceSubmission, error) {
	s, ok := m.bySource[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memSubmissions) Update(_ context.Context, s *entity.InvoiceSubmission) error {
	cur, ok := m.bySource[s.SourceInvoiceID]
	if !ok {
		return domain.ErrNotFound
	}
	if cur.Version != s.Version {
		return domain.ErrConflict
	}
	s.Version++
	m.bySource[s.SourceInvoiceID] = *s
	m.updates++
	return nil
}

func (m *memSubmissions) ListByStatus(_ context.Context, status entity.SubmissionStatus, limit int) ([]*entity.InvoiceSubmission, error) {
	var out []*entity.InvoiceSubmission
	for _, s := range m.bySource {
		if s.Status == status && (limit <= 0 || len(out) < limit) {
			cp := s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSubmissions) get(t *testing.T, id string) entity.InvoiceSubmission {
	t.Helper()
	s, ok := m.bySource[id]
	require.True(t, ok, "no existe envío para %s", id)
	return s
}

type memSources map[string]*entity.SourceInvoice

func (m memSources) GetByID(_ context.Context, id string) (*entity.SourceInvoice, error) {
	return m[id], nil
}

type memResolutions struct {
	list []*entity.NumberingResolution
	err  error
}

func (m *memResolutions) Create(_ context.Context, r *entity.NumberingResolution) error {
	m.list = append(m.list, r)
	return nil
}

func (m *memResolutions) GetByID(_ context.Context, id string) (*entity.NumberingResolution, error) {
	for _, r := range m.list {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memResolutions) ListByConfig(_ context.Context, configID string) ([]*entity.NumberingResolution, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*entity.NumberingResolution
	for _, r := range m.list {
		if r.ConfigID == configID {
			out = append(out, r)
		}
	}
	return out, nil
}

type memLogs struct {
	entries []*entity.LogEntry
	failing bool
}

func (m *memLogs) Append(_ context.Context, e *entity.LogEntry) error {
	if m.failing {
		return errors.New("disco lleno")
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memLogs) ListRecent(_ context.Context, limit int) ([]*entity.LogEntry, error) {
	out := make([]*entity.LogEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *memLogs) categories() []string {
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Category)
	}
	return out
}

type memSummaries struct {
	byDay map[string]*entity.DailySummary
}

func newMemSummaries() *memSummaries {
	return &memSummaries{byDay: map[string]*entity.DailySummary{}}
}

func (m *memSummaries) Increment(_ context.Context, day time.Time, sent, accepted, rejected int) error {
	key := day.Format(dateLayout)
	s, ok := m.byDay[key]
	if !ok {
		d, _ := time.Parse(dateLayout, key)
		s = &entity.DailySummary{Date: d}
		m.byDay[key] = s
	}
	s.Sent += sent
	s.Accepted += accepted
	s.Rejected += rejected
	return nil
}

func (m *memSummaries) ListRange(_ context.Context, from, to time.Time) ([]*entity.DailySummary, error) {
	var out []*entity.DailySummary
	for _, s := range m.byDay {
		if !s.Date.Before(from.Truncate(24*time.Hour)) && !s.Date.After(to) {
			out = append(out, s)
		}
	}
	return out, nil
}

type memConfigs struct {
	list []*entity.IssuerConfig
}

func (m *memConfigs) Create(_ context.Context, c *entity.IssuerConfig) error {
	m.list = append(m.list, c)
	return nil
}

func (m *memConfigs) GetByID(_ context.Context, id string) (*entity.IssuerConfig, error) {
	for _, c := range m.list {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memConfigs) GetActive(_ context.Context) (*entity.IssuerConfig, error) {
	for _, c := range m.list {
		if c.Active {
			return c, nil
		}
	}
	return nil, nil
}

func (m *memConfigs) DeactivateAll(_ context.Context) error {
	for _, c := range m.list {
		c.Active = false
	}
	return nil
}

func (m *memConfigs) Update(_ context.Context, c *entity.IssuerConfig) error { return nil }

// memTxRunner ejecuta fn directamente sobre el repositorio en memoria.
type memTxRunner struct{ configs *memConfigs }

func (r memTxRunner) RunConfig(_ context.Context, fn func(repository.IssuerConfigRepository) error) error {
	return fn(r.configs)
}

// ── certificados, transporte y QR ─────────────────────────────────────────────

var (
	testCertOnce sync.Once
	testCert     tls.Certificate
	testCertErr  error
)

func testCertificate(t *testing.T) tls.Certificate {
	t.Helper()
	testCertOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			testCertErr = err
			return
		}
		tmpl := &x509.Certificate{
			SerialNumber: big.NewInt(77),
			Subject:      pkix.Name{CommonName: "Empresa Demo SAS"},
			NotBefore:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			NotAfter:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
		if err != nil {
			testCertErr = err
			return
		}
		leaf, _ := x509.ParseCertificate(der)
		testCert = tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key, Leaf: leaf}
	})
	require.NoError(t, testCertErr)
	return testCert
}

type fakeCertStore struct {
	cert    tls.Certificate
	files   map[string]bool
	loadErr error
	info    *signer.CertificateInfo
}

func (f *fakeCertStore) Path(ref string) string { return "/certs/" + ref }
func (f *fakeCertStore) Exists(ref string) bool { return f.files[ref] }

func (f *fakeCertStore) Load(string, string) (tls.Certificate, error) {
	if f.loadErr != nil {
		return tls.Certificate{}, f.loadErr
	}
	return f.cert, nil
}

func (f *fakeCertStore) Inspect(tls.Certificate) (*signer.CertificateInfo, error) {
	if f.info != nil {
		return f.info, nil
	}
	return &signer.CertificateInfo{IsValid: true, ValidTo: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), DaysUntilExpiry: 200}, nil
}

type fakeTransport struct {
	submitResult *infradian.SubmitResult
	submitErr    error
	statusResult *infradian.StatusResult
	statusErr    error
	online       bool

	submits   []string
	queries   []string
	probes    int
	clientTLS []*tls.Certificate
}

func (f *fakeTransport) factory(_ *entity.IssuerConfig, cert *tls.Certificate) DIANTransport {
	f.clientTLS = append(f.clientTLS, cert)
	return f
}

func (f *fakeTransport) Submit(_ context.Context, name string, _ []byte) (*infradian.SubmitResult, error) {
	f.submits = append(f.submits, name)
	if f.submitResult == nil && f.submitErr == nil {
		return &infradian.SubmitResult{Accepted: true, HTTPStatus: 200, RawResponse: `{"isValid":true}`}, nil
	}
	return f.submitResult, f.submitErr
}

func (f *fakeTransport) QueryStatus(_ context.Context, cufe string) (*infradian.StatusResult, error) {
	f.queries = append(f.queries, cufe)
	return f.statusResult, f.statusErr
}

func (f *fakeTransport) TestConnectivity(context.Context) bool {
	f.probes++
	return f.online
}

type fakeQR struct{ err error }

func (f fakeQR) Generate(p domdian.QRPayload) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "data:image/png;base64,QR-" + p.InvoiceCode, nil
}
