// Carga de certificado desde .p12 (PKCS#12) o par PEM.

package signer

import (
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/pkcs12"

	"github.com/jhoicas/facturacion-dian/internal/domain"
)

// CertificateInfo datos de diagnóstico del certificado de firma.
type CertificateInfo struct {
	Subject         string
	Issuer          string
	ValidFrom       time.Time
	ValidTo         time.Time
	Serial          string
	IsValid         bool // now < ValidTo
	DaysUntilExpiry int
}

// FileCertificateStore resuelve referencias de certificado relativas a un directorio base.
type FileCertificateStore struct {
	baseDir string
	now     func() time.Time
}

// NewFileCertificateStore crea el almacén. baseDir vacío = rutas relativas al directorio actual.
func NewFileCertificateStore(baseDir string) *FileCertificateStore {
	return &FileCertificateStore{baseDir: baseDir, now: time.Now}
}

// WithClock reemplaza el reloj usado por Inspect (tests).
func (s *FileCertificateStore) WithClock(now func() time.Time) *FileCertificateStore {
	s.now = now
	return s
}

// Path devuelve la ruta efectiva de la referencia.
func (s *FileCertificateStore) Path(ref string) string {
	if filepath.IsAbs(ref) || s.baseDir == "" {
		return filepath.Clean(ref)
	}
	return filepath.Join(s.baseDir, ref)
}

// Exists indica si el archivo referenciado existe.
func (s *FileCertificateStore) Exists(ref string) bool {
	if strings.TrimSpace(ref) == "" {
		return false
	}
	info, err := os.Stat(s.Path(ref))
	return err == nil && !info.IsDir()
}

// RequiresPassword indica si la referencia es un contenedor PKCS#12; .pem/.crt no llevan contraseña.
func RequiresPassword(ref string) bool {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(ref))) {
	case ".pem", ".crt":
		return false
	}
	return true
}

// Load carga el certificado. Archivos .pem/.crt se leen como par PEM combinado (sin contraseña).
func (s *FileCertificateStore) Load(ref, password string) (tls.Certificate, error) {
	path := s.Path(ref)
	if !s.Exists(ref) {
		return tls.Certificate{}, fmt.Errorf("%w: certificado no encontrado: %s", domain.ErrCertificate, path)
	}
	var (
		cert tls.Certificate
		err  error
	)
	if RequiresPassword(path) {
		cert, err = LoadFromP12(path, password)
	} else {
		cert, err = LoadFromPEM(path, "")
	}
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("%w: Certificado inválido o contraseña incorrecta (%v)", domain.ErrCertificate, err)
	}
	return cert, nil
}

// Inspect devuelve los datos del certificado hoja.
func (s *FileCertificateStore) Inspect(cert tls.Certificate) (*CertificateInfo, error) {
	leaf := cert.Leaf
	if leaf == nil {
		if len(cert.Certificate) == 0 {
			return nil, fmt.Errorf("%w: certificado vacío", domain.ErrCertificate)
		}
		var err error
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCertificate, err)
		}
	}
	now := s.now()
	return &CertificateInfo{
		Subject:         leaf.Subject.String(),
		Issuer:          leaf.Issuer.String(),
		ValidFrom:       leaf.NotBefore,
		ValidTo:         leaf.NotAfter,
		Serial:          leaf.SerialNumber.String(),
		IsValid:         now.Before(leaf.NotAfter),
		DaysUntilExpiry: int(math.Floor(leaf.NotAfter.Sub(now).Hours() / 24)),
	}, nil
}

// LoadFromP12 carga certificado y llave privada desde un archivo .p12/.pfx.
// El password puede ser vacío si el archivo no está protegido.
func LoadFromP12(path, password string) (tls.Certificate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("leer p12: %w", err)
	}
	priv, cert, err := pkcs12.Decode(data, password)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("decodificar p12: %w", err)
	}
	// pkcs12.Decode devuelve un solo certificado; para la DIAN basta el certificado hoja.
	return tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  priv,
		Leaf:        cert,
	}, nil
}

// LoadFromPEM carga certificado y llave desde archivos PEM (por separado o combinados).
func LoadFromPEM(certPath, keyPath string) (tls.Certificate, error) {
	if keyPath == "" {
		keyPath = certPath
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("cargar PEM: %w", err)
	}
	return cert, nil
}

// CertDigestAndIssuerSerial devuelve el digest SHA-256 del certificado (Base64), el emisor
// y el serial en decimal para XAdES.
func CertDigestAndIssuerSerial(cert *x509.Certificate) (digestB64 string, issuerName string, serial string) {
	h := sha256.Sum256(cert.Raw)
	return base64.StdEncoding.EncodeToString(h[:]), cert.Issuer.String(), cert.SerialNumber.String()
}
