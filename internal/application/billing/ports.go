package billing

import (
	"context"
	"crypto/tls"

	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-dian/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/dian/signer"
)

// XMLBuilder genera el XML UBL (sin firma) a partir del contexto de la factura.
type XMLBuilder interface {
	Build(ctx *infradian.InvoiceBuildContext) ([]byte, error)
}

// CertificateStore resuelve y carga el certificado de firma del emisor.
type CertificateStore interface {
	Path(ref string) string
	Exists(ref string) bool
	Load(ref, password string) (tls.Certificate, error)
	Inspect(cert tls.Certificate) (*signer.CertificateInfo, error)
}

// QRGenerator genera la imagen del QR de la representación gráfica.
type QRGenerator interface {
	Generate(payload domdian.QRPayload) (string, error)
}

// DIANTransport cliente del web service DIAN.
type DIANTransport interface {
	Submit(ctx context.Context, xmlFilename string, signedXML []byte) (*infradian.SubmitResult, error)
	QueryStatus(ctx context.Context, cufe string) (*infradian.StatusResult, error)
	TestConnectivity(ctx context.Context) bool
}

// TransportFactory construye el cliente para la configuración del emisor.
// cert es nil cuando no hay certificado cliente disponible.
type TransportFactory func(cfg *entity.IssuerConfig, cert *tls.Certificate) DIANTransport

// ConfigTxRunner ejecuta una función dentro de una transacción con el repositorio de configuración.
type ConfigTxRunner interface {
	RunConfig(ctx context.Context, fn func(configRepo repository.IssuerConfigRepository) error) error
}
