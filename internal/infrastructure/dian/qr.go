package dian

import (
	"encoding/base64"
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
)

const (
	qrImageSize   = 300
	qrDataURIHead = "data:image/png;base64,"
)

// QRCodeGenerator codifica el payload de verificación como PNG embebible.
type QRCodeGenerator struct {
	size int
}

// NewQRCodeGenerator crea el generador con tamaño de 300 px.
func NewQRCodeGenerator() *QRCodeGenerator {
	return &QRCodeGenerator{size: qrImageSize}
}

// Generate devuelve el QR como data URI (data:image/png;base64,...).
func (g *QRCodeGenerator) Generate(payload domdian.QRPayload) (string, error) {
	content := payload.String()
	png, err := qrcode.Encode(content, qrcode.Medium, g.size)
	if err != nil {
		return "", fmt.Errorf("qr: codificar PNG: %w", err)
	}
	return qrDataURIHead + base64.StdEncoding.EncodeToString(png), nil
}
