package entity

import "time"

// Ambientes de la DIAN.
const (
	EnvironmentTest       = "test"
	EnvironmentProduction = "production"
)

// IssuerConfig representa la configuración del facturador electrónico ante la DIAN.
// Solo una configuración puede estar activa; las anteriores se desactivan, nunca se eliminan.
type IssuerConfig struct {
	ID           string
	Environment  string // test, production
	NIT          string // NIT del emisor, sin dígito de verificación
	LegalName    string // Razón social
	CertPath     string // Referencia al certificado .p12 dentro del almacén
	CertPassword string
	SoftwarePIN  string // PIN del software registrado ante la DIAN (obligatorio para el CUFE)
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsProduction indica si la configuración apunta al ambiente de producción.
func (c *IssuerConfig) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// EnvironmentFlag devuelve el código de ambiente usado en el CUFE: "1" producción, "2" pruebas.
func (c *IssuerConfig) EnvironmentFlag() string {
	if c.IsProduction() {
		return "1"
	}
	return "2"
}

// HasCertificate indica si hay un certificado de firma configurado.
func (c *IssuerConfig) HasCertificate() bool {
	return c.CertPath != ""
}
