// Package dian contiene catálogos y validaciones alineados al Anexo Técnico
// de Factura Electrónica de Venta DIAN (Colombia).
package dian

// =============================================================================
// Encabezado del documento UBL
// =============================================================================

const (
	UBLVersion       = "2.1"
	CustomizationID  = "20"
	ProfileID        = "DIAN 2.1: Factura Electrónica de Venta"
	InvoiceTypeSale  = "01" // Factura electrónica de venta
	DefaultCurrency  = "COP"
	SchemeAgencyID   = "195" // DIAN como agencia emisora del esquema
	SchemeAgencyName = "CO, DIAN (Dirección de Impuestos y Aduanas Nacionales)"
	CufeSchemeName   = "CUFE-SHA384"
)

// =============================================================================
// Tabla 6 - Unidades de Medida
// =============================================================================

const (
	UnitUnit = "94" // Unidad
)

// =============================================================================
// Tabla 11 - Tipos de Impuesto
// =============================================================================

const (
	TaxCodeIVA = "01" // IVA
	TaxNameIVA = "IVA"
)

// =============================================================================
// Tabla 3 - Tipos de identificación
// =============================================================================

const (
	IdentificationTypeNIT = "31" // NIT - requiere dígito de verificación
	IdentificationTypeCC  = "13" // Cédula de ciudadanía
)
