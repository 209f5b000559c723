package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SourceInvoice datos comerciales de la factura origen (solo lectura para el flujo DIAN).
// Los totales llegan ya calculados.
type SourceInvoice struct {
	ID            string
	Code          string    // Código visible: prefijo + consecutivo (ej: "SETP990000001")
	IssuedAt      time.Time // Fecha y hora de emisión
	Currency      string
	Net           decimal.Decimal
	Tax           decimal.Decimal
	OtherCharges  decimal.Decimal
	Total         decimal.Decimal
	CustomerName  string
	CustomerTaxID string
	Lines         []SourceInvoiceLine
}

// SourceInvoiceLine línea de detalle de la factura origen.
type SourceInvoiceLine struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}
