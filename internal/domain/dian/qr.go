package dian

import (
	"strings"

	"github.com/shopspring/decimal"
)

// QRPayload datos que viajan en el código QR de la representación gráfica.
type QRPayload struct {
	InvoiceCode   string
	IssueDate     string // YYYY-MM-DD
	IssueTime     string // HH:MM:SS
	IssuerNIT     string
	CustomerTaxID string
	Net           decimal.Decimal
	Tax           decimal.Decimal
	OtherCharges  decimal.Decimal
	Total         decimal.Decimal
	CUFE          string
}

// String arma el contenido del QR: pares clave=valor separados por salto de línea.
func (p QRPayload) String() string {
	lines := []string{
		"NumFac=" + p.InvoiceCode,
		"FecFac=" + p.IssueDate,
		"HorFac=" + p.IssueTime,
		"NitFac=" + p.IssuerNIT,
		"DocAdq=" + p.CustomerTaxID,
		"ValFac=" + FormatAmount(p.Net),
		"ValIva=" + FormatAmount(p.Tax),
		"ValOtroIm=" + FormatAmount(p.OtherCharges),
		"ValTolFac=" + FormatAmount(p.Total),
		"CUFE=" + p.CUFE,
	}
	return strings.Join(lines, "\n")
}
