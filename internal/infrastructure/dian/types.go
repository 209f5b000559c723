// Package dian implementa la generación del XML UBL 2.1, el empaquetado y el transporte
// hacia el web service de factura electrónica DIAN (Colombia).
package dian

import (
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// InvoiceBuildContext contexto con todos los datos necesarios para construir el XML de la factura.
type InvoiceBuildContext struct {
	Invoice    *entity.SourceInvoice
	Issuer     *entity.IssuerConfig
	Resolution *entity.NumberingResolution
	CUFE       string
}
