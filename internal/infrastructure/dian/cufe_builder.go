package dian

import (
	"errors"

	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
)

// CufeParamsFromContext arma los parámetros del CUFE desde la factura, el emisor y la resolución.
func CufeParamsFromContext(ctx *InvoiceBuildContext) (*domdian.CufeParams, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Issuer == nil || ctx.Resolution == nil {
		return nil, errors.New("dian: se requieren factura, emisor y resolución para calcular el CUFE")
	}
	inv := ctx.Invoice
	return &domdian.CufeParams{
		InvoiceCode:      inv.Code,
		IssueDate:        inv.IssuedAt.Format(dateLayout),
		IssueTime:        inv.IssuedAt.Format(timeLayout),
		Total:            inv.Total,
		IssuerNIT:        ctx.Issuer.NIT,
		CustomerTaxID:    inv.CustomerTaxID,
		SoftwarePIN:      ctx.Issuer.SoftwarePIN,
		Environment:      ctx.Issuer.EnvironmentFlag(),
		ResolutionNumber: ctx.Resolution.Number,
	}, nil
}

// CalculateCufe calcula el CUFE del contexto y lo asigna a ctx.CUFE.
func CalculateCufe(ctx *InvoiceBuildContext) (string, error) {
	params, err := CufeParamsFromContext(ctx)
	if err != nil {
		return "", err
	}
	cufe, err := domdian.NewCufeCalculatorService().Calculate(params)
	if err != nil {
		return "", err
	}
	ctx.CUFE = cufe
	return cufe, nil
}

// QRPayloadFromContext arma el contenido del QR para una factura ya enviada.
func QRPayloadFromContext(ctx *InvoiceBuildContext) domdian.QRPayload {
	inv := ctx.Invoice
	return domdian.QRPayload{
		InvoiceCode:   inv.Code,
		IssueDate:     inv.IssuedAt.Format(dateLayout),
		IssueTime:     inv.IssuedAt.Format(timeLayout),
		IssuerNIT:     ctx.Issuer.NIT,
		CustomerTaxID: inv.CustomerTaxID,
		Net:           inv.Net,
		Tax:           inv.Tax,
		OtherCharges:  inv.OtherCharges,
		Total:         inv.Total,
		CUFE:          ctx.CUFE,
	}
}
