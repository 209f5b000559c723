package dian

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	pkgdian "github.com/jhoicas/facturacion-dian/pkg/dian"
)

// ErrInvalidInvoice agrupa errores de validación de la factura origen.
var ErrInvalidInvoice = errors.New("factura inválida para DIAN")

// ValidateSourceInvoice valida que la factura origen tenga los datos mínimos para emitir el documento.
// No recalcula totales: llegan ya calculados desde el sistema comercial.
func ValidateSourceInvoice(inv *entity.SourceInvoice) error {
	if inv == nil {
		return fmt.Errorf("%w: factura nula", ErrInvalidInvoice)
	}
	var errs []error
	if strings.TrimSpace(inv.Code) == "" {
		errs = append(errs, errors.New("el código de la factura es obligatorio"))
	}
	if inv.IssuedAt.IsZero() {
		errs = append(errs, errors.New("la fecha de emisión es obligatoria"))
	}
	if strings.TrimSpace(inv.CustomerTaxID) == "" {
		errs = append(errs, errors.New("el documento del adquiriente es obligatorio"))
	}
	if len(inv.Lines) == 0 {
		errs = append(errs, errors.New("la factura debe tener al menos una línea"))
	}
	if inv.Total.IsNegative() || inv.Net.IsNegative() || inv.Tax.IsNegative() {
		errs = append(errs, errors.New("los totales no pueden ser negativos"))
	}
	fields := []struct{ name, value string }{
		{"código", inv.Code},
		{"moneda", inv.Currency},
		{"nombre del adquiriente", inv.CustomerName},
		{"documento del adquiriente", inv.CustomerTaxID},
	}
	for i, l := range inv.Lines {
		fields = append(fields, struct{ name, value string }{fmt.Sprintf("descripción de la línea %d", i+1), l.Description})
	}
	for _, f := range fields {
		if !IsXMLText(f.value) {
			errs = append(errs, fmt.Errorf("%s contiene caracteres no permitidos en XML", f.name))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidInvoice}, errs...)...)
	}
	return nil
}

// CustomerIdentificationType clasifica el documento del adquiriente:
// más de 10 dígitos o con separador "-" es NIT (31); en otro caso cédula (13).
func CustomerIdentificationType(taxID string) string {
	if strings.Contains(taxID, "-") {
		return pkgdian.IdentificationTypeNIT
	}
	var digits int
	for _, r := range taxID {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits > 10 {
		return pkgdian.IdentificationTypeNIT
	}
	return pkgdian.IdentificationTypeCC
}

// IsXMLText indica si s es UTF-8 válido y solo usa caracteres permitidos por XML 1.0
// (tabulador, salto de línea y retorno de carro son los únicos de control admitidos).
func IsXMLText(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return false
		}
	}
	return true
}
