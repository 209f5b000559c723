// Package dian: reglas de dominio de la facturación electrónica DIAN (CUFE, resoluciones, QR).
// Funciones puras, sin I/O.

package dian

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// CodImpIVA código del tributo incluido en la cadena del CUFE.
const CodImpIVA = "01"

// Códigos de ambiente para la cadena del CUFE.
const (
	TipoAmbProduccion = "1"
	TipoAmbPruebas    = "2"
)

// ErrMissingSoftwarePIN se devuelve cuando la configuración no tiene PIN de software.
var ErrMissingSoftwarePIN = errors.New("dian: el PIN del software es obligatorio para el CUFE")

// CufeParams contiene los datos para calcular el CUFE en el orden exigido.
type CufeParams struct {
	InvoiceCode      string          // Código de la factura (prefijo + consecutivo)
	IssueDate        string          // YYYY-MM-DD
	IssueTime        string          // HH:MM:SS
	Total            decimal.Decimal // Valor total de la factura
	IssuerNIT        string
	CustomerTaxID    string
	SoftwarePIN      string
	Environment      string // "1" producción, "2" pruebas
	ResolutionNumber string
}

// CufeCalculatorService calcula el CUFE.
type CufeCalculatorService struct{}

// NewCufeCalculatorService crea el servicio.
func NewCufeCalculatorService() *CufeCalculatorService {
	return &CufeCalculatorService{}
}

// Calculate genera el CUFE (SHA-384 en hexadecimal, minúsculas).
// Cadena (sin separadores): código + fecha + hora + total + "01" + NIT emisor + documento adquiriente + PIN + ambiente + resolución.
// Los campos se concatenan tal cual llegan; el total se formatea con 2 decimales y punto.
func (s *CufeCalculatorService) Calculate(p *CufeParams) (string, error) {
	cadena, err := CufeString(p)
	if err != nil {
		return "", err
	}
	hash := sha512.Sum384([]byte(cadena))
	return hex.EncodeToString(hash[:]), nil
}

// CufeString arma la cadena de concatenación sin aplicar el hash (útil para auditoría).
func CufeString(p *CufeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dian: CufeParams es obligatorio")
	}
	var errs []error
	if strings.TrimSpace(p.InvoiceCode) == "" {
		errs = append(errs, fmt.Errorf("dian: el código de la factura es obligatorio"))
	}
	if p.IssueDate == "" {
		errs = append(errs, fmt.Errorf("dian: la fecha de emisión es obligatoria (YYYY-MM-DD)"))
	}
	if p.IssueTime == "" {
		errs = append(errs, fmt.Errorf("dian: la hora de emisión es obligatoria (HH:MM:SS)"))
	}
	if p.IssuerNIT == "" {
		errs = append(errs, fmt.Errorf("dian: el NIT del emisor es obligatorio"))
	}
	if p.CustomerTaxID == "" {
		errs = append(errs, fmt.Errorf("dian: el documento del adquiriente es obligatorio"))
	}
	if p.SoftwarePIN == "" {
		errs = append(errs, ErrMissingSoftwarePIN)
	}
	if p.Environment != TipoAmbProduccion && p.Environment != TipoAmbPruebas {
		errs = append(errs, fmt.Errorf("dian: ambiente inválido %q (1 producción, 2 pruebas)", p.Environment))
	}
	if p.ResolutionNumber == "" {
		errs = append(errs, fmt.Errorf("dian: el número de resolución es obligatorio"))
	}
	if err := errors.Join(errs...); err != nil {
		return "", err
	}

	return p.InvoiceCode +
		p.IssueDate +
		p.IssueTime +
		FormatAmount(p.Total) +
		CodImpIVA +
		p.IssuerNIT +
		p.CustomerTaxID +
		p.SoftwarePIN +
		p.Environment +
		p.ResolutionNumber, nil
}

// FormatAmount formatea montos: sin separador de miles, punto decimal, 2 decimales (ej: 1500.00).
func FormatAmount(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}
