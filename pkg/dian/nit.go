package dian

import (
	"errors"
	"fmt"
	"strings"
)

// Errores del NIT del emisor. config_usecase los envuelve en domain.ErrInvalidInput.
var (
	ErrNITFormat      = errors.New("dian: NIT del emisor con formato inválido")
	ErrNITCheckDigit  = errors.New("dian: dígito de verificación del NIT no coincide")
	ErrNITMissingDV   = errors.New("dian: el NIT del emisor requiere dígito de verificación")
	errNITShortPrefix = errors.New("dian: se requieren 9 dígitos de NIT")
)

// Orden Administrativa 4 de 1989; se aplican de izquierda a derecha sobre los 9 dígitos base.
var nitWeights = [nitBaseLen]int{41, 37, 29, 23, 19, 17, 13, 7, 3}

const nitBaseLen = 9

// NIT es el identificador tributario del emisor tal como se guarda en dian_configs
// (Base, sin DV) y como se informa en el XML (Base + DV en schemeID).
type NIT struct {
	Base string
	DV   byte
}

func (n NIT) String() string { return n.Base + "-" + string(n.DV) }

// ParseIssuerNIT acepta "900123456", "900123456-8", "900.123.456-8" o "9001234568".
// Con 10 dígitos el último es el DV y debe coincidir; con 9 y guion final vacío es error.
func ParseIssuerNIT(raw string) (NIT, error) {
	s := strings.TrimSpace(raw)
	d := nitDigits(s)
	switch {
	case len(d) == nitBaseLen && !strings.Contains(s, "-"):
		dv, _ := checkDigit(d)
		return NIT{Base: d, DV: dv}, nil
	case len(d) == nitBaseLen:
		return NIT{}, fmt.Errorf("%w: %q", ErrNITMissingDV, raw)
	case len(d) == nitBaseLen+1:
		dv, _ := checkDigit(d[:nitBaseLen])
		if d[nitBaseLen] != dv {
			return NIT{}, fmt.Errorf("%w: %q trae %c, corresponde %c", ErrNITCheckDigit, raw, d[nitBaseLen], dv)
		}
		return NIT{Base: d[:nitBaseLen], DV: dv}, nil
	}
	return NIT{}, fmt.Errorf("%w: %q tiene %d dígitos (9, opcionalmente con DV)", ErrNITFormat, raw, len(d))
}

// ValidateNITVerificationDigit exige NIT completo (base + DV). Separadores permitidos.
func ValidateNITVerificationDigit(taxID string) error {
	d := nitDigits(taxID)
	if len(d) != nitBaseLen+1 {
		return fmt.Errorf("%w: %q", ErrNITMissingDV, taxID)
	}
	_, err := ParseIssuerNIT(d)
	return err
}

// ComputeNITVerificationDigit calcula el DV sobre los 9 primeros dígitos.
func ComputeNITVerificationDigit(taxID string) (byte, error) {
	d := nitDigits(taxID)
	if len(d) < nitBaseLen {
		return 0, fmt.Errorf("%w: %q tiene %d", errNITShortPrefix, taxID, len(d))
	}
	return checkDigit(d[:nitBaseLen])
}

// módulo 11: residuo 0 o 1 es el propio DV, otro caso 11-residuo.
func checkDigit(base string) (byte, error) {
	if len(base) != nitBaseLen {
		return 0, errNITShortPrefix
	}
	sum := 0
	for i := 0; i < nitBaseLen; i++ {
		sum += int(base[i]-'0') * nitWeights[i]
	}
	r := sum % 11
	if r > 1 {
		r = 11 - r
	}
	return byte('0' + r), nil
}

func nitDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
