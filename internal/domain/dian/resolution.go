package dian

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// IsResolutionActive indica si today está dentro de [StartDate, EndDate] (granularidad de día).
func IsResolutionActive(res *entity.NumberingResolution, today time.Time) bool {
	if res == nil {
		return false
	}
	d := dateOnly(today)
	return !d.Before(dateOnly(res.StartDate)) && !d.After(dateOnly(res.EndDate))
}

// IsNumberInRange indica si n está dentro de [RangeFrom, RangeTo].
func IsNumberInRange(res *entity.NumberingResolution, n int64) bool {
	if res == nil {
		return false
	}
	return n >= res.RangeFrom && n <= res.RangeTo
}

// InvoiceNumberFromCode obtiene el consecutivo numérico quitando el prefijo del código.
// Si el resto no es un entero positivo devuelve ok=false: el número se trata como fuera de rango.
func InvoiceNumberFromCode(prefix, code string) (n int64, ok bool) {
	code = strings.TrimSpace(code)
	if prefix != "" {
		if !strings.HasPrefix(code, prefix) {
			return 0, false
		}
		code = strings.TrimPrefix(code, prefix)
	}
	if code == "" {
		return 0, false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(code, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SelectResolution elige la resolución vigente en today cuyo prefijo y rango cubren el código.
// Errores (envuelven domain.ErrResolution):
//   - ninguna resolución vigente → "Resolución DIAN no vigente"
//   - ninguna vigente cubre el número → "Número de factura fuera del rango autorizado"
func SelectResolution(list []*entity.NumberingResolution, today time.Time, code string) (*entity.NumberingResolution, int64, error) {
	var active bool
	for _, res := range list {
		if !IsResolutionActive(res, today) {
			continue
		}
		active = true
		n, ok := InvoiceNumberFromCode(res.Prefix, code)
		if ok && IsNumberInRange(res, n) {
			return res, n, nil
		}
	}
	if !active {
		return nil, 0, fmt.Errorf("%w: Resolución DIAN no vigente", domain.ErrResolution)
	}
	return nil, 0, fmt.Errorf("%w: Número de factura fuera del rango autorizado (%s)", domain.ErrResolution, code)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
