package entity

import (
	"errors"
	"time"
)

// NumberingResolution representa la resolución de numeración autorizada por la DIAN.
// Define la ventana de vigencia y el rango de consecutivos para un prefijo.
type NumberingResolution struct {
	ID        string
	ConfigID  string
	Number    string    // Número de resolución (ej: "18760000001")
	Prefix    string    // Prefijo autorizado (ej: "SETP", "FE")
	StartDate time.Time // Inicio de vigencia
	EndDate   time.Time // Fin de vigencia
	RangeFrom int64
	RangeTo   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate verifica los invariantes de la resolución.
func (r *NumberingResolution) Validate() error {
	var errs []error
	if r.Number == "" {
		errs = append(errs, errors.New("número de resolución es obligatorio"))
	}
	if r.EndDate.Before(r.StartDate) {
		errs = append(errs, errors.New("la fecha final de vigencia es anterior a la inicial"))
	}
	if r.RangeTo < r.RangeFrom {
		errs = append(errs, errors.New("el rango autorizado es inválido (desde > hasta)"))
	}
	return errors.Join(errs...)
}
