package dian

import (
	"strings"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// MapAuthorityStatus traduce el estado informado por la DIAN en la consulta a un estado del envío.
// ok=false si el texto no corresponde a un estado conocido.
func MapAuthorityStatus(s string) (status entity.SubmissionStatus, ok bool) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	switch {
	case norm == "":
		return "", false
	case strings.HasPrefix(norm, "ACEPTAD"), strings.HasPrefix(norm, "ACCEPTED"),
		strings.HasPrefix(norm, "PROCESADO CORRECTAMENTE"), norm == "VALIDO", norm == "VÁLIDO":
		return entity.SubmissionAccepted, true
	case strings.HasPrefix(norm, "RECHAZAD"), strings.HasPrefix(norm, "REJECTED"),
		strings.Contains(norm, "ERRORES DE VALIDACI"):
		return entity.SubmissionRejected, true
	}
	if st := entity.SubmissionStatus(norm); st.Valid() {
		return st, true
	}
	return "", false
}

// IsAuthorityTransition indica si la consulta de estado puede mover el envío de from a to.
// Solo un documento ENVIADO pasa a ACEPTADO o RECHAZADO.
func IsAuthorityTransition(from, to entity.SubmissionStatus) bool {
	return from == entity.SubmissionSent && (to == entity.SubmissionAccepted || to == entity.SubmissionRejected)
}
