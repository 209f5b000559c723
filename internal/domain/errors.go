package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores del flujo de facturación electrónica DIAN.
var (
	ErrConfiguration = errors.New("configuración DIAN inválida")
	ErrResolution    = errors.New("resolución de numeración inválida")
	ErrCertificate   = errors.New("certificado digital inválido")
	ErrSigning       = errors.New("error al firmar el documento")
	ErrTransport     = errors.New("error de comunicación con la DIAN")
	ErrPersistence   = errors.New("error de persistencia")
)
