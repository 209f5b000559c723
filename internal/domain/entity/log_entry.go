package entity

import "time"

// Categorías del log de auditoría DIAN.
const (
	LogCategorySubmission   = "ENVIO"
	LogCategoryStatusQuery  = "CONSULTA"
	LogCategoryError        = "ERROR"
	LogCategorySigning      = "FIRMA"
	LogCategoryConnectivity = "CONEXION"
)

// LogEntry registro de auditoría de operaciones DIAN (solo inserción).
type LogEntry struct {
	ID              string
	Timestamp       time.Time
	Category        string
	SourceInvoiceID string
	Message         string
	Details         map[string]any
}
