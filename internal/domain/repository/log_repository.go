package repository

import (
	"context"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

// LogRepository puerto de escritura del log de auditoría DIAN.
type LogRepository interface {
	Append(ctx context.Context, entry *entity.LogEntry) error
	ListRecent(ctx context.Context, limit int) ([]*entity.LogEntry, error)
}
