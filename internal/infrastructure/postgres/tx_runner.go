package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturacion-dian/internal/application/billing"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

var _ billing.ConfigTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunConfig inicia una transacción, ejecuta fn con el repo de configuración atado a la tx y hace Commit o Rollback.
// Activar una configuración (desactivar las demás + insertar) queda atómico.
func (r *TxRunner) RunConfig(ctx context.Context, fn func(configRepo repository.IssuerConfigRepository) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(NewIssuerConfigRepository(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
