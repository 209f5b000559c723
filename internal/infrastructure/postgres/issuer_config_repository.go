package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
)

var _ repository.IssuerConfigRepository = (*IssuerConfigRepo)(nil)

// IssuerConfigRepo implementación de IssuerConfigRepository (usable con pool o tx).
type IssuerConfigRepo struct {
	q Querier
}

// NewIssuerConfigRepository construye el adaptador. Pasar pool o tx (Querier).
func NewIssuerConfigRepository(q Querier) *IssuerConfigRepo {
	return &IssuerConfigRepo{q: q}
}

const issuerConfigColumns = `id, ambiente, nit, razon_social, cert_path, cert_password, software_pin, activo, created_at, updated_at`

// Create persiste una configuración.
func (r *IssuerConfigRepo) Create(ctx context.Context, c *entity.IssuerConfig) error {
	query := `INSERT INTO dian_configs (` + issuerConfigColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Environment, c.NIT, c.LegalName, nullIfEmpty(c.CertPath), nullIfEmpty(c.CertPassword),
		c.SoftwarePIN, c.Active, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dian config: %w", err)
	}
	return nil
}

// GetByID obtiene una configuración por ID; nil si no existe.
func (r *IssuerConfigRepo) GetByID(ctx context.Context, id string) (*entity.IssuerConfig, error) {
	return r.scanOne(ctx, `SELECT `+issuerConfigColumns+` FROM dian_configs WHERE id = $1`, id)
}

// GetActive devuelve la configuración activa más reciente; nil si no hay.
func (r *IssuerConfigRepo) GetActive(ctx context.Context) (*entity.IssuerConfig, error) {
	return r.scanOne(ctx, `SELECT `+issuerConfigColumns+` FROM dian_configs WHERE activo ORDER BY created_at DESC LIMIT 1`)
}

// DeactivateAll marca todas las configuraciones como inactivas.
func (r *IssuerConfigRepo) DeactivateAll(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `UPDATE dian_configs SET activo = false, updated_at = NOW() WHERE activo`); err != nil {
		return fmt.Errorf("deactivate dian configs: %w", err)
	}
	return nil
}

// Update actualiza los datos de la configuración.
func (r *IssuerConfigRepo) Update(ctx context.Context, c *entity.IssuerConfig) error {
	query := `
		UPDATE dian_configs
		SET ambiente = $2, nit = $3, razon_social = $4, cert_path = $5, cert_password = $6,
		    software_pin = $7, activo = $8, updated_at = $9
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		c.ID, c.Environment, c.NIT, c.LegalName, nullIfEmpty(c.CertPath), nullIfEmpty(c.CertPassword),
		c.SoftwarePIN, c.Active, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update dian config: %w", err)
	}
	return nil
}

func (r *IssuerConfigRepo) scanOne(ctx context.Context, query string, args ...any) (*entity.IssuerConfig, error) {
	var c entity.IssuerConfig
	var certPath, certPassword *string
	err := r.q.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Environment, &c.NIT, &c.LegalName, &certPath, &certPassword,
		&c.SoftwarePIN, &c.Active, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get dian config: %w", err)
	}
	c.CertPath = stringOrEmpty(certPath)
	c.CertPassword = stringOrEmpty(certPassword)
	return &c, nil
}
