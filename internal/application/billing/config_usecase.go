package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-dian/internal/application/dto"
	"github.com/jhoicas/facturacion-dian/internal/domain"
	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
	pkgdian "github.com/jhoicas/facturacion-dian/pkg/dian"
)

const dateLayout = "2006-01-02"

// ConfigUseCase administra la configuración del facturador y sus resoluciones de numeración.
type ConfigUseCase struct {
	txRunner    ConfigTxRunner
	configs     repository.IssuerConfigRepository
	resolutions repository.NumberingResolutionRepository
	validator   *ConfigValidator
	now         func() time.Time
}

// NewConfigUseCase construye el caso de uso.
func NewConfigUseCase(
	txRunner ConfigTxRunner,
	configs repository.IssuerConfigRepository,
	resolutions repository.NumberingResolutionRepository,
	validator *ConfigValidator,
) *ConfigUseCase {
	return &ConfigUseCase{
		txRunner:    txRunner,
		configs:     configs,
		resolutions: resolutions,
		validator:   validator,
		now:         time.Now,
	}
}

// Active devuelve la configuración activa o nil si no hay ninguna.
// Es el punto donde el llamador resuelve la configuración que inyecta al orquestador.
func (uc *ConfigUseCase) Active(ctx context.Context) (*entity.IssuerConfig, error) {
	cfg, err := uc.configs.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return cfg, nil
}

// GetActive igual que Active pero devuelve domain.ErrNotFound si no hay configuración.
func (uc *ConfigUseCase) GetActive(ctx context.Context) (*dto.DIANConfigResponse, error) {
	cfg, err := uc.Active(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, domain.ErrNotFound
	}
	return toConfigResponse(cfg), nil
}

// Save crea una configuración nueva y la deja como única activa (en una sola transacción).
// Si el NIT incluye dígito de verificación, se valida y se almacena sin él.
func (uc *ConfigUseCase) Save(ctx context.Context, in dto.DIANConfigRequest) (*dto.DIANConfigResponse, error) {
	nit, err := normalizeNIT(in.NIT)
	if err != nil {
		return nil, err
	}
	env := strings.ToLower(strings.TrimSpace(in.Environment))
	if env != entity.EnvironmentTest && env != entity.EnvironmentProduction {
		return nil, fmt.Errorf("%w: ambiente inválido %q (test | production)", domain.ErrInvalidInput, in.Environment)
	}
	if strings.TrimSpace(in.LegalName) == "" || strings.TrimSpace(in.SoftwarePIN) == "" {
		return nil, fmt.Errorf("%w: razón social y PIN del software son obligatorios", domain.ErrInvalidInput)
	}

	now := uc.now()
	cfg := &entity.IssuerConfig{
		ID:           uuid.New().String(),
		Environment:  env,
		NIT:          nit,
		LegalName:    strings.TrimSpace(in.LegalName),
		CertPath:     strings.TrimSpace(in.CertPath),
		CertPassword: in.CertPassword,
		SoftwarePIN:  strings.TrimSpace(in.SoftwarePIN),
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = uc.txRunner.RunConfig(ctx, func(configs repository.IssuerConfigRepository) error {
		if err := configs.DeactivateAll(ctx); err != nil {
			return err
		}
		return configs.Create(ctx, cfg)
	})
	if err != nil {
		return nil, fmt.Errorf("guardar configuración DIAN: %w", err)
	}
	return toConfigResponse(cfg), nil
}

// Validate valida la configuración activa (certificado, datos del emisor y resolución).
func (uc *ConfigUseCase) Validate(ctx context.Context) (*dto.ConfigValidationResponse, error) {
	cfg, err := uc.Active(ctx)
	if err != nil {
		return nil, err
	}
	rep, err := uc.validator.Validate(ctx, cfg)
	if err != nil {
		return nil, err
	}
	out := &dto.ConfigValidationResponse{Valid: rep.Valid, Errors: rep.Errors}
	if out.Errors == nil {
		out.Errors = []string{}
	}
	if c := rep.Certificate; c != nil {
		out.Certificate = &dto.CertificateInfoResponse{
			Subject:         c.Subject,
			Issuer:          c.Issuer,
			ValidFrom:       c.ValidFrom,
			ValidTo:         c.ValidTo,
			Serial:          c.Serial,
			IsValid:         c.IsValid,
			DaysUntilExpiry: c.DaysUntilExpiry,
		}
	}
	return out, nil
}

// CreateResolution registra una resolución para la configuración activa.
func (uc *ConfigUseCase) CreateResolution(ctx context.Context, in dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	cfg, err := uc.Active(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: no hay configuración DIAN activa", domain.ErrConfiguration)
	}
	start, err1 := time.Parse(dateLayout, in.StartDate)
	end, err2 := time.Parse(dateLayout, in.EndDate)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("%w: fechas en formato YYYY-MM-DD", domain.ErrInvalidInput)
	}
	now := uc.now()
	res := &entity.NumberingResolution{
		ID:        uuid.New().String(),
		ConfigID:  cfg.ID,
		Number:    strings.TrimSpace(in.Number),
		Prefix:    strings.TrimSpace(in.Prefix),
		StartDate: start,
		EndDate:   end,
		RangeFrom: in.RangeFrom,
		RangeTo:   in.RangeTo,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := res.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	if err := uc.resolutions.Create(ctx, res); err != nil {
		return nil, err
	}
	return uc.toResolutionResponse(res), nil
}

// ListResolutions lista las resoluciones de la configuración activa.
func (uc *ConfigUseCase) ListResolutions(ctx context.Context) ([]dto.ResolutionResponse, error) {
	cfg, err := uc.Active(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return []dto.ResolutionResponse{}, nil
	}
	list, err := uc.resolutions.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ResolutionResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *uc.toResolutionResponse(r))
	}
	return out, nil
}

// normalizeNIT devuelve la base de 9 dígitos que se guarda en dian_configs.
func normalizeNIT(raw string) (string, error) {
	nit, err := pkgdian.ParseIssuerNIT(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nit.Base, nil
}

func toConfigResponse(c *entity.IssuerConfig) *dto.DIANConfigResponse {
	return &dto.DIANConfigResponse{
		ID:             c.ID,
		Environment:    c.Environment,
		NIT:            c.NIT,
		LegalName:      c.LegalName,
		CertPath:       c.CertPath,
		HasCertificate: c.HasCertificate(),
		HasSoftwarePIN: c.SoftwarePIN != "",
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
	}
}

func (uc *ConfigUseCase) toResolutionResponse(r *entity.NumberingResolution) *dto.ResolutionResponse {
	return &dto.ResolutionResponse{
		ID:        r.ID,
		ConfigID:  r.ConfigID,
		Number:    r.Number,
		Prefix:    r.Prefix,
		StartDate: r.StartDate.Format(dateLayout),
		EndDate:   r.EndDate.Format(dateLayout),
		RangeFrom: r.RangeFrom,
		RangeTo:   r.RangeTo,
		Active:    domdian.IsResolutionActive(r, uc.now()),
	}
}
