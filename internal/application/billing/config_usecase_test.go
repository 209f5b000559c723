package billing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dian/internal/application/dto"
	"github.com/jhoicas/facturacion-dian/internal/domain"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
)

func configUseCaseFixture(t *testing.T) (*ConfigUseCase, *memConfigs, *memResolutions) {
	t.Helper()
	v, _, res, _ := validatorFixture(t)
	configs := &memConfigs{}
	uc := NewConfigUseCase(memTxRunner{configs: configs}, configs, res, v)
	uc.now = func() time.Time { return testNow }
	return uc, configs, res
}

func validConfigRequest() dto.DIANConfigRequest {
	return dto.DIANConfigRequest{
		Environment:  "test",
		NIT:          "900123456-8",
		LegalName:    "Empresa Demo SAS",
		CertPath:     "firma.p12",
		CertPassword: "secreto",
		SoftwarePIN:  "12345",
	}
}

func TestNormalizeNIT(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "900123456", want: "900123456"},
		{in: "900123456-8", want: "900123456"},
		{in: "900.123.456-8", want: "900123456"},
		{in: "9001234568", want: "900123456"},
		{in: "900123456-3", wantErr: true},
		{in: "12345", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := normalizeNIT(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConfigUseCase_SaveDeactivatesPrevious(t *testing.T) {
	uc, configs, _ := configUseCaseFixture(t)
	ctx := context.Background()

	first, err := uc.Save(ctx, validConfigRequest())
	require.NoError(t, err)
	assert.Equal(t, "900123456", first.NIT)
	assert.True(t, first.HasCertificate)
	assert.True(t, first.HasSoftwarePIN)

	req := validConfigRequest()
	req.Environment = "PRODUCTION"
	second, err := uc.Save(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, entity.EnvironmentProduction, second.Environment)

	require.Len(t, configs.list, 2)
	assert.False(t, configs.list[0].Active, "la anterior queda inactiva, no se elimina")
	assert.True(t, configs.list[1].Active)

	active, err := uc.GetActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestConfigUseCase_SaveRejectsInvalidInput(t *testing.T) {
	uc, configs, _ := configUseCaseFixture(t)
	ctx := context.Background()

	bad := validConfigRequest()
	bad.Environment = "staging"
	_, err := uc.Save(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	bad = validConfigRequest()
	bad.SoftwarePIN = " "
	_, err = uc.Save(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, configs.list)
}

func TestConfigUseCase_GetActiveWithoutConfig(t *testing.T) {
	uc, _, _ := configUseCaseFixture(t)
	_, err := uc.GetActive(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConfigUseCase_Resolutions(t *testing.T) {
	uc, _, res := configUseCaseFixture(t)
	res.list = nil
	ctx := context.Background()

	_, err := uc.CreateResolution(ctx, dto.ResolutionRequest{Number: "1", StartDate: "2024-01-01", EndDate: "2024-12-31"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	cfg, err := uc.Save(ctx, validConfigRequest())
	require.NoError(t, err)

	_, err = uc.CreateResolution(ctx, dto.ResolutionRequest{Number: "1", StartDate: "01/01/2024", EndDate: "2024-12-31"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateResolution(ctx, dto.ResolutionRequest{
		Number: "1", Prefix: "SETP", StartDate: "2024-01-01", EndDate: "2024-12-31", RangeFrom: 10, RangeTo: 1,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	created, err := uc.CreateResolution(ctx, dto.ResolutionRequest{
		Number: "18760000001", Prefix: "SETP", StartDate: "2024-01-01", EndDate: "2024-12-31",
		RangeFrom: 990000000, RangeTo: 995000000,
	})
	require.NoError(t, err)
	assert.Equal(t, cfg.ID, created.ConfigID)
	assert.True(t, created.Active)

	list, err := uc.ListResolutions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2024-12-31", list[0].EndDate)
}

func TestConfigUseCase_ValidateActive(t *testing.T) {
	uc, _, res := configUseCaseFixture(t)
	ctx := context.Background()

	out, err := uc.Validate(ctx)
	require.NoError(t, err)
	assert.False(t, out.Valid)
	assert.Equal(t, []string{"No hay configuración DIAN activa"}, out.Errors)

	cfg, err := uc.Save(ctx, validConfigRequest())
	require.NoError(t, err)
	// las resoluciones del validador pertenecen a "cfg-1"
	res.list[0].ConfigID = cfg.ID

	out, err = uc.Validate(ctx)
	require.NoError(t, err)
	assert.True(t, out.Valid, "errores: %v", out.Errors)
	require.NotNil(t, out.Certificate)
	assert.Empty(t, out.Errors)
}
