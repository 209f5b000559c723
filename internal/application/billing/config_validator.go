package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
	"github.com/jhoicas/facturacion-dian/internal/domain/entity"
	"github.com/jhoicas/facturacion-dian/internal/domain/repository"
	"github.com/jhoicas/facturacion-dian/internal/infrastructure/dian/signer"
)

// CertificateExpiryWarningDays días antes del vencimiento en que el certificado se reporta.
const CertificateExpiryWarningDays = 30

// ConfigValidationReport resultado de validar una configuración DIAN.
type ConfigValidationReport struct {
	Valid       bool
	Errors      []string
	Certificate *signer.CertificateInfo
}

// ConfigValidator valida configuración, certificado y resolución sin modificar nada.
type ConfigValidator struct {
	certs       CertificateStore
	resolutions repository.NumberingResolutionRepository
	now         func() time.Time
}

// NewConfigValidator construye el validador.
func NewConfigValidator(certs CertificateStore, resolutions repository.NumberingResolutionRepository) *ConfigValidator {
	return &ConfigValidator{certs: certs, resolutions: resolutions, now: time.Now}
}

// Validate devuelve todos los problemas encontrados, en orden fijo.
// Solo devuelve error si falla la lectura de resoluciones.
func (v *ConfigValidator) Validate(ctx context.Context, cfg *entity.IssuerConfig) (*ConfigValidationReport, error) {
	rep := &ConfigValidationReport{}
	if cfg == nil {
		rep.Errors = append(rep.Errors, "No hay configuración DIAN activa")
		return rep, nil
	}
	now := v.now()

	if strings.TrimSpace(cfg.NIT) == "" {
		rep.Errors = append(rep.Errors, "NIT no configurado")
	}
	if strings.TrimSpace(cfg.LegalName) == "" {
		rep.Errors = append(rep.Errors, "Razón social no configurada")
	}
	v.checkCertificate(cfg, now, rep)

	list, err := v.resolutions.ListByConfig(ctx, cfg.ID)
	if err != nil {
		return nil, fmt.Errorf("validar configuración: %w", err)
	}
	var active bool
	for _, res := range list {
		if domdian.IsResolutionActive(res, now) {
			active = true
			break
		}
	}
	if !active {
		rep.Errors = append(rep.Errors, "No hay resolución de numeración vigente")
	}
	if strings.TrimSpace(cfg.SoftwarePIN) == "" {
		rep.Errors = append(rep.Errors, "PIN del software no configurado")
	}

	rep.Valid = len(rep.Errors) == 0
	return rep, nil
}

func (v *ConfigValidator) checkCertificate(cfg *entity.IssuerConfig, now time.Time, rep *ConfigValidationReport) {
	if !cfg.HasCertificate() {
		rep.Errors = append(rep.Errors, "Certificado digital no configurado")
		return
	}
	// archivo y contraseña se reportan juntos; sin ambos no se intenta la carga
	usable := true
	if !v.certs.Exists(cfg.CertPath) {
		rep.Errors = append(rep.Errors, "Archivo de certificado no encontrado: "+v.certs.Path(cfg.CertPath))
		usable = false
	}
	if cfg.CertPassword == "" && signer.RequiresPassword(cfg.CertPath) {
		rep.Errors = append(rep.Errors, "Contraseña del certificado no configurada")
		usable = false
	}
	if !usable {
		return
	}
	cert, err := v.certs.Load(cfg.CertPath, cfg.CertPassword)
	if err != nil {
		rep.Errors = append(rep.Errors, "Certificado inválido o contraseña incorrecta")
		return
	}
	info, err := v.certs.Inspect(cert)
	if err != nil {
		rep.Errors = append(rep.Errors, "Certificado ilegible: "+err.Error())
		return
	}
	rep.Certificate = info
	switch {
	case !now.Before(info.ValidTo):
		rep.Errors = append(rep.Errors, "Certificado digital expirado el "+info.ValidTo.Format("2006-01-02"))
	case info.DaysUntilExpiry <= CertificateExpiryWarningDays:
		rep.Errors = append(rep.Errors, fmt.Sprintf("Certificado digital expira en %d días", info.DaysUntilExpiry))
	}
}
