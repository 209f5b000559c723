package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturacion-dian/pkg/config"
)

const (
	applicationName = "facturacion-dian"
	// Los resúmenes diarios (dian_summaries.fecha) se cortan en hora de Colombia.
	sessionTimeZone = "America/Bogota"
	pingTimeout     = 5 * time.Second
)

var errNoIPv4 = errors.New("sin dirección IPv4")

// ipv4Lookup resuelve un host a IPv4; se reemplaza en tests.
type ipv4Lookup func(ctx context.Context, host string) (string, error)

// NewPool abre el pool que usan los repositorios de envíos, configuración y auditoría DIAN.
func NewPool(ctx context.Context, cfg config.DBConfig) (*pgxpool.Pool, error) {
	pc, err := poolConfig(ctx, cfg, lookupIPv4)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("postgres: crear pool: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping %s: %w", pc.ConnConfig.Host, err)
	}
	return pool, nil
}

// poolConfig arma la configuración sin abrir conexiones.
// DATABASE_URL tiene prioridad sobre DB_HOST/DB_PORT; en ambos casos se prefiere IPv4
// porque los contenedores suelen no tener salida IPv6.
func poolConfig(ctx context.Context, cfg config.DBConfig, lookup ipv4Lookup) (*pgxpool.Config, error) {
	dsn, err := preferIPv4(ctx, cfg.ConnectionString(), lookup)
	if err != nil {
		return nil, err
	}
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: DSN inválido: %w", err)
	}

	pc.ConnConfig.RuntimeParams["application_name"] = applicationName
	pc.ConnConfig.RuntimeParams["timezone"] = sessionTimeZone
	pc.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		var d net.Dialer
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		if ip, err := lookup(ctx, host); err == nil {
			return d.DialContext(ctx, "tcp4", net.JoinHostPort(ip, port))
		}
		return d.DialContext(ctx, network, addr)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	pc.MinConns = min(2, pc.MaxConns)
	pc.MaxConnLifetime = time.Hour
	pc.MaxConnIdleTime = 30 * time.Minute
	pc.HealthCheckPeriod = time.Minute

	// NUMERIC -> decimal.Decimal para los totales de factura_origen.
	pc.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	return pc, nil
}

// preferIPv4 sustituye el host del DSN por su IPv4. Si no se resuelve, deja el DSN intacto.
func preferIPv4(ctx context.Context, dsn string, lookup ipv4Lookup) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("postgres: DSN inválido: %w", err)
	}
	host := u.Hostname()
	if host == "" {
		return dsn, nil
	}
	ip, err := lookup(ctx, host)
	if err != nil {
		return dsn, nil
	}
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	u.Host = net.JoinHostPort(ip, port)
	return u.String(), nil
}

// lookupIPv4 prueba el resolver del sistema y luego 8.8.8.8, porque el DNS de Docker
// puede responder solo AAAA.
func lookupIPv4(ctx context.Context, host string) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return host, nil
		}
		return "", errNoIPv4
	}
	if ip, err := firstIPv4(ctx, net.DefaultResolver, host); err == nil {
		return ip, nil
	}
	public := &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "udp", "8.8.8.8:53")
		},
	}
	return firstIPv4(ctx, public, host)
}

func firstIPv4(ctx context.Context, r *net.Resolver, host string) (string, error) {
	ips, err := r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}
	for _, ip := range ips {
		if ip.To4() != nil {
			return ip.String(), nil
		}
	}
	return "", errNoIPv4
}
