// certcheck diagnostica un certificado de firma DIAN (.p12 o .pem) sin levantar la API.
//
// Uso: go run ./cmd/certcheck --cert ruta/firma.p12 --password secreto
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/jhoicas/facturacion-dian/internal/infrastructure/dian/signer"
)

const usage = "uso: certcheck -c <ruta> [-p <clave>]"

func main() {
	certPath, password, err := parseArgs(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	os.Exit(run(certPath, password))
}

// parseArgs lee --cert/-c y --password/-p. La contraseña también puede venir en DIAN_CERT_PASSWORD.
func parseArgs(args []string) (certPath, password string, err error) {
	fs := pflag.NewFlagSet("certcheck", pflag.ContinueOnError)
	fs.StringVarP(&certPath, "cert", "c", "", "ruta al certificado .p12 o .pem")
	fs.StringVarP(&password, "password", "p", os.Getenv("DIAN_CERT_PASSWORD"), "contraseña del .p12")
	if err := fs.Parse(args); err != nil {
		return "", "", err
	}
	if certPath == "" && fs.NArg() > 0 {
		certPath = fs.Arg(0)
	}
	if certPath == "" {
		return "", "", errors.New("falta la ruta del certificado")
	}
	return certPath, password, nil
}

func run(certPath, password string) int {
	store := signer.NewFileCertificateStore("")
	path := store.Path(certPath)

	fmt.Println("🔍 DIAGNÓSTICO DE CERTIFICADO DIAN")
	fmt.Println("----------------------------------")
	fmt.Printf("📂 Archivo: %s\n", path)

	if !store.Exists(certPath) {
		fmt.Println("\n❌ ERROR DE ARCHIVO: no existe o es un directorio")
		return 1
	}

	cert, err := store.Load(certPath, password)
	if err != nil {
		fmt.Println("\n❌ ERROR DE CONTRASEÑA O FORMATO:")
		fmt.Printf("   %v\n", err)
		return 1
	}
	info, err := store.Inspect(cert)
	if err != nil {
		fmt.Printf("\n❌ CERTIFICADO ILEGIBLE: %v\n", err)
		return 1
	}

	fmt.Printf("\n👤 Sujeto:   %s\n", info.Subject)
	fmt.Printf("🏛  Emisor:   %s\n", info.Issuer)
	fmt.Printf("🔢 Serial:   %s\n", info.Serial)
	fmt.Printf("📅 Vigencia: %s → %s\n", info.ValidFrom.Format("2006-01-02"), info.ValidTo.Format("2006-01-02"))
	if !info.IsValid {
		fmt.Println("\n❌ El certificado NO está vigente.")
		return 1
	}
	fmt.Printf("\n✨ Certificado vigente (%d días restantes).\n", info.DaysUntilExpiry)
	return 0
}
