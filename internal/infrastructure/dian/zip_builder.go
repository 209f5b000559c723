package dian

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// CompressXMLToZip empaqueta el XML firmado en un archivo ZIP en memoria con una única entrada.
func CompressXMLToZip(xmlBytes []byte, xmlFilename string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(xmlFilename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", xmlFilename, err)
	}
	if _, err := fw.Write(xmlBytes); err != nil {
		return nil, fmt.Errorf("zip: escribir XML: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

var nonAlnum = regexp.MustCompile(`[^0-9A-Za-z]`)

// DIANFilenames genera los nombres del XML y del ZIP: {NIT}{CODIGO} sin guiones ni espacios.
// Ejemplo: 900123456SETP990000001.xml
func DIANFilenames(nit, invoiceCode string) (xmlName, zipName string) {
	n := strings.TrimSpace(nit)
	if idx := strings.Index(n, "-"); idx != -1 {
		n = n[:idx] // sin dígito de verificación
	}
	base := nonAlnum.ReplaceAllString(n, "") + nonAlnum.ReplaceAllString(invoiceCode, "")
	if base == "" {
		base = "invoice"
	}
	return base + ".xml", base + ".zip"
}
