package dian

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/unicode/norm"

	domdian "github.com/jhoicas/facturacion-dian/internal/domain/dian"
	pkgdian "github.com/jhoicas/facturacion-dian/pkg/dian"
)

// Namespaces oficiales UBL 2.1 y DIAN.
const (
	// Namespace por defecto (UBL Invoice)
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// DIAN Extensions
	NsSts = "dian:gov:co:facturaelectronica:Structures-2-1"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (para la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
	nsXsi   = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocationInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2 http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-Invoice-2.1.xsd"

	// InvoiceElementID Id del elemento raíz; la Reference de la firma apunta a "#invoice-id".
	InvoiceElementID = "invoice-id"

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// XMLBuilderService construye el XML UBL 2.1 de la factura (sin firma).
// Los elementos se escriben con prefijo explícito (cbc:, cac:, ext:, sts:) y los
// namespaces se declaran una sola vez en la raíz.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// Build genera el documento Invoice. Requiere el CUFE ya calculado en el contexto.
func (s *XMLBuilderService) Build(ctx *InvoiceBuildContext) ([]byte, error) {
	if ctx == nil || ctx.Invoice == nil || ctx.Issuer == nil || ctx.Resolution == nil {
		return nil, fmt.Errorf("dian: faltan factura, emisor o resolución en el contexto")
	}
	if ctx.CUFE == "" {
		return nil, fmt.Errorf("dian: el CUFE debe calcularse antes de construir el XML")
	}
	inv := ctx.Invoice
	currency := inv.Currency
	if currency == "" {
		currency = pkgdian.DefaultCurrency
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	w := &ublWriter{enc: xml.NewEncoder(&buf), currency: currency}
	w.enc.Indent("", "  ")

	root := xml.StartElement{
		Name: xml.Name{Local: "Invoice"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "xmlns"}, Value: NsInvoice},
			{Name: xml.Name{Local: "xmlns:cac"}, Value: NsCac},
			{Name: xml.Name{Local: "xmlns:cbc"}, Value: NsCbc},
			{Name: xml.Name{Local: "xmlns:ds"}, Value: NsDs},
			{Name: xml.Name{Local: "xmlns:ext"}, Value: NsExt},
			{Name: xml.Name{Local: "xmlns:sts"}, Value: NsSts},
			{Name: xml.Name{Local: "xmlns:xades"}, Value: NsXades},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: nsXsi},
			{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: schemaLocationInvoice},
			{Name: xml.Name{Local: "Id"}, Value: InvoiceElementID},
		},
	}
	w.token(root)

	// ext:UBLExtensions siempre como primer hijo: 1) resolución DIAN, 2) placeholder de la firma
	w.writeUBLExtensions(ctx)

	w.leaf("cbc:UBLVersionID", pkgdian.UBLVersion)
	w.leaf("cbc:CustomizationID", pkgdian.CustomizationID)
	w.leaf("cbc:ProfileID", pkgdian.ProfileID)
	w.leaf("cbc:ProfileExecutionID", ctx.Issuer.EnvironmentFlag())
	w.leaf("cbc:ID", inv.Code)
	w.leafAttr("cbc:UUID", ctx.CUFE,
		attr("schemeID", ctx.Issuer.EnvironmentFlag()),
		attr("schemeName", pkgdian.CufeSchemeName))
	w.leaf("cbc:IssueDate", inv.IssuedAt.Format(dateLayout))
	w.leaf("cbc:IssueTime", inv.IssuedAt.Format(timeLayout))
	w.leaf("cbc:InvoiceTypeCode", pkgdian.InvoiceTypeSale)
	w.leaf("cbc:DocumentCurrencyCode", currency)
	w.leaf("cbc:LineCountNumeric", strconv.Itoa(len(inv.Lines)))

	w.writeSupplierParty(ctx)
	w.writeCustomerParty(ctx)
	w.writeTaxTotal(ctx)
	w.writeLegalMonetaryTotal(ctx)
	for i, line := range inv.Lines {
		w.open("cac:InvoiceLine")
		w.leaf("cbc:ID", strconv.Itoa(i+1))
		w.leafAttr("cbc:InvoicedQuantity", domdian.FormatAmount(line.Quantity), attr("unitCode", pkgdian.UnitUnit))
		w.amount("cbc:LineExtensionAmount", line.LineTotal)
		w.open("cac:Item")
		w.leaf("cbc:Description", line.Description)
		w.close("cac:Item")
		w.open("cac:Price")
		w.amount("cbc:PriceAmount", line.UnitPrice)
		w.leafAttr("cbc:BaseQuantity", "1.00", attr("unitCode", pkgdian.UnitUnit))
		w.close("cac:Price")
		w.close("cac:InvoiceLine")
	}

	w.token(root.End())
	if w.err != nil {
		return nil, fmt.Errorf("dian: serializar XML: %w", w.err)
	}
	if err := w.enc.Flush(); err != nil {
		return nil, fmt.Errorf("dian: serializar XML: %w", err)
	}
	return buf.Bytes(), nil
}

// ── escritura de bloques ─────────────────────────────────────────────────────

func (w *ublWriter) writeUBLExtensions(ctx *InvoiceBuildContext) {
	res := ctx.Resolution
	w.open("ext:UBLExtensions")

	w.open("ext:UBLExtension")
	w.open("ext:ExtensionContent")
	w.open("sts:DianExtensions")
	w.open("sts:InvoiceControl")
	w.leaf("sts:InvoiceAuthorization", res.Number)
	w.open("sts:AuthorizationPeriod")
	w.leaf("cbc:StartDate", res.StartDate.Format(dateLayout))
	w.leaf("cbc:EndDate", res.EndDate.Format(dateLayout))
	w.close("sts:AuthorizationPeriod")
	w.open("sts:AuthorizedInvoices")
	w.leaf("sts:Prefix", res.Prefix)
	w.leaf("sts:From", strconv.FormatInt(res.RangeFrom, 10))
	w.leaf("sts:To", strconv.FormatInt(res.RangeTo, 10))
	w.close("sts:AuthorizedInvoices")
	w.close("sts:InvoiceControl")
	w.close("sts:DianExtensions")
	w.close("ext:ExtensionContent")
	w.close("ext:UBLExtension")

	// el firmador inyecta <ds:Signature> en este ExtensionContent
	w.open("ext:UBLExtension")
	w.open("ext:ExtensionContent")
	w.close("ext:ExtensionContent")
	w.close("ext:UBLExtension")

	w.close("ext:UBLExtensions")
}

func (w *ublWriter) writeSupplierParty(ctx *InvoiceBuildContext) {
	w.open("cac:AccountingSupplierParty")
	w.open("cac:Party")
	w.open("cac:PartyName")
	w.leaf("cbc:Name", ctx.Issuer.LegalName)
	w.close("cac:PartyName")
	w.writePartyTaxScheme(ctx.Issuer.LegalName, ctx.Issuer.NIT, pkgdian.IdentificationTypeNIT)
	w.close("cac:Party")
	w.close("cac:AccountingSupplierParty")
}

func (w *ublWriter) writeCustomerParty(ctx *InvoiceBuildContext) {
	inv := ctx.Invoice
	w.open("cac:AccountingCustomerParty")
	w.open("cac:Party")
	w.open("cac:PartyName")
	w.leaf("cbc:Name", inv.CustomerName)
	w.close("cac:PartyName")
	w.writePartyTaxScheme(inv.CustomerName, inv.CustomerTaxID, domdian.CustomerIdentificationType(inv.CustomerTaxID))
	w.close("cac:Party")
	w.close("cac:AccountingCustomerParty")
}

func (w *ublWriter) writePartyTaxScheme(name, taxID, schemeID string) {
	w.open("cac:PartyTaxScheme")
	w.leaf("cbc:RegistrationName", name)
	w.leafAttr("cbc:CompanyID", taxID,
		attr("schemeAgencyID", pkgdian.SchemeAgencyID),
		attr("schemeAgencyName", pkgdian.SchemeAgencyName),
		attr("schemeID", schemeID))
	w.open("cac:TaxScheme")
	w.leaf("cbc:ID", pkgdian.TaxCodeIVA)
	w.leaf("cbc:Name", pkgdian.TaxNameIVA)
	w.close("cac:TaxScheme")
	w.close("cac:PartyTaxScheme")
}

func (w *ublWriter) writeTaxTotal(ctx *InvoiceBuildContext) {
	inv := ctx.Invoice
	w.open("cac:TaxTotal")
	w.amount("cbc:TaxAmount", inv.Tax)
	w.open("cac:TaxSubtotal")
	w.amount("cbc:TaxableAmount", inv.Net)
	w.amount("cbc:TaxAmount", inv.Tax)
	w.open("cac:TaxCategory")
	w.open("cac:TaxScheme")
	w.leaf("cbc:ID", pkgdian.TaxCodeIVA)
	w.leaf("cbc:Name", pkgdian.TaxNameIVA)
	w.close("cac:TaxScheme")
	w.close("cac:TaxCategory")
	w.close("cac:TaxSubtotal")
	w.close("cac:TaxTotal")
}

func (w *ublWriter) writeLegalMonetaryTotal(ctx *InvoiceBuildContext) {
	inv := ctx.Invoice
	w.open("cac:LegalMonetaryTotal")
	w.amount("cbc:LineExtensionAmount", inv.Net)
	w.amount("cbc:TaxExclusiveAmount", inv.Net)
	w.amount("cbc:TaxInclusiveAmount", inv.Total)
	if !inv.OtherCharges.IsZero() {
		w.amount("cbc:ChargeTotalAmount", inv.OtherCharges)
	}
	w.amount("cbc:PayableAmount", inv.Total)
	w.close("cac:LegalMonetaryTotal")
}

// ── helpers ──────────────────────────────────────────────────────────────────

// ublWriter envuelve el encoder y guarda el primer error de escritura.
type ublWriter struct {
	enc      *xml.Encoder
	currency string
	err      error
}

func (w *ublWriter) token(t xml.Token) {
	if w.err != nil {
		return
	}
	w.err = w.enc.EncodeToken(t)
}

func (w *ublWriter) open(name string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xml.Name{Local: name}, Attr: attrs})
}

func (w *ublWriter) close(name string) {
	w.token(xml.EndElement{Name: xml.Name{Local: name}})
}

func (w *ublWriter) leaf(name, value string) {
	w.leafAttr(name, value)
}

func (w *ublWriter) leafAttr(name, value string, attrs ...xml.Attr) {
	w.open(name, attrs...)
	w.token(xml.CharData(norm.NFC.String(value)))
	w.close(name)
}

func (w *ublWriter) amount(name string, d decimal.Decimal) {
	w.leafAttr(name, domdian.FormatAmount(d), attr("currencyID", w.currency))
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}
