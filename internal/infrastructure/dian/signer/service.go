// Servicio de firma digital XAdES-EPES para factura electrónica DIAN (Anexo 1.9).
// Inyecta <ds:Signature> en el segundo <ext:ExtensionContent> del XML.

package signer

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/beevik/etree"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/facturacion-dian/internal/domain"
	"github.com/jhoicas/facturacion-dian/pkg/dian"
)

// DigitalSignatureService implementa la firma enveloped (C14N exclusiva, SHA-256, RSA-SHA256).
type DigitalSignatureService struct {
	now func() time.Time
}

// NewDigitalSignatureService crea el servicio.
func NewDigitalSignatureService() *DigitalSignatureService {
	return &DigitalSignatureService{now: time.Now}
}

// WithClock reemplaza el reloj usado para SigningTime (tests).
func (s *DigitalSignatureService) WithClock(now func() time.Time) *DigitalSignatureService {
	s.now = now
	return s
}

// Sign implementa pkg/dian.Signer. Todos los errores envuelven domain.ErrSigning.
func (s *DigitalSignatureService) Sign(xmlBytes []byte, cert tls.Certificate) ([]byte, error) {
	if len(xmlBytes) == 0 {
		return nil, signErr("XML vacío")
	}
	priv, leaf, err := signingMaterial(cert)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(xmlBytes); err != nil {
		return nil, signErr("parsear XML: %v", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, signErr("documento sin raíz")
	}
	placeholder, err := signaturePlaceholder(root)
	if err != nil {
		return nil, err
	}

	// 1) Digest del documento completo (Reference #invoice-id, transformación enveloped).
	docDigest, err := digestElement(root)
	if err != nil {
		return nil, err
	}

	// 2) Propiedades XAdES firmadas
	props := buildSignedProperties(leaf, s.now().UTC().Format(signingTimeLayout))
	propsDigest, err := digestElement(props)
	if err != nil {
		return nil, err
	}

	// 3) SignedInfo canónico firmado con RSA-SHA256
	signedInfo := buildSignedInfo(docDigest, propsDigest)
	canonical, err := CanonicalElement(signedInfo)
	if err != nil {
		return nil, err
	}
	hash := sha256.Sum256(canonical)
	sigValue, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, hash[:])
	if err != nil {
		return nil, signErr("firmar SignedInfo: %v", err)
	}

	// 4) Inyectar
	placeholder.AddChild(buildSignature(signedInfo, base64.StdEncoding.EncodeToString(sigValue), leaf, props))
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, signErr("serializar XML firmado: %v", err)
	}
	return out, nil
}

// signingMaterial extrae la llave RSA y el certificado hoja, y verifica que correspondan.
func signingMaterial(cert tls.Certificate) (*rsa.PrivateKey, *x509.Certificate, error) {
	if len(cert.Certificate) == 0 {
		return nil, nil, signErr("el certificado no contiene cadena X.509")
	}
	priv, ok := cert.PrivateKey.(*rsa.PrivateKey)
	if !ok {
		return nil, nil, signErr("el certificado debe incluir llave privada RSA")
	}
	leaf := cert.Leaf
	if leaf == nil {
		var err error
		if leaf, err = x509.ParseCertificate(cert.Certificate[0]); err != nil {
			return nil, nil, signErr("parsear certificado: %v", err)
		}
	}
	pub, ok := leaf.PublicKey.(*rsa.PublicKey)
	if !ok || !priv.PublicKey.Equal(pub) {
		return nil, nil, signErr("la llave privada no corresponde al certificado")
	}
	return priv, leaf, nil
}

// signaturePlaceholder devuelve el segundo ext:ExtensionContent, que debe estar vacío.
func signaturePlaceholder(root *etree.Element) (*etree.Element, error) {
	contents := root.FindElements("./UBLExtensions/UBLExtension/ExtensionContent")
	if len(contents) < 2 {
		return nil, signErr("no se encontró el segundo ext:ExtensionContent para inyectar la firma")
	}
	ph := contents[1]
	if len(ph.ChildElements()) > 0 {
		return nil, signErr("el documento ya contiene una firma")
	}
	return ph, nil
}

// CanonicalElement serializa el elemento como documento independiente y aplica C14N exclusiva.
func CanonicalElement(el *etree.Element) ([]byte, error) {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, signErr("serializar %s: %v", el.FullTag(), err)
	}
	dec := xml.NewDecoder(bytes.NewReader(raw))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, signErr("canonicalizar %s: %v", el.FullTag(), err)
	}
	return out, nil
}

func digestElement(el *etree.Element) (string, error) {
	canonical, err := CanonicalElement(el)
	if err != nil {
		return "", err
	}
	h := sha256.Sum256(canonical)
	return base64.StdEncoding.EncodeToString(h[:]), nil
}

// ── construcción de nodos ────────────────────────────────────────────────────

func buildSignedInfo(docDigest, propsDigest string) *etree.Element {
	si := etree.NewElement("ds:SignedInfo")
	si.CreateAttr("xmlns:ds", NamespaceDS)
	si.CreateElement("ds:CanonicalizationMethod").CreateAttr("Algorithm", AlgExcC14N)
	si.CreateElement("ds:SignatureMethod").CreateAttr("Algorithm", AlgRSASHA256)

	ref := si.CreateElement("ds:Reference")
	ref.CreateAttr("Id", SignatureID+"-ref0")
	ref.CreateAttr("URI", "#"+InvoiceElementID)
	transforms := ref.CreateElement("ds:Transforms")
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", TransformEnveloped)
	transforms.CreateElement("ds:Transform").CreateAttr("Algorithm", AlgExcC14N)
	ref.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	ref.CreateElement("ds:DigestValue").SetText(docDigest)

	propsRef := si.CreateElement("ds:Reference")
	propsRef.CreateAttr("Type", TypeSignedProps)
	propsRef.CreateAttr("URI", "#"+SignedPropsID)
	propsRef.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	propsRef.CreateElement("ds:DigestValue").SetText(propsDigest)
	return si
}

func buildSignedProperties(leaf *x509.Certificate, signingTime string) *etree.Element {
	certDigest, issuerName, serial := CertDigestAndIssuerSerial(leaf)

	sp := etree.NewElement("xades:SignedProperties")
	sp.CreateAttr("xmlns:ds", NamespaceDS)
	sp.CreateAttr("xmlns:xades", NamespaceXAdES)
	sp.CreateAttr("Id", SignedPropsID)
	ssp := sp.CreateElement("xades:SignedSignatureProperties")
	ssp.CreateElement("xades:SigningTime").SetText(signingTime)

	c := ssp.CreateElement("xades:SigningCertificate").CreateElement("xades:Cert")
	cd := c.CreateElement("xades:CertDigest")
	cd.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	cd.CreateElement("ds:DigestValue").SetText(certDigest)
	is := c.CreateElement("xades:IssuerSerial")
	is.CreateElement("ds:X509IssuerName").SetText(issuerName)
	is.CreateElement("ds:X509SerialNumber").SetText(serial)

	pid := ssp.CreateElement("xades:SignaturePolicyIdentifier").CreateElement("xades:SignaturePolicyId")
	pid.CreateElement("xades:SigPolicyId").CreateElement("xades:Identifier").SetText(SignaturePolicyURLV2)
	ph := pid.CreateElement("xades:SigPolicyHash")
	ph.CreateElement("ds:DigestMethod").CreateAttr("Algorithm", AlgSHA256)
	ph.CreateElement("ds:DigestValue").SetText(SigPolicyHashDigest)
	return sp
}

func buildSignature(signedInfo *etree.Element, sigValueB64 string, leaf *x509.Certificate, props *etree.Element) *etree.Element {
	sig := etree.NewElement("ds:Signature")
	sig.CreateAttr("xmlns:ds", NamespaceDS)
	sig.CreateAttr("Id", SignatureID)
	sig.AddChild(signedInfo)
	sig.CreateElement("ds:SignatureValue").SetText(sigValueB64)
	sig.CreateElement("ds:KeyInfo").CreateElement("ds:X509Data").CreateElement("ds:X509Certificate").
		SetText(base64.StdEncoding.EncodeToString(leaf.Raw))

	qp := sig.CreateElement("ds:Object").CreateElement("xades:QualifyingProperties")
	qp.CreateAttr("xmlns:xades", NamespaceXAdES)
	qp.CreateAttr("Target", "#"+SignatureID)
	qp.AddChild(props)
	return sig
}

func signErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrSigning, fmt.Sprintf(format, args...))
}

var _ dian.Signer = (*DigitalSignatureService)(nil)
