package dian_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-dian/pkg/dian"
)

func TestComputeNITVerificationDigit(t *testing.T) {
	cases := map[string]byte{
		"800197268": '4', // NIT de la DIAN
		"900123456": '8',
		"860034313": '7',
	}
	for nit, want := range cases {
		got, err := dian.ComputeNITVerificationDigit(nit)
		require.NoError(t, err)
		assert.Equal(t, want, got, "NIT %s", nit)
	}
}

func TestValidateNITVerificationDigit(t *testing.T) {
	assert.NoError(t, dian.ValidateNITVerificationDigit("800.197.268-4"))
	assert.NoError(t, dian.ValidateNITVerificationDigit("9001234568"))
	assert.ErrorIs(t, dian.ValidateNITVerificationDigit("800197268-5"), dian.ErrNITCheckDigit)
	assert.ErrorIs(t, dian.ValidateNITVerificationDigit("800197268"), dian.ErrNITMissingDV)
	assert.Error(t, dian.ValidateNITVerificationDigit("12345"))
}

func TestParseIssuerNIT(t *testing.T) {
	nit, err := dian.ParseIssuerNIT(" 900.123.456-8 ")
	require.NoError(t, err)
	assert.Equal(t, "900123456", nit.Base)
	assert.Equal(t, byte('8'), nit.DV)
	assert.Equal(t, "900123456-8", nit.String())

	nit, err = dian.ParseIssuerNIT("800197268")
	require.NoError(t, err)
	assert.Equal(t, "800197268-4", nit.String(), "sin DV se calcula")

	_, err = dian.ParseIssuerNIT("900123456-3")
	assert.ErrorIs(t, err, dian.ErrNITCheckDigit)
	assert.Contains(t, err.Error(), "corresponde 8")

	_, err = dian.ParseIssuerNIT("900123456-")
	assert.ErrorIs(t, err, dian.ErrNITMissingDV)

	for _, raw := range []string{"", "12345", "90012345678"} {
		_, err = dian.ParseIssuerNIT(raw)
		assert.ErrorIs(t, err, dian.ErrNITFormat, raw)
	}
}
