package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONWithServiceAndComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Env: "production", Level: "info", Service: "facturacion-dian", Out: &buf})

	cl := l.Component("dian_client")
	cl.Info().Str("cufe", "abc").Msg("enviado")
	l.Debug().Msg("no se escribe")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "facturacion-dian", ev["service"])
	assert.Equal(t, "dian_client", ev["component"])
	assert.Equal(t, "abc", ev["cufe"])
	assert.Equal(t, "enviado", ev["message"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zerolog.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("desconocido"))
}
