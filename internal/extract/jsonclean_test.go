package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolateJSON_JSONFence(t *testing.T) {
	text := "Here is the extraction:\n```json\n{\"empresa\": \"ACME\", \"precio_total\": 120.5}\n```\nLet me know if you need anything else."

	got, ok := IsolateJSON(text)
	require.True(t, ok)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &m))
	assert.Equal(t, "ACME", m["empresa"])
	assert.Equal(t, 120.5, m["precio_total"])
}

func TestIsolateJSON_PlainFence(t *testing.T) {
	text := "```\n{\"empresa\": \"ACME\"}\n```"

	got, ok := IsolateJSON(text)
	require.True(t, ok)
	assert.JSONEq(t, `{"empresa": "ACME"}`, got)
}

func TestIsolateJSON_BareBraces(t *testing.T) {
	text := "The invoice data is {\"empresa\": \"ACME\", \"moneda\": \"ARS\"} as requested."

	got, ok := IsolateJSON(text)
	require.True(t, ok)
	assert.JSONEq(t, `{"empresa": "ACME", "moneda": "ARS"}`, got)
}

func TestIsolateJSON_FencePreferredOverBareBraces(t *testing.T) {
	text := "{\"decoy\": true}\n```json\n{\"empresa\": \"Real\"}\n```"

	got, ok := IsolateJSON(text)
	require.True(t, ok)
	assert.JSONEq(t, `{"empresa": "Real"}`, got)
}

func TestIsolateJSON_MultilineBody(t *testing.T) {
	text := "```json\n{\n  \"empresa\": \"ACME\",\n  \"direccion\": \"Av. Siempre Viva 742\"\n}\n```"

	got, ok := IsolateJSON(text)
	require.True(t, ok)

	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(got), &m))
	assert.Equal(t, "Av. Siempre Viva 742", m["direccion"])
}

func TestIsolateJSON_ProseOnly(t *testing.T) {
	_, ok := IsolateJSON("Sorry, I cannot read this image.")
	assert.False(t, ok)
}

func TestIsolateJSON_Empty(t *testing.T) {
	_, ok := IsolateJSON("")
	assert.False(t, ok)
}

func TestFailure(t *testing.T) {
	x := Failure("quota exceeded")
	assert.False(t, x.OK)
	assert.Equal(t, "quota exceeded", x.ErrorMessage)
	assert.NotNil(t, x.Fields)
	assert.Empty(t, x.Fields)
}
