package extract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildInvoiceJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map describing the field set the prompt asks for. It is permissive
// on value types: the model mixes strings and numbers freely and the
// normalizer degrades per field, so a mismatch here is an audit signal, not
// a failure.
func BuildInvoiceJSONSchema() map[string]any {
	props := map[string]any{}
	for _, k := range []string{
		"empresa", "fecha", "numero_factura", "precio_total", "moneda",
		"cantidad_items", "descripcion_principal", "cuit_ruc", "direccion",
		"telefono", "email",
	} {
		props[k] = map[string]any{
			"type": []string{"string", "number", "integer", "null"},
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
