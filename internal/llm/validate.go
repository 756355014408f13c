package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a JSON Schema given as a generic map.
func CompileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name string, schemaMap map[string]any) *jsonschema.Schema {
	s, err := CompileSchema(name, schemaMap)
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateJSON checks data against a compiled schema.
func ValidateJSON(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
