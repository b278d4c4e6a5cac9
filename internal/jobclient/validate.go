package jobclient

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compileSchema compiles schemaMap under name so it can be reused across responses.
func compileSchema(name string, schemaMap map[string]any) (*jsonschema.Schema, error) {
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

// validateJSON checks raw against schema.
func validateJSON(schema *jsonschema.Schema, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

type schemas struct {
	upload *jsonschema.Schema
	status *jsonschema.Schema
	index  *jsonschema.Schema
	health *jsonschema.Schema
}

func compileSchemas() (schemas, error) {
	var s schemas
	var err error
	if s.upload, err = compileSchema("upload.json", uploadSchema()); err != nil {
		return s, err
	}
	if s.status, err = compileSchema("status.json", statusSchema()); err != nil {
		return s, err
	}
	if s.index, err = compileSchema("index.json", indexSchema()); err != nil {
		return s, err
	}
	if s.health, err = compileSchema("health.json", healthSchema()); err != nil {
		return s, err
	}
	return s, nil
}
