package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/RiddheshMore/ros-component-explorer/errors"
)

//go:embed schema.json
var schemaJSON []byte

var schemaLoader = gojsonschema.NewBytesLoader(schemaJSON)

// Schema returns the JSON Schema configuration files are validated against.
func Schema() []byte {
	return append([]byte(nil), schemaJSON...)
}

// validateSchema checks one raw configuration layer against the schema.
func validateSchema(path string, raw map[string]any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return errors.WrapInvalid(err, "Loader", "validateSchema", "run schema validation")
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		problems = append(problems, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.WrapInvalid(fmt.Errorf("%w: %s: %s", errors.ErrInvalidConfig, path, strings.Join(problems, "; ")),
		"Loader", "validateSchema", "validate "+path)
}
