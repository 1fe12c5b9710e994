// Package jsonschema validates JSON documents against JSON Schema.
package jsonschema

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	var sb strings.Builder
	for i, err := range ve {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(err.Error())
	}
	return sb.String()
}

// Validate validates a JSON string against a JSON Schema. It returns false
// for a document the schema rejects; an error is returned only when the
// schema or the document cannot be parsed at all.
func Validate(jsonStr, schemaStr string) (bool, error) {
	schema, jsonData, err := compile(jsonStr, schemaStr)
	if err != nil {
		return false, err
	}
	return schema.Validate(jsonData) == nil, nil
}

// ValidateWithErrors validates a JSON string against a JSON Schema and
// returns the individual validation failures.
func ValidateWithErrors(jsonStr, schemaStr string) (bool, ValidationErrors) {
	schema, jsonData, err := compile(jsonStr, schemaStr)
	if err != nil {
		return false, ValidationErrors{err}
	}

	err = schema.Validate(jsonData)
	if err == nil {
		return true, nil
	}
	if validationErr, ok := err.(*jsonschema.ValidationError); ok {
		return false, flatten(validationErr)
	}
	return false, ValidationErrors{err}
}

// compile parses the schema and the document.
func compile(jsonStr, schemaStr string) (*jsonschema.Schema, interface{}, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", strings.NewReader(schemaStr)); err != nil {
		return nil, nil, fmt.Errorf("invalid schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, nil, fmt.Errorf("invalid schema: %w", err)
	}

	var jsonData interface{}
	if err := json.Unmarshal([]byte(jsonStr), &jsonData); err != nil {
		return nil, nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return schema, jsonData, nil
}

// flatten extracts every leaf failure from a validation error tree.
func flatten(err *jsonschema.ValidationError) ValidationErrors {
	var errs ValidationErrors
	if err.Message != "" {
		errs = append(errs, fmt.Errorf("validation error at %s: %s", err.InstanceLocation, err.Message))
	}
	for _, cause := range err.Causes {
		errs = append(errs, flatten(cause)...)
	}
	return errs
}
