// Package schema validates decoded manifest documents against the embedded
// JSON Schemas.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/fulmenhq/childcheck/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // e.g. "children.2"
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	return e.Path + ": " + e.Message
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Summary joins all errors into one line.
func (r *Result) Summary() string {
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

var (
	registry     map[string]*gojsonschema.Schema
	registryErr  error
	registryOnce sync.Once
)

func loadRegistry() {
	registry = make(map[string]*gojsonschema.Schema)
	for _, info := range assets.GetSchemaNames() {
		data, ok := assets.GetSchema(info.Path)
		if !ok {
			continue
		}
		sch, err := compileSchemaBytes(data)
		if err != nil {
			registryErr = fmt.Errorf("compile schema %s: %w", info.Name, err)
			return
		}
		registry[info.Name] = sch
	}
}

func compileSchemaBytes(schemaBytes []byte) (*gojsonschema.Schema, error) {
	// YAML is a superset of JSON, so one decode path serves both.
	var tmp any
	if err := yaml.Unmarshal(schemaBytes, &tmp); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	jb, err := json.Marshal(tmp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode schema to JSON: %w", err)
	}
	sch, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jb))
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	return sch, nil
}

// Validate validates data (as decoded from YAML, JSON or TOML) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	registryOnce.Do(loadRegistry)
	if registryErr != nil {
		return nil, registryErr
	}
	sch, ok := registry[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}

	result, err := sch.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	if !result.Valid() {
		for _, verr := range result.Errors() {
			field := verr.Field()
			if field == "" || field == "(root)" {
				field = "root"
			}
			res.Errors = append(res.Errors, ValidationError{
				Path:    field,
				Message: verr.Description(),
			})
		}
	}

	return res, nil
}
