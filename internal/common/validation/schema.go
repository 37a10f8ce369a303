package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Schema is a compiled JSON Schema that can be reused across documents.
type Schema struct {
	schema *gojsonschema.Schema
}

// Compile parses a JSON Schema document.
func Compile(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for package-level schemas.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a decoded Go value (maps, slices, structs with json tags).
func (s *Schema) Validate(doc interface{}) *ValidationResult {
	return toResult(s.schema.Validate(gojsonschema.NewGoLoader(doc)))
}

// ValidateJSON checks a raw JSON document such as Zeebe job variables.
func (s *Schema) ValidateJSON(doc string) *ValidationResult {
	return toResult(s.schema.Validate(gojsonschema.NewStringLoader(doc)))
}

func toResult(res *gojsonschema.Result, err error) *ValidationResult {
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: err.Error(),
				Code:    "INVALID_DOCUMENT",
			}},
		}
	}

	out := &ValidationResult{Valid: res.Valid()}
	for _, e := range res.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    strings.ToUpper(e.Type()),
		})
	}
	return out
}

// Summary joins the errors into one line for logs and error details.
func (r *ValidationResult) Summary() string {
	if r.Valid {
		return ""
	}
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}
