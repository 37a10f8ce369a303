package matcher

import (
	"fmt"
	"os"

	"property-chat/internal/common/errors"
	"property-chat/internal/common/validation"

	"gopkg.in/yaml.v3"
)

// catalogSchema describes the YAML catalog after decoding.
var catalogSchema = validation.MustCompile(`{
  "type": "object",
  "required": ["intents"],
  "properties": {
    "intents": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["name", "patterns", "responses"],
        "properties": {
          "name":      {"type": "string", "pattern": "^[a-z][a-z0-9_]*$"},
          "priority":  {"type": "integer"},
          "patterns":  {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "responses": {"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1}},
          "actions": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["type", "label"],
              "properties": {
                "type":    {"enum": ["quick_reply", "navigate", "call", "handoff"]},
                "label":   {"type": "string", "minLength": 1},
                "payload": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`)

type catalogFile struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}

// LoadCatalogFile reads a YAML intent catalog and validates it.
func LoadCatalogFile(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return ParseCatalog(raw)
}

// ParseCatalog validates YAML catalog bytes and builds a Catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.NewCatalogInvalidError(fmt.Sprintf("yaml: %v", err))
	}

	if res := catalogSchema.Validate(doc); !res.Valid {
		return nil, errors.NewCatalogInvalidError(res.Summary())
	}

	var file catalogFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, errors.NewCatalogInvalidError(fmt.Sprintf("yaml: %v", err))
	}

	return NewCatalog(file.Intents)
}

// MarshalCatalog renders a catalog back to YAML, e.g. to seed a file from
// the built-in table.
func MarshalCatalog(c *Catalog) ([]byte, error) {
	return yaml.Marshal(catalogFile{Intents: c.Intents()})
}
