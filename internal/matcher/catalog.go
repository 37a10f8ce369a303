package matcher

import (
	"fmt"
	"strings"

	"property-chat/internal/common/errors"
	"property-chat/internal/models"
)

// Intent is a named conversational goal with its trigger phrases.
type Intent struct {
	Name      string          `json:"name" yaml:"name"`
	Patterns  []string        `json:"patterns" yaml:"patterns"`
	Responses []string        `json:"responses" yaml:"responses"`
	Actions   []models.Action `json:"actions,omitempty" yaml:"actions"`
	Priority  int             `json:"priority" yaml:"priority"`
}

// Catalog is the ordered, immutable intent table. It is safe for
// concurrent reads once built.
type Catalog struct {
	intents []Intent
	byName  map[string]int
}

// NewCatalog normalises patterns to trimmed lowercase and rejects
// duplicate names and intents without patterns or responses.
func NewCatalog(intents []Intent) (*Catalog, error) {
	if len(intents) == 0 {
		return nil, errors.NewCatalogInvalidError("catalog has no intents")
	}

	c := &Catalog{
		intents: make([]Intent, 0, len(intents)),
		byName:  make(map[string]int, len(intents)),
	}

	for i, in := range intents {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("intent #%d has no name", i))
		}
		if name == IntentUnclear {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("intent name %q is reserved", IntentUnclear))
		}
		if _, dup := c.byName[name]; dup {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("duplicate intent %q", name))
		}
		if len(in.Responses) == 0 {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("intent %q has no responses", name))
		}

		patterns := make([]string, 0, len(in.Patterns))
		for _, p := range in.Patterns {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				patterns = append(patterns, p)
			}
		}
		if len(patterns) == 0 {
			return nil, errors.NewCatalogInvalidError(fmt.Sprintf("intent %q has no patterns", name))
		}

		actions := make([]models.Action, len(in.Actions))
		copy(actions, in.Actions)

		c.byName[name] = len(c.intents)
		c.intents = append(c.intents, Intent{
			Name:      name,
			Patterns:  patterns,
			Responses: append([]string(nil), in.Responses...),
			Actions:   actions,
			Priority:  in.Priority,
		})
	}

	return c, nil
}

// MustCatalog panics on an invalid table. Only used for built-in data.
func MustCatalog(intents []Intent) *Catalog {
	c, err := NewCatalog(intents)
	if err != nil {
		panic(err)
	}
	return c
}

// Intents returns a copy of the catalog in declaration order.
func (c *Catalog) Intents() []Intent {
	out := make([]Intent, len(c.intents))
	copy(out, c.intents)
	return out
}

// Lookup finds an intent by name.
func (c *Catalog) Lookup(name string) (Intent, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Intent{}, false
	}
	return c.intents[i], true
}

func (c *Catalog) Len() int {
	return len(c.intents)
}
