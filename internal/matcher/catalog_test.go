package matcher

import (
	"os"
	"path/filepath"
	"testing"

	"property-chat/internal/common/errors"
	"property-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.Greater(t, c.Len(), 10)

	for _, name := range []string{IntentGreeting, IntentBuyProperty, IntentRentProperty, IntentPropertyType, IntentScheduleVisit, IntentContactAgent} {
		in, ok := c.Lookup(name)
		require.True(t, ok, name)
		assert.NotEmpty(t, in.Responses, name)
	}

	rent, _ := c.Lookup(IntentRentProperty)
	assert.Contains(t, rent.Patterns, "kiraya")
	buy, _ := c.Lookup(IntentBuyProperty)
	assert.Contains(t, buy.Patterns, "kharidna")
}

func TestNewCatalog_NormalisesPatterns(t *testing.T) {
	c, err := NewCatalog([]Intent{
		{Name: " greeting ", Patterns: []string{"  Hello ", "", "HI"}, Responses: []string{"hey"}},
	})
	require.NoError(t, err)

	in, ok := c.Lookup("greeting")
	require.True(t, ok)
	assert.Equal(t, []string{"hello", "hi"}, in.Patterns)
}

func TestNewCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		intents []Intent
	}{
		{"empty", nil},
		{"no name", []Intent{{Patterns: []string{"a"}, Responses: []string{"b"}}}},
		{"reserved name", []Intent{{Name: IntentUnclear, Patterns: []string{"a"}, Responses: []string{"b"}}}},
		{"no responses", []Intent{{Name: "x", Patterns: []string{"a"}}}},
		{"blank patterns", []Intent{{Name: "x", Patterns: []string{" "}, Responses: []string{"b"}}}},
		{"duplicate", []Intent{
			{Name: "x", Patterns: []string{"a"}, Responses: []string{"b"}},
			{Name: "x", Patterns: []string{"c"}, Responses: []string{"d"}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.intents)
			require.Error(t, err)
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeCatalogInvalid, stdErr.Code)
		})
	}
}

func TestCatalog_IntentsReturnsCopy(t *testing.T) {
	c := DefaultCatalog()
	intents := c.Intents()
	intents[0].Name = "mutated"

	_, ok := c.Lookup(IntentGreeting)
	assert.True(t, ok)
	assert.Equal(t, IntentGreeting, c.Intents()[0].Name)
}

const sampleCatalogYAML = `
intents:
  - name: greeting
    priority: 1
    patterns: ["Hello", "namaste"]
    responses: ["Hi there!"]
  - name: rent_property
    priority: 5
    patterns: ["kiraya", "rent"]
    responses: ["Renting? Great."]
    actions:
      - type: navigate
        label: Rentals
        payload: /properties?listing=rent
`

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog([]byte(sampleCatalogYAML))
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	rent, ok := c.Lookup("rent_property")
	require.True(t, ok)
	assert.Equal(t, 5, rent.Priority)
	assert.Equal(t, []models.Action{{Type: models.ActionNavigate, Label: "Rentals", Payload: "/properties?listing=rent"}}, rent.Actions)

	greet, _ := c.Lookup("greeting")
	assert.Equal(t, []string{"hello", "namaste"}, greet.Patterns)
}

func TestParseCatalog_SchemaViolations(t *testing.T) {
	tests := map[string]string{
		"missing intents":   "other: 1\n",
		"empty patterns":    "intents:\n  - name: x\n    patterns: []\n    responses: [a]\n",
		"bad name":          "intents:\n  - name: Bad Name\n    patterns: [a]\n    responses: [b]\n",
		"unknown action":    "intents:\n  - name: x\n    patterns: [a]\n    responses: [b]\n    actions:\n      - type: teleport\n        label: Go\n",
		"malformed yaml":    "intents: [\n",
		"missing responses": "intents:\n  - name: x\n    patterns: [a]\n",
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			require.Error(t, err)
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrCodeCatalogInvalid, stdErr.Code)
		})
	}
}

func TestLoadCatalogFile_RoundTripsDefaultCatalog(t *testing.T) {
	raw, err := MarshalCatalog(DefaultCatalog())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "intents.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	loaded, err := LoadCatalogFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().Intents(), loaded.Intents())

	_, err = LoadCatalogFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
