// Package matcher classifies visitor messages against an intent catalog,
// extracts property-search entities and composes the assistant reply.
package matcher

import "property-chat/internal/models"

// Result is everything one message produces before persistence.
type Result struct {
	Detection Detection
	Entities  models.Entities
	Reply     Reply
}

// Matcher wires the detector, extractor and composer together.
type Matcher struct {
	catalog  *Catalog
	detector *Detector
	composer *Composer
}

func New(catalog *Catalog, selector Selector, threshold float64) *Matcher {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &Matcher{
		catalog:  catalog,
		detector: NewDetector(catalog, threshold),
		composer: NewComposer(selector),
	}
}

// Process runs extraction, detection and composition for one message.
func (m *Matcher) Process(message string) Result {
	ents := Extract(message)
	det := m.detector.Detect(message)
	return Result{
		Detection: det,
		Entities:  ents,
		Reply:     m.composer.Compose(det, ents),
	}
}

// Fallback is the clarifying reply, used when a turn cannot be processed.
func (m *Matcher) Fallback() Reply {
	return m.composer.Fallback()
}

func (m *Matcher) Catalog() *Catalog {
	return m.catalog
}
