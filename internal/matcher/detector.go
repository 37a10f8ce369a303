package matcher

import (
	"math"
	"strings"
	"unicode/utf8"
)

// DefaultConfidenceThreshold is the confidence below which a message is unclear.
const DefaultConfidenceThreshold = 0.1

// Detection is the outcome of scoring one message.
type Detection struct {
	Intent     string  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Score      float64 `json:"score"`
	Pattern    string  `json:"pattern,omitempty"`
	intent     *Intent
}

// Unclear reports whether no intent was confident enough.
func (d Detection) Unclear() bool {
	return d.intent == nil
}

// Detector scores messages against a catalog by substring containment.
type Detector struct {
	catalog   *Catalog
	threshold float64
}

func NewDetector(catalog *Catalog, threshold float64) *Detector {
	if threshold <= 0 {
		threshold = DefaultConfidenceThreshold
	}
	return &Detector{catalog: catalog, threshold: threshold}
}

type candidate struct {
	intent  *Intent
	index   int
	pattern string
	length  int
	score   float64
}

// beats orders candidates: higher score, then longer pattern, then higher
// catalog priority, then earlier catalog position.
func (c candidate) beats(other candidate) bool {
	if c.score != other.score {
		return c.score > other.score
	}
	if c.length != other.length {
		return c.length > other.length
	}
	if c.intent.Priority != other.intent.Priority {
		return c.intent.Priority > other.intent.Priority
	}
	return c.index < other.index
}

// Detect returns the best intent for text, or an unclear detection.
func (d *Detector) Detect(text string) Detection {
	input := strings.ToLower(strings.TrimSpace(text))
	inputLen := utf8.RuneCountInString(input)
	if inputLen == 0 {
		return Detection{Intent: IntentUnclear}
	}

	var best *candidate
	for i := range d.catalog.intents {
		in := &d.catalog.intents[i]
		for _, p := range in.Patterns {
			if !strings.Contains(input, p) {
				continue
			}
			length := utf8.RuneCountInString(p)
			c := candidate{
				intent:  in,
				index:   i,
				pattern: p,
				length:  length,
				score:   float64(length) / float64(inputLen),
			}
			if best == nil || c.beats(*best) {
				best = &c
			}
		}
	}

	if best == nil {
		return Detection{Intent: IntentUnclear}
	}

	confidence := math.Min(2*best.score, 1)
	if confidence < d.threshold {
		return Detection{Intent: IntentUnclear, Confidence: confidence, Score: best.score}
	}

	return Detection{
		Intent:     best.intent.Name,
		Confidence: confidence,
		Score:      best.score,
		Pattern:    best.pattern,
		intent:     best.intent,
	}
}
