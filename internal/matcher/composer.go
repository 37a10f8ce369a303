package matcher

import (
	"fmt"
	"strconv"
	"strings"

	"property-chat/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	locationSuffix = "\n\n📍 %s is a great choice! It's one of the most sought-after areas in Lucknow."
	budgetSuffix   = "\n\n💰 With a budget of %s, I can shortlist properties that fit."
	bedroomsSuffix = "\n\n🛏️ I'll focus on %d BHK options for you."
)

// Reply is the composed assistant turn.
type Reply struct {
	Intent     string          `json:"intent"`
	Confidence float64         `json:"confidence"`
	Text       string          `json:"text"`
	Actions    []models.Action `json:"actions"`
	Fallback   bool            `json:"fallback"`
}

// Composer turns a detection plus entities into reply text.
type Composer struct {
	selector Selector
}

func NewComposer(selector Selector) *Composer {
	if selector == nil {
		selector = RandomSelector{}
	}
	return &Composer{selector: selector}
}

// Compose builds the reply. Clarifying replies carry no personalisation.
func (c *Composer) Compose(det Detection, ents models.Entities) Reply {
	if det.Unclear() {
		return c.Fallback()
	}

	in := det.intent
	var b strings.Builder
	b.WriteString(in.Responses[c.pick(len(in.Responses))])

	if ents.Location != "" {
		fmt.Fprintf(&b, locationSuffix, titleCase(ents.Location))
	}
	if ents.Budget != nil {
		fmt.Fprintf(&b, budgetSuffix, FormatBudget(*ents.Budget))
	}
	if ents.Bedrooms != nil {
		fmt.Fprintf(&b, bedroomsSuffix, *ents.Bedrooms)
	}

	return Reply{
		Intent:     in.Name,
		Confidence: det.Confidence,
		Text:       b.String(),
		Actions:    append([]models.Action(nil), in.Actions...),
	}
}

// Fallback returns a clarifying question with the default actions.
func (c *Composer) Fallback() Reply {
	return Reply{
		Intent:   IntentUnclear,
		Text:     ClarifyingQuestions[c.pick(len(ClarifyingQuestions))],
		Actions:  append([]models.Action(nil), DefaultActions...),
		Fallback: true,
	}
}

func (c *Composer) pick(n int) int {
	i := c.selector.Pick(n)
	if i < 0 || i >= n {
		return 0
	}
	return i
}

// FormatBudget renders rupees as "₹50 Lakh", "₹1.2 Crore" or a range.
func FormatBudget(b models.Budget) string {
	if b.IsRange() {
		return formatAmount(b.Min) + " - " + formatAmount(b.Max)
	}
	return formatAmount(b.Value)
}

func formatAmount(v int64) string {
	if v >= crore {
		return "₹" + strconv.FormatFloat(float64(v)/crore, 'f', -1, 64) + " Crore"
	}
	return "₹" + strconv.FormatFloat(float64(v)/lakh, 'f', -1, 64) + " Lakh"
}

// titleCase builds a Caser per call; Casers are stateful.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
