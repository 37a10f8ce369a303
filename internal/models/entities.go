package models

// Action is a suggested follow-up rendered as a button in the widget.
type Action struct {
	Type    string `json:"type" yaml:"type"`
	Label   string `json:"label" yaml:"label"`
	Payload string `json:"payload" yaml:"payload"`
}

// Action types.
const (
	ActionQuickReply = "quick_reply"
	ActionNavigate   = "navigate"
	ActionCall       = "call"
	ActionHandoff    = "handoff"
)

// Budget is either a single amount or a range, in rupees.
type Budget struct {
	Value int64 `json:"value,omitempty"`
	Min   int64 `json:"min,omitempty"`
	Max   int64 `json:"max,omitempty"`
}

// IsRange reports whether the budget was stated as min-max.
func (b Budget) IsRange() bool {
	return b.Max > 0
}

// ToMap renders the budget the way it is stored in session context.
func (b Budget) ToMap() map[string]interface{} {
	if b.IsRange() {
		return map[string]interface{}{"min": b.Min, "max": b.Max}
	}
	return map[string]interface{}{"value": b.Value}
}

// Entities is the sparse set of fields extracted from one message.
type Entities struct {
	Budget       *Budget `json:"budget,omitempty"`
	Bedrooms     *int    `json:"bedrooms,omitempty"`
	Location     string  `json:"location,omitempty"`
	PropertyType string  `json:"propertyType,omitempty"`
	ListingType  string  `json:"listingType,omitempty"`
	Phone        string  `json:"phone,omitempty"`
}

// Entity keys as they appear in session context.
const (
	EntityBudget       = "budget"
	EntityBedrooms     = "bedrooms"
	EntityLocation     = "location"
	EntityPropertyType = "propertyType"
	EntityListingType  = "listingType"
	EntityPhone        = "phone"
)

// IsEmpty reports whether nothing was extracted.
func (e Entities) IsEmpty() bool {
	return len(e.ToMap()) == 0
}

// ToMap returns only the fields that are present.
func (e Entities) ToMap() map[string]interface{} {
	out := make(map[string]interface{})
	if e.Budget != nil {
		out[EntityBudget] = e.Budget.ToMap()
	}
	if e.Bedrooms != nil {
		out[EntityBedrooms] = *e.Bedrooms
	}
	if e.Location != "" {
		out[EntityLocation] = e.Location
	}
	if e.PropertyType != "" {
		out[EntityPropertyType] = e.PropertyType
	}
	if e.ListingType != "" {
		out[EntityListingType] = e.ListingType
	}
	if e.Phone != "" {
		out[EntityPhone] = e.Phone
	}
	return out
}
