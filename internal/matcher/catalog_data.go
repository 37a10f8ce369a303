package matcher

import "property-chat/internal/models"

// Intent names referenced by the recorder.
const (
	IntentUnclear       = "unclear"
	IntentGreeting      = "greeting"
	IntentBuyProperty   = "buy_property"
	IntentRentProperty  = "rent_property"
	IntentPropertyType  = "property_type"
	IntentScheduleVisit = "schedule_visit"
	IntentContactAgent  = "contact_agent"
)

var (
	actionBrowse = models.Action{Type: models.ActionNavigate, Label: "Browse Properties", Payload: "/properties"}
	actionEMI    = models.Action{Type: models.ActionNavigate, Label: "EMI Calculator", Payload: "/emi-calculator"}
	actionVisit  = models.Action{Type: models.ActionQuickReply, Label: "Schedule a Site Visit", Payload: "I want to schedule a site visit"}
	actionAgent  = models.Action{Type: models.ActionHandoff, Label: "Talk to an Agent", Payload: "handoff"}
	actionCall   = models.Action{Type: models.ActionCall, Label: "Call Us", Payload: "+915224000000"}
)

// DefaultActions are attached to clarifying replies.
var DefaultActions = []models.Action{actionBrowse, actionEMI}

// ClarifyingQuestions are used when no intent is confident enough.
var ClarifyingQuestions = []string{
	"I'd love to help! Are you looking to buy, rent or sell a property?",
	"Could you tell me a little more? For example your preferred locality or budget.",
	"I didn't quite catch that. Are you searching for a flat, villa, plot or commercial space?",
}

var defaultIntents = []Intent{
	{
		Name:     IntentGreeting,
		Priority: 1,
		Patterns: []string{"hello", "hi", "hey", "hii", "namaste", "namaskar", "good morning", "good afternoon", "good evening"},
		Responses: []string{
			"Hello! 👋 Welcome. Are you looking to buy, rent or sell a property today?",
			"Namaste! 🙏 I can help you find the right home in Lucknow. What are you looking for?",
		},
		Actions: []models.Action{
			{Type: models.ActionQuickReply, Label: "Buy a Property", Payload: "I want to buy a property"},
			{Type: models.ActionQuickReply, Label: "Rent a Property", Payload: "I want to rent a property"},
			{Type: models.ActionQuickReply, Label: "Sell my Property", Payload: "I want to sell my property"},
		},
	},
	{
		Name:     IntentBuyProperty,
		Priority: 5,
		Patterns: []string{"want to buy", "looking to buy", "buy", "buying", "purchase", "kharidna", "kharid", "invest in property"},
		Responses: []string{
			"Great, let's find you a property to buy! 🏡 Which locality and budget do you have in mind?",
			"Buying a home is a big step and I'm here to help. Do you prefer a flat, villa or plot?",
		},
		Actions: []models.Action{actionBrowse, actionEMI, actionVisit},
	},
	{
		Name:     IntentRentProperty,
		Priority: 5,
		Patterns: []string{"on rent", "for rent", "rent", "rental", "kiraya", "kiraye", "lease", "pg"},
		Responses: []string{
			"Looking for a rental? 🔑 Tell me your preferred locality and monthly budget.",
			"I can help you find a place on rent. How many bedrooms do you need?",
		},
		Actions: []models.Action{
			{Type: models.ActionNavigate, Label: "Rental Listings", Payload: "/properties?listing=rent"},
			actionVisit,
		},
	},
	{
		Name:     "sell_property",
		Priority: 4,
		Patterns: []string{"sell my", "sell", "selling", "bechna", "list my property", "post property"},
		Responses: []string{
			"Happy to help you sell! 📢 You can list your property for free and our team will reach out.",
		},
		Actions: []models.Action{
			{Type: models.ActionNavigate, Label: "Post Your Property", Payload: "/submit-property"},
			actionAgent,
		},
	},
	{
		Name:     IntentPropertyType,
		Priority: 3,
		Patterns: []string{"apartment", "flat", "villa", "penthouse", "independent house", "house", "bungalow", "plot", "land", "shop", "office", "showroom", "commercial"},
		Responses: []string{
			"Good choice! We have plenty of options in that category. What is your budget range?",
			"Noted. Which part of Lucknow would you prefer?",
		},
		Actions: []models.Action{actionBrowse},
	},
	{
		Name:     "budget_query",
		Priority: 3,
		Patterns: []string{"budget", "price", "cost", "rate", "kitne ka", "kitna", "affordable", "cheap"},
		Responses: []string{
			"Prices vary by locality and size. Share your budget and I'll shortlist options that fit.",
		},
		Actions: []models.Action{actionEMI, actionBrowse},
	},
	{
		Name:     "location_query",
		Priority: 2,
		Patterns: []string{"location", "locality", "area", "nearby", "near", "gomti nagar", "hazratganj", "indira nagar"},
		Responses: []string{
			"We cover all major localities in Lucknow. Which area do you prefer?",
		},
		Actions: []models.Action{
			{Type: models.ActionNavigate, Label: "Explore Localities", Payload: "/locations"},
		},
	},
	{
		Name:     IntentScheduleVisit,
		Priority: 6,
		Patterns: []string{"site visit", "schedule", "book a visit", "visit", "appointment", "dekhna hai", "see the property"},
		Responses: []string{
			"Let's set up a site visit! 📅 Please share your phone number and a convenient time.",
			"Sure, I can arrange a visit. What day works best for you? Please also share your number.",
		},
		Actions: []models.Action{actionCall, actionAgent},
	},
	{
		Name:     IntentContactAgent,
		Priority: 6,
		Patterns: []string{"talk to", "speak to", "agent", "call me", "callback", "contact", "my number", "human", "baat karni"},
		Responses: []string{
			"I'll connect you with one of our property experts. 📞 Could you share your phone number?",
			"Our team would be happy to call you. Please leave your 10-digit mobile number.",
		},
		Actions: []models.Action{actionAgent, actionCall},
	},
	{
		Name:     "home_loan",
		Priority: 4,
		Patterns: []string{"home loan", "loan", "emi", "finance", "bank"},
		Responses: []string{
			"We partner with leading banks for home loans. 🏦 Try our EMI calculator to plan your budget.",
		},
		Actions: []models.Action{actionEMI, actionAgent},
	},
	{
		Name:     "amenities",
		Priority: 2,
		Patterns: []string{"amenities", "parking", "gym", "swimming pool", "lift", "security", "power backup"},
		Responses: []string{
			"Most of our projects offer parking, power backup and 24x7 security. Any must-have amenity?",
		},
		Actions: []models.Action{actionBrowse},
	},
	{
		Name:     "thanks",
		Priority: 1,
		Patterns: []string{"thank you", "thanks", "thank", "dhanyavad", "shukriya"},
		Responses: []string{
			"You're welcome! 😊 Anything else I can help you with?",
		},
	},
	{
		Name:     "goodbye",
		Priority: 1,
		Patterns: []string{"goodbye", "bye", "see you", "alvida"},
		Responses: []string{
			"Goodbye! Feel free to come back any time. 👋",
		},
	},
}

// DefaultCatalog returns the built-in intent table.
func DefaultCatalog() *Catalog {
	return MustCatalog(defaultIntents)
}
