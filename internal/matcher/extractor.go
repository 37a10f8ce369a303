package matcher

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"property-chat/internal/models"
)

const (
	lakh  = 100_000
	crore = 10_000_000
)

var (
	budgetRangeRE = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:-|–|to)\s*(\d+(?:\.\d+)?)\s*(lakhs?|lacs?|l|crores?|cr)\b`)
	budgetCroreRE = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:crores?|cr)\b`)
	budgetLakhRE  = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:lakhs?|lacs?|l)\b`)
	bedroomsRE    = regexp.MustCompile(`(?i)(?:^|\D)(\d)\s*bhk`)
	// Exactly ten digits, not inside a longer digit run.
	phoneRE = regexp.MustCompile(`(?:^|\D)(\d{10})(?:\D|$)`)
)

// Localities is the gazetteer, most specific names first.
var Localities = []string{
	"gomti nagar extension",
	"gomti nagar",
	"hazratganj",
	"indira nagar",
	"aliganj",
	"jankipuram",
	"vikas nagar",
	"mahanagar",
	"aminabad",
	"alambagh",
	"ashiyana",
	"rajajipuram",
	"chinhat",
	"sushant golf city",
	"vrindavan yojana",
	"shaheed path",
	"sultanpur road",
	"faizabad road",
	"raebareli road",
	"kanpur road",
}

type keywordType struct {
	keyword string
	kind    string
}

var propertyTypes = []keywordType{
	{"apartment", "flat"},
	{"flat", "flat"},
	{"penthouse", "flat"},
	{"villa", "villa"},
	{"independent house", "house"},
	{"bungalow", "house"},
	{"house", "house"},
	{"plot", "plot"},
	{"land", "plot"},
	{"shop", "commercial"},
	{"office", "commercial"},
	{"showroom", "commercial"},
	{"commercial", "commercial"},
}

var (
	rentKeywords = []string{"rent", "kiraya"}
	saleKeywords = []string{"buy", "purchase", "kharid"}
)

// Listing types.
const (
	ListingRent = "rent"
	ListingSale = "sale"
)

// Extract pulls entities out of a raw message. Each field is independent;
// missing matches are simply omitted.
func Extract(text string) models.Entities {
	lower := strings.ToLower(text)

	var ents models.Entities
	ents.Budget = extractBudget(text)

	if m := bedroomsRE.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		ents.Bedrooms = &n
	}

	for _, loc := range Localities {
		if strings.Contains(lower, loc) {
			ents.Location = loc
			break
		}
	}

	for _, pt := range propertyTypes {
		if strings.Contains(lower, pt.keyword) {
			ents.PropertyType = pt.kind
			break
		}
	}

	switch {
	case containsAny(lower, rentKeywords):
		ents.ListingType = ListingRent
	case containsAny(lower, saleKeywords):
		ents.ListingType = ListingSale
	}

	if m := phoneRE.FindStringSubmatch(text); m != nil {
		ents.Phone = m[1]
	}

	return ents
}

func extractBudget(text string) *models.Budget {
	if m := budgetRangeRE.FindStringSubmatch(text); m != nil {
		unit := unitMultiplier(m[3])
		lo, hi := toRupees(m[1], unit), toRupees(m[2], unit)
		if lo > hi {
			lo, hi = hi, lo
		}
		return &models.Budget{Min: lo, Max: hi}
	}
	if m := budgetCroreRE.FindStringSubmatch(text); m != nil {
		return &models.Budget{Value: toRupees(m[1], crore)}
	}
	if m := budgetLakhRE.FindStringSubmatch(text); m != nil {
		return &models.Budget{Value: toRupees(m[1], lakh)}
	}
	return nil
}

func unitMultiplier(unit string) float64 {
	if strings.HasPrefix(strings.ToLower(unit), "c") {
		return crore
	}
	return lakh
}

func toRupees(num string, unit float64) int64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(v * unit))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
