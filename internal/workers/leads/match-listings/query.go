package matchlistings

import (
	"math"

	"property-chat/internal/models"
)

// BuildQuery turns the lead's stated preferences into a bool query. The
// location is scored; everything else filters.
func BuildQuery(prefs models.Entities, tolerance float64, size int) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if prefs.Location != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{
				"location": map[string]interface{}{
					"query":    prefs.Location,
					"operator": "and",
				},
			},
		})
	}

	if prefs.PropertyType != "" {
		filter = append(filter, term("property_type", prefs.PropertyType))
	}
	if prefs.ListingType != "" {
		filter = append(filter, term("listing_type", prefs.ListingType))
	}
	if prefs.Bedrooms != nil {
		filter = append(filter, term("bedrooms", *prefs.Bedrooms))
	}
	if r := priceRange(prefs.Budget, tolerance); r != nil {
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"price": r},
		})
	}

	if len(must) == 0 {
		must = append(must, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery := map[string]interface{}{"must": must}
	if len(filter) > 0 {
		boolQuery["filter"] = filter
	}

	return map[string]interface{}{
		"size":  size,
		"query": map[string]interface{}{"bool": boolQuery},
		"sort": []interface{}{
			"_score",
			map[string]interface{}{"price": "asc"},
		},
	}
}

// priceRange widens a single budget by tolerance on both sides; a stated
// range is used as is.
func priceRange(b *models.Budget, tolerance float64) map[string]interface{} {
	if b == nil {
		return nil
	}
	if b.IsRange() {
		r := map[string]interface{}{"lte": b.Max}
		if b.Min > 0 {
			r["gte"] = b.Min
		}
		return r
	}
	if b.Value <= 0 {
		return nil
	}
	v := float64(b.Value)
	return map[string]interface{}{
		"gte": int64(math.Round(v * (1 - tolerance))),
		"lte": int64(math.Round(v * (1 + tolerance))),
	}
}

func term(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{field: value},
	}
}
