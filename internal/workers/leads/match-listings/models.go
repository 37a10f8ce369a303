package matchlistings

import "property-chat/internal/models"

type Input struct {
	LeadID  string          `json:"leadId"`
	Context models.Entities `json:"context"`
}

type Listing struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Location string  `json:"location"`
	Price    int64   `json:"price"`
	Bedrooms int     `json:"bedrooms,omitempty"`
	Score    float64 `json:"score"`
}

type Output struct {
	Listings  []Listing `json:"listings"`
	TotalHits int64     `json:"totalHits"`
}

// listingDoc is the _source shape of the listings index.
type listingDoc struct {
	Title        string `json:"title"`
	Location     string `json:"location"`
	Price        int64  `json:"price"`
	Bedrooms     int    `json:"bedrooms"`
	PropertyType string `json:"property_type"`
	ListingType  string `json:"listing_type"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string     `json:"_id"`
			Score  float64    `json:"_score"`
			Source listingDoc `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}
