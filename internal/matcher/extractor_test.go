package matcher

import (
	"testing"

	"property-chat/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Budget(t *testing.T) {
	tests := []struct {
		input string
		want  *models.Budget
	}{
		{"under 50 lakh", &models.Budget{Value: 5_000_000}},
		{"around 45 lakhs", &models.Budget{Value: 4_500_000}},
		{"budget 30 lac", &models.Budget{Value: 3_000_000}},
		{"max 75L", &models.Budget{Value: 7_500_000}},
		{"1 crore", &models.Budget{Value: 10_000_000}},
		{"1.5 Cr", &models.Budget{Value: 15_000_000}},
		{"2.25 crores", &models.Budget{Value: 22_500_000}},
		{"50-80 lakh", &models.Budget{Min: 5_000_000, Max: 8_000_000}},
		{"between 1 to 2 crore", &models.Budget{Min: 10_000_000, Max: 20_000_000}},
		{"80 - 50 lakh", &models.Budget{Min: 5_000_000, Max: 8_000_000}},
		{"3 bhk flat", nil},
		{"5 lifts", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Extract(tt.input).Budget)
		})
	}
}

func TestExtract_Bedrooms(t *testing.T) {
	for _, input := range []string{"2bhk", "2 BHK", "need a 2Bhk near hazratganj"} {
		got := Extract(input).Bedrooms
		require.NotNil(t, got, input)
		assert.Equal(t, 2, *got, input)
	}

	assert.Nil(t, Extract("12bhk").Bedrooms)
	assert.Nil(t, Extract("two bedroom").Bedrooms)
}

func TestExtract_LocationFirstInGazetteerOrder(t *testing.T) {
	assert.Equal(t, "gomti nagar", Extract("flat in Gomti Nagar").Location)
	assert.Equal(t, "gomti nagar extension", Extract("GOMTI NAGAR EXTENSION plots").Location)

	// Both mentioned: the earlier gazetteer entry wins, not the earlier mention.
	assert.Equal(t, "hazratganj", Extract("aliganj or hazratganj").Location)
	assert.Empty(t, Extract("somewhere in Noida").Location)
}

func TestExtract_PropertyType(t *testing.T) {
	tests := map[string]string{
		"3bhk apartment":        "flat",
		"a flat please":         "flat",
		"luxury villa":          "villa",
		"independent house":     "house",
		"residential plot":      "plot",
		"shop in aminabad":      "commercial",
		"office space for rent": "commercial",
		"just browsing":         "",
	}
	for input, want := range tests {
		assert.Equal(t, want, Extract(input).PropertyType, input)
	}
}

func TestExtract_ListingType(t *testing.T) {
	assert.Equal(t, ListingRent, Extract("flat on rent").ListingType)
	assert.Equal(t, ListingRent, Extract("kiraya pe makaan").ListingType)
	assert.Equal(t, ListingSale, Extract("I want to buy").ListingType)
	assert.Equal(t, ListingSale, Extract("ghar kharidna hai").ListingType)
	assert.Equal(t, ListingSale, Extract("purchase a plot").ListingType)
	assert.Equal(t, ListingRent, Extract("should I rent or buy?").ListingType)
	assert.Empty(t, Extract("hello").ListingType)
}

func TestExtract_Phone(t *testing.T) {
	assert.Equal(t, "9876543210", Extract("call me on 9876543210").Phone)
	assert.Equal(t, "9876543210", Extract("9876543210").Phone)
	assert.Equal(t, "9876543210", Extract("+91 9876543210").Phone)
	assert.Equal(t, "9876543210", Extract("+91-9876543210").Phone)
	assert.Equal(t, "9876543210", Extract("my no. 9876543210, evening only").Phone)
	assert.Equal(t, "9123456789", Extract("9123456789").Phone)
	assert.Equal(t, "9000000001", Extract("first 9000000001 then 9000000002").Phone)

	assert.Empty(t, Extract("98765 43210").Phone)
	assert.Empty(t, Extract("12345678901234").Phone)
	assert.Empty(t, Extract("919876543210").Phone, "12-digit run is not a phone")
	assert.Empty(t, Extract("+919876543210").Phone)
}

func TestExtract_Idempotent(t *testing.T) {
	msg := "2 BHK flat on rent in Indira Nagar 20-25 lakh, call 9876543210"
	first := Extract(msg)
	second := Extract(msg)
	assert.Equal(t, first, second)
	assert.Equal(t, first.ToMap(), second.ToMap())
}

func TestExtract_EndToEndSentence(t *testing.T) {
	got := Extract("I want to buy a flat in Gomti Nagar under 50 lakh")

	assert.Equal(t, "gomti nagar", got.Location)
	assert.Equal(t, "flat", got.PropertyType)
	assert.Equal(t, ListingSale, got.ListingType)
	require.NotNil(t, got.Budget)
	assert.Equal(t, models.Budget{Value: 5_000_000}, *got.Budget)
	assert.Nil(t, got.Bedrooms)
	assert.Empty(t, got.Phone)
}
