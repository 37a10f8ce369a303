package matchlistings

import "property-chat/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["leadId"],
	"properties": {
		"leadId": {"type": "string", "minLength": 1},
		"context": {
			"type": "object",
			"properties": {
				"location": {"type": "string"},
				"propertyType": {"type": "string"},
				"listingType": {"type": "string", "enum": ["sale", "rent"]},
				"bedrooms": {"type": "integer", "minimum": 1},
				"budget": {
					"type": "object",
					"properties": {
						"value": {"type": "number", "minimum": 0},
						"min": {"type": "number", "minimum": 0},
						"max": {"type": "number", "minimum": 0}
					}
				}
			}
		}
	}
}`)
