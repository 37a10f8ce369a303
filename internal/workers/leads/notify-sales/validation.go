package notifysales

import "property-chat/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["leadId", "phone"],
	"properties": {
		"leadId": {"type": "string", "minLength": 1},
		"phone": {"type": "string", "pattern": "^\\+?[0-9][0-9 -]{8,15}$"},
		"context": {"type": "object"},
		"listings": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id"],
				"properties": {
					"id": {"type": "string"},
					"title": {"type": "string"},
					"location": {"type": "string"},
					"price": {"type": "number"}
				}
			}
		}
	}
}`)
