package syncleadcrm

import "property-chat/internal/common/validation"

var inputSchema = validation.MustCompile(`{
	"type": "object",
	"required": ["leadId", "phone"],
	"properties": {
		"leadId": {"type": "string", "minLength": 1},
		"phone": {"type": "string", "minLength": 10},
		"context": {"type": "object"}
	}
}`)
