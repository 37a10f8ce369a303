package processchatmessage

import "property-chat/internal/common/validation"

// message is not required here; a blank one is rejected by the chat
// service with MESSAGE_REQUIRED.
var inputSchema = validation.MustCompile(`{
	"type": "object",
	"properties": {
		"message": {"type": "string"},
		"sessionId": {"type": "string"},
		"visitorId": {"type": "string"},
		"userId": {"type": "string"},
		"context": {"type": "object"}
	}
}`)
