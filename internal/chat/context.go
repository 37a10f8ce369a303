package chat

import (
	"property-chat/internal/matcher"
	"property-chat/internal/models"
)

// StageForIntent maps a resolved intent to the conversation stage.
func StageForIntent(intent string) string {
	switch intent {
	case matcher.IntentGreeting:
		return models.StageDiscovery
	case matcher.IntentScheduleVisit:
		return models.StageScheduling
	case matcher.IntentContactAgent:
		return models.StageClosing
	default:
		return models.StageRecommendation
	}
}

// MergeContext shallow-merges entities over base. Later values win and
// neither input is modified.
func MergeContext(base, entities map[string]interface{}) map[string]interface{} {
	out := cloneContext(base)
	for k, v := range entities {
		out[k] = v
	}
	return out
}

func cloneContext(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
