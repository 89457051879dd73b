package openai

import (
	"fmt"
	"strings"
)

const assistantSystemPrompt = `You are a pharmacy assistant for a Nigerian medication price comparison platform. Answer in plain, friendly language in at most five short sentences.
Only mention pharmacies, prices and stock levels that appear in the provided listings. If the listings are empty, say that no matching offers were found and suggest checking the spelling or a nearby city.
Prices are in naira. Do not diagnose, do not recommend doses, and tell the user to consult a pharmacist or doctor for medical advice.`

func buildAssistantUserPrompt(contextText, message string) string {
	contextText = strings.TrimSpace(contextText)
	if contextText == "" {
		contextText = "(no listings provided)"
	}
	return fmt.Sprintf("Listings:\n%s\n\nQuestion: %s\n", contextText, strings.TrimSpace(message))
}
