package providers

import (
	"context"
	"errors"
)

// ErrAssistantUnauthorized indicates the assistant backend rejected our credentials
var ErrAssistantUnauthorized = errors.New("assistant provider unauthorized")

// AssistantProvider is the conversational model: it takes a context string
// and the caller's message and returns prose.
type AssistantProvider interface {
	Reply(ctx context.Context, contextText, message string) (string, error)
}
