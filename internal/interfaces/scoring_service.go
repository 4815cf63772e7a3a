package interfaces

import (
	"context"
)

// Message represents a single message in a scoring conversation
type Message struct {
	// Role identifies the message sender: "user" or "system"
	Role string

	// Content contains the text content of the message
	Content string
}

// ScoringService defines the interface for relevance-scoring model calls.
// Implementations wrap a cloud language-model provider and return the raw
// response text for the caller to parse.
type ScoringService interface {
	// Score sends the conversation to the model and returns the raw
	// response text. The messages slice carries the system prompt followed
	// by the user prompt; providers map roles to their native request shape.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//   - messages: System and user prompts in order
	//
	// Returns:
	//   - string: Raw model response text
	//   - error: Error if the call fails or returns no content
	Score(ctx context.Context, messages []Message) (string, error)

	// HealthCheck verifies the provider is reachable and authenticated.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeout control
	//
	// Returns:
	//   - error: Error if the provider is not usable
	HealthCheck(ctx context.Context) error

	// ModelName returns the configured model identifier.
	ModelName() string

	// Close releases provider resources.
	Close() error
}
