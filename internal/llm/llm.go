// Package llm wraps the optional text-generation provider used by the
// legal assistant and document drafting.
package llm

import "context"

// Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Completion is the provider's answer.
type Completion struct {
	Text       string
	TokensUsed int
}

// Client generates text. Implementations must be safe for concurrent use.
type Client interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Completion, error)
}

// costPer1KTokens is the blended price used for interaction accounting.
const costPer1KTokens = 0.045

// Cost estimates the price of tokens.
func Cost(tokens int) float64 {
	return float64(tokens) / 1000 * costPer1KTokens
}
