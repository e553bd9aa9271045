package domain

import "context"

// Encoder is the shared text vectorization contract between layers.
// The multimodal model behind it is an external concern; the core only
// requires that the output dimensionality matches the corpus.
type Encoder interface {
	Encode(ctx context.Context, text string) (EncodingResult, error)
}

// EncodingResult carries the query vector and token usage through the decorator chain.
type EncodingResult struct {
	Vector       []float32
	PromptTokens int
	TotalTokens  int
}

// Moderator decides whether a free-text query is allowed to run.
// The third-party moderation API lives behind this interface; a nil
// Moderator disables the check entirely.
type Moderator interface {
	Allow(ctx context.Context, query string) (bool, error)
}

// HealthChecker verifies encoder provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
