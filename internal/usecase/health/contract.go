package health

import "context"

// CorpusReader reports the size of the loaded corpus.
type CorpusReader interface {
	Len() int
}

// EncoderChecker checks encoder provider availability.
type EncoderChecker interface {
	HealthCheck(ctx context.Context) error
}
