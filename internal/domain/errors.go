package domain

import "errors"

var (
	// ErrCorpusIntegrity signals a corrupt corpus: embedding dimension mismatch,
	// duplicate id, or a non-finite embedding component. Fatal at startup.
	ErrCorpusIntegrity = errors.New("corpus integrity error")
	// ErrEntityNotFound signals an unknown entity id.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrInvalidQuery signals an invalid search request (empty text, bad k).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrQueryRejected signals a query blocked by the moderation policy.
	ErrQueryRejected = errors.New("query rejected")
	// ErrEncoderUnavailable signals an encoder provider failure.
	ErrEncoderUnavailable = errors.New("encoder unavailable")
)
