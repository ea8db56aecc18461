package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrSnippetNotFound  = errors.New("snippet not found")
	ErrStrategyUnknown  = errors.New("unknown embedding strategy")
	ErrIndexUnavailable = errors.New("vector index unavailable")
)
