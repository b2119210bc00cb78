package engine

import "errors"

// Sentinel errors callers distinguish with errors.Is. A wrong prediction is
// worse than a refusal, so lookup failures surface verbatim instead of being
// silently defaulted.
var (
	// ErrNotInitialized means no infrastructure snapshot has been loaded.
	ErrNotInitialized = errors.New("infrastructure graph not initialized")
	// ErrNotFound means a referenced node id is absent from the graph.
	ErrNotFound = errors.New("node not found")
	// ErrInvalidInput means a malformed scenario, severity, or failure type.
	ErrInvalidInput = errors.New("invalid input")
)
