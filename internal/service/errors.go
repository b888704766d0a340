package service

import (
	"errors"
	"fmt"
)

var (
	// ErrConversationNotFound is returned when a referenced conversation
	// does not exist.
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrChunkContentMissing is returned when a conversation's anchored
	// chunk cannot be located or carries no content.
	ErrChunkContentMissing = errors.New("chunk content missing")

	// ErrSourceUnresolved is returned when retrieved metadata does not map
	// back to a stored chunk.
	ErrSourceUnresolved = errors.New("retrieved metadata does not match a stored chunk")
)

// RetrievalError reports an index that is unusable for search.
type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// PersistenceError reports a best-effort persistence failure. It is logged
// and never propagated into a response stream.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failed: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
