package service

import (
	"errors"
	"fmt"
)

// ErrEmployeeNotFound means the tag UID resolves to nobody. Terminal,
// nothing is written.
var ErrEmployeeNotFound = errors.New("employee not found")

// VerificationError means the live photo scored below the threshold.
// Terminal, nothing is written; the score is carried so the client can
// show how close the match was.
type VerificationError struct {
	Score float64
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("face verification failed with score %.4f", e.Score)
}

// UpstreamError wraps a failure of the embedding service or the
// reference-photo fetch. Terminal for the request, never retried here.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a store read or write failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
