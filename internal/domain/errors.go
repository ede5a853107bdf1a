package domain

import "errors"

var (
	// ErrIndexUnavailable is returned by search adapters when the backing
	// store cannot be reached. The pipeline treats the affected channel as
	// "signal unavailable" and continues with the other one.
	ErrIndexUnavailable = errors.New("index unavailable")

	// ErrEmptyQuestion rejects retrieval calls with no question text.
	ErrEmptyQuestion = errors.New("question is empty")
)
