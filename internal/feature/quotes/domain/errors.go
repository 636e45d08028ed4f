// Package domain defines domain-level errors for the quotes feature.
package domain

import "errors"

var (
	// ErrTooManyCodes indicates a quote request for more codes than allowed at once.
	ErrTooManyCodes = errors.New("too many codes: at most 50 per request")

	// ErrSnapshotNotFound indicates no snapshot has been persisted yet.
	ErrSnapshotNotFound = errors.New("quote snapshot not found")

	// ErrQuoteNotFound indicates the upstream source has no data for the code.
	ErrQuoteNotFound = errors.New("quote not found")
)
