package models

import "errors"

// Failure taxonomy for the ingestion and evaluation core. None of these is
// fatal to the process; callers decide whether to surface or absorb them.
var (
	// ErrOutOfOrderInput rejects a bar or event whose timestamp is not after
	// the last seen one for the stock. State is left untouched.
	ErrOutOfOrderInput = errors.New("out of order input")

	// ErrInsufficientSamples marks a scoring pass over buckets that are all
	// below the minimum sample threshold.
	ErrInsufficientSamples = errors.New("insufficient samples")

	// ErrInvalidAlertRule rejects a malformed threshold/condition combination
	// at creation time.
	ErrInvalidAlertRule = errors.New("invalid alert rule")

	// ErrNotFound is returned by stores for unknown IDs.
	ErrNotFound = errors.New("not found")
)
