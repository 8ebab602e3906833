package tournament

import "errors"

// Error types for tournament construction and play
var (
	// ErrConfiguration marks a participant set that violates a format's structure.
	ErrConfiguration = errors.New("tournament configuration error")
	// ErrDependencyFailure marks an invalid answer from the predictor or random stream.
	ErrDependencyFailure = errors.New("dependency failure")
	ErrInvalidMatch      = errors.New("match requires three distinct competitors")
	ErrAlreadyPlayed     = errors.New("tournament has already been played")
)
