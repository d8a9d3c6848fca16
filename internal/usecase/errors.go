package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrJobConflict  = errors.New("scrape already running")
	ErrNoActiveJob  = errors.New("no active scrape, start one via POST /api/fetch-jobs")
)

// ErrUpstream wraps failures of the search provider.
var ErrUpstream = errors.New("upstream provider failed")
