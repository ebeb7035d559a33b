package shared

import "errors"

var (
	ErrNotImplemented = errors.New("not implemented")

	// Configuration errors
	ErrMissingConfig = errors.New("configuration not found")
	ErrInvalidConfig = errors.New("invalid configuration")

	// Catalog errors
	ErrInvalidCatalog   = errors.New("invalid catalog")
	ErrSongNotFound     = errors.New("song not found")
	ErrCatalogExhausted = errors.New("every catalog song is already selected")

	// Recommender errors
	ErrAPIRequest         = errors.New("API request failed")
	ErrMalformedResponse  = errors.New("malformed recommender response")
	ErrServiceUnavailable = errors.New("service unavailable")

	// Session errors
	ErrUnknownGenre = errors.New("unknown genre")
	ErrNoSeeds      = errors.New("no seed songs selected")

	// Storage errors
	ErrStorage         = errors.New("storage failure")
	ErrHistoryNotFound = errors.New("history entry not found")

	// Input validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrMissingArgument = errors.New("missing required argument")
	ErrInvalidArgument = errors.New("invalid argument")
)
