package tmdb

import "errors"

var (
	// ErrCatalogUnavailable marks any failure to reach or read the catalog.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrNotFound is returned by FetchDetail when the id does not exist.
	ErrNotFound = errors.New("movie not found")
	// ErrAPIKeyMissing is returned before any request when no key is set.
	ErrAPIKeyMissing = errors.New("TMDB API key is not configured")
	ErrRateLimited   = errors.New("TMDB API rate limited")
	ErrUnauthorized  = errors.New("TMDB API rejected the API key")
)

// User-facing messages, one per operation.
const (
	MsgTrendingFailed = "Failed to fetch trending movies. Please try again later."
	MsgSearchFailed   = "Failed to search movies. Please try again later."
	MsgDetailFailed   = "Failed to fetch movie details. Please try again later."
)

// OperationError is a catalog failure carrying the message shown to the user.
// It matches ErrCatalogUnavailable and the underlying cause with errors.Is.
type OperationError struct {
	Op      string
	Message string
	Err     error
}

func (e *OperationError) Error() string {
	return e.Message
}

func (e *OperationError) Unwrap() []error {
	return []error{ErrCatalogUnavailable, e.Err}
}

func opError(op, msg string, err error) error {
	return &OperationError{Op: op, Message: msg, Err: err}
}
