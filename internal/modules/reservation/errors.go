package reservation

import "errors"

var (
	ErrUnknownSite = errors.New("site not in catalog")

	// errNotAvailable aborts a commit's precondition when the re-check finds
	// a conflicting reservation. Never escapes the package: callers see the
	// RejectedOverlap outcome instead.
	errNotAvailable = errors.New("site not available for range")
)
