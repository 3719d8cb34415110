package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrRefreshFailed    = fmt.Errorf("token refresh failed")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Reconciliation error taxonomy.
	//
	// Fetch and list failures are fatal for a run; search and mutation
	// failures are per-item and only degrade the run outcome.
	ErrFetchFailed    = fmt.Errorf("source playlist fetch failed")
	ErrListFailed     = fmt.Errorf("destination playlist list failed")
	ErrSearchFailed   = fmt.Errorf("destination search failed")
	ErrMutationFailed = fmt.Errorf("destination mutation failed")

	// ErrNoMatch is a successful search that found nothing. It is a cacheable
	// negative result, not a capability failure.
	ErrNoMatch = fmt.Errorf("no matching video found")

	// ErrQuotaExceeded means the destination API refused further calls for
	// the current quota period.
	ErrQuotaExceeded = fmt.Errorf("API quota exceeded")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
