package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")
	ErrMissingToken  = fmt.Errorf("missing API token")

	// API and backend errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrBackendUnavailable = fmt.Errorf("pipeline backend unavailable")
	ErrJobNotFound        = fmt.Errorf("job not found")
	ErrProjectNotFound    = fmt.Errorf("project not found")

	// Job tracking errors
	ErrNoActiveJob  = fmt.Errorf("no active job")
	ErrSubmitFailed = fmt.Errorf("job submission failed")
	ErrJobFailed    = fmt.Errorf("job failed")
	ErrStreamClosed = fmt.Errorf("event stream closed")

	// Persisted snapshot validation errors
	ErrStaleSnapshot    = fmt.Errorf("persisted snapshot too old")
	ErrScopeMismatch    = fmt.Errorf("persisted snapshot belongs to another project")
	ErrTerminalSnapshot = fmt.Errorf("persisted snapshot already terminal")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
