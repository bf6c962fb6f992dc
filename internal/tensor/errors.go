package tensor

import "errors"

// Error kinds shared by descriptors, plans, runners and backends.
var (
	ErrInvalidShape             = errors.New("invalid shape")
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")
	ErrEmptyPlan                = errors.New("empty plan")
	ErrInvalidIterations        = errors.New("iteration count must be positive")
	ErrBackendExecution         = errors.New("backend execution failure")
	ErrBackendUnavailable       = errors.New("backend unavailable")
)
