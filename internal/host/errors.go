package host

import (
	"errors"

	"github.com/echoface/admediation/internal/mediation"
)

var (
	// Predefined errors
	ErrUnknownUnit          = NewHostError(1000, "unknown ad unit")
	ErrUnknownSession       = NewHostError(1001, "unknown ad handle")
	ErrAdapterUnavailable   = NewHostError(1002, "adapter not registered or disabled")
	ErrLoadTimeout          = NewHostError(1003, "ad load timed out")
	ErrNotLoaded            = NewHostError(1004, "ad is not loaded")
	ErrUnsupportedOperation = NewHostError(1005, "operation not supported for this ad format")
	ErrInvalidUnit          = NewHostError(1006, "invalid ad unit")
	ErrInvalidRequest       = NewHostError(1007, "invalid request")
)

type (
	// HostError is a failure of the host itself, as opposed to a
	// mediation.AdError reported by an adapter.
	HostError struct {
		Code    int64
		Message string
	}
)

func NewHostError(code int64, message string) *HostError {
	return &HostError{
		Message: message,
		Code:    code,
	}
}

// Error method for HostError
func (e *HostError) Error() string {
	return e.Message
}

// Is matches on Code so wrapped copies compare equal to the sentinels.
func (e *HostError) Is(target error) bool {
	t, ok := target.(*HostError)
	return ok && t.Code == e.Code
}

// WithDetail returns a copy of e carrying detail in its message.
func (e *HostError) WithDetail(detail string) *HostError {
	return &HostError{Code: e.Code, Message: e.Message + ": " + detail}
}

// AsAdError extracts the adapter failure from err, if any.
func AsAdError(err error) (*mediation.AdError, bool) {
	var adErr *mediation.AdError
	if errors.As(err, &adErr) {
		return adErr, true
	}
	return nil, false
}
