package mediation

import "fmt"

// ErrorCode is the host's fixed load-failure enumeration. Values match the
// host SDK's AdRequest.ERROR_CODE_* constants.
type ErrorCode int

const (
	ErrorCodeInternalError  ErrorCode = 0
	ErrorCodeInvalidRequest ErrorCode = 1
	ErrorCodeNetworkError   ErrorCode = 2
	ErrorCodeNoFill         ErrorCode = 3
)

func (c ErrorCode) String() string {
	switch c {
	case ErrorCodeInternalError:
		return "internal_error"
	case ErrorCodeInvalidRequest:
		return "invalid_request"
	case ErrorCodeNetworkError:
		return "network_error"
	case ErrorCodeNoFill:
		return "no_fill"
	default:
		return fmt.Sprintf("error_code(%d)", int(c))
	}
}

// AdError is the failure value passed through the load-callback API.
type AdError struct {
	Code    ErrorCode
	Message string
	Domain  string
}

// NewAdError creates an AdError
func NewAdError(code ErrorCode, message, domain string) *AdError {
	return &AdError{Code: code, Message: message, Domain: domain}
}

func (e *AdError) Error() string {
	if e.Domain == "" {
		return fmt.Sprintf("%s (%d): %s", e.Code, int(e.Code), e.Message)
	}
	return fmt.Sprintf("%s: %s (%d): %s", e.Domain, e.Code, int(e.Code), e.Message)
}
