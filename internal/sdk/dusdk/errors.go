package dusdk

import (
	"errors"
	"fmt"
)

// Error codes reported through AdError.
const (
	CodeNetworkError      = 1000
	CodeNoFill            = 1001
	CodeLoadTooFrequently = 1002
	CodeImpressionLimit   = 1003
	CodeServerError       = 2000
	CodeInternalError     = 2001
	CodeTimeOut           = 3000
	CodeUnknownError      = 3001
)

// AdError is the failure handed to DU listeners.
type AdError struct {
	Code    int
	Message string
}

func (e *AdError) Error() string {
	return fmt.Sprintf("du ad error %d: %s", e.Code, e.Message)
}

var (
	NetworkError      = &AdError{Code: CodeNetworkError, Message: "network error"}
	NoFillError       = &AdError{Code: CodeNoFill, Message: "no fill"}
	LoadTooFrequently = &AdError{Code: CodeLoadTooFrequently, Message: "load too frequently"}
	ImpressionLimit   = &AdError{Code: CodeImpressionLimit, Message: "impression limit reached"}
	ServerError       = &AdError{Code: CodeServerError, Message: "server error"}
	InternalError     = &AdError{Code: CodeInternalError, Message: "internal error"}
	TimeOutError      = &AdError{Code: CodeTimeOut, Message: "time out"}
	UnknownError      = &AdError{Code: CodeUnknownError, Message: "unknown error"}
)

func errorFor(code int, message string) *AdError {
	if message == "" {
		for _, e := range []*AdError{NetworkError, NoFillError, LoadTooFrequently, ImpressionLimit,
			ServerError, InternalError, TimeOutError} {
			if e.Code == code {
				return e
			}
		}
		return &AdError{Code: code, Message: UnknownError.Message}
	}
	return &AdError{Code: code, Message: message}
}

var (
	ErrNotInitialized = errors.New("du: client not initialized")
	ErrNotReady       = errors.New("du: ad not loaded")
	ErrDestroyed      = errors.New("du: ad destroyed")
)
