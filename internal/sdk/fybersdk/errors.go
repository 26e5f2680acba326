package fybersdk

import (
	"errors"
	"fmt"
)

// ErrorCode is the Marketplace SDK's failure taxonomy for ad requests.
type ErrorCode int

const (
	ErrUnspecified ErrorCode = iota
	ErrConnectionError
	ErrConnectionTimeout
	ErrNoFill
	ErrServerInvalidResponse
	ErrServerInternalError
	ErrSpotDisabled
	ErrUnknownAppID
	ErrInvalidInput
	ErrConfigurationMismatch
	ErrSDKNotInitialized
)

var errorCodeNames = map[ErrorCode]string{
	ErrUnspecified:           "UNSPECIFIED",
	ErrConnectionError:       "CONNECTION_ERROR",
	ErrConnectionTimeout:     "CONNECTION_TIMEOUT",
	ErrNoFill:                "NO_FILL",
	ErrServerInvalidResponse: "SERVER_INVALID_RESPONSE",
	ErrServerInternalError:   "SERVER_INTERNAL_ERROR",
	ErrSpotDisabled:          "SPOT_DISABLED",
	ErrUnknownAppID:          "UNKNOWN_APP_ID",
	ErrInvalidInput:          "INVALID_INPUT",
	ErrConfigurationMismatch: "ERROR_CONFIGURATION_MISMATCH",
	ErrSDKNotInitialized:     "SDK_NOT_INITIALIZED",
}

func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

var (
	ErrNotReady      = errors.New("fyber: no ad loaded for this controller")
	ErrAlreadyShown  = errors.New("fyber: ad already shown")
	ErrSpotDestroyed = errors.New("fyber: spot destroyed")
)

// ConfigError describes why the remote configuration could not be used.
type ConfigError struct {
	AppID  string
	Status int
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fyber config for app %s: %s (status %d)", e.AppID, e.Reason, e.Status)
	}
	return fmt.Sprintf("fyber config for app %s: %s", e.AppID, e.Reason)
}

// Error carries the ErrorCode a failed ad request resolved to.
type Error struct {
	Code ErrorCode
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code.String() + ": " + e.Err.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}
