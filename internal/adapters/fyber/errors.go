package fyber

import (
	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/sdk/fybersdk"
)

// convertErrorCode maps a Marketplace error onto the host's error codes.
func convertErrorCode(code fybersdk.ErrorCode) mediation.ErrorCode {
	switch code {
	case fybersdk.ErrConnectionError, fybersdk.ErrConnectionTimeout:
		return mediation.ErrorCodeNetworkError
	case fybersdk.ErrNoFill:
		return mediation.ErrorCodeNoFill
	default:
		return mediation.ErrorCodeInternalError
	}
}
