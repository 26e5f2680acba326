package mediation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers(t *testing.T) {
	f, ok := ParseAdFormat(" Rewarded ")
	assert.True(t, ok)
	assert.Equal(t, FormatRewarded, f)
	_, ok = ParseAdFormat("video")
	assert.False(t, ok)

	var p ServerParameters
	assert.Equal(t, "", p.GetString("spotId"))
	p = ServerParameters{"spotId": "150942"}
	clone := p.Clone()
	clone["spotId"] = "x"
	assert.Equal(t, "150942", p.GetString("spotId"))
}

func TestAdError(t *testing.T) {
	err := NewAdError(ErrorCodeNoFill, "no ad", "com.fyber")
	assert.Equal(t, "com.fyber: no_fill (3): no ad", err.Error())
	assert.Equal(t, "invalid_request (1): x", NewAdError(ErrorCodeInvalidRequest, "x", "").Error())
	assert.Equal(t, "error_code(9)", ErrorCode(9).String())

	u := UnsupportedFormatError("FyberMediationAdapter", "native ads.", "com.fyber")
	assert.Equal(t, "FyberMediationAdapter does not support native ads.", u.Message)
}
