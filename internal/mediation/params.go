package mediation

import (
	"maps"
	"strings"

	"github.com/echoface/admediation/internal/platform"
)

// ServerParameters is the string bundle the host receives from its ad server
// for one ad unit mapping (app id, placement id, ...).
type ServerParameters map[string]string

// GetString returns the value for key, or "" when absent.
func (p ServerParameters) GetString(key string) string {
	if p == nil {
		return ""
	}
	return p[key]
}

// Clone returns an independent copy.
func (p ServerParameters) Clone() ServerParameters {
	if p == nil {
		return ServerParameters{}
	}
	return maps.Clone(p)
}

// AdFormat identifies the kind of ad a configuration or request is for.
type AdFormat string

const (
	FormatBanner       AdFormat = "banner"
	FormatInterstitial AdFormat = "interstitial"
	FormatRewarded     AdFormat = "rewarded"
	FormatNative       AdFormat = "native"
)

// ParseAdFormat is case-insensitive; ok is false for unknown formats.
func ParseAdFormat(s string) (AdFormat, bool) {
	switch f := AdFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatBanner, FormatInterstitial, FormatRewarded, FormatNative:
		return f, true
	default:
		return "", false
	}
}

// MediationConfiguration is one (format, server parameters) pair handed to
// Adapter.Initialize.
type MediationConfiguration struct {
	Format           AdFormat
	ServerParameters ServerParameters
}

// AdSize in density independent pixels.
type AdSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

var (
	AdSizeBanner          = AdSize{Width: 320, Height: 50}
	AdSizeMediumRectangle = AdSize{Width: 300, Height: 250}
	AdSizeLeaderboard     = AdSize{Width: 728, Height: 90}
)

// MediationAdRequest carries publisher targeting for legacy requests.
type MediationAdRequest struct {
	TestMode bool
	Keywords []string
}

// AdConfiguration is shared by every load-API configuration.
type AdConfiguration struct {
	Context          *platform.DisplayContext
	ServerParameters ServerParameters
	MediationExtras  ServerParameters
	TestMode         bool
}

type BannerAdConfiguration struct {
	AdConfiguration
	AdSize AdSize
}

type InterstitialAdConfiguration struct {
	AdConfiguration
}

type RewardedAdConfiguration struct {
	AdConfiguration
}

type NativeAdConfiguration struct {
	AdConfiguration
}
