package mediation

import (
	"fmt"

	"github.com/echoface/admediation/internal/platform"
)

type (
	// Adapter is the entry point every mediation adapter implements.
	Adapter interface {
		// Initialize starts the network SDK. The callback may be nil.
		Initialize(dc *platform.DisplayContext, callback InitializationCompleteCallback, configs []MediationConfiguration)

		VersionInfo() (VersionInfo, error)
		SDKVersionInfo() (VersionInfo, error)

		LoadBannerAd(cfg *BannerAdConfiguration, callback BannerAdLoadCallback)
		LoadInterstitialAd(cfg *InterstitialAdConfiguration, callback InterstitialAdLoadCallback)
		LoadRewardedAd(cfg *RewardedAdConfiguration, callback RewardedAdLoadCallback)
		LoadNativeAd(cfg *NativeAdConfiguration, callback NativeAdLoadCallback)
	}

	// Lifecycle is forwarded from the host's display surface to legacy adapters.
	Lifecycle interface {
		OnDestroy()
		OnPause()
		OnResume()
	}

	// BannerAdapter is the legacy banner API.
	BannerAdapter interface {
		Lifecycle
		RequestBannerAd(dc *platform.DisplayContext, listener MediationBannerListener, serverParameters ServerParameters,
			size AdSize, request *MediationAdRequest, extras ServerParameters)
		BannerView() *platform.View
	}

	// InterstitialAdapter is the legacy interstitial API.
	InterstitialAdapter interface {
		Lifecycle
		RequestInterstitialAd(dc *platform.DisplayContext, listener MediationInterstitialListener,
			serverParameters ServerParameters, request *MediationAdRequest, extras ServerParameters)
		ShowInterstitial()
	}

	MediationBannerAd interface {
		View() *platform.View
	}

	MediationInterstitialAd interface {
		ShowAd(dc *platform.DisplayContext)
	}

	MediationRewardedAd interface {
		ShowAd(dc *platform.DisplayContext)
	}

	MediationNativeAd interface {
		Headline() string
	}

	// Destroyer is implemented by loaded ads that hold network resources the
	// host must release when it drops the ad.
	Destroyer interface {
		Destroy()
	}
)

// UnsupportedFormatError builds the failure an adapter reports for a load API
// it does not implement.
func UnsupportedFormatError(adapterName, what, domain string) *AdError {
	return NewAdError(ErrorCodeInvalidRequest, fmt.Sprintf("%s does not support %s", adapterName, what), domain)
}
