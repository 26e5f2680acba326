package mediation

// InitializationCompleteCallback is told once whether an adapter's network
// SDK finished initializing.
type InitializationCompleteCallback interface {
	OnInitializationSucceeded()
	OnInitializationFailed(message string)
}

// MediationAdLoadCallback is the load-API result callback. OnSuccess returns
// the host's per-ad event callback the adapter must use from then on.
type MediationAdLoadCallback[Ad any, Callback any] interface {
	OnSuccess(ad Ad) Callback
	OnFailure(err *AdError)
}

type (
	BannerAdLoadCallback       = MediationAdLoadCallback[MediationBannerAd, MediationBannerAdCallback]
	InterstitialAdLoadCallback = MediationAdLoadCallback[MediationInterstitialAd, MediationInterstitialAdCallback]
	RewardedAdLoadCallback     = MediationAdLoadCallback[MediationRewardedAd, MediationRewardedAdCallback]
	NativeAdLoadCallback       = MediationAdLoadCallback[MediationNativeAd, MediationNativeAdCallback]
)

// MediationAdCallback holds the events common to every loaded ad.
type MediationAdCallback interface {
	ReportAdImpression()
	ReportAdClicked()
	OnAdOpened()
	OnAdClosed()
}

type MediationBannerAdCallback interface {
	MediationAdCallback
	OnAdLeftApplication()
}

type MediationInterstitialAdCallback interface {
	MediationAdCallback
	OnAdFailedToShow(err *AdError)
	OnAdLeftApplication()
}

type MediationRewardedAdCallback interface {
	MediationAdCallback
	OnAdFailedToShow(err *AdError)
	OnVideoStart()
	OnVideoComplete()
	OnUserEarnedReward(reward RewardItem)
}

type MediationNativeAdCallback interface {
	MediationAdCallback
}

// RewardItem is what the user earns for watching a rewarded ad.
type RewardItem struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

// MediationBannerListener is the legacy banner callback.
type MediationBannerListener interface {
	OnAdLoaded(adapter BannerAdapter)
	OnAdFailedToLoad(adapter BannerAdapter, code ErrorCode)
	OnAdOpened(adapter BannerAdapter)
	OnAdClicked(adapter BannerAdapter)
	OnAdClosed(adapter BannerAdapter)
	OnAdLeftApplication(adapter BannerAdapter)
}

// MediationInterstitialListener is the legacy interstitial callback.
type MediationInterstitialListener interface {
	OnAdLoaded(adapter InterstitialAdapter)
	OnAdFailedToLoad(adapter InterstitialAdapter, code ErrorCode)
	OnAdOpened(adapter InterstitialAdapter)
	OnAdClicked(adapter InterstitialAdapter)
	OnAdClosed(adapter InterstitialAdapter)
	OnAdLeftApplication(adapter InterstitialAdapter)
}
