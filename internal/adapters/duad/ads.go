package duad

import (
	"sync"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/dusdk"
	"github.com/echoface/admediation/pkg/logger"
)

const errNotReady = "DU ad is not ready to be shown"

type rewardedAd struct {
	log          logger.Logger
	loadCallback mediation.RewardedAdLoadCallback
	ad           *dusdk.RewardedVideoAd

	mu       sync.Mutex
	callback mediation.MediationRewardedAdCallback
}

var (
	_ mediation.MediationRewardedAd = (*rewardedAd)(nil)
	_ mediation.Destroyer           = (*rewardedAd)(nil)
)

func (r *rewardedAd) adCallback() mediation.MediationRewardedAdCallback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callback
}

func (r *rewardedAd) ShowAd(dc *platform.DisplayContext) {
	cb := r.adCallback()
	if !r.ad.IsReady() {
		if cb != nil {
			cb.OnAdFailedToShow(mediation.NewAdError(mediation.ErrorCodeInternalError, errNotReady, ErrorDomain))
		}
		return
	}
	if err := r.ad.Show(dc); err != nil {
		r.log.Warn("showing rewarded video failed", "err", err)
		if cb != nil {
			cb.OnAdFailedToShow(mediation.NewAdError(mediation.ErrorCodeInternalError, err.Error(), ErrorDomain))
		}
	}
}

func (r *rewardedAd) Destroy() { r.ad.Destroy() }

func (r *rewardedAd) OnAdLoaded(*dusdk.RewardedVideoAd) {
	// held across OnSuccess: the host may show as soon as it returns
	r.mu.Lock()
	r.callback = r.loadCallback.OnSuccess(r)
	r.mu.Unlock()
}

func (r *rewardedAd) OnAdError(_ *dusdk.RewardedVideoAd, err *dusdk.AdError) {
	r.log.Debug("rewarded video failed to load", "code", err.Code)
	r.loadCallback.OnFailure(toAdError(err))
}

func (r *rewardedAd) OnAdStart(*dusdk.RewardedVideoAd) {
	if cb := r.adCallback(); cb != nil {
		cb.OnAdOpened()
		cb.OnVideoStart()
		cb.ReportAdImpression()
	}
}

func (r *rewardedAd) OnAdClick(*dusdk.RewardedVideoAd) {
	if cb := r.adCallback(); cb != nil {
		cb.ReportAdClicked()
	}
}

func (r *rewardedAd) OnVideoCompleted(ad *dusdk.RewardedVideoAd) {
	cb := r.adCallback()
	if cb == nil {
		return
	}
	kind, amount := ad.Reward()
	if amount <= 0 {
		amount = 1
	}
	cb.OnVideoComplete()
	cb.OnUserEarnedReward(mediation.RewardItem{Type: kind, Amount: amount})
}

func (r *rewardedAd) OnAdEnd(_ *dusdk.RewardedVideoAd, result dusdk.AdResult) {
	r.log.Debug("rewarded video ended", "completed", result.Completed, "clicked", result.Clicked)
	if cb := r.adCallback(); cb != nil {
		cb.OnAdClosed()
	}
}

type interstitialAd struct {
	log          logger.Logger
	loadCallback mediation.InterstitialAdLoadCallback
	ad           *dusdk.InterstitialAd

	mu       sync.Mutex
	callback mediation.MediationInterstitialAdCallback
}

var (
	_ mediation.MediationInterstitialAd = (*interstitialAd)(nil)
	_ mediation.Destroyer               = (*interstitialAd)(nil)
)

func (i *interstitialAd) adCallback() mediation.MediationInterstitialAdCallback {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.callback
}

func (i *interstitialAd) ShowAd(dc *platform.DisplayContext) {
	cb := i.adCallback()
	if !i.ad.IsReady() {
		if cb != nil {
			cb.OnAdFailedToShow(mediation.NewAdError(mediation.ErrorCodeInternalError, errNotReady, ErrorDomain))
		}
		return
	}
	if err := i.ad.Show(dc); err != nil {
		i.log.Warn("showing interstitial failed", "err", err)
		if cb != nil {
			cb.OnAdFailedToShow(mediation.NewAdError(mediation.ErrorCodeInternalError, err.Error(), ErrorDomain))
		}
	}
}

func (i *interstitialAd) Destroy() { i.ad.Destroy() }

func (i *interstitialAd) OnAdReceive(*dusdk.InterstitialAd) {
	// held across OnSuccess: the host may show as soon as it returns
	i.mu.Lock()
	i.callback = i.loadCallback.OnSuccess(i)
	i.mu.Unlock()
}

func (i *interstitialAd) OnAdFail(_ *dusdk.InterstitialAd, err *dusdk.AdError) {
	i.log.Debug("interstitial failed to load", "code", err.Code)
	i.loadCallback.OnFailure(toAdError(err))
}

func (i *interstitialAd) OnAdPresent(*dusdk.InterstitialAd) {
	if cb := i.adCallback(); cb != nil {
		cb.OnAdOpened()
		cb.ReportAdImpression()
	}
}

func (i *interstitialAd) OnAdClicked(*dusdk.InterstitialAd) {
	if cb := i.adCallback(); cb != nil {
		cb.ReportAdClicked()
		cb.OnAdLeftApplication()
	}
}

func (i *interstitialAd) OnAdDismissed(*dusdk.InterstitialAd) {
	if cb := i.adCallback(); cb != nil {
		cb.OnAdClosed()
	}
}
