package fyber

import (
	"sync"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/fybersdk"
	"github.com/echoface/admediation/pkg/logger"
)

// defaultReward is granted when the served ad carries no reward of its own.
var defaultReward = mediation.RewardItem{Type: "", Amount: 1}

// rewardedRenderer loads one rewarded video and relays its events.
type rewardedRenderer struct {
	fybersdk.FullscreenAdEventListenerAdapter

	sdk          *fybersdk.SDK
	log          logger.Logger
	cfg          *mediation.RewardedAdConfiguration
	loadCallback mediation.RewardedAdLoadCallback

	mu       sync.Mutex
	spot     *fybersdk.AdSpot
	callback mediation.MediationRewardedAdCallback
}

var (
	_ mediation.MediationRewardedAd = (*rewardedRenderer)(nil)
	_ mediation.Destroyer           = (*rewardedRenderer)(nil)
)

func newRewardedRenderer(sdk *fybersdk.SDK, l logger.Logger, cfg *mediation.RewardedAdConfiguration,
	callback mediation.RewardedAdLoadCallback) *rewardedRenderer {
	return &rewardedRenderer{sdk: sdk, log: l.With("format", "rewarded"), cfg: cfg, loadCallback: callback}
}

func (r *rewardedRenderer) render() {
	spotID := r.cfg.ServerParameters.GetString(KeySpotID)
	if spotID == "" {
		r.log.Warn("cannot render rewarded ad, no spot id configured")
		r.loadCallback.OnFailure(mediation.NewAdError(mediation.ErrorCodeInvalidRequest,
			"Fyber rewarded ad requires a spotId to be configured on the AdMob console", ErrorDomain))
		return
	}

	spot := r.sdk.CreateSpot()
	spot.SetMediationName(mediatorName)
	spot.AddUnitController(fybersdk.NewFullscreenUnitController())
	spot.SetRequestListener(r)

	r.mu.Lock()
	r.spot = spot
	r.mu.Unlock()

	req := fybersdk.NewAdRequest(spotID)
	req.TestMode = r.cfg.TestMode
	spot.RequestAd(req)
}

func (r *rewardedRenderer) OnSuccessfulAdRequest(spot *fybersdk.AdSpot) {
	controller, ok := spot.SelectedUnitController().(*fybersdk.FullscreenUnitController)
	if !ok {
		r.loadCallback.OnFailure(mediation.NewAdError(mediation.ErrorCodeInternalError,
			"Fyber selected an unexpected controller for a rewarded ad", ErrorDomain))
		return
	}
	controller.SetEventsListener(r)
	controller.SetVideoContentListener(r)

	// held across OnSuccess: the host may show as soon as it returns
	r.mu.Lock()
	r.callback = r.loadCallback.OnSuccess(r)
	r.mu.Unlock()
}

func (r *rewardedRenderer) OnFailedAdRequest(_ *fybersdk.AdSpot, code fybersdk.ErrorCode) {
	r.loadCallback.OnFailure(mediation.NewAdError(convertErrorCode(code),
		"Fyber failed to load rewarded ad: "+code.String(), ErrorDomain))
}

// ShowAd presents the video or reports why it could not be shown.
func (r *rewardedRenderer) ShowAd(dc *platform.DisplayContext) {
	r.mu.Lock()
	spot, cb := r.spot, r.callback
	r.mu.Unlock()

	var controller *fybersdk.FullscreenUnitController
	if spot != nil {
		controller, _ = spot.SelectedUnitController().(*fybersdk.FullscreenUnitController)
	}
	if controller == nil || !controller.IsAvailable() {
		if cb != nil {
			cb.OnAdFailedToShow(mediation.NewAdError(mediation.ErrorCodeInternalError,
				"Fyber rewarded ad is not ready to be shown", ErrorDomain))
		}
		return
	}
	if err := controller.Show(dc); err != nil {
		r.log.Warn("showing rewarded ad failed", "err", err)
		if cb != nil {
			cb.OnAdFailedToShow(mediation.NewAdError(mediation.ErrorCodeInternalError, err.Error(), ErrorDomain))
		}
	}
}

// Destroy releases the spot; no event is relayed afterwards.
func (r *rewardedRenderer) Destroy() {
	r.mu.Lock()
	spot := r.spot
	r.spot = nil
	r.mu.Unlock()
	if spot != nil {
		spot.Destroy()
	}
}

func (r *rewardedRenderer) adCallback() mediation.MediationRewardedAdCallback {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callback
}

func (r *rewardedRenderer) OnAdImpression(*fybersdk.AdSpot) {
	if cb := r.adCallback(); cb != nil {
		cb.OnAdOpened()
		cb.OnVideoStart()
		cb.ReportAdImpression()
	}
}

func (r *rewardedRenderer) OnAdClicked(*fybersdk.AdSpot) {
	if cb := r.adCallback(); cb != nil {
		cb.ReportAdClicked()
	}
}

func (r *rewardedRenderer) OnAdDismissed(*fybersdk.AdSpot) {
	if cb := r.adCallback(); cb != nil {
		cb.OnAdClosed()
	}
}

// OnCompleted implements fybersdk.VideoContentListener.
func (r *rewardedRenderer) OnCompleted(spot *fybersdk.AdSpot) {
	cb := r.adCallback()
	if cb == nil {
		return
	}
	reward := defaultReward
	if ad := spot.Ad(); ad != nil && ad.Reward != nil {
		reward = mediation.RewardItem{Type: ad.Reward.Type, Amount: ad.Reward.Amount}
	}
	cb.OnVideoComplete()
	cb.OnUserEarnedReward(reward)
}
