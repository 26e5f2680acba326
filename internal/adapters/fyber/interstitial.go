package fyber

import (
	"weak"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/fybersdk"
)

func (a *MediationAdapter) RequestInterstitialAd(dc *platform.DisplayContext, listener mediation.MediationInterstitialListener,
	params mediation.ServerParameters, req *mediation.MediationAdRequest, _ mediation.ServerParameters) {
	a.log.Debug("requestInterstitialAd called", "params", params)
	a.initializeFromParameters(dc, params)

	a.mu.Lock()
	a.interstitialContext = weak.Make(dc)
	a.mu.Unlock()

	spotID := params.GetString(KeySpotID)
	if spotID == "" {
		listener.OnAdFailedToLoad(a, mediation.ErrorCodeInvalidRequest)
		a.log.Warn("cannot render interstitial ad, no spot id configured")
		return
	}

	spot := a.sdk.CreateSpot()
	spot.SetMediationName(mediatorName)
	spot.AddUnitController(fybersdk.NewFullscreenUnitController())

	a.mu.Lock()
	previous := a.interstitialSpot
	a.interstitialListener = listener
	a.interstitialSpot = spot
	a.mu.Unlock()
	if previous != nil {
		previous.Destroy()
	}

	spot.SetRequestListener(&interstitialRequestListener{adapter: a, listener: listener})
	spot.RequestAd(newAdRequest(spotID, req))
}

// ShowInterstitial presents the loaded ad on the display context the request
// came with. Without a loaded ad or with that context gone it only logs.
func (a *MediationAdapter) ShowInterstitial() {
	a.mu.Lock()
	spot, ref := a.interstitialSpot, a.interstitialContext
	a.mu.Unlock()

	var controller *fybersdk.FullscreenUnitController
	if spot != nil {
		controller, _ = spot.SelectedUnitController().(*fybersdk.FullscreenUnitController)
	}
	if controller == nil {
		a.log.Warn("showInterstitial called, but spot is not ready for show")
		return
	}

	dc := ref.Value()
	if dc == nil {
		a.log.Warn("showInterstitial called, but context reference was lost")
		return
	}
	if err := controller.Show(dc); err != nil {
		a.log.Warn("showInterstitial failed", "err", err)
	}
}

type interstitialRequestListener struct {
	adapter  *MediationAdapter
	listener mediation.MediationInterstitialListener
}

func (l *interstitialRequestListener) OnSuccessfulAdRequest(spot *fybersdk.AdSpot) {
	if l.adapter.listenInterstitial(spot, l.listener) {
		l.listener.OnAdLoaded(l.adapter)
		return
	}
	l.listener.OnAdFailedToLoad(l.adapter, mediation.ErrorCodeInternalError)
}

func (l *interstitialRequestListener) OnFailedAdRequest(_ *fybersdk.AdSpot, code fybersdk.ErrorCode) {
	l.adapter.log.Debug("interstitial request failed", "code", code.String())
	l.listener.OnAdFailedToLoad(l.adapter, convertErrorCode(code))
}

func (a *MediationAdapter) listenInterstitial(spot *fybersdk.AdSpot, listener mediation.MediationInterstitialListener) bool {
	a.mu.Lock()
	current := a.interstitialSpot
	a.mu.Unlock()
	if current == nil || current != spot {
		return false
	}
	controller, ok := spot.SelectedUnitController().(*fybersdk.FullscreenUnitController)
	if !ok {
		return false
	}
	controller.SetEventsListener(&interstitialEventsListener{adapter: a, listener: listener})
	return true
}

type interstitialEventsListener struct {
	fybersdk.FullscreenAdEventListenerAdapter
	adapter  *MediationAdapter
	listener mediation.MediationInterstitialListener
}

func (l *interstitialEventsListener) OnAdImpression(*fybersdk.AdSpot) {
	l.listener.OnAdOpened(l.adapter)
}

func (l *interstitialEventsListener) OnAdClicked(*fybersdk.AdSpot) {
	l.listener.OnAdClicked(l.adapter)
}

func (l *interstitialEventsListener) OnAdDismissed(*fybersdk.AdSpot) {
	l.listener.OnAdClosed(l.adapter)
}

func (l *interstitialEventsListener) OnAdWillOpenExternalApp(*fybersdk.AdSpot) {
	l.listener.OnAdLeftApplication(l.adapter)
}
