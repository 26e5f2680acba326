package fyber

import (
	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/fybersdk"
)

func (a *MediationAdapter) RequestBannerAd(dc *platform.DisplayContext, listener mediation.MediationBannerListener,
	params mediation.ServerParameters, size mediation.AdSize, req *mediation.MediationAdRequest,
	_ mediation.ServerParameters) {
	a.log.Debug("requestBannerAd called", "params", params, "size", size)
	a.initializeFromParameters(dc, params)

	spotID := params.GetString(KeySpotID)
	if spotID == "" {
		listener.OnAdFailedToLoad(a, mediation.ErrorCodeInvalidRequest)
		a.log.Warn("cannot render banner ad, no spot id configured")
		return
	}

	spot := a.sdk.CreateSpot()
	spot.SetMediationName(mediatorName)
	spot.AddUnitController(fybersdk.NewAdViewUnitController())

	a.mu.Lock()
	previous := a.bannerSpot
	a.bannerListener = listener
	a.bannerSpot = spot
	// the wrapper exists before the request so BannerView never returns nil
	a.bannerWrapper = platform.NewView()
	a.mu.Unlock()
	if previous != nil {
		previous.Destroy()
	}

	spot.SetRequestListener(&bannerRequestListener{adapter: a, listener: listener})
	spot.RequestAd(newAdRequest(spotID, req))
}

func (a *MediationAdapter) BannerView() *platform.View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bannerWrapper
}

type bannerRequestListener struct {
	adapter  *MediationAdapter
	listener mediation.MediationBannerListener
}

func (l *bannerRequestListener) OnSuccessfulAdRequest(spot *fybersdk.AdSpot) {
	if l.adapter.bindBanner(spot, l.listener) {
		l.listener.OnAdLoaded(l.adapter)
		return
	}
	l.listener.OnAdFailedToLoad(l.adapter, mediation.ErrorCodeInternalError)
}

func (l *bannerRequestListener) OnFailedAdRequest(_ *fybersdk.AdSpot, code fybersdk.ErrorCode) {
	l.adapter.log.Debug("banner request failed", "code", code.String())
	l.listener.OnAdFailedToLoad(l.adapter, convertErrorCode(code))
}

// bindBanner installs the events listener and binds the wrapper view once
// the spot loaded. It fails when the spot selected anything but an ad view
// controller.
func (a *MediationAdapter) bindBanner(spot *fybersdk.AdSpot, listener mediation.MediationBannerListener) bool {
	a.mu.Lock()
	current, wrapper := a.bannerSpot, a.bannerWrapper
	a.mu.Unlock()
	if current == nil || current != spot {
		return false
	}
	controller, ok := spot.SelectedUnitController().(*fybersdk.AdViewUnitController)
	if !ok {
		return false
	}

	controller.SetEventsListener(&bannerEventsListener{adapter: a, listener: listener})
	if err := controller.BindView(wrapper); err != nil {
		a.log.Warn("binding banner view failed", "err", err)
		return false
	}
	return true
}

type bannerEventsListener struct {
	adapter  *MediationAdapter
	listener mediation.MediationBannerListener
}

func (l *bannerEventsListener) OnAdImpression(*fybersdk.AdSpot) {
	l.listener.OnAdOpened(l.adapter)
}

func (l *bannerEventsListener) OnAdClicked(*fybersdk.AdSpot) {
	l.listener.OnAdClicked(l.adapter)
}

func (l *bannerEventsListener) OnAdWillCloseInternalBrowser(*fybersdk.AdSpot) {
	l.listener.OnAdClosed(l.adapter)
}

func (l *bannerEventsListener) OnAdWillOpenExternalApp(*fybersdk.AdSpot) {
	l.listener.OnAdLeftApplication(l.adapter)
}
