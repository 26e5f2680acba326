// Package fyber is the Fyber Marketplace mediation adapter. Banners and
// interstitials use the legacy request API, rewarded ads the load API.
package fyber

import (
	"sync"
	"weak"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/fybersdk"
	"github.com/echoface/admediation/pkg/logger"
)

const (
	// ClassName is the name the host loads this adapter by.
	ClassName = "com.google.ads.mediation.fyber.FyberMediationAdapter"

	// Name is used in logs and unsupported format messages.
	Name = "FyberMediationAdapter"

	// ErrorDomain tags AdErrors created by this adapter.
	ErrorDomain = "com.google.ads.mediation.fyber"

	// KeyAppID is required to initialize the Marketplace SDK.
	KeyAppID = "applicationId"
	// KeySpotID names the placement of an ad request.
	KeySpotID = "spotId"

	// NetworkName selects the SDK endpoint in host config.
	NetworkName = "fyber"

	// AdapterVersion is "<sdk version>.<adapter patch>".
	AdapterVersion = fybersdk.Version + ".0"

	mediatorName = fybersdk.MediationAdMob

	errMissingAppID = "Fyber SDK requires an appId to be configured on the AdMob console"
	errInitFailed   = "Fyber SDK initialization failed"
)

func init() {
	mediation.MustRegister(ClassName, func(s *mediation.Services) mediation.Adapter {
		sdk := mediation.Singleton(s, NetworkName, func() *fybersdk.SDK {
			cfg := s.Network(NetworkName)
			return fybersdk.New(fybersdk.Options{
				Endpoint:   cfg.Endpoint,
				Timeout:    cfg.Timeout,
				HTTPClient: s.HTTPClient,
				Logger:     s.Logger,
			})
		})
		return New(sdk, s.Logger)
	})
}

// MediationAdapter bridges the host to the Fyber Marketplace SDK.
type MediationAdapter struct {
	sdk *fybersdk.SDK
	log logger.Logger

	mu sync.Mutex
	// initializeCalled guards initialization so it runs at most once per
	// adapter instance, whether the host or a request triggered it.
	initializeCalled bool

	bannerListener mediation.MediationBannerListener
	bannerSpot     *fybersdk.AdSpot
	bannerWrapper  *platform.View

	interstitialListener mediation.MediationInterstitialListener
	interstitialContext  weak.Pointer[platform.DisplayContext]
	interstitialSpot     *fybersdk.AdSpot
}

var (
	_ mediation.Adapter             = (*MediationAdapter)(nil)
	_ mediation.BannerAdapter       = (*MediationAdapter)(nil)
	_ mediation.InterstitialAdapter = (*MediationAdapter)(nil)
)

func New(sdk *fybersdk.SDK, l logger.Logger) *MediationAdapter {
	return &MediationAdapter{
		sdk: sdk,
		log: logger.Component(l, "adapter").With("adapter", Name),
	}
}

// Initialize starts the Marketplace SDK with the first app id found in
// configs. The outcome reaches callback once, via a configuration listener
// that unregisters itself after firing.
func (a *MediationAdapter) Initialize(_ *platform.DisplayContext, callback mediation.InitializationCompleteCallback,
	configs []mediation.MediationConfiguration) {
	a.log.Debug("initialize called", "configurations", len(configs))

	var appID string
	for _, cfg := range configs {
		if appID = cfg.ServerParameters.GetString(KeyAppID); appID != "" {
			break
		}
	}

	if appID == "" {
		if callback != nil {
			callback.OnInitializationFailed(errMissingAppID)
		}
		a.log.Warn("no app id received, cannot initialize Fyber Marketplace")
		return
	}

	a.mu.Lock()
	a.initializeCalled = true
	a.mu.Unlock()

	// register before initializing so a fast configuration fetch is not missed
	a.sdk.AddConfigListener(&initListener{callback: callback, log: a.log})
	a.sdk.Initialize(appID)
}

type initListener struct {
	callback mediation.InitializationCompleteCallback
	log      logger.Logger
}

// OnConfigurationReadyAndValid may be called more than once by the SDK; the
// listener removes itself on the first call.
func (l *initListener) OnConfigurationReadyAndValid(sdk *fybersdk.SDK, success bool, err error) {
	sdk.RemoveConfigListener(l)
	if l.callback == nil {
		return
	}
	if success {
		l.callback.OnInitializationSucceeded()
		return
	}
	l.log.Debug("reporting initialization failed", "err", err)
	l.callback.OnInitializationFailed(errInitFailed)
}

// initializeFromParameters initializes the SDK from a request's own server
// parameters when the host never called Initialize on this adapter.
func (a *MediationAdapter) initializeFromParameters(dc *platform.DisplayContext, params mediation.ServerParameters) {
	a.mu.Lock()
	called := a.initializeCalled
	a.mu.Unlock()
	if called {
		return
	}
	a.Initialize(dc, nil, []mediation.MediationConfiguration{
		{Format: mediation.FormatBanner, ServerParameters: params},
	})
}

func (a *MediationAdapter) VersionInfo() (mediation.VersionInfo, error) {
	v, err := mediation.ParseAdapterVersion(AdapterVersion)
	if err != nil {
		a.log.Warn("unexpected adapter version format", "version", AdapterVersion, "err", err)
	}
	return v, err
}

func (a *MediationAdapter) SDKVersionInfo() (mediation.VersionInfo, error) {
	raw := a.sdk.Version()
	v, err := mediation.ParseSDKVersion(raw)
	if err != nil {
		a.log.Warn("unexpected sdk version format", "version", raw, "err", err)
	}
	return v, err
}

// LoadBannerAd is not supported, use RequestBannerAd.
func (a *MediationAdapter) LoadBannerAd(_ *mediation.BannerAdConfiguration, callback mediation.BannerAdLoadCallback) {
	callback.OnFailure(mediation.UnsupportedFormatError(Name, "MediationBannerAd", ErrorDomain))
}

// LoadInterstitialAd is not supported, use RequestInterstitialAd.
func (a *MediationAdapter) LoadInterstitialAd(_ *mediation.InterstitialAdConfiguration,
	callback mediation.InterstitialAdLoadCallback) {
	callback.OnFailure(mediation.UnsupportedFormatError(Name, "MediationInterstitialAd", ErrorDomain))
}

// LoadRewardedAd renders a rewarded video through its own spot.
func (a *MediationAdapter) LoadRewardedAd(cfg *mediation.RewardedAdConfiguration, callback mediation.RewardedAdLoadCallback) {
	a.initializeFromParameters(cfg.Context, cfg.ServerParameters)
	newRewardedRenderer(a.sdk, a.log, cfg, callback).render()
}

func (a *MediationAdapter) LoadNativeAd(_ *mediation.NativeAdConfiguration, callback mediation.NativeAdLoadCallback) {
	a.log.Debug("loadNativeAd called")
	callback.OnFailure(mediation.UnsupportedFormatError(Name, "native ads.", ErrorDomain))
}

// OnDestroy releases the banner and interstitial spots.
func (a *MediationAdapter) OnDestroy() {
	a.mu.Lock()
	banner, interstitial := a.bannerSpot, a.interstitialSpot
	a.bannerSpot, a.interstitialSpot = nil, nil
	a.mu.Unlock()

	if banner != nil {
		banner.Destroy()
	}
	if interstitial != nil {
		interstitial.Destroy()
	}
}

// OnPause has nothing to do, banner refresh is disabled.
func (a *MediationAdapter) OnPause() {}

// OnResume has nothing to do, banner refresh is disabled.
func (a *MediationAdapter) OnResume() {}

func newAdRequest(spotID string, req *mediation.MediationAdRequest) *fybersdk.AdRequest {
	r := fybersdk.NewAdRequest(spotID)
	if req != nil {
		r.Keywords = req.Keywords
		r.TestMode = req.TestMode
	}
	return r
}
