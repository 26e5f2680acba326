// Package duad is the DU Ad Platform mediation adapter. It serves rewarded
// videos and interstitials through the load API.
package duad

import (
	"strconv"
	"sync"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/dusdk"
	"github.com/echoface/admediation/pkg/logger"
)

const (
	ClassName = "com.google.ads.mediation.duad.DuAdMediationAdapter"
	// RewardedClassName is the legacy class name publishers still configure
	// for rewarded video. It resolves to the same adapter.
	RewardedClassName = "com.google.ads.mediation.dap.DuRewardedAdAdapter"

	Name        = "DuAdMediationAdapter"
	ErrorDomain = "com.google.ads.mediation.duad"
	NetworkName = "du"

	KeyAppID       = "appId"
	KeyPlacementID = "placementId"

	AdapterVersion = dusdk.Version + ".0"

	errMissingAppID       = "Missing or Invalid App ID."
	errMissingPlacementID = "Missing or Invalid Placement ID."
)

func init() {
	factory := func(s *mediation.Services) mediation.Adapter {
		client := mediation.Singleton(s, NetworkName, func() *dusdk.Client {
			cfg := s.Network(NetworkName)
			return dusdk.New(dusdk.Options{
				Endpoint:   cfg.Endpoint,
				Timeout:    cfg.Timeout,
				HTTPClient: s.HTTPClient,
				Logger:     s.Logger,
			})
		})
		return New(client, s.Logger)
	}
	mediation.MustRegister(ClassName, factory)
	mediation.MustRegister(RewardedClassName, factory)
}

// MediationAdapter bridges the host to the DU SDK.
type MediationAdapter struct {
	client *dusdk.Client
	log    logger.Logger

	mu          sync.Mutex
	initialized bool
}

var _ mediation.Adapter = (*MediationAdapter)(nil)

func New(client *dusdk.Client, l logger.Logger) *MediationAdapter {
	return &MediationAdapter{
		client: client,
		log:    logger.Component(l, "adapter").With("adapter", Name),
	}
}

// Initialize registers the first app id and every placement id found in
// configs with the DU client.
func (a *MediationAdapter) Initialize(_ *platform.DisplayContext, callback mediation.InitializationCompleteCallback,
	configs []mediation.MediationConfiguration) {
	var appID string
	var placements []int
	for _, cfg := range configs {
		if appID == "" {
			appID = cfg.ServerParameters.GetString(KeyAppID)
		}
		if raw := cfg.ServerParameters.GetString(KeyPlacementID); raw != "" {
			id, err := parsePlacementID(raw)
			if err != nil {
				a.log.Warn("ignoring invalid placement id", "placement_id", raw)
				continue
			}
			placements = append(placements, id)
		}
	}

	if appID == "" {
		a.log.Warn("no app id received, cannot initialize DU Ad Platform")
		if callback != nil {
			callback.OnInitializationFailed(errMissingAppID)
		}
		return
	}

	if err := a.client.Init(appID, placements); err != nil {
		a.log.Warn("du initialization failed", "err", err)
		if callback != nil {
			callback.OnInitializationFailed("DU Ad Platform initialization failed: " + err.Error())
		}
		return
	}

	a.mu.Lock()
	a.initialized = true
	a.mu.Unlock()
	if callback != nil {
		callback.OnInitializationSucceeded()
	}
}

// initializeFromParameters covers hosts that load before calling Initialize.
func (a *MediationAdapter) initializeFromParameters(dc *platform.DisplayContext, format mediation.AdFormat,
	params mediation.ServerParameters) {
	a.mu.Lock()
	done := a.initialized
	a.mu.Unlock()
	if done {
		return
	}
	a.Initialize(dc, nil, []mediation.MediationConfiguration{{Format: format, ServerParameters: params}})
}

func parsePlacementID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}

// placementID validates the request's placement, reporting an invalid
// request through fail when it is absent or malformed.
func (a *MediationAdapter) placementID(params mediation.ServerParameters, fail func(*mediation.AdError)) (int, bool) {
	id, err := parsePlacementID(params.GetString(KeyPlacementID))
	if err != nil {
		a.log.Warn("invalid placement id", "placement_id", params.GetString(KeyPlacementID))
		fail(mediation.NewAdError(mediation.ErrorCodeInvalidRequest, errMissingPlacementID, ErrorDomain))
		return 0, false
	}
	return id, true
}

func (a *MediationAdapter) VersionInfo() (mediation.VersionInfo, error) {
	v, err := mediation.ParseAdapterVersion(AdapterVersion)
	if err != nil {
		a.log.Warn("unexpected adapter version format", "version", AdapterVersion, "err", err)
	}
	return v, err
}

func (a *MediationAdapter) SDKVersionInfo() (mediation.VersionInfo, error) {
	raw := a.client.Version()
	v, err := mediation.ParseSDKVersion(raw)
	if err != nil {
		a.log.Warn("unexpected sdk version format", "version", raw, "err", err)
	}
	return v, err
}

func (a *MediationAdapter) LoadBannerAd(_ *mediation.BannerAdConfiguration, callback mediation.BannerAdLoadCallback) {
	callback.OnFailure(mediation.UnsupportedFormatError(Name, "banner ads.", ErrorDomain))
}

func (a *MediationAdapter) LoadNativeAd(_ *mediation.NativeAdConfiguration, callback mediation.NativeAdLoadCallback) {
	callback.OnFailure(mediation.UnsupportedFormatError(Name, "native ads.", ErrorDomain))
}

func (a *MediationAdapter) LoadRewardedAd(cfg *mediation.RewardedAdConfiguration, callback mediation.RewardedAdLoadCallback) {
	a.initializeFromParameters(cfg.Context, mediation.FormatRewarded, cfg.ServerParameters)
	id, ok := a.placementID(cfg.ServerParameters, callback.OnFailure)
	if !ok {
		return
	}
	r := &rewardedAd{log: a.log.With("format", "rewarded"), loadCallback: callback}
	r.ad = a.client.NewRewardedVideoAd(id)
	r.ad.SetListener(r)
	r.ad.Load()
}

func (a *MediationAdapter) LoadInterstitialAd(cfg *mediation.InterstitialAdConfiguration,
	callback mediation.InterstitialAdLoadCallback) {
	a.initializeFromParameters(cfg.Context, mediation.FormatInterstitial, cfg.ServerParameters)
	id, ok := a.placementID(cfg.ServerParameters, callback.OnFailure)
	if !ok {
		return
	}
	i := &interstitialAd{log: a.log.With("format", "interstitial"), loadCallback: callback}
	i.ad = a.client.NewInterstitialAd(id)
	i.ad.SetListener(i)
	i.ad.Load()
}

// convertErrorCode maps DU error codes onto the host's error codes.
func convertErrorCode(code int) mediation.ErrorCode {
	switch code {
	case dusdk.CodeNetworkError, dusdk.CodeTimeOut:
		return mediation.ErrorCodeNetworkError
	case dusdk.CodeNoFill:
		return mediation.ErrorCodeNoFill
	default:
		return mediation.ErrorCodeInternalError
	}
}

func toAdError(err *dusdk.AdError) *mediation.AdError {
	return mediation.NewAdError(convertErrorCode(err.Code), err.Message, ErrorDomain)
}
