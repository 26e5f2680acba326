package duad

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/mediation/mediationtest"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/dusdk"
	"github.com/echoface/admediation/internal/sdk/dusdk/dutest"
	"github.com/echoface/admediation/pkg/logger"
)

const waitFor = 2 * time.Second

func newAdapter(t *testing.T) (*MediationAdapter, *dutest.Server) {
	t.Helper()
	srv := dutest.NewServer(t)
	client := dusdk.New(dusdk.Options{Endpoint: srv.URL, Timeout: time.Second})
	return New(client, logger.NewNop()), srv
}

func rewardedConfig(p mediation.ServerParameters) *mediation.RewardedAdConfiguration {
	return &mediation.RewardedAdConfiguration{AdConfiguration: mediation.AdConfiguration{ServerParameters: p}}
}

func wait(t *testing.T, rec *mediationtest.Recorder, name string) mediationtest.Event {
	t.Helper()
	e, err := rec.Wait(name, waitFor)
	require.NoError(t, err)
	return e
}

func TestBothClassNamesRegistered(t *testing.T) {
	reg := mediation.DefaultRegistry()
	require.True(t, reg.Has(ClassName))
	require.True(t, reg.Has(RewardedClassName))

	s := mediation.NewServices(logger.NewNop(), nil, nil)
	a, err := reg.New(RewardedClassName, s)
	require.NoError(t, err)
	b, err := reg.New(ClassName, s)
	require.NoError(t, err)
	assert.IsType(t, &MediationAdapter{}, a)
	assert.Same(t, a.(*MediationAdapter).client, b.(*MediationAdapter).client)
}

func TestInitialize(t *testing.T) {
	a, _ := newAdapter(t)
	rec := mediationtest.NewRecorder()
	a.Initialize(nil, rec.Init(), []mediation.MediationConfiguration{
		{Format: mediation.FormatRewarded, ServerParameters: mediation.ServerParameters{KeyPlacementID: "11"}},
		{Format: mediation.FormatInterstitial, ServerParameters: mediation.ServerParameters{KeyAppID: "du-app", KeyPlacementID: "12"}},
		{Format: mediation.FormatRewarded, ServerParameters: mediation.ServerParameters{KeyAppID: "ignored", KeyPlacementID: "bad"}},
	})
	assert.Equal(t, []string{"init_succeeded"}, rec.Names())
	assert.Equal(t, "du-app", a.client.AppID())
	assert.Equal(t, []int{11, 12}, a.client.Placements())

	b, _ := newAdapter(t)
	rec = mediationtest.NewRecorder()
	b.Initialize(nil, rec.Init(), []mediation.MediationConfiguration{
		{ServerParameters: mediation.ServerParameters{KeyPlacementID: "11"}},
	})
	require.Len(t, rec.Events(), 1)
	assert.Equal(t, errMissingAppID, rec.Events()[0].Message)

	b.Initialize(nil, nil, nil)
	assert.False(t, b.client.IsInitialized())
}

func TestConvertErrorCode(t *testing.T) {
	assert.Equal(t, mediation.ErrorCodeNetworkError, convertErrorCode(dusdk.CodeNetworkError))
	assert.Equal(t, mediation.ErrorCodeNetworkError, convertErrorCode(dusdk.CodeTimeOut))
	assert.Equal(t, mediation.ErrorCodeNoFill, convertErrorCode(dusdk.CodeNoFill))
	for _, code := range []int{dusdk.CodeLoadTooFrequently, dusdk.CodeImpressionLimit, dusdk.CodeServerError,
		dusdk.CodeInternalError, dusdk.CodeUnknownError, 42} {
		assert.Equal(t, mediation.ErrorCodeInternalError, convertErrorCode(code), code)
	}
}

func TestVersions(t *testing.T) {
	a, _ := newAdapter(t)
	v, err := a.VersionInfo()
	require.NoError(t, err)
	assert.Equal(t, mediation.VersionInfo{Major: 1, Minor: 2, Micro: 200}, v)
	sv, err := a.SDKVersionInfo()
	require.NoError(t, err)
	assert.Equal(t, mediation.VersionInfo{Major: 1, Minor: 2, Micro: 2}, sv)
}

func TestUnsupportedFormats(t *testing.T) {
	a, _ := newAdapter(t)
	rec := mediationtest.NewRecorder()
	a.LoadBannerAd(&mediation.BannerAdConfiguration{}, rec.BannerLoad())
	a.LoadNativeAd(&mediation.NativeAdConfiguration{}, rec.NativeLoad())
	events := rec.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "DuAdMediationAdapter does not support banner ads.", events[0].Message)
	assert.Equal(t, mediation.ErrorCodeInvalidRequest, events[1].Code)
}

func TestRewarded(t *testing.T) {
	t.Run("invalid placement", func(t *testing.T) {
		for _, raw := range []string{"", "abc", "-3"} {
			a, srv := newAdapter(t)
			rec := mediationtest.NewRecorder()
			a.LoadRewardedAd(rewardedConfig(mediation.ServerParameters{KeyAppID: "app", KeyPlacementID: raw}), rec.Rewarded())
			e := wait(t, rec, "failed_to_load")
			assert.Equal(t, mediation.ErrorCodeInvalidRequest, e.Code)
			assert.Equal(t, errMissingPlacementID, e.Message)
			assert.Empty(t, srv.Placements())
		}
	})

	t.Run("no fill", func(t *testing.T) {
		a, srv := newAdapter(t)
		srv.SetCode(dusdk.CodeNoFill)
		rec := mediationtest.NewRecorder()
		a.LoadRewardedAd(rewardedConfig(mediation.ServerParameters{KeyAppID: "app", KeyPlacementID: "5"}), rec.Rewarded())
		assert.Equal(t, mediation.ErrorCodeNoFill, wait(t, rec, "failed_to_load").Code)
		assert.Equal(t, []int{5}, srv.Placements())
	})

	t.Run("lazy init and playback", func(t *testing.T) {
		a, _ := newAdapter(t)
		rec := mediationtest.NewRecorder()
		a.LoadRewardedAd(rewardedConfig(mediation.ServerParameters{KeyAppID: "app", KeyPlacementID: "5"}), rec.Rewarded())
		wait(t, rec, "loaded")
		assert.Equal(t, "app", a.client.AppID())

		ad := rec.LoadedAd().(mediation.MediationRewardedAd)
		dc := platform.NewDisplayContext("main")
		ad.ShowAd(dc)
		dc.Dispatch(platform.InteractionClick)
		dc.Dispatch(platform.InteractionVideoComplete)
		dc.Dispatch(platform.InteractionDismiss)

		assert.Equal(t, []string{
			"loaded", "opened", "video_start", "impression", "clicked", "video_complete", "reward", "closed",
		}, rec.Names())
		assert.Equal(t, mediation.RewardItem{Type: "gems", Amount: 3}, wait(t, rec, "reward").Reward)

		ad.ShowAd(dc)
		assert.Equal(t, "failed_to_show", rec.Events()[len(rec.Events())-1].Name)
		ad.(mediation.Destroyer).Destroy()
	})
}

func TestInterstitial(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		a, srv := newAdapter(t)
		srv.SetStatus(http.StatusBadGateway)
		rec := mediationtest.NewRecorder()
		a.LoadInterstitialAd(&mediation.InterstitialAdConfiguration{
			AdConfiguration: mediation.AdConfiguration{ServerParameters: mediation.ServerParameters{KeyAppID: "app", KeyPlacementID: "8"}},
		}, rec.InterstitialLoad())
		assert.Equal(t, mediation.ErrorCodeInternalError, wait(t, rec, "failed_to_load").Code)
	})

	t.Run("show", func(t *testing.T) {
		a, _ := newAdapter(t)
		rec := mediationtest.NewRecorder()
		a.LoadInterstitialAd(&mediation.InterstitialAdConfiguration{
			AdConfiguration: mediation.AdConfiguration{ServerParameters: mediation.ServerParameters{KeyAppID: "app", KeyPlacementID: "8"}},
		}, rec.InterstitialLoad())
		wait(t, rec, "loaded")

		ad := rec.LoadedAd().(mediation.MediationInterstitialAd)
		dc := platform.NewDisplayContext("main")
		dc.Destroy()
		ad.ShowAd(dc)
		assert.Equal(t, "failed_to_show", rec.Events()[len(rec.Events())-1].Name)

		dc = platform.NewDisplayContext("main")
		ad.ShowAd(dc)
		dc.Dispatch(platform.InteractionClick)
		dc.Dispatch(platform.InteractionDismiss)
		assert.Equal(t, []string{
			"loaded", "failed_to_show", "opened", "impression", "clicked", "left_application", "closed",
		}, rec.Names())
	})
}
