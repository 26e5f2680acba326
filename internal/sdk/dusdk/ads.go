package dusdk

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/internal/sdk/sdkhttp"
)

// InterstitialListener receives interstitial events on SDK goroutines, or on
// the caller's goroutine for events triggered by Show and interactions.
type InterstitialListener interface {
	OnAdReceive(ad *InterstitialAd)
	OnAdFail(ad *InterstitialAd, err *AdError)
	OnAdPresent(ad *InterstitialAd)
	OnAdClicked(ad *InterstitialAd)
	OnAdDismissed(ad *InterstitialAd)
}

// AdResult summarizes a finished rewarded video playback.
type AdResult struct {
	Completed bool
	Clicked   bool
}

// RewardedVideoListener receives rewarded video events.
type RewardedVideoListener interface {
	OnAdLoaded(ad *RewardedVideoAd)
	OnAdError(ad *RewardedVideoAd, err *AdError)
	OnAdStart(ad *RewardedVideoAd)
	OnAdClick(ad *RewardedVideoAd)
	OnVideoCompleted(ad *RewardedVideoAd)
	OnAdEnd(ad *RewardedVideoAd, result AdResult)
}

// fullscreenAd is the load and presentation state shared by interstitials and
// rewarded videos.
type fullscreenAd struct {
	client      *Client
	placementID int
	format      string
	ctx         context.Context
	cancel      context.CancelFunc

	mu        sync.Mutex
	loading   bool
	creative  *Creative
	shown     bool
	clicked   bool
	completed bool
	destroyed bool
}

func newFullscreenAd(c *Client, placementID int, format string) fullscreenAd {
	ctx, cancel := context.WithCancel(context.Background())
	return fullscreenAd{client: c, placementID: placementID, format: format, ctx: ctx, cancel: cancel}
}

// begin marks a load as started. A non nil AdError means the load must fail
// right away; errDestroyed means it must be dropped silently.
func (a *fullscreenAd) begin() (*AdError, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case a.destroyed:
		return nil, ErrDestroyed
	case a.loading:
		return LoadTooFrequently, nil
	case !a.client.IsInitialized():
		return &AdError{Code: CodeInternalError, Message: ErrNotInitialized.Error()}, nil
	}
	if !a.client.hasPlacement(a.placementID) {
		a.client.log.Warn("placement not registered at init", "placement_id", a.placementID)
	}
	a.loading = true
	a.creative = nil
	a.shown, a.clicked, a.completed = false, false, false
	return nil, nil
}

// fetch runs one ad request. It returns ok=false when the ad was destroyed
// meanwhile and no listener may be called.
func (a *fullscreenAd) fetch() (adErr *AdError, ok bool) {
	req := adsRequest{
		RequestID:   sdkhttp.NewRequestID(),
		AppID:       a.client.AppID(),
		PlacementID: a.placementID,
		Format:      a.format,
		SDKVersion:  Version,
	}
	var resp adsResponse
	status, err := a.client.http.PostJSON(a.ctx, "/v1/ads", req, &resp)

	var creative *Creative
	switch {
	case err != nil:
		var de *sdkhttp.DecodeError
		switch {
		case errors.As(err, &de):
			adErr = errorFor(CodeServerError, "malformed response")
		case sdkhttp.IsTimeout(err):
			adErr = TimeOutError
		default:
			adErr = NetworkError
		}
	case status == http.StatusTooManyRequests:
		adErr = LoadTooFrequently
	case status >= 500:
		adErr = ServerError
	case status != http.StatusOK:
		adErr = errorFor(CodeUnknownError, http.StatusText(status))
	case resp.Code != 0:
		adErr = errorFor(resp.Code, resp.Message)
	case resp.Ad == nil || resp.Ad.Markup == "":
		adErr = NoFillError
	default:
		creative = resp.Ad
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.loading = false
	if a.destroyed {
		return nil, false
	}
	a.creative = creative
	if adErr != nil {
		a.client.log.Info("ad load failed", "placement_id", a.placementID, "code", adErr.Code, "err", err)
	}
	return adErr, true
}

func (a *fullscreenAd) IsReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return !a.destroyed && !a.shown && a.creative != nil
}

func (a *fullscreenAd) PlacementID() int { return a.placementID }

// present shows the creative on dc using h for interactions.
func (a *fullscreenAd) present(dc *platform.DisplayContext, h platform.InteractionHandler) error {
	if dc == nil {
		return errors.New("du: nil display context")
	}
	a.mu.Lock()
	switch {
	case a.destroyed:
		a.mu.Unlock()
		return ErrDestroyed
	case a.creative == nil || a.shown:
		a.mu.Unlock()
		return ErrNotReady
	}
	creative := a.creative
	// claimed before presenting so a concurrent Show cannot present twice
	a.shown = true
	a.mu.Unlock()

	if err := dc.Present(creative.Markup, h); err != nil {
		a.mu.Lock()
		a.shown = false
		a.mu.Unlock()
		return err
	}
	a.client.http.FireBeacons(creative.ImpressionURL)
	return nil
}

// interaction applies i to the presentation state. It reports whether the
// listener should hear about it.
func (a *fullscreenAd) interaction(i platform.Interaction) (AdResult, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.destroyed || !a.shown || a.creative == nil {
		return AdResult{}, false
	}
	switch i {
	case platform.InteractionClick:
		a.clicked = true
		a.client.http.FireBeacons(a.creative.ClickURL)
	case platform.InteractionVideoComplete:
		if a.completed {
			return AdResult{}, false
		}
		a.completed = true
	case platform.InteractionDismiss:
	default:
		return AdResult{}, false
	}
	return AdResult{Completed: a.completed, Clicked: a.clicked}, true
}

func (a *fullscreenAd) destroy() {
	a.mu.Lock()
	a.destroyed = true
	a.creative = nil
	a.mu.Unlock()
	a.cancel()
}

// InterstitialAd is a fullscreen ad for one placement.
type InterstitialAd struct {
	fullscreenAd

	lmu      sync.Mutex
	listener InterstitialListener
}

func (c *Client) NewInterstitialAd(placementID int) *InterstitialAd {
	return &InterstitialAd{fullscreenAd: newFullscreenAd(c, placementID, formatInterstitial)}
}

func (a *InterstitialAd) SetListener(l InterstitialListener) {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	a.listener = l
}

func (a *InterstitialAd) getListener() InterstitialListener {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	return a.listener
}

// Load requests an ad in the background.
func (a *InterstitialAd) Load() {
	adErr, err := a.begin()
	if err != nil {
		return
	}
	if adErr != nil {
		go func() {
			if l := a.getListener(); l != nil {
				l.OnAdFail(a, adErr)
			}
		}()
		return
	}
	go func() {
		adErr, ok := a.fetch()
		l := a.getListener()
		if !ok || l == nil {
			return
		}
		if adErr != nil {
			l.OnAdFail(a, adErr)
			return
		}
		l.OnAdReceive(a)
	}()
}

// Show presents the loaded ad on dc.
func (a *InterstitialAd) Show(dc *platform.DisplayContext) error {
	if err := a.present(dc, interstitialHandler{a}); err != nil {
		return err
	}
	if l := a.getListener(); l != nil {
		l.OnAdPresent(a)
	}
	return nil
}

// Destroy cancels loading and silences the listener.
func (a *InterstitialAd) Destroy() {
	a.destroy()
	a.SetListener(nil)
}

type interstitialHandler struct{ a *InterstitialAd }

func (h interstitialHandler) HandleInteraction(i platform.Interaction) {
	if _, ok := h.a.interaction(i); !ok {
		return
	}
	l := h.a.getListener()
	if l == nil {
		return
	}
	switch i {
	case platform.InteractionClick:
		l.OnAdClicked(h.a)
	case platform.InteractionDismiss:
		l.OnAdDismissed(h.a)
	}
}

// RewardedVideoAd is a rewarded fullscreen video for one placement.
type RewardedVideoAd struct {
	fullscreenAd

	lmu      sync.Mutex
	listener RewardedVideoListener
}

func (c *Client) NewRewardedVideoAd(placementID int) *RewardedVideoAd {
	return &RewardedVideoAd{fullscreenAd: newFullscreenAd(c, placementID, formatRewarded)}
}

func (a *RewardedVideoAd) SetListener(l RewardedVideoListener) {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	a.listener = l
}

func (a *RewardedVideoAd) getListener() RewardedVideoListener {
	a.lmu.Lock()
	defer a.lmu.Unlock()
	return a.listener
}

// Reward returns the reward of the loaded creative.
func (a *RewardedVideoAd) Reward() (string, int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.creative == nil {
		return "", 0
	}
	return a.creative.RewardType, a.creative.RewardAmount
}

func (a *RewardedVideoAd) Load() {
	adErr, err := a.begin()
	if err != nil {
		return
	}
	if adErr != nil {
		go func() {
			if l := a.getListener(); l != nil {
				l.OnAdError(a, adErr)
			}
		}()
		return
	}
	go func() {
		adErr, ok := a.fetch()
		l := a.getListener()
		if !ok || l == nil {
			return
		}
		if adErr != nil {
			l.OnAdError(a, adErr)
			return
		}
		l.OnAdLoaded(a)
	}()
}

// Show starts playback of the loaded video on dc.
func (a *RewardedVideoAd) Show(dc *platform.DisplayContext) error {
	if err := a.present(dc, rewardedHandler{a}); err != nil {
		return err
	}
	if l := a.getListener(); l != nil {
		l.OnAdStart(a)
	}
	return nil
}

func (a *RewardedVideoAd) Destroy() {
	a.destroy()
	a.SetListener(nil)
}

type rewardedHandler struct{ a *RewardedVideoAd }

func (h rewardedHandler) HandleInteraction(i platform.Interaction) {
	result, ok := h.a.interaction(i)
	if !ok {
		return
	}
	l := h.a.getListener()
	if l == nil {
		return
	}
	switch i {
	case platform.InteractionClick:
		l.OnAdClick(h.a)
	case platform.InteractionVideoComplete:
		l.OnVideoCompleted(h.a)
	case platform.InteractionDismiss:
		l.OnAdEnd(h.a, result)
	}
}
