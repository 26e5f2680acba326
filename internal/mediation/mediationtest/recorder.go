// Package mediationtest provides recording host callbacks for adapter tests.
package mediationtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/echoface/admediation/internal/mediation"
)

// Event is one callback the host received.
type Event struct {
	Name    string
	Code    mediation.ErrorCode
	Message string
	Reward  mediation.RewardItem
}

// Recorder collects callbacks in arrival order. Safe for use from SDK goroutines.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	notify chan struct{}

	BannerAdapter       mediation.BannerAdapter
	InterstitialAdapter mediation.InterstitialAdapter
	Ad                  any
}

func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

func (r *Recorder) record(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the recorded event names in order.
func (r *Recorder) Names() []string {
	events := r.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

// Wait blocks until an event called name was recorded or the timeout passes.
func (r *Recorder) Wait(name string, timeout time.Duration) (Event, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		for _, e := range r.Events() {
			if e.Name == name {
				return e, nil
			}
		}
		select {
		case <-r.notify:
		case <-deadline.C:
			return Event{}, fmt.Errorf("event %q not recorded within %s, got %v", name, timeout, r.Names())
		}
	}
}

// Init adapts the recorder to InitializationCompleteCallback.
func (r *Recorder) Init() mediation.InitializationCompleteCallback { return initCallback{r} }

type initCallback struct{ r *Recorder }

func (c initCallback) OnInitializationSucceeded() { c.r.record(Event{Name: "init_succeeded"}) }
func (c initCallback) OnInitializationFailed(msg string) {
	c.r.record(Event{Name: "init_failed", Message: msg})
}

// Banner adapts the recorder to MediationBannerListener.
func (r *Recorder) Banner() mediation.MediationBannerListener { return bannerListener{r} }

type bannerListener struct{ r *Recorder }

func (l bannerListener) OnAdLoaded(a mediation.BannerAdapter) {
	l.r.mu.Lock()
	l.r.BannerAdapter = a
	l.r.mu.Unlock()
	l.r.record(Event{Name: "loaded"})
}
func (l bannerListener) OnAdFailedToLoad(_ mediation.BannerAdapter, code mediation.ErrorCode) {
	l.r.record(Event{Name: "failed_to_load", Code: code})
}
func (l bannerListener) OnAdOpened(mediation.BannerAdapter)  { l.r.record(Event{Name: "opened"}) }
func (l bannerListener) OnAdClicked(mediation.BannerAdapter) { l.r.record(Event{Name: "clicked"}) }
func (l bannerListener) OnAdClosed(mediation.BannerAdapter)  { l.r.record(Event{Name: "closed"}) }
func (l bannerListener) OnAdLeftApplication(mediation.BannerAdapter) {
	l.r.record(Event{Name: "left_application"})
}

// Interstitial adapts the recorder to MediationInterstitialListener.
func (r *Recorder) Interstitial() mediation.MediationInterstitialListener {
	return interstitialListener{r}
}

type interstitialListener struct{ r *Recorder }

func (l interstitialListener) OnAdLoaded(a mediation.InterstitialAdapter) {
	l.r.mu.Lock()
	l.r.InterstitialAdapter = a
	l.r.mu.Unlock()
	l.r.record(Event{Name: "loaded"})
}
func (l interstitialListener) OnAdFailedToLoad(_ mediation.InterstitialAdapter, code mediation.ErrorCode) {
	l.r.record(Event{Name: "failed_to_load", Code: code})
}
func (l interstitialListener) OnAdOpened(mediation.InterstitialAdapter) {
	l.r.record(Event{Name: "opened"})
}
func (l interstitialListener) OnAdClicked(mediation.InterstitialAdapter) {
	l.r.record(Event{Name: "clicked"})
}
func (l interstitialListener) OnAdClosed(mediation.InterstitialAdapter) {
	l.r.record(Event{Name: "closed"})
}
func (l interstitialListener) OnAdLeftApplication(mediation.InterstitialAdapter) {
	l.r.record(Event{Name: "left_application"})
}

// AdCallback satisfies every per-ad callback interface of the load API.
type AdCallback struct{ r *Recorder }

func (r *Recorder) AdCallback() AdCallback { return AdCallback{r} }

func (c AdCallback) ReportAdImpression()  { c.r.record(Event{Name: "impression"}) }
func (c AdCallback) ReportAdClicked()     { c.r.record(Event{Name: "clicked"}) }
func (c AdCallback) OnAdOpened()          { c.r.record(Event{Name: "opened"}) }
func (c AdCallback) OnAdClosed()          { c.r.record(Event{Name: "closed"}) }
func (c AdCallback) OnAdLeftApplication() { c.r.record(Event{Name: "left_application"}) }
func (c AdCallback) OnVideoStart()        { c.r.record(Event{Name: "video_start"}) }
func (c AdCallback) OnVideoComplete()     { c.r.record(Event{Name: "video_complete"}) }
func (c AdCallback) OnAdFailedToShow(err *mediation.AdError) {
	c.r.record(Event{Name: "failed_to_show", Code: err.Code, Message: err.Message})
}
func (c AdCallback) OnUserEarnedReward(reward mediation.RewardItem) {
	c.r.record(Event{Name: "reward", Reward: reward})
}

// LoadCallback records the terminal load result and hands back cb on success.
type LoadCallback[A any, C any] struct {
	r  *Recorder
	cb C
}

func NewLoadCallback[A any, C any](r *Recorder, cb C) *LoadCallback[A, C] {
	return &LoadCallback[A, C]{r: r, cb: cb}
}

func (l *LoadCallback[A, C]) OnSuccess(ad A) C {
	l.r.mu.Lock()
	l.r.Ad = ad
	l.r.mu.Unlock()
	l.r.record(Event{Name: "loaded"})
	return l.cb
}

func (l *LoadCallback[A, C]) OnFailure(err *mediation.AdError) {
	l.r.record(Event{Name: "failed_to_load", Code: err.Code, Message: err.Message})
}

// Rewarded returns a load callback for the rewarded API.
func (r *Recorder) Rewarded() mediation.RewardedAdLoadCallback {
	return NewLoadCallback[mediation.MediationRewardedAd, mediation.MediationRewardedAdCallback](r, r.AdCallback())
}

// InterstitialLoad returns a load callback for the interstitial load API.
func (r *Recorder) InterstitialLoad() mediation.InterstitialAdLoadCallback {
	return NewLoadCallback[mediation.MediationInterstitialAd, mediation.MediationInterstitialAdCallback](r, r.AdCallback())
}

// BannerLoad returns a load callback for the banner load API.
func (r *Recorder) BannerLoad() mediation.BannerAdLoadCallback {
	return NewLoadCallback[mediation.MediationBannerAd, mediation.MediationBannerAdCallback](r, r.AdCallback())
}

// NativeLoad returns a load callback for the native load API.
func (r *Recorder) NativeLoad() mediation.NativeAdLoadCallback {
	return NewLoadCallback[mediation.MediationNativeAd, mediation.MediationNativeAdCallback](r, r.AdCallback())
}

// LoadedAd returns the ad handed to OnSuccess.
func (r *Recorder) LoadedAd() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Ad
}

// LoadedBanner returns the adapter passed to the legacy OnAdLoaded.
func (r *Recorder) LoadedBanner() mediation.BannerAdapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.BannerAdapter
}

// LoadedInterstitial returns the adapter passed to the legacy OnAdLoaded.
func (r *Recorder) LoadedInterstitial() mediation.InterstitialAdapter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.InterstitialAdapter
}
