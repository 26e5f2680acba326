package host

import (
	"sync"
	"time"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/platform"
)

// Event names recorded on a session, one per host callback.
const (
	EventLoaded          = "loaded"
	EventFailedToLoad    = "failed_to_load"
	EventOpened          = "opened"
	EventClicked         = "clicked"
	EventClosed          = "closed"
	EventLeftApplication = "left_application"
	EventImpression      = "impression"
	EventVideoStart      = "video_start"
	EventVideoComplete   = "video_complete"
	EventReward          = "reward"
	EventFailedToShow    = "failed_to_show"
)

// Event is one callback an adapter delivered for a session.
type Event struct {
	Name    string                `json:"name"`
	At      time.Time             `json:"at"`
	Code    *mediation.ErrorCode  `json:"code,omitempty"`
	Message string                `json:"message,omitempty"`
	Reward  *mediation.RewardItem `json:"reward,omitempty"`
}

// SessionState 会话状态
type SessionState string

const (
	StateLoading   SessionState = "loading"
	StateLoaded    SessionState = "loaded"
	StateFailed    SessionState = "failed"
	StateDestroyed SessionState = "destroyed"
)

// Session is one load request and the ad it produced. Adapter callbacks
// arrive on SDK goroutines.
type Session struct {
	Handle    string
	Unit      config.AdUnit
	Format    mediation.AdFormat
	CreatedAt time.Time

	adapter mediation.Adapter
	dc      *platform.DisplayContext
	onEvent func(s *Session, name string)

	mu           sync.Mutex
	state        SessionState
	events       []Event
	loadErr      *mediation.AdError
	banner       mediation.BannerAdapter
	interstitial mediation.InterstitialAdapter
	ad           any

	done        chan struct{}
	finishOnce  sync.Once
	destroyOnce sync.Once
}

func newSession(handle string, unit config.AdUnit, format mediation.AdFormat, adapter mediation.Adapter,
	onEvent func(*Session, string)) *Session {
	return &Session{
		Handle:    handle,
		Unit:      unit,
		Format:    format,
		CreatedAt: time.Now(),
		adapter:   adapter,
		dc:        platform.NewDisplayContext(handle),
		onEvent:   onEvent,
		state:     StateLoading,
		done:      make(chan struct{}),
	}
}

// State 当前状态
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Events returns a copy of the recorded events in arrival order.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Done is closed by the terminal load callback.
func (s *Session) Done() <-chan struct{} { return s.done }

// LoadError is the adapter's load failure, nil after a successful load.
func (s *Session) LoadError() *mediation.AdError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

func (s *Session) record(e Event) {
	e.At = time.Now()
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		return
	}
	s.events = append(s.events, e)
	s.mu.Unlock()
	if s.onEvent != nil {
		s.onEvent(s, e.Name)
	}
}

// finish records the terminal load callback. Only the first one counts.
func (s *Session) finish(err *mediation.AdError) {
	first, live := false, false
	s.finishOnce.Do(func() {
		first = true
		s.mu.Lock()
		if s.state == StateLoading {
			live = true
			if err != nil {
				s.state = StateFailed
				s.loadErr = err
			} else {
				s.state = StateLoaded
			}
		}
		s.mu.Unlock()
	})
	if !first {
		return
	}
	// 超时或取消后才到的回调不再记录
	if !live {
		close(s.done)
		return
	}

	if err != nil {
		code := err.Code
		s.record(Event{Name: EventFailedToLoad, Code: &code, Message: err.Message})
	} else {
		s.record(Event{Name: EventLoaded})
	}
	close(s.done)
}

// setLoaded stores what the adapter loaded. An ad that arrives after the
// session was destroyed is released right away.
func (s *Session) setLoaded(banner mediation.BannerAdapter, interstitial mediation.InterstitialAdapter, ad any) {
	s.mu.Lock()
	if s.state == StateDestroyed {
		s.mu.Unlock()
		if d, ok := ad.(mediation.Destroyer); ok {
			d.Destroy()
		}
		return
	}
	if banner != nil {
		s.banner = banner
	}
	if interstitial != nil {
		s.interstitial = interstitial
	}
	if ad != nil {
		s.ad = ad
	}
	s.mu.Unlock()
}

func (s *Session) loaded() (mediation.BannerAdapter, mediation.InterstitialAdapter, any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.banner, s.interstitial, s.ad, s.state == StateLoaded
}

// view returns the banner's view from whichever API loaded it.
func (s *Session) view() *platform.View {
	banner, _, ad, ok := s.loaded()
	if !ok {
		return nil
	}
	if banner != nil {
		return banner.BannerView()
	}
	if b, isBanner := ad.(mediation.MediationBannerAd); isBanner {
		return b.View()
	}
	return nil
}

// destroy releases the adapter and the display context. Safe to call more
// than once.
func (s *Session) destroy() {
	s.destroyOnce.Do(func() {
		s.mu.Lock()
		s.state = StateDestroyed
		ad := s.ad
		s.mu.Unlock()

		if lc, ok := s.adapter.(mediation.Lifecycle); ok {
			lc.OnDestroy()
		}
		if d, ok := ad.(mediation.Destroyer); ok {
			d.Destroy()
		}
		s.dc.Destroy()
	})
}

// ============================================================================
// Host callbacks handed to adapters
// ============================================================================

type initResult struct {
	once    sync.Once
	done    chan struct{}
	ok      bool
	message string
}

func newInitResult() *initResult {
	return &initResult{done: make(chan struct{})}
}

func (r *initResult) OnInitializationSucceeded() {
	r.once.Do(func() {
		r.ok = true
		close(r.done)
	})
}

func (r *initResult) OnInitializationFailed(message string) {
	r.once.Do(func() {
		r.message = message
		close(r.done)
	})
}

type bannerListener struct{ s *Session }

func (l bannerListener) OnAdLoaded(a mediation.BannerAdapter) {
	l.s.setLoaded(a, nil, nil)
	l.s.finish(nil)
}
func (l bannerListener) OnAdFailedToLoad(_ mediation.BannerAdapter, code mediation.ErrorCode) {
	l.s.finish(mediation.NewAdError(code, code.String(), ""))
}
func (l bannerListener) OnAdOpened(mediation.BannerAdapter)  { l.s.record(Event{Name: EventOpened}) }
func (l bannerListener) OnAdClicked(mediation.BannerAdapter) { l.s.record(Event{Name: EventClicked}) }
func (l bannerListener) OnAdClosed(mediation.BannerAdapter)  { l.s.record(Event{Name: EventClosed}) }
func (l bannerListener) OnAdLeftApplication(mediation.BannerAdapter) {
	l.s.record(Event{Name: EventLeftApplication})
}

type interstitialListener struct{ s *Session }

func (l interstitialListener) OnAdLoaded(a mediation.InterstitialAdapter) {
	l.s.setLoaded(nil, a, nil)
	l.s.finish(nil)
}
func (l interstitialListener) OnAdFailedToLoad(_ mediation.InterstitialAdapter, code mediation.ErrorCode) {
	l.s.finish(mediation.NewAdError(code, code.String(), ""))
}
func (l interstitialListener) OnAdOpened(mediation.InterstitialAdapter) {
	l.s.record(Event{Name: EventOpened})
}
func (l interstitialListener) OnAdClicked(mediation.InterstitialAdapter) {
	l.s.record(Event{Name: EventClicked})
}
func (l interstitialListener) OnAdClosed(mediation.InterstitialAdapter) {
	l.s.record(Event{Name: EventClosed})
}
func (l interstitialListener) OnAdLeftApplication(mediation.InterstitialAdapter) {
	l.s.record(Event{Name: EventLeftApplication})
}

// adCallback satisfies every per-ad callback interface of the load API.
type adCallback struct{ s *Session }

func (c adCallback) ReportAdImpression()  { c.s.record(Event{Name: EventImpression}) }
func (c adCallback) ReportAdClicked()     { c.s.record(Event{Name: EventClicked}) }
func (c adCallback) OnAdOpened()          { c.s.record(Event{Name: EventOpened}) }
func (c adCallback) OnAdClosed()          { c.s.record(Event{Name: EventClosed}) }
func (c adCallback) OnAdLeftApplication() { c.s.record(Event{Name: EventLeftApplication}) }
func (c adCallback) OnVideoStart()        { c.s.record(Event{Name: EventVideoStart}) }
func (c adCallback) OnVideoComplete()     { c.s.record(Event{Name: EventVideoComplete}) }
func (c adCallback) OnAdFailedToShow(err *mediation.AdError) {
	code := err.Code
	c.s.record(Event{Name: EventFailedToShow, Code: &code, Message: err.Message})
}
func (c adCallback) OnUserEarnedReward(reward mediation.RewardItem) {
	c.s.record(Event{Name: EventReward, Reward: &reward})
}

// loadCallback is the terminal callback of the load API.
type loadCallback[A any, C any] struct {
	s  *Session
	cb C
}

func (l *loadCallback[A, C]) OnSuccess(ad A) C {
	l.s.setLoaded(nil, nil, ad)
	l.s.finish(nil)
	return l.cb
}

func (l *loadCallback[A, C]) OnFailure(err *mediation.AdError) {
	l.s.finish(err)
}

var (
	_ mediation.InitializationCompleteCallback  = (*initResult)(nil)
	_ mediation.MediationBannerListener         = bannerListener{}
	_ mediation.MediationInterstitialListener   = interstitialListener{}
	_ mediation.MediationRewardedAdCallback     = adCallback{}
	_ mediation.MediationInterstitialAdCallback = adCallback{}
	_ mediation.MediationBannerAdCallback       = adCallback{}
	_ mediation.RewardedAdLoadCallback          = (*loadCallback[mediation.MediationRewardedAd, mediation.MediationRewardedAdCallback])(nil)
)
