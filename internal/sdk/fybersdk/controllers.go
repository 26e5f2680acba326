package fybersdk

import (
	"errors"
	"sync"

	"github.com/echoface/admediation/internal/platform"
)

// UnitController renders one kind of ad content for a spot. The concrete
// controllers are AdViewUnitController and FullscreenUnitController.
type UnitController interface {
	unitType() string
	attach(spot *AdSpot)
	reset()
	destroy()
}

// AdViewEventListener receives events of an ad bound into a view.
type AdViewEventListener interface {
	OnAdImpression(spot *AdSpot)
	OnAdClicked(spot *AdSpot)
	OnAdWillCloseInternalBrowser(spot *AdSpot)
	OnAdWillOpenExternalApp(spot *AdSpot)
}

// AdViewEventListenerAdapter implements AdViewEventListener with no-ops, for
// embedding.
type AdViewEventListenerAdapter struct{}

func (AdViewEventListenerAdapter) OnAdImpression(*AdSpot)               {}
func (AdViewEventListenerAdapter) OnAdClicked(*AdSpot)                  {}
func (AdViewEventListenerAdapter) OnAdWillCloseInternalBrowser(*AdSpot) {}
func (AdViewEventListenerAdapter) OnAdWillOpenExternalApp(*AdSpot)      {}

// FullscreenAdEventListener receives events of a presented fullscreen ad.
type FullscreenAdEventListener interface {
	OnAdImpression(spot *AdSpot)
	OnAdClicked(spot *AdSpot)
	OnAdDismissed(spot *AdSpot)
	OnAdWillCloseInternalBrowser(spot *AdSpot)
	OnAdWillOpenExternalApp(spot *AdSpot)
}

// FullscreenAdEventListenerAdapter implements FullscreenAdEventListener with
// no-ops, for embedding.
type FullscreenAdEventListenerAdapter struct{}

func (FullscreenAdEventListenerAdapter) OnAdImpression(*AdSpot)               {}
func (FullscreenAdEventListenerAdapter) OnAdClicked(*AdSpot)                  {}
func (FullscreenAdEventListenerAdapter) OnAdDismissed(*AdSpot)                {}
func (FullscreenAdEventListenerAdapter) OnAdWillCloseInternalBrowser(*AdSpot) {}
func (FullscreenAdEventListenerAdapter) OnAdWillOpenExternalApp(*AdSpot)      {}

// VideoContentListener is told when video content played to the end.
type VideoContentListener interface {
	OnCompleted(spot *AdSpot)
}

var errNilTarget = errors.New("fyber: nil render target")

// clickState tracks the internal browser opened by clicks on non external
// ads. Shared by both controllers.
type clickState struct {
	browserOpen bool
}

// click returns whether the click leaves to an external app.
func (c *clickState) click(ad *Ad) (external bool) {
	if ad.ExternalApp {
		return true
	}
	c.browserOpen = true
	return false
}

func (c *clickState) closeBrowser() bool {
	open := c.browserOpen
	c.browserOpen = false
	return open
}

// AdViewUnitController renders display ads into a host supplied view.
type AdViewUnitController struct {
	mu        sync.Mutex
	spot      *AdSpot
	listener  AdViewEventListener
	view      *platform.View
	impressed bool
	clicks    clickState
}

func NewAdViewUnitController() *AdViewUnitController {
	return &AdViewUnitController{}
}

func (c *AdViewUnitController) unitType() string { return UnitTypeDisplay }

func (c *AdViewUnitController) attach(spot *AdSpot) {
	c.mu.Lock()
	c.spot = spot
	c.mu.Unlock()
}

func (c *AdViewUnitController) reset() {
	c.mu.Lock()
	c.impressed = false
	c.clicks = clickState{}
	c.mu.Unlock()
}

func (c *AdViewUnitController) destroy() {
	c.mu.Lock()
	v := c.view
	c.view = nil
	c.listener = nil
	c.mu.Unlock()
	if v != nil {
		v.Bind("", nil)
	}
}

func (c *AdViewUnitController) SetEventsListener(l AdViewEventListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

// BindView renders the loaded ad into v. Interactions on v are reported to
// the events listener from then on.
func (c *AdViewUnitController) BindView(v *platform.View) error {
	if v == nil {
		return errNilTarget
	}
	c.mu.Lock()
	spot := c.spot
	c.mu.Unlock()
	if spot == nil || !spot.IsReady() || spot.SelectedUnitController() != UnitController(c) {
		return ErrNotReady
	}

	c.mu.Lock()
	c.view = v
	c.mu.Unlock()
	v.Bind(spot.Ad().Markup, c)
	return nil
}

// HandleInteraction implements platform.InteractionHandler.
func (c *AdViewUnitController) HandleInteraction(i platform.Interaction) {
	c.mu.Lock()
	spot := c.spot
	c.mu.Unlock()
	if spot == nil {
		return
	}
	ad := spot.Ad()
	if ad == nil {
		return
	}

	c.mu.Lock()
	l := c.listener
	var events []func(AdViewEventListener)
	switch i {
	case platform.InteractionImpression:
		if c.impressed {
			break
		}
		c.impressed = true
		spot.fireBeacons(ad.Tracking.Impression)
		events = append(events, func(l AdViewEventListener) { l.OnAdImpression(spot) })
	case platform.InteractionClick:
		spot.fireBeacons(ad.Tracking.Click)
		events = append(events, func(l AdViewEventListener) { l.OnAdClicked(spot) })
		if c.clicks.click(ad) {
			events = append(events, func(l AdViewEventListener) { l.OnAdWillOpenExternalApp(spot) })
		}
	case platform.InteractionCloseBrowser:
		if c.clicks.closeBrowser() {
			events = append(events, func(l AdViewEventListener) { l.OnAdWillCloseInternalBrowser(spot) })
		}
	}
	c.mu.Unlock()

	if l == nil {
		return
	}
	for _, fire := range events {
		fire(l)
	}
}

// FullscreenUnitController presents interstitial and rewarded ads on a
// display context.
type FullscreenUnitController struct {
	mu        sync.Mutex
	spot      *AdSpot
	listener  FullscreenAdEventListener
	video     VideoContentListener
	shown     bool
	completed bool
	clicks    clickState
}

func NewFullscreenUnitController() *FullscreenUnitController {
	return &FullscreenUnitController{}
}

func (c *FullscreenUnitController) unitType() string { return UnitTypeFullscreen }

func (c *FullscreenUnitController) attach(spot *AdSpot) {
	c.mu.Lock()
	c.spot = spot
	c.mu.Unlock()
}

func (c *FullscreenUnitController) reset() {
	c.mu.Lock()
	c.shown = false
	c.completed = false
	c.clicks = clickState{}
	c.mu.Unlock()
}

func (c *FullscreenUnitController) destroy() {
	c.mu.Lock()
	c.listener = nil
	c.video = nil
	c.mu.Unlock()
}

func (c *FullscreenUnitController) SetEventsListener(l FullscreenAdEventListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listener = l
}

func (c *FullscreenUnitController) SetVideoContentListener(l VideoContentListener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.video = l
}

// IsAvailable reports whether Show would present an ad.
func (c *FullscreenUnitController) IsAvailable() bool {
	c.mu.Lock()
	spot, shown := c.spot, c.shown
	c.mu.Unlock()
	return !shown && spot != nil && spot.IsReady() && spot.SelectedUnitController() == UnitController(c)
}

// Show presents the loaded ad on dc and reports the impression. An ad is
// shown at most once.
func (c *FullscreenUnitController) Show(dc *platform.DisplayContext) error {
	if dc == nil {
		return errNilTarget
	}
	c.mu.Lock()
	spot := c.spot
	if c.shown {
		c.mu.Unlock()
		return ErrAlreadyShown
	}
	c.mu.Unlock()
	if spot == nil || !spot.IsReady() || spot.SelectedUnitController() != UnitController(c) {
		return ErrNotReady
	}
	ad := spot.Ad()

	c.mu.Lock()
	if c.shown {
		c.mu.Unlock()
		return ErrAlreadyShown
	}
	c.shown = true
	c.mu.Unlock()

	if err := dc.Present(ad.Markup, c); err != nil {
		c.mu.Lock()
		c.shown = false
		c.mu.Unlock()
		return err
	}

	c.mu.Lock()
	l := c.listener
	c.mu.Unlock()

	spot.fireBeacons(ad.Tracking.Impression)
	if l != nil {
		l.OnAdImpression(spot)
	}
	return nil
}

// HandleInteraction implements platform.InteractionHandler.
func (c *FullscreenUnitController) HandleInteraction(i platform.Interaction) {
	c.mu.Lock()
	spot := c.spot
	c.mu.Unlock()
	if spot == nil {
		return
	}
	ad := spot.Ad()
	if ad == nil {
		return
	}

	c.mu.Lock()
	l, video := c.listener, c.video
	if !c.shown {
		c.mu.Unlock()
		return
	}
	var events []func()
	switch i {
	case platform.InteractionClick:
		spot.fireBeacons(ad.Tracking.Click)
		if l != nil {
			events = append(events, func() { l.OnAdClicked(spot) })
		}
		if c.clicks.click(ad) && l != nil {
			events = append(events, func() { l.OnAdWillOpenExternalApp(spot) })
		}
	case platform.InteractionCloseBrowser:
		if c.clicks.closeBrowser() && l != nil {
			events = append(events, func() { l.OnAdWillCloseInternalBrowser(spot) })
		}
	case platform.InteractionVideoComplete:
		if c.completed {
			break
		}
		c.completed = true
		spot.fireBeacons(ad.Tracking.Complete)
		if video != nil {
			events = append(events, func() { video.OnCompleted(spot) })
		}
	case platform.InteractionDismiss:
		if l != nil {
			events = append(events, func() { l.OnAdDismissed(spot) })
		}
	}
	c.mu.Unlock()

	for _, fire := range events {
		fire()
	}
}
