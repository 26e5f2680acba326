// Package platform models the device surfaces ads render on: the display
// context fullscreen ads are presented on and the views banners bind into.
package platform

import (
	"errors"
	"sync"
)

// Interaction is a user or OS event delivered to ad content that an SDK
// bound into a View or presented on a DisplayContext.
type Interaction string

const (
	InteractionImpression    Interaction = "impression"
	InteractionClick         Interaction = "click"
	InteractionCloseBrowser  Interaction = "close_browser"
	InteractionDismiss       Interaction = "dismiss"
	InteractionVideoComplete Interaction = "video_complete"
)

// ParseInteraction returns ok=false for unknown names.
func ParseInteraction(s string) (Interaction, bool) {
	switch i := Interaction(s); i {
	case InteractionImpression, InteractionClick, InteractionCloseBrowser,
		InteractionDismiss, InteractionVideoComplete:
		return i, true
	default:
		return "", false
	}
}

// InteractionHandler receives interactions for content it rendered.
type InteractionHandler interface {
	HandleInteraction(i Interaction)
}

var (
	ErrContextDestroyed  = errors.New("display context destroyed")
	ErrAlreadyPresenting = errors.New("display context already presents an ad")
)

// DisplayContext is the surface fullscreen ads are presented on. Adapters
// must only keep weak references to it.
type DisplayContext struct {
	id string

	mu        sync.Mutex
	destroyed bool
	content   string
	presenter InteractionHandler
}

func NewDisplayContext(id string) *DisplayContext {
	return &DisplayContext{id: id}
}

func (d *DisplayContext) ID() string { return d.id }

// Present shows content full screen until it is dismissed.
func (d *DisplayContext) Present(content string, h InteractionHandler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.destroyed {
		return ErrContextDestroyed
	}
	if d.presenter != nil {
		return ErrAlreadyPresenting
	}
	d.content = content
	d.presenter = h
	return nil
}

// Presented returns the currently presented content.
func (d *DisplayContext) Presented() (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content, d.presenter != nil
}

// Dispatch forwards i to the presented content. A dismiss also ends the
// presentation. Returns false when nothing is presented.
func (d *DisplayContext) Dispatch(i Interaction) bool {
	d.mu.Lock()
	h := d.presenter
	if i == InteractionDismiss {
		d.presenter = nil
		d.content = ""
	}
	d.mu.Unlock()

	if h == nil {
		return false
	}
	h.HandleInteraction(i)
	return true
}

// Destroy tears the context down; any presentation is dismissed first.
func (d *DisplayContext) Destroy() {
	if _, presenting := d.Presented(); presenting {
		d.Dispatch(InteractionDismiss)
	}
	d.mu.Lock()
	d.destroyed = true
	d.mu.Unlock()
}

func (d *DisplayContext) IsDestroyed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.destroyed
}

// View is the banner container an adapter hands back to the host. SDKs bind
// their rendered content into it.
type View struct {
	mu       sync.Mutex
	content  string
	handler  InteractionHandler
	attached bool
}

func NewView() *View {
	return &View{}
}

// Bind replaces the view's content and the handler receiving its interactions.
func (v *View) Bind(content string, h InteractionHandler) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.content = content
	v.handler = h
}

func (v *View) Content() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.content
}

func (v *View) IsBound() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.handler != nil
}

// Attach puts the view on screen. The first attach of bound content counts
// as an impression.
func (v *View) Attach() bool {
	v.mu.Lock()
	first := !v.attached && v.handler != nil
	if v.handler != nil {
		v.attached = true
	}
	v.mu.Unlock()

	if first {
		return v.Dispatch(InteractionImpression)
	}
	return false
}

// Dispatch forwards i to the bound content; false when nothing is bound.
func (v *View) Dispatch(i Interaction) bool {
	v.mu.Lock()
	h := v.handler
	v.mu.Unlock()
	if h == nil {
		return false
	}
	h.HandleInteraction(i)
	return true
}
