// Package host is the mediation host runtime: it builds adapters from the
// registry, initializes them, and drives ad loads and shows through them.
package host

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/health"
	"github.com/echoface/admediation/internal/mediation"
	"github.com/echoface/admediation/internal/metrics"
	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/pkg/concurrent"
	"github.com/echoface/admediation/pkg/logger"
)

const (
	// SourceConfig names units defined in the host config file.
	SourceConfig = "config"

	defaultLoadTimeout = 10 * time.Second
	defaultInitTimeout = 10 * time.Second
)

// InitState 适配器初始化状态
type InitState string

const (
	InitNotStarted InitState = "not_started"
	InitPending    InitState = "pending"
	InitSucceeded  InitState = "succeeded"
	InitFailed     InitState = "failed"
)

// AdapterStatus describes one configured adapter class.
type AdapterStatus struct {
	Class          string    `json:"class"`
	Enabled        bool      `json:"enabled"`
	Registered     bool      `json:"registered"`
	AdapterVersion string    `json:"adapter_version,omitempty"`
	SDKVersion     string    `json:"sdk_version,omitempty"`
	State          InitState `json:"init_state"`
	Message        string    `json:"message,omitempty"`
	InitializedAt  time.Time `json:"initialized_at,omitempty"`
}

// Options 宿主依赖
type Options struct {
	Registry *mediation.Registry
	Services *mediation.Services
	Logger   logger.Logger
	Metrics  *metrics.HostMetrics
	Health   *health.Checker

	Adapters        []config.AdapterConfig
	Units           []config.AdUnit
	SessionCapacity int
	LoadTimeout     time.Duration
	InitConcurrency int
}

// Host owns the adapter registry, the ad unit table and the live sessions.
type Host struct {
	registry    *mediation.Registry
	services    *mediation.Services
	log         logger.Logger
	metrics     *metrics.HostMetrics
	health      *health.Checker
	sessions    *SessionStore
	loadTimeout time.Duration
	initCtrl    *concurrent.ConcurrencyController

	mu       sync.RWMutex
	adapters map[string]*adapterEntry
	order    []string
	sources  map[string][]config.AdUnit
	units    map[string]config.AdUnit
}

type adapterEntry struct {
	cfg    config.AdapterConfig
	status AdapterStatus
}

// New validates the units and builds a host. Adapters are not initialized
// until InitializeAdapters.
func New(opts Options) (*Host, error) {
	if opts.Registry == nil {
		opts.Registry = mediation.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Default
	}
	if opts.Services == nil {
		opts.Services = mediation.NewServices(opts.Logger, nil, nil)
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewHostMetrics(nil, "")
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker(5, 1)
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = defaultLoadTimeout
	}
	if opts.InitConcurrency <= 0 {
		opts.InitConcurrency = 4
	}

	h := &Host{
		registry:    opts.Registry,
		services:    opts.Services,
		log:         logger.Component(opts.Logger, "host"),
		metrics:     opts.Metrics,
		health:      opts.Health,
		loadTimeout: opts.LoadTimeout,
		initCtrl:    concurrent.NewConcurrencyController(opts.InitConcurrency),
		adapters:    make(map[string]*adapterEntry),
		sources:     make(map[string][]config.AdUnit),
		units:       make(map[string]config.AdUnit),
	}
	h.sessions = NewSessionStore(opts.SessionCapacity, h.evicted)

	for _, a := range opts.Adapters {
		if _, dup := h.adapters[a.Class]; dup {
			return nil, fmt.Errorf("adapter %s configured twice", a.Class)
		}
		h.adapters[a.Class] = &adapterEntry{
			cfg: a,
			status: AdapterStatus{
				Class:      a.Class,
				Enabled:    a.Enabled,
				Registered: h.registry.Has(a.Class),
				State:      InitNotStarted,
			},
		}
		h.order = append(h.order, a.Class)
		if a.Enabled && !h.registry.Has(a.Class) {
			h.log.Warn("enabled adapter is not registered", "class", a.Class)
		}
	}

	if err := h.ReplaceUnits(SourceConfig, opts.Units); err != nil {
		return nil, err
	}
	return h, nil
}

// ============================================================================
// Ad units
// ============================================================================

// ReplaceUnits swaps every unit of source for units. Units from the config
// file win over other sources on id conflicts.
func (h *Host) ReplaceUnits(source string, units []config.AdUnit) error {
	for _, u := range units {
		if err := u.Validate(); err != nil {
			return ErrInvalidUnit.WithDetail(err.Error())
		}
	}

	h.mu.Lock()
	h.sources[source] = append([]config.AdUnit(nil), units...)
	h.rebuildUnitsLocked()
	h.mu.Unlock()

	h.metrics.Units.WithLabelValues(source).Set(float64(len(units)))
	return nil
}

func (h *Host) rebuildUnitsLocked() {
	sources := make([]string, 0, len(h.sources))
	for src := range h.sources {
		if src != SourceConfig {
			sources = append(sources, src)
		}
	}
	sort.Strings(sources)
	sources = append(sources, SourceConfig)

	units := make(map[string]config.AdUnit)
	for _, src := range sources {
		for _, u := range h.sources[src] {
			if prev, exists := units[u.ID]; exists && src != SourceConfig {
				h.log.Warn("duplicate ad unit id, keeping first", "unit", u.ID, "adapter", prev.Adapter)
				continue
			}
			units[u.ID] = u
		}
	}
	h.units = units
}

// Unit looks up an ad unit by id.
func (h *Host) Unit(id string) (config.AdUnit, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, ok := h.units[id]
	return u, ok
}

// Units returns every known unit sorted by id.
func (h *Host) Units() []config.AdUnit {
	h.mu.RLock()
	units := make([]config.AdUnit, 0, len(h.units))
	for _, u := range h.units {
		units = append(units, u)
	}
	h.mu.RUnlock()

	sort.Slice(units, func(i, j int) bool { return units[i].ID < units[j].ID })
	return units
}

// configurations collects one MediationConfiguration per unit of class.
func (h *Host) configurations(class string) []mediation.MediationConfiguration {
	var configs []mediation.MediationConfiguration
	for _, u := range h.Units() {
		if u.Adapter != class {
			continue
		}
		params, err := u.Parameters()
		if err != nil {
			continue
		}
		format, _ := u.AdFormat()
		configs = append(configs, mediation.MediationConfiguration{Format: format, ServerParameters: params})
	}
	return configs
}

// ============================================================================
// Adapter initialization
// ============================================================================

// InitializeAdapters initializes every enabled, registered adapter class
// concurrently and records the outcome per class. The returned error joins
// every failure; the host keeps serving either way.
func (h *Host) InitializeAdapters(ctx context.Context) error {
	h.mu.Lock()
	var classes []string
	timeout := time.Duration(0)
	for _, class := range h.order {
		entry := h.adapters[class]
		if !entry.cfg.Enabled || !entry.status.Registered {
			continue
		}
		entry.status.State = InitPending
		entry.status.Message = ""
		classes = append(classes, class)
		timeout = max(timeout, initTimeout(entry.cfg))
	}
	h.mu.Unlock()

	if len(classes) == 0 {
		return nil
	}

	tasks := make([]concurrent.Task[AdapterStatus], len(classes))
	for i, class := range classes {
		tasks[i] = func(ctx context.Context) (AdapterStatus, error) {
			return h.initializeAdapter(ctx, class)
		}
	}

	// the slowest adapter bounds the batch; each task also has its own timeout
	results, batchErr := concurrent.ExecuteWithTimeout(h.initCtrl, ctx, tasks, timeout+time.Second)

	var errs []error
	reported := make(map[string]bool, len(results))
	for _, r := range results {
		class := classes[r.Index]
		reported[class] = true
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", class, r.Error))
		}
	}
	for _, class := range classes {
		if !reported[class] {
			h.setInitResult(class, AdapterStatus{State: InitFailed, Message: "initialization did not finish"})
			errs = append(errs, fmt.Errorf("%s: initialization did not finish", class))
		}
	}
	if batchErr != nil && len(errs) == 0 {
		errs = append(errs, batchErr)
	}
	return errors.Join(errs...)
}

func initTimeout(cfg config.AdapterConfig) time.Duration {
	if cfg.InitTimeout > 0 {
		return cfg.InitTimeout
	}
	return defaultInitTimeout
}

func (h *Host) initializeAdapter(ctx context.Context, class string) (AdapterStatus, error) {
	h.mu.RLock()
	cfg := h.adapters[class].cfg
	h.mu.RUnlock()

	adapter, err := h.registry.New(class, h.services)
	if err != nil {
		st := AdapterStatus{State: InitFailed, Message: err.Error()}
		h.setInitResult(class, st)
		return st, err
	}

	st := AdapterStatus{}
	if v, err := adapter.VersionInfo(); err == nil {
		st.AdapterVersion = v.String()
	}
	if v, err := adapter.SDKVersionInfo(); err == nil {
		st.SDKVersion = v.String()
	}

	ctx, cancel := context.WithTimeout(ctx, initTimeout(cfg))
	defer cancel()

	result := newInitResult()
	adapter.Initialize(platform.NewDisplayContext("init:"+class), result, h.configurations(class))

	select {
	case <-result.done:
	case <-ctx.Done():
		st.State = InitFailed
		st.Message = "initialization timed out"
		h.setInitResult(class, st)
		return st, ctx.Err()
	}

	if result.ok {
		st.State = InitSucceeded
		st.InitializedAt = time.Now()
		h.setInitResult(class, st)
		h.log.Info("adapter initialized", "class", class, "sdk_version", st.SDKVersion)
		return st, nil
	}

	st.State = InitFailed
	st.Message = result.message
	h.setInitResult(class, st)
	h.log.Warn("adapter initialization failed", "class", class, "message", result.message)
	return st, errors.New(result.message)
}

func (h *Host) setInitResult(class string, st AdapterStatus) {
	h.mu.Lock()
	entry := h.adapters[class]
	entry.status.State = st.State
	entry.status.Message = st.Message
	entry.status.InitializedAt = st.InitializedAt
	if st.AdapterVersion != "" {
		entry.status.AdapterVersion = st.AdapterVersion
	}
	if st.SDKVersion != "" {
		entry.status.SDKVersion = st.SDKVersion
	}
	h.mu.Unlock()

	h.metrics.SetAdapterInitialized(shortName(class), st.State == InitSucceeded)
}

// Adapters returns the status of every configured adapter in config order.
func (h *Host) Adapters() []AdapterStatus {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]AdapterStatus, 0, len(h.order))
	for _, class := range h.order {
		out = append(out, h.adapters[class].status)
	}
	return out
}

// Ready reports whether every enabled adapter finished initializing.
func (h *Host) Ready() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, class := range h.order {
		entry := h.adapters[class]
		if entry.cfg.Enabled && entry.status.State != InitSucceeded {
			return false
		}
	}
	return true
}

// NetworkHealth returns the load health per adapter.
func (h *Host) NetworkHealth() map[string]health.Status {
	return h.health.All()
}

// ============================================================================
// Sessions
// ============================================================================

// Load requests an ad for unitID and waits for the adapter's terminal load
// callback, the host load timeout or ctx, whichever comes first. Adapter
// failures are returned as *mediation.AdError.
func (h *Host) Load(ctx context.Context, unitID string) (*Session, error) {
	unit, ok := h.Unit(unitID)
	if !ok {
		return nil, ErrUnknownUnit.WithDetail(unitID)
	}
	format, err := unit.AdFormat()
	if err != nil {
		return nil, ErrInvalidUnit.WithDetail(err.Error())
	}
	params, err := unit.Parameters()
	if err != nil {
		return nil, ErrInvalidUnit.WithDetail(err.Error())
	}
	if !h.adapterEnabled(unit.Adapter) {
		return nil, ErrAdapterUnavailable.WithDetail(unit.Adapter)
	}

	adapter, err := h.registry.New(unit.Adapter, h.services)
	if err != nil {
		return nil, ErrAdapterUnavailable.WithDetail(err.Error())
	}

	s := newSession(uuid.NewString(), unit, format, adapter, h.recordEvent)
	log := h.log.With("unit", unit.ID, "handle", s.Handle, "format", string(format))
	log.Debug("loading ad")

	start := time.Now()
	h.dispatchLoad(s, params)

	timer := time.NewTimer(h.loadTimeout)
	defer timer.Stop()

	network := shortName(unit.Adapter)
	select {
	case <-s.Done():
	case <-timer.C:
		s.destroy()
		h.metrics.RecordLoad(network, string(format), "timeout", time.Since(start))
		h.health.Record(network, ErrLoadTimeout)
		log.Warn("ad load timed out", "timeout", h.loadTimeout.String())
		return nil, ErrLoadTimeout
	case <-ctx.Done():
		s.destroy()
		h.metrics.RecordLoad(network, string(format), "canceled", time.Since(start))
		return nil, ctx.Err()
	}

	if adErr := s.LoadError(); adErr != nil {
		s.destroy()
		h.metrics.RecordLoad(network, string(format), adErr.Code.String(), time.Since(start))
		h.recordHealth(network, adErr)
		log.Info("ad failed to load", "code", int(adErr.Code), "message", adErr.Message)
		return nil, adErr
	}

	h.metrics.RecordLoad(network, string(format), EventLoaded, time.Since(start))
	h.health.Record(network, nil)
	h.sessions.Put(s)
	h.metrics.ActiveSessions.Set(float64(h.sessions.Len()))
	log.Info("ad loaded", "latency", time.Since(start).String())
	return s, nil
}

// dispatchLoad picks the adapter entry point for the session's format. The
// legacy request API is preferred when the adapter implements it.
func (h *Host) dispatchLoad(s *Session, params mediation.ServerParameters) {
	unit := s.Unit
	request := &mediation.MediationAdRequest{TestMode: unit.TestMode, Keywords: unit.Keywords}
	base := mediation.AdConfiguration{
		Context:          s.dc,
		ServerParameters: params,
		MediationExtras:  mediation.ServerParameters{},
		TestMode:         unit.TestMode,
	}
	cb := adCallback{s}

	switch s.Format {
	case mediation.FormatBanner:
		if legacy, ok := s.adapter.(mediation.BannerAdapter); ok {
			legacy.RequestBannerAd(s.dc, bannerListener{s}, params, unit.Size(), request, nil)
			return
		}
		s.adapter.LoadBannerAd(&mediation.BannerAdConfiguration{AdConfiguration: base, AdSize: unit.Size()},
			&loadCallback[mediation.MediationBannerAd, mediation.MediationBannerAdCallback]{s: s, cb: cb})
	case mediation.FormatInterstitial:
		if legacy, ok := s.adapter.(mediation.InterstitialAdapter); ok {
			legacy.RequestInterstitialAd(s.dc, interstitialListener{s}, params, request, nil)
			return
		}
		s.adapter.LoadInterstitialAd(&mediation.InterstitialAdConfiguration{AdConfiguration: base},
			&loadCallback[mediation.MediationInterstitialAd, mediation.MediationInterstitialAdCallback]{s: s, cb: cb})
	case mediation.FormatRewarded:
		s.adapter.LoadRewardedAd(&mediation.RewardedAdConfiguration{AdConfiguration: base},
			&loadCallback[mediation.MediationRewardedAd, mediation.MediationRewardedAdCallback]{s: s, cb: cb})
	case mediation.FormatNative:
		s.adapter.LoadNativeAd(&mediation.NativeAdConfiguration{AdConfiguration: base},
			&loadCallback[mediation.MediationNativeAd, mediation.MediationNativeAdCallback]{s: s, cb: cb})
	}
}

// Session looks up a loaded ad by handle.
func (h *Host) Session(handle string) (*Session, error) {
	s, ok := h.sessions.Get(handle)
	if !ok {
		return nil, ErrUnknownSession.WithDetail(handle)
	}
	return s, nil
}

// Show presents a fullscreen ad or attaches a banner view.
func (h *Host) Show(handle string) error {
	s, err := h.Session(handle)
	if err != nil {
		return err
	}
	_, interstitial, ad, ok := s.loaded()
	if !ok {
		return ErrNotLoaded
	}

	switch s.Format {
	case mediation.FormatBanner:
		view := s.view()
		if view == nil {
			return ErrNotLoaded
		}
		view.Attach()
		return nil
	case mediation.FormatInterstitial:
		if interstitial != nil {
			interstitial.ShowInterstitial()
			return nil
		}
		if a, isAd := ad.(mediation.MediationInterstitialAd); isAd {
			a.ShowAd(s.dc)
			return nil
		}
	case mediation.FormatRewarded:
		if a, isAd := ad.(mediation.MediationRewardedAd); isAd {
			a.ShowAd(s.dc)
			return nil
		}
	}
	return ErrUnsupportedOperation
}

// BannerView returns the content currently bound into a banner's view.
func (h *Host) BannerView(handle string) (string, error) {
	s, err := h.Session(handle)
	if err != nil {
		return "", err
	}
	if s.Format != mediation.FormatBanner {
		return "", ErrUnsupportedOperation
	}
	view := s.view()
	if view == nil {
		return "", ErrNotLoaded
	}
	return view.Content(), nil
}

// Interact delivers a user interaction to the ad's surface. delivered is
// false when nothing was bound or presented to receive it.
func (h *Host) Interact(handle string, i platform.Interaction) (delivered bool, err error) {
	s, err := h.Session(handle)
	if err != nil {
		return false, err
	}
	if s.Format == mediation.FormatBanner {
		view := s.view()
		if view == nil {
			return false, ErrNotLoaded
		}
		return view.Dispatch(i), nil
	}
	return s.dc.Dispatch(i), nil
}

// Events returns what the adapter reported for handle so far.
func (h *Host) Events(handle string) ([]Event, error) {
	s, err := h.Session(handle)
	if err != nil {
		return nil, err
	}
	return s.Events(), nil
}

// Destroy releases the ad and forgets handle.
func (h *Host) Destroy(handle string) error {
	s, ok := h.sessions.Remove(handle)
	if !ok {
		return ErrUnknownSession.WithDetail(handle)
	}
	s.destroy()
	h.metrics.ActiveSessions.Set(float64(h.sessions.Len()))
	return nil
}

// SessionCount 当前会话数
func (h *Host) SessionCount() int {
	return h.sessions.Len()
}

// Close destroys every live session.
func (h *Host) Close() {
	for _, s := range h.sessions.Clear() {
		s.destroy()
	}
	h.metrics.ActiveSessions.Set(0)
}

func (h *Host) evicted(s *Session) {
	h.log.Debug("session evicted", "handle", s.Handle, "unit", s.Unit.ID)
	h.metrics.SessionEvictions.Inc()
	s.destroy()
}

func (h *Host) recordEvent(s *Session, name string) {
	h.metrics.RecordEvent(shortName(s.Unit.Adapter), string(s.Format), name)
}

// recordHealth counts transport and internal failures against the network;
// a no-fill means the network answered.
func (h *Host) recordHealth(network string, adErr *mediation.AdError) {
	switch adErr.Code {
	case mediation.ErrorCodeNetworkError, mediation.ErrorCodeInternalError:
		h.health.Record(network, adErr)
	case mediation.ErrorCodeNoFill:
		h.health.Record(network, nil)
	}
}

func (h *Host) adapterEnabled(class string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	entry, ok := h.adapters[class]
	return ok && entry.cfg.Enabled && entry.status.Registered
}

// shortName turns "com.google.ads.mediation.fyber.FyberMediationAdapter"
// into "FyberMediationAdapter" for metric labels.
func shortName(class string) string {
	if i := strings.LastIndexByte(class, '.'); i >= 0 {
		return class[i+1:]
	}
	return class
}
