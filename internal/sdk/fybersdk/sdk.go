// Package fybersdk is the Fyber Marketplace ad SDK: app initialization with
// remote configuration, ad spots, and the unit controllers that render ads.
package fybersdk

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/echoface/admediation/internal/sdk/sdkhttp"
	"github.com/echoface/admediation/pkg/logger"
	"github.com/echoface/admediation/pkg/retry"
)

// Version of this SDK build.
const Version = "7.1.3"

// ConfigListener is told every time a configuration fetch completes.
// Listeners are compared by identity, so implement it on a pointer type.
type ConfigListener interface {
	OnConfigurationReadyAndValid(sdk *SDK, success bool, err error)
}

// Options configures an SDK instance.
type Options struct {
	Endpoint    string
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      logger.Logger
	ConfigRetry *retry.RetryConfig
}

// SDK is the Marketplace manager. One instance per process.
type SDK struct {
	client      *sdkhttp.Client
	log         logger.Logger
	configRetry *retry.RetryConfig

	mu        sync.Mutex
	appID     string
	config    *RemoteConfig
	fetching  bool
	listeners []ConfigListener
}

func New(opts Options) *SDK {
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}
	l = l.With("sdk", "fyber")
	if opts.HTTPClient == nil {
		opts.HTTPClient = sdkhttp.NewDefaultHTTPClient()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.ConfigRetry == nil {
		opts.ConfigRetry = retry.DefaultRetryConfig()
	}
	return &SDK{
		client:      sdkhttp.NewClient(opts.HTTPClient, opts.Endpoint, opts.Timeout, l),
		log:         l,
		configRetry: opts.ConfigRetry,
	}
}

// Version returns the SDK version string.
func (s *SDK) Version() string { return Version }

// Initialize binds the SDK to appID and fetches the remote configuration in
// the background. Listeners are notified when the fetch completes. Calling it
// again for an app whose configuration is already valid only re-notifies.
func (s *SDK) Initialize(appID string) {
	if appID == "" {
		s.log.Warn("initialize called without app id")
		return
	}

	s.mu.Lock()
	switch {
	case s.appID == appID && s.config != nil:
		s.mu.Unlock()
		go s.notify(true, nil)
		return
	case s.appID == appID && s.fetching:
		s.mu.Unlock()
		return
	}
	s.appID = appID
	s.config = nil
	s.fetching = true
	s.mu.Unlock()

	s.log.Info("initializing", "app_id", appID)
	go s.fetchConfig(appID)
}

func (s *SDK) fetchConfig(appID string) {
	cfg, err := retry.Retry(context.Background(), func(ctx context.Context) (*RemoteConfig, error) {
		return s.requestConfig(ctx, appID)
	}, s.configRetry)

	s.mu.Lock()
	if s.appID != appID {
		// re-initialized with another app while this fetch was running
		s.mu.Unlock()
		return
	}
	s.fetching = false
	if err == nil {
		s.config = cfg
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Warn("configuration fetch failed", "app_id", appID, "err", err)
		s.notify(false, err)
		return
	}
	s.log.Debug("configuration ready", "app_id", appID, "spots", len(cfg.Spots))
	s.notify(true, nil)
}

func (s *SDK) requestConfig(ctx context.Context, appID string) (*RemoteConfig, error) {
	var cfg RemoteConfig
	status, err := s.client.GetJSON(ctx, "/v1/config", url.Values{"app_id": {appID}}, &cfg)
	if err != nil {
		if sdkhttp.IsTimeout(err) {
			return nil, retry.Classify(retry.TimeoutError, err)
		}
		return nil, retry.Classify(retry.NetworkError, err)
	}

	switch {
	case status == http.StatusOK && cfg.Enabled:
		return &cfg, nil
	case status == http.StatusOK:
		return nil, &ConfigError{AppID: appID, Reason: "app disabled"}
	case status == http.StatusNotFound:
		return nil, &ConfigError{AppID: appID, Status: status, Reason: "unknown app id"}
	case status == http.StatusTooManyRequests:
		return nil, retry.Classify(retry.RateLimitError, &ConfigError{AppID: appID, Status: status, Reason: "throttled"})
	case status >= 500:
		return nil, retry.Classify(retry.NetworkError, &ConfigError{AppID: appID, Status: status, Reason: "server error"})
	default:
		return nil, &ConfigError{AppID: appID, Status: status, Reason: "unexpected status"}
	}
}

func (s *SDK) notify(success bool, err error) {
	s.mu.Lock()
	listeners := make([]ConfigListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()

	for _, l := range listeners {
		l.OnConfigurationReadyAndValid(s, success, err)
	}
}

// AddConfigListener registers l; adding the same listener twice is a no-op.
func (s *SDK) AddConfigListener(l ConfigListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.listeners {
		if existing == l {
			return
		}
	}
	s.listeners = append(s.listeners, l)
}

// RemoveConfigListener unregisters l. Safe to call from inside the callback.
func (s *SDK) RemoveConfigListener(l ConfigListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.listeners {
		if existing == l {
			s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
			return
		}
	}
}

// ListenerCount is the number of registered configuration listeners.
func (s *SDK) ListenerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}

// AppID returns the app the SDK was initialized for, or "".
func (s *SDK) AppID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appID
}

// IsInitialized reports whether a valid remote configuration is loaded.
func (s *SDK) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config != nil
}

// CreateSpot returns a new, empty ad spot.
func (s *SDK) CreateSpot() *AdSpot {
	ctx, cancel := context.WithCancel(context.Background())
	return &AdSpot{
		sdk:    s,
		id:     sdkhttp.NewRequestID(),
		ctx:    ctx,
		cancel: cancel,
	}
}
