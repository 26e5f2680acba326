// Package dusdk is the DU Ad Platform SDK: a client registered with the app
// and its placements, and interstitial and rewarded video ads bound to a
// placement.
package dusdk

import (
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/echoface/admediation/internal/sdk/sdkhttp"
	"github.com/echoface/admediation/pkg/logger"
)

// Version of this SDK build.
const Version = "1.2.2"

type Options struct {
	Endpoint   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
}

// Client is the process wide DU registration.
type Client struct {
	http *sdkhttp.Client
	log  logger.Logger

	mu         sync.RWMutex
	appID      string
	placements []int
}

func New(opts Options) *Client {
	l := opts.Logger
	if l == nil {
		l = logger.NewNop()
	}
	l = l.With("sdk", "du")
	if opts.HTTPClient == nil {
		opts.HTTPClient = sdkhttp.NewDefaultHTTPClient()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Client{
		http: sdkhttp.NewClient(opts.HTTPClient, opts.Endpoint, opts.Timeout, l),
		log:  l,
	}
}

// Init registers the app and its placements. Placements of later calls are
// merged with the known ones.
func (c *Client) Init(appID string, placementIDs []int) error {
	if appID == "" {
		return fmt.Errorf("du init: empty app id")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.appID != "" && c.appID != appID {
		c.log.Warn("re-initializing with a different app id", "old", c.appID, "new", appID)
		c.placements = nil
	}
	c.appID = appID
	for _, id := range placementIDs {
		if !slices.Contains(c.placements, id) {
			c.placements = append(c.placements, id)
		}
	}
	slices.Sort(c.placements)
	c.log.Info("initialized", "app_id", appID, "placements", c.placements)
	return nil
}

func (c *Client) Version() string { return Version }

func (c *Client) AppID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.appID
}

func (c *Client) IsInitialized() bool {
	return c.AppID() != ""
}

// Placements returns the registered placement ids, sorted.
func (c *Client) Placements() []int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.placements)
}

func (c *Client) hasPlacement(id int) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.placements, id)
}
