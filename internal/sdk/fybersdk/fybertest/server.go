// Package fybertest runs a fake Fyber Marketplace for tests.
package fybertest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/echoface/admediation/internal/sdk/fybersdk"
	"github.com/echoface/admediation/pkg/jsonx"
)

// Server answers /v1/config and /v1/ad. By default the config is valid and
// every ad request gets a display ad.
type Server struct {
	*httptest.Server

	mu           sync.Mutex
	configStatus int
	adStatus     int
	ad           *fybersdk.Ad
	configCalls  int
	adRequests   []string
}

func NewServer(t testing.TB) *Server {
	s := &Server{ad: DisplayAd()}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/config", s.config)
	mux.HandleFunc("/v1/ad", s.adRequest)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// DisplayAd is a banner creative.
func DisplayAd() *fybersdk.Ad {
	return &fybersdk.Ad{ID: "display-1", UnitType: fybersdk.UnitTypeDisplay, Markup: "<div>banner</div>", Width: 320, Height: 50}
}

// FullscreenAd is an interstitial creative; rewarded adds a reward.
func FullscreenAd(rewarded bool) *fybersdk.Ad {
	ad := &fybersdk.Ad{ID: "fullscreen-1", UnitType: fybersdk.UnitTypeFullscreen, Markup: "<video/>"}
	if rewarded {
		ad.Rewarded = true
		ad.Reward = &fybersdk.Reward{Type: "coins", Amount: 10}
	}
	return ad
}

func (s *Server) SetConfigStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configStatus = status
}

// SetAdStatus makes ad requests answer with status instead of an ad.
func (s *Server) SetAdStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adStatus = status
}

func (s *Server) SetAd(ad *fybersdk.Ad) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ad = ad
	s.adStatus = 0
}

func (s *Server) ConfigCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.configCalls
}

// AdRequests returns the spot ids requested so far.
func (s *Server) AdRequests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.adRequests...)
}

func (s *Server) config(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.configCalls++
	status := s.configStatus
	s.mu.Unlock()
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	body, _ := jsonx.JSONE(fybersdk.RemoteConfig{AppID: r.URL.Query().Get("app_id"), Enabled: true})
	_, _ = w.Write(body)
}

func (s *Server) adRequest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SpotID string `json:"spot_id"`
	}
	_ = jsonx.Decode(r.Body, &req)

	s.mu.Lock()
	s.adRequests = append(s.adRequests, req.SpotID)
	status, ad := s.adStatus, s.ad
	s.mu.Unlock()

	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		return
	}
	body, _ := jsonx.JSONE(map[string]any{"ad": ad})
	_, _ = w.Write(body)
}
