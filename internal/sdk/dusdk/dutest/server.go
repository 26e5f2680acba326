// Package dutest runs a fake DU ad server for tests.
package dutest

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/echoface/admediation/internal/sdk/dusdk"
	"github.com/echoface/admediation/pkg/jsonx"
)

// Server answers POST /v1/ads with a creative unless told to fail.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	status     int
	code       int
	creative   *dusdk.Creative
	placements []int
}

func NewServer(t testing.TB) *Server {
	s := &Server{creative: &dusdk.Creative{ID: "du-1", Markup: "<du/>", RewardType: "gems", RewardAmount: 3}}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ads", s.ads)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// SetCode makes the server answer with a DU error code.
func (s *Server) SetCode(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.code = code
}

// SetStatus makes the server answer with a bare HTTP status.
func (s *Server) SetStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Placements returns the placement ids requested so far.
func (s *Server) Placements() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.placements...)
}

func (s *Server) ads(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlacementID int `json:"placement_id"`
	}
	_ = jsonx.Decode(r.Body, &req)

	s.mu.Lock()
	s.placements = append(s.placements, req.PlacementID)
	status, code, creative := s.status, s.code, s.creative
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	resp := map[string]any{"code": code}
	if code == 0 {
		resp["ad"] = creative
	}
	body, _ := jsonx.JSONE(resp)
	_, _ = w.Write(body)
}
