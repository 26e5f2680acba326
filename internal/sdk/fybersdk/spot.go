package fybersdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/echoface/admediation/internal/sdk/sdkhttp"
)

// AdRequest asks the Marketplace for an ad for one spot.
type AdRequest struct {
	SpotID   string
	Keywords []string
	TestMode bool
}

func NewAdRequest(spotID string) *AdRequest {
	return &AdRequest{SpotID: spotID}
}

// RequestListener receives the outcome of AdSpot.RequestAd. Exactly one of
// the methods is called per request, on an SDK goroutine.
type RequestListener interface {
	OnSuccessfulAdRequest(spot *AdSpot)
	OnFailedAdRequest(spot *AdSpot, code ErrorCode)
}

// AdSpot is one placement instance: the unit controllers able to render the
// answer, and the ad once it arrived.
type AdSpot struct {
	sdk    *SDK
	id     string
	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	mediation   MediationName
	controllers []UnitController
	listener    RequestListener
	selected    UnitController
	ad          *Ad
	loading     bool
	destroyed   bool
}

func (s *AdSpot) ID() string { return s.id }

func (s *AdSpot) SetMediationName(name MediationName) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mediation = name
}

func (s *AdSpot) MediationName() MediationName {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mediation
}

// AddUnitController registers c as a candidate renderer for this spot.
func (s *AdSpot) AddUnitController(c UnitController) {
	c.attach(s)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.controllers = append(s.controllers, c)
}

func (s *AdSpot) SetRequestListener(l RequestListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

// SelectedUnitController is the controller chosen to render the loaded ad,
// nil until a request succeeded.
func (s *AdSpot) SelectedUnitController() UnitController {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Ad returns the loaded ad, nil until a request succeeded.
func (s *AdSpot) Ad() *Ad {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ad
}

// IsReady reports whether an ad is loaded and the spot is still alive.
func (s *AdSpot) IsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.destroyed && s.ad != nil && s.selected != nil
}

func (s *AdSpot) IsDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyed
}

// RequestAd fetches an ad in the background. The request listener is called
// once with the outcome unless the spot is destroyed first.
func (s *AdSpot) RequestAd(req *AdRequest) {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		s.sdk.log.Warn("request on destroyed spot", "spot", s.id)
		return
	}
	if s.loading {
		s.mu.Unlock()
		s.sdk.log.Warn("spot already requesting an ad", "spot", s.id)
		return
	}
	s.loading = true
	s.ad = nil
	s.selected = nil
	controllers := append([]UnitController(nil), s.controllers...)
	s.mu.Unlock()

	for _, c := range controllers {
		c.reset()
	}
	go s.load(req)
}

func (s *AdSpot) load(req *AdRequest) {
	ad, ctrl, err := s.fetch(req)

	s.mu.Lock()
	s.loading = false
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	if err == nil {
		s.ad = ad
		s.selected = ctrl
	}
	l := s.listener
	s.mu.Unlock()

	if err != nil {
		code := ErrUnspecified
		var fe *Error
		if errors.As(err, &fe) {
			code = fe.Code
		}
		s.sdk.log.Info("ad request failed", "spot", s.id, "code", code.String(), "err", err)
		if l != nil {
			l.OnFailedAdRequest(s, code)
		}
		return
	}

	s.sdk.log.Debug("ad request succeeded", "spot", s.id, "ad", ad.ID, "unit_type", ad.UnitType)
	if l != nil {
		l.OnSuccessfulAdRequest(s)
	}
}

func (s *AdSpot) fetch(req *AdRequest) (*Ad, UnitController, error) {
	if req == nil || req.SpotID == "" {
		return nil, nil, newError(ErrInvalidInput, errors.New("missing spot id"))
	}
	appID := s.sdk.AppID()
	if appID == "" {
		return nil, nil, newError(ErrSDKNotInitialized, errors.New("initialize was never called"))
	}

	s.mu.Lock()
	body := adRequestBody{
		RequestID:  sdkhttp.NewRequestID(),
		AppID:      appID,
		SpotID:     req.SpotID,
		Mediation:  string(s.mediation),
		SDKVersion: Version,
		Keywords:   req.Keywords,
		TestMode:   req.TestMode,
	}
	for _, c := range s.controllers {
		body.UnitTypes = append(body.UnitTypes, c.unitType())
	}
	s.mu.Unlock()

	var resp adResponseBody
	status, err := s.sdk.client.PostJSON(s.ctx, "/v1/ad", body, &resp)
	if err != nil {
		var de *sdkhttp.DecodeError
		switch {
		case errors.As(err, &de):
			return nil, nil, newError(ErrServerInvalidResponse, err)
		case sdkhttp.IsTimeout(err):
			return nil, nil, newError(ErrConnectionTimeout, err)
		default:
			return nil, nil, newError(ErrConnectionError, err)
		}
	}
	if code, failed := classifyStatus(status); failed {
		return nil, nil, newError(code, fmt.Errorf("ad server status %d", status))
	}
	if resp.Ad == nil || resp.Ad.Markup == "" {
		return nil, nil, newError(ErrServerInvalidResponse, errors.New("response carries no ad"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.controllers {
		if c.unitType() == resp.Ad.UnitType {
			return resp.Ad, c, nil
		}
	}
	return nil, nil, newError(ErrConfigurationMismatch, fmt.Errorf("no controller for unit type %q", resp.Ad.UnitType))
}

func classifyStatus(status int) (ErrorCode, bool) {
	switch {
	case status == http.StatusOK:
		return ErrUnspecified, false
	case status == http.StatusNoContent:
		return ErrNoFill, true
	case status == http.StatusBadRequest:
		return ErrInvalidInput, true
	case status == http.StatusForbidden:
		return ErrSpotDisabled, true
	case status == http.StatusNotFound:
		return ErrUnknownAppID, true
	case status >= 500:
		return ErrServerInternalError, true
	default:
		return ErrUnspecified, true
	}
}

// Destroy cancels any in-flight request and releases the controllers. No
// listener is called afterwards.
func (s *AdSpot) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	controllers := s.controllers
	s.controllers = nil
	s.selected = nil
	s.ad = nil
	s.listener = nil
	s.mu.Unlock()

	s.cancel()
	for _, c := range controllers {
		c.destroy()
	}
}

func (s *AdSpot) fireBeacons(urls []string) {
	s.sdk.client.FireBeacons(urls)
}
