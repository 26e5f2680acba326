package dusdk

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/admediation/internal/platform"
	"github.com/echoface/admediation/pkg/jsonx"
)

const waitFor = 2 * time.Second

type adServer struct {
	status int
	resp   adsResponse
	raw    string
	delay  time.Duration

	mu   sync.Mutex
	last adsRequest
}

func (s *adServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req adsRequest
	if err := jsonx.Decode(r.Body, &req); err == nil {
		s.mu.Lock()
		s.last = req
		s.mu.Unlock()
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			return
		}
	}
	if s.status != 0 {
		w.WriteHeader(s.status)
		return
	}
	if s.raw != "" {
		_, _ = w.Write([]byte(s.raw))
		return
	}
	body, _ := jsonx.JSONE(s.resp)
	_, _ = w.Write(body)
}

func (s *adServer) lastRequest() adsRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func newClient(t *testing.T, s *adServer) *Client {
	t.Helper()
	srv := httptest.NewServer(s)
	t.Cleanup(srv.Close)
	return New(Options{Endpoint: srv.URL, Timeout: 300 * time.Millisecond})
}

type recorder struct {
	mu     sync.Mutex
	events []string
	errs   []*AdError
	result AdResult
	ch     chan string
}

func newRecorder() *recorder { return &recorder{ch: make(chan string, 16)} }

func (r *recorder) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	r.ch <- e
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) wait(t *testing.T) string {
	t.Helper()
	select {
	case e := <-r.ch:
		return e
	case <-time.After(waitFor):
		t.Fatal("no event")
		return ""
	}
}

func (r *recorder) lastErr() *AdError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errs) == 0 {
		return nil
	}
	return r.errs[len(r.errs)-1]
}

func (r *recorder) OnAdReceive(*InterstitialAd) { r.add("receive") }
func (r *recorder) OnAdFail(_ *InterstitialAd, err *AdError) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.add("fail")
}
func (r *recorder) OnAdPresent(*InterstitialAd)   { r.add("present") }
func (r *recorder) OnAdClicked(*InterstitialAd)   { r.add("click") }
func (r *recorder) OnAdDismissed(*InterstitialAd) { r.add("dismissed") }

type rewardedRecorder struct{ *recorder }

func (r rewardedRecorder) OnAdLoaded(*RewardedVideoAd) { r.add("loaded") }
func (r rewardedRecorder) OnAdError(_ *RewardedVideoAd, err *AdError) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.add("error")
}
func (r rewardedRecorder) OnAdStart(*RewardedVideoAd)        { r.add("start") }
func (r rewardedRecorder) OnAdClick(*RewardedVideoAd)        { r.add("click") }
func (r rewardedRecorder) OnVideoCompleted(*RewardedVideoAd) { r.add("completed") }
func (r rewardedRecorder) OnAdEnd(_ *RewardedVideoAd, res AdResult) {
	r.mu.Lock()
	r.result = res
	r.mu.Unlock()
	r.add("end")
}

func TestInit(t *testing.T) {
	c := New(Options{})
	assert.False(t, c.IsInitialized())
	assert.Error(t, c.Init("", nil))

	require.NoError(t, c.Init("app", []int{20, 10}))
	require.NoError(t, c.Init("app", []int{10, 30}))
	assert.Equal(t, []int{10, 20, 30}, c.Placements())
	assert.Equal(t, "app", c.AppID())

	require.NoError(t, c.Init("other", []int{5}))
	assert.Equal(t, []int{5}, c.Placements())
	assert.Equal(t, Version, c.Version())
}

func TestInterstitialLifecycle(t *testing.T) {
	s := &adServer{resp: adsResponse{Ad: &Creative{ID: "c1", Markup: "<ad/>"}}}
	c := newClient(t, s)
	require.NoError(t, c.Init("app", []int{42}))

	ad := c.NewInterstitialAd(42)
	rec := newRecorder()
	ad.SetListener(rec)
	ad.Load()
	require.Equal(t, "receive", rec.wait(t))
	assert.True(t, ad.IsReady())

	last := s.lastRequest()
	assert.Equal(t, 42, last.PlacementID)
	assert.Equal(t, "app", last.AppID)
	assert.Equal(t, formatInterstitial, last.Format)

	dc := platform.NewDisplayContext("main")
	require.NoError(t, ad.Show(dc))
	assert.ErrorIs(t, ad.Show(dc), ErrNotReady)
	dc.Dispatch(platform.InteractionClick)
	dc.Dispatch(platform.InteractionDismiss)

	assert.Equal(t, []string{"receive", "present", "click", "dismissed"}, rec.list())
}

func TestConcurrentShowPresentsOnce(t *testing.T) {
	s := &adServer{resp: adsResponse{Ad: &Creative{ID: "c1", Markup: "<ad/>"}}}
	c := newClient(t, s)
	require.NoError(t, c.Init("app", []int{42}))

	ad := c.NewInterstitialAd(42)
	rec := newRecorder()
	ad.SetListener(rec)
	ad.Load()
	require.Equal(t, "receive", rec.wait(t))

	gone := platform.NewDisplayContext("gone")
	gone.Destroy()
	require.ErrorIs(t, ad.Show(gone), platform.ErrContextDestroyed)

	const n = 8
	var (
		wg    sync.WaitGroup
		shown atomic.Int32
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if ad.Show(platform.NewDisplayContext(fmt.Sprintf("main-%d", i))) == nil {
				shown.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), shown.Load())
	assert.Equal(t, []string{"receive", "present"}, rec.list())
}

func TestLoadFailures(t *testing.T) {
	tests := []struct {
		name string
		srv  *adServer
		code int
	}{
		{name: "no fill code", srv: &adServer{resp: adsResponse{Code: CodeNoFill}}, code: CodeNoFill},
		{name: "empty ad", srv: &adServer{resp: adsResponse{}}, code: CodeNoFill},
		{name: "impression limit", srv: &adServer{resp: adsResponse{Code: CodeImpressionLimit, Message: "cap"}}, code: CodeImpressionLimit},
		{name: "server error", srv: &adServer{status: http.StatusInternalServerError}, code: CodeServerError},
		{name: "throttled", srv: &adServer{status: http.StatusTooManyRequests}, code: CodeLoadTooFrequently},
		{name: "malformed", srv: &adServer{raw: "[["}, code: CodeServerError},
		{name: "timeout", srv: &adServer{delay: time.Second}, code: CodeTimeOut},
		{name: "unexpected status", srv: &adServer{status: http.StatusTeapot}, code: CodeUnknownError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClient(t, tt.srv)
			require.NoError(t, c.Init("app", []int{1}))
			ad := c.NewRewardedVideoAd(1)
			rec := newRecorder()
			ad.SetListener(rewardedRecorder{rec})
			ad.Load()
			require.Equal(t, "error", rec.wait(t))
			require.NotNil(t, rec.lastErr())
			assert.Equal(t, tt.code, rec.lastErr().Code)
			assert.False(t, ad.IsReady())
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Options{Endpoint: srv.URL, Timeout: time.Second})
	require.NoError(t, c.Init("app", nil))

	ad := c.NewInterstitialAd(3)
	rec := newRecorder()
	ad.SetListener(rec)
	ad.Load()
	require.Equal(t, "fail", rec.wait(t))
	assert.Equal(t, CodeNetworkError, rec.lastErr().Code)
}

func TestLoadBeforeInitAndTwice(t *testing.T) {
	s := &adServer{delay: 100 * time.Millisecond, resp: adsResponse{Ad: &Creative{Markup: "<ad/>"}}}
	c := newClient(t, s)

	ad := c.NewInterstitialAd(7)
	rec := newRecorder()
	ad.SetListener(rec)
	ad.Load()
	require.Equal(t, "fail", rec.wait(t))
	assert.Equal(t, CodeInternalError, rec.lastErr().Code)

	require.NoError(t, c.Init("app", []int{7}))
	ad.Load()
	ad.Load()
	require.Equal(t, "fail", rec.wait(t))
	assert.Equal(t, CodeLoadTooFrequently, rec.lastErr().Code)
	require.Equal(t, "receive", rec.wait(t))
}

func TestRewardedPlayback(t *testing.T) {
	s := &adServer{resp: adsResponse{Ad: &Creative{Markup: "<video/>", RewardType: "coins", RewardAmount: 5}}}
	c := newClient(t, s)
	require.NoError(t, c.Init("app", []int{9}))

	ad := c.NewRewardedVideoAd(9)
	rec := newRecorder()
	ad.SetListener(rewardedRecorder{rec})
	ad.Load()
	require.Equal(t, "loaded", rec.wait(t))

	kind, amount := ad.Reward()
	assert.Equal(t, "coins", kind)
	assert.Equal(t, 5, amount)

	dc := platform.NewDisplayContext("main")
	require.NoError(t, ad.Show(dc))
	dc.Dispatch(platform.InteractionVideoComplete)
	dc.Dispatch(platform.InteractionVideoComplete)
	dc.Dispatch(platform.InteractionDismiss)

	assert.Equal(t, []string{"loaded", "start", "completed", "end"}, rec.list())
	assert.Equal(t, AdResult{Completed: true}, rec.result)
}

func TestDestroyedAdIsSilent(t *testing.T) {
	s := &adServer{delay: 150 * time.Millisecond, resp: adsResponse{Ad: &Creative{Markup: "<ad/>"}}}
	c := newClient(t, s)
	require.NoError(t, c.Init("app", []int{1}))

	ad := c.NewInterstitialAd(1)
	rec := newRecorder()
	ad.SetListener(rec)
	ad.Load()
	ad.Destroy()

	select {
	case e := <-rec.ch:
		t.Fatalf("event after destroy: %s", e)
	case <-time.After(300 * time.Millisecond):
	}
	assert.ErrorIs(t, ad.Show(platform.NewDisplayContext("x")), ErrDestroyed)
}

func TestAdErrorString(t *testing.T) {
	assert.Equal(t, "du ad error 1001: no fill", NoFillError.Error())
	assert.Equal(t, TimeOutError, errorFor(CodeTimeOut, ""))
	assert.Equal(t, "unknown error", errorFor(4242, "").Message)
}
