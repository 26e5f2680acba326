package sdkhttp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echo struct {
	AppID string `json:"app_id"`
	Seen  string `json:"seen"`
}

func TestGetAndPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/config":
			w.Write([]byte(`{"app_id":"` + r.URL.Query().Get("app_id") + `","seen":"get"}`))
		case "/v1/ad":
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			w.Write([]byte(`{"app_id":"posted","seen":"post"}`))
		case "/v1/empty":
			w.WriteHeader(http.StatusNoContent)
		case "/v1/broken":
			w.Write([]byte(`{"app_id":`))
		}
	}))
	defer srv.Close()

	c := NewClient(nil, srv.URL+"/", time.Second, nil)
	assert.Equal(t, srv.URL, c.Endpoint())

	var got echo
	status, err := c.GetJSON(context.Background(), "/v1/config", url.Values{"app_id": {"102960"}}, &got)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, echo{AppID: "102960", Seen: "get"}, got)

	status, err = c.PostJSON(context.Background(), "/v1/ad", map[string]string{"spot_id": "1"}, &got)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "post", got.Seen)

	status, err = c.PostJSON(context.Background(), "/v1/empty", nil, &got)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)

	_, err = c.GetJSON(context.Background(), "/v1/broken", nil, &got)
	var de *DecodeError
	assert.ErrorAs(t, err, &de)
}

func TestTransportErrors(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	c := NewClient(nil, slow.URL, 20*time.Millisecond, nil)
	_, err := c.GetJSON(context.Background(), "/", nil, nil)
	require.Error(t, err)
	assert.True(t, IsTimeout(err))

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	c = NewClient(nil, deadURL, time.Second, nil)
	_, err = c.GetJSON(context.Background(), "/", nil, nil)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.Timeout)
}

func TestFireBeacons(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	c := NewClient(nil, srv.URL, time.Second, nil)
	c.FireBeacons([]string{srv.URL + "/t/imp?id=1", "", srv.URL + "/t/imp?id=2"})

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&hits) == 2 }, time.Second, 5*time.Millisecond)
	assert.NotEqual(t, NewRequestID(), NewRequestID())
}
