package host

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoface/admediation/internal/config"
	"github.com/echoface/admediation/internal/mediation"
)

func testSession(handle string) *Session {
	return newSession(handle, config.AdUnit{ID: "u"}, mediation.FormatBanner, nil, nil)
}

func TestSessionStoreLRU(t *testing.T) {
	var evicted []string
	store := NewSessionStore(2, func(s *Session) { evicted = append(evicted, s.Handle) })

	store.Put(testSession("a"))
	store.Put(testSession("b"))
	_, ok := store.Get("a")
	require.True(t, ok)

	store.Put(testSession("c"))
	assert.Equal(t, []string{"b"}, evicted)
	assert.Equal(t, []string{"c", "a"}, store.Handles())

	_, ok = store.Get("b")
	assert.False(t, ok)

	st := store.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, int64(1), st.Evictions)
	assert.Equal(t, 2, st.Size)
}

func TestSessionStoreRemoveAndClear(t *testing.T) {
	store := NewSessionStore(0, nil)
	store.Put(testSession("a"))
	store.Put(testSession("b"))

	s, ok := store.Remove("a")
	require.True(t, ok)
	assert.Equal(t, "a", s.Handle)
	_, ok = store.Remove("a")
	assert.False(t, ok)

	cleared := store.Clear()
	assert.Len(t, cleared, 1)
	assert.Equal(t, 0, store.Len())
	assert.Empty(t, store.Handles())
}

func TestSessionFinishOnlyOnce(t *testing.T) {
	s := testSession("x")
	s.finish(nil)
	s.finish(mediation.NewAdError(mediation.ErrorCodeNoFill, "late", ""))

	<-s.Done()
	assert.Equal(t, StateLoaded, s.State())
	assert.Nil(t, s.LoadError())
	require.Len(t, s.Events(), 1)
	assert.Equal(t, EventLoaded, s.Events()[0].Name)
}
