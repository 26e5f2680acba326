package platform

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu  sync.Mutex
	got []Interaction
}

func (c *collector) HandleInteraction(i Interaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, i)
}

func TestDisplayContextPresentation(t *testing.T) {
	dc := NewDisplayContext("activity-1")
	assert.Equal(t, "activity-1", dc.ID())
	assert.False(t, dc.Dispatch(InteractionClick))

	c := &collector{}
	require.NoError(t, dc.Present("<ad/>", c))
	assert.ErrorIs(t, dc.Present("<other/>", c), ErrAlreadyPresenting)

	content, ok := dc.Presented()
	assert.True(t, ok)
	assert.Equal(t, "<ad/>", content)

	assert.True(t, dc.Dispatch(InteractionClick))
	assert.True(t, dc.Dispatch(InteractionDismiss))
	_, ok = dc.Presented()
	assert.False(t, ok)
	assert.False(t, dc.Dispatch(InteractionClick))

	assert.Equal(t, []Interaction{InteractionClick, InteractionDismiss}, c.got)
}

func TestDisplayContextDestroyDismisses(t *testing.T) {
	dc := NewDisplayContext("activity-2")
	c := &collector{}
	require.NoError(t, dc.Present("<ad/>", c))

	dc.Destroy()
	assert.True(t, dc.IsDestroyed())
	assert.Equal(t, []Interaction{InteractionDismiss}, c.got)
	assert.ErrorIs(t, dc.Present("<ad/>", c), ErrContextDestroyed)
}

func TestViewAttachCountsOneImpression(t *testing.T) {
	v := NewView()
	assert.False(t, v.Attach())
	assert.False(t, v.IsBound())

	c := &collector{}
	v.Bind("<banner/>", c)
	assert.True(t, v.IsBound())
	assert.Equal(t, "<banner/>", v.Content())

	assert.True(t, v.Attach())
	assert.False(t, v.Attach())
	assert.True(t, v.Dispatch(InteractionClick))

	assert.Equal(t, []Interaction{InteractionImpression, InteractionClick}, c.got)
}

func TestParseInteraction(t *testing.T) {
	i, ok := ParseInteraction("close_browser")
	assert.True(t, ok)
	assert.Equal(t, InteractionCloseBrowser, i)
	_, ok = ParseInteraction("swipe")
	assert.False(t, ok)
}
