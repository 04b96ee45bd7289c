package roster_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmcleod/clubdesk/roster"
)

func TestBannerAutoDismiss(t *testing.T) {
	clock := &manualClock{}
	b := roster.NewBanner(clock.AfterFunc, roster.DismissAfter)

	msg := b.Show(roster.KindSuccess, "Signed up")
	require.Len(t, clock.timers, 1)
	assert.Equal(t, 5*time.Second, clock.timers[0].d)

	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, msg, cur)

	clock.fire(0)
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBannerReplacementIgnoresStaleDismissal(t *testing.T) {
	clock := &manualClock{}
	b := roster.NewBanner(clock.AfterFunc, roster.DismissAfter)

	first := b.Show(roster.KindSuccess, "first")
	second := b.Show(roster.KindError, "second")
	assert.NotEqual(t, first.ID, second.ID)
	assert.True(t, clock.timers[0].stopped)

	// The first timer fires anyway, having raced the Stop.
	clock.fire(0)
	cur, ok := b.Current()
	require.True(t, ok)
	assert.Equal(t, "second", cur.Text)
	assert.Equal(t, "error", cur.Kind.String())

	clock.fire(1)
	_, ok = b.Current()
	assert.False(t, ok)
}

func TestBannerRealTimer(t *testing.T) {
	b := roster.NewBanner(nil, 10*time.Millisecond)
	b.Show(roster.KindSuccess, "soon gone")

	assert.Eventually(t, func() bool {
		_, ok := b.Current()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestBannerStopKeepsMessage(t *testing.T) {
	clock := &manualClock{}
	b := roster.NewBanner(clock.AfterFunc, roster.DismissAfter)
	b.Show(roster.KindSuccess, "sticky")
	b.Stop()

	assert.True(t, clock.timers[0].stopped)
	_, ok := b.Current()
	assert.True(t, ok)
}
