package proctoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorIgnoresSignalsWhenInactive(t *testing.T) {
	a := NewAggregator()
	now := time.Now()

	assert.False(t, a.RecordViolation(LookingAway, now))
	warning, counted := a.VisibilityChanged(true, now)
	assert.Empty(t, warning)
	assert.False(t, counted)
	assert.False(t, a.RestrictedAction(ActionCopy).Blocked)
	assert.Equal(t, 0, a.Count())
}

func TestAggregatorCountsEveryViolationEqually(t *testing.T) {
	a := NewAggregator()
	a.SetActive(true)
	now := time.Now()

	var seen []ViolationKind
	a.OnViolation(func(ev ViolationEvent) { seen = append(seen, ev.Kind) })

	for _, kind := range []ViolationKind{LookingAway, NoFace, TabHidden, ClipboardUse, LookingAway} {
		assert.True(t, a.RecordViolation(kind, now))
	}
	assert.Equal(t, 5, a.Count())
	assert.Equal(t, []ViolationKind{LookingAway, NoFace, TabHidden, ClipboardUse, LookingAway}, seen)
}

func TestAggregatorNeverDecreases(t *testing.T) {
	a := NewAggregator()
	a.SetActive(true)
	prev := 0
	for i := 0; i < 10; i++ {
		a.RecordViolation(NoFace, time.Now())
		require.GreaterOrEqual(t, a.Count(), prev)
		prev = a.Count()
	}

	// leaving the monitored stage freezes the count rather than clearing it
	a.SetActive(false)
	assert.Equal(t, 10, a.Count())
	a.SetActive(true)
	a.RecordViolation(NoFace, time.Now())
	assert.Equal(t, 11, a.Count())
}

func TestVisibilityCountsOnlyVisibleToHidden(t *testing.T) {
	a := NewAggregator()
	a.SetActive(true)
	now := time.Now()

	warning, counted := a.VisibilityChanged(true, now)
	assert.True(t, counted)
	assert.Equal(t, VisibilityWarning, warning)

	// a duplicate hidden event without coming back is not a new transition
	_, counted = a.VisibilityChanged(true, now)
	assert.False(t, counted)

	_, counted = a.VisibilityChanged(false, now)
	assert.False(t, counted)

	_, counted = a.VisibilityChanged(true, now)
	assert.True(t, counted)
	assert.Equal(t, 2, a.Count())
}

func TestRestrictedActions(t *testing.T) {
	a := NewAggregator()
	a.SetActive(true)

	var blocked []RestrictedAction
	a.OnBlocked(func(action RestrictedAction) { blocked = append(blocked, action) })

	for _, action := range []RestrictedAction{ActionCopy, ActionCut, ActionContextMenu} {
		out := a.RestrictedAction(action)
		assert.True(t, out.Blocked, action)
		assert.Equal(t, ClipboardWarning, out.Warning)
	}
	assert.False(t, a.RestrictedAction(ActionPaste).Blocked)
	assert.Equal(t, 0, a.Count(), "blocked actions warn without adding suspicion")
	assert.Len(t, blocked, 3)
}

func TestParseRestrictedAction(t *testing.T) {
	assert.Equal(t, ActionContextMenu, ParseRestrictedAction(" ContextMenu "))
}

func TestDetectorFeedsAggregator(t *testing.T) {
	a := NewAggregator()
	a.SetActive(true)
	d := NewGazeDetector(DefaultThresholds(), a)

	feed(d, nil, time.Unix(10, 0), 31)
	assert.Equal(t, 1, a.Count())
}

func TestRemoteCaptureDriver(t *testing.T) {
	d := NewRemoteCaptureDriver()
	ctx := context.Background()

	require.NoError(t, d.Start(ctx))
	require.NoError(t, d.Start(ctx))
	assert.True(t, d.Running())

	require.NoError(t, d.Stop(ctx))
	assert.False(t, d.Running())
}
