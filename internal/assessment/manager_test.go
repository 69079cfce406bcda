package assessment

import (
	"context"
	"testing"
	"time"

	"github.com/fadilmartias/assessment-proctor/internal/proctoring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateGetRemove(t *testing.T) {
	m := NewManager(time.Minute)
	s := m.Create(Options{})
	require.NotEmpty(t, s.ID())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, 1, m.ActiveCount())

	require.NoError(t, m.Remove(context.Background(), s.ID()))
	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.Remove(context.Background(), s.ID()), ErrNotFound)
}

func TestManagerExpiresAbandonedSessions(t *testing.T) {
	m := NewManager(time.Minute)
	capture := &fakeCapture{}
	stale := m.Create(Options{Capabilities: proctoring.Capabilities{CameraRequired: true}, Capture: capture})
	advanceToLogicTest(t, stale)
	fresh := m.Create(Options{})

	var expired []string
	m.SetExpireHook(func(s *Session) { expired = append(expired, s.ID()) })

	// only the stale session is older than the timeout
	m.now = func() time.Time { return stale.LastActivity().Add(2 * time.Minute) }
	fresh.mu.Lock()
	fresh.lastActivity = m.now()
	fresh.mu.Unlock()

	m.expireInactive(context.Background())

	assert.Equal(t, []string{stale.ID()}, expired)
	assert.Equal(t, 1, capture.stops, "abandoned session releases the camera")
	_, err := m.Get(fresh.ID())
	assert.NoError(t, err)
	_, err = m.Get(stale.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManagerJanitorRuns(t *testing.T) {
	m := NewManager(20 * time.Millisecond)
	s := m.Create(Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.StartJanitor(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		_, err := m.Get(s.ID())
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestCatalogLookup(t *testing.T) {
	c := DefaultCatalog()
	r, ok := c.Role(" store_leader ")
	require.True(t, ok)
	assert.Equal(t, "Store Leader", r.Label)
	assert.Len(t, c.Roles(), 4)
	assert.Equal(t, "mechanic", c.Roles()[0].ID)
	assert.Len(t, c.QuestionSets(), 2)
}
