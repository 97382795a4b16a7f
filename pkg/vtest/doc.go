// Package vtest provides testing helpers for democrat stores.
//
// A Harness mounts a component tree on a ManualScheduler so tests decide
// exactly when queued updates and passive effects run. It records every
// notification and patch the store delivers.
//
// # Quick Start
//
//	func TestCounter(t *testing.T) {
//	    h := vtest.New[CounterState](t, Counter.Create(CounterProps{}))
//	    h.Act(func(s CounterState) { s.Set.Set(5) })
//
//	    assert.Equal(t, 5, h.State().Count)
//	    h.ExpectNotifications(1)
//	}
//
// # Restarts
//
// Restart simulates a process restart: the store's snapshot goes through a
// codec, the store is destroyed, and a new store is mounted from the decoded
// snapshot.
//
//	h.Act(func(s CounterState) { s.Set.Set(5) })
//	err := h.Restart(codec.FormatYAML)
//	require.NoError(t, err)
//	assert.Equal(t, 5, h.State().Count)
//
// # Replay
//
// Replay mounts a second store and applies every recorded patch to it:
//
//	replica := h.Replay()
//	assert.Equal(t, h.State().Count, replica.State().Count)
//
// # Fatal errors
//
// ExpectFatal runs fn and returns the *democrat.FatalError it panicked with:
//
//	err := vtest.ExpectFatal(t, democrat.ErrDestroyed, func() { s.Set.Set(1) })
//	assert.Equal(t, "DEM006", err.Code)
package vtest
