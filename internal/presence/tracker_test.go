package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRegisterAndLookup(t *testing.T) {
	tracker := NewTracker()

	_, online := tracker.Lookup(1)
	assert.False(t, online)

	tracker.Register(1, "conn-a")
	connID, online := tracker.Lookup(1)
	assert.True(t, online)
	assert.Equal(t, "conn-a", connID)
	assert.Equal(t, 1, tracker.Online())

	tracker.Unregister("conn-a")
	_, online = tracker.Lookup(1)
	assert.False(t, online)
	assert.Equal(t, 0, tracker.Online())
}

func TestTrackerReconnectLastWriterWins(t *testing.T) {
	tracker := NewTracker()

	tracker.Register(1, "conn-old")
	tracker.Register(1, "conn-new")

	connID, online := tracker.Lookup(1)
	assert.True(t, online)
	assert.Equal(t, "conn-new", connID)

	// Tearing down the old connection must not knock the user offline
	tracker.Unregister("conn-old")
	_, online = tracker.Lookup(1)
	assert.True(t, online)

	tracker.Unregister("conn-new")
	_, online = tracker.Lookup(1)
	assert.False(t, online)
}

func TestTrackerUnregisterUnknownConnIsNoop(t *testing.T) {
	tracker := NewTracker()
	tracker.Register(1, "conn-a")

	tracker.Unregister("never-registered")
	assert.Equal(t, 1, tracker.Online())
}

func TestTrackerShutdownClearsState(t *testing.T) {
	tracker := NewTracker()
	tracker.Register(1, "conn-a")
	tracker.Register(2, "conn-b")

	tracker.Shutdown()
	assert.Equal(t, 0, tracker.Online())
}
