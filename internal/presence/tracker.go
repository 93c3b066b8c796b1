package presence

import "sync"

// Tracker is the in-memory registry of users with a live real-time
// connection. It is process-local and deliberately not persisted: after
// a restart chat delivery degrades to push-only and self-heals as
// clients reconnect.
type Tracker struct {
	mu      sync.RWMutex
	byUser  map[uint]string // user id -> connection id
	byConn  map[string]uint // connection id -> user id
}

func NewTracker() *Tracker {
	return &Tracker{
		byUser: make(map[uint]string),
		byConn: make(map[string]uint),
	}
}

// Register maps a user to a connection. A reconnect overwrites the
// previous entry (last writer wins); the stale reverse entry is dropped
// so Unregister of the old connection cannot knock the user offline.
func (t *Tracker) Register(userID uint, connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.byUser[userID]; ok {
		delete(t.byConn, old)
	}
	t.byUser[userID] = connID
	t.byConn[connID] = userID
}

// Unregister removes the connection's presence entry, if it is still
// the user's current connection.
func (t *Tracker) Unregister(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	userID, ok := t.byConn[connID]
	if !ok {
		return
	}
	delete(t.byConn, connID)
	if t.byUser[userID] == connID {
		delete(t.byUser, userID)
	}
}

// Lookup answers whether the user currently has a live connection
func (t *Tracker) Lookup(userID uint) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	connID, ok := t.byUser[userID]
	return connID, ok
}

// Online reports the number of tracked users
func (t *Tracker) Online() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byUser)
}

// Shutdown clears all presence state
func (t *Tracker) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byUser = make(map[uint]string)
	t.byConn = make(map[string]uint)
}
