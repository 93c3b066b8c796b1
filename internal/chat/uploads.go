package chat

import (
	"sync"
	"time"
)

// DefaultUploadTTL bounds how long an uploaded chat image stays
// fetchable before it is attached to a persisted message.
const DefaultUploadTTL = 60 * time.Second

type pendingUpload struct {
	userID    uint
	createdAt time.Time
}

// PendingUploads authorizes uploaders to fetch their own chat images
// during the window between upload and message persistence. Entries
// expire after the TTL or once consumed; a janitor goroutine purges
// expired entries so the map stays bounded.
type PendingUploads struct {
	mu      sync.Mutex
	entries map[string]pendingUpload
	ttl     time.Duration
	done    chan struct{}
	once    sync.Once
}

func NewPendingUploads(ttl time.Duration) *PendingUploads {
	if ttl <= 0 {
		ttl = DefaultUploadTTL
	}
	p := &PendingUploads{
		entries: make(map[string]pendingUpload),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go p.janitor()
	return p
}

// Register records the uploader of a freshly uploaded image
func (p *PendingUploads) Register(filename string, userID uint) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[filename] = pendingUpload{userID: userID, createdAt: time.Now()}
}

// Owner returns the uploader of a still-pending image
func (p *PendingUploads) Owner(filename string) (uint, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[filename]
	if !ok {
		return 0, false
	}
	if time.Since(entry.createdAt) > p.ttl {
		delete(p.entries, filename)
		return 0, false
	}
	return entry.userID, true
}

// Consume removes the entry once the image is attached to a message
func (p *PendingUploads) Consume(filename string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, filename)
}

func (p *PendingUploads) janitor() {
	ticker := time.NewTicker(p.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			for filename, entry := range p.entries {
				if time.Since(entry.createdAt) > p.ttl {
					delete(p.entries, filename)
				}
			}
			p.mu.Unlock()
		}
	}
}

// Shutdown stops the janitor and clears all entries
func (p *PendingUploads) Shutdown() {
	p.once.Do(func() { close(p.done) })
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]pendingUpload)
}
