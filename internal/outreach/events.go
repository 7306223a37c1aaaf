package outreach

import "sync"

// ProgressEvent describes one step of a running job.
type ProgressEvent struct {
	JobID     string `json:"job_id"`
	TargetURL string `json:"target_url"`
	Index     int    `json:"index"`
	Total     int    `json:"total"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// ProgressHandler receives progress events. Handlers must be fast; they
// run inline on the job's goroutine.
type ProgressHandler func(ProgressEvent)

// Bus fans progress events out to subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers []ProgressHandler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a handler for all future events.
func (b *Bus) Subscribe(h ProgressHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Publish delivers an event to every subscriber.
func (b *Bus) Publish(e ProgressEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, h := range b.handlers {
		h(e)
	}
}
