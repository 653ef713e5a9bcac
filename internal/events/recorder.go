package events

import (
	"sync"
	"time"

	"github.com/giantswarm/patternhost/pkg/logging"
)

const defaultHistorySize = 100

// Recorder renders events, keeps a bounded history and fans them out to
// subscribers.
type Recorder struct {
	templates *MessageTemplateEngine

	mu          sync.Mutex
	history     []Event
	historySize int
	subscribers map[int]chan Event
	nextID      int
	closed      bool

	now func() time.Time
}

// NewRecorder creates a recorder that remembers up to historySize events.
// A non-positive size uses the default.
func NewRecorder(historySize int) *Recorder {
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &Recorder{
		templates:   NewMessageTemplateEngine(),
		historySize: historySize,
		subscribers: make(map[int]chan Event),
		now:         time.Now,
	}
}

// Templates exposes the template engine for customisation.
func (r *Recorder) Templates() *MessageTemplateEngine {
	return r.templates
}

// Record renders and stores an event, then delivers it to every subscriber
// without blocking. A nil Recorder discards the event.
func (r *Recorder) Record(reason EventReason, data EventData) Event {
	event := Event{
		Type:    getEventType(reason),
		Reason:  reason,
		Pattern: data.Pattern,
		Data:    data,
	}
	if r == nil {
		return event
	}
	event.Message = r.templates.Render(reason, data)

	r.mu.Lock()
	defer r.mu.Unlock()

	event.Timestamp = r.now()
	if r.closed {
		return event
	}

	r.history = append(r.history, event)
	if len(r.history) > r.historySize {
		r.history = r.history[len(r.history)-r.historySize:]
	}

	for id, ch := range r.subscribers {
		select {
		case ch <- event:
		default:
			logging.Warn("events", "Subscriber %d buffer full, dropping %s event", id, reason)
		}
	}

	logging.Debug("events", "Recorded %s event: %s", reason, event.Message)
	return event
}

// Subscribe returns a channel receiving every event recorded from now on and
// a cancel function that unsubscribes and closes the channel.
func (r *Recorder) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Event, buffer)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		close(ch)
		return ch, func() {}
	}

	id := r.nextID
	r.nextID++
	r.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			if sub, ok := r.subscribers[id]; ok {
				delete(r.subscribers, id)
				close(sub)
			}
		})
	}
}

// History returns a copy of the retained events, oldest first.
func (r *Recorder) History() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.history...)
}

// Close closes every subscriber channel. Later events are still rendered and
// returned by Record but no longer stored or delivered.
func (r *Recorder) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subscribers {
		delete(r.subscribers, id)
		close(ch)
	}
}
