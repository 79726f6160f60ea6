// Package events fans ledger events out to registered subscribers, such as
// websocket clients watching blocks being mined.
package events

import (
	"fmt"
	"sync"
)

// messageBuffer is the number of events a subscriber can fall behind before
// events are dropped for it. A websocket write can take a while.
const messageBuffer = 100

// Events maintains a mapping of subscriber id to the channel events are
// delivered on.
type Events struct {
	mu     sync.RWMutex
	m      map[string]chan string
	closed bool
}

// New constructs an events hub.
func New() *Events {
	return &Events{
		m: make(map[string]chan string),
	}
}

// Shutdown closes and removes every subscriber channel. Later calls to
// Acquire return a closed channel and Send becomes a no-op.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.m {
		delete(evt.m, id)
		close(ch)
	}
	evt.closed = true
}

// Acquire registers the subscriber id and returns the channel its events are
// delivered on. Acquiring an id twice returns the same channel.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if evt.closed {
		ch := make(chan string)
		close(ch)
		return ch
	}

	ch, exists := evt.m[id]
	if !exists {
		ch = make(chan string, messageBuffer)
		evt.m[id] = ch
	}

	return ch
}

// Release closes and removes the channel registered for the subscriber id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(ch)
	return nil
}

// Subscribers returns the number of registered subscribers.
func (evt *Events) Subscribers() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send delivers the message to every subscriber. A subscriber whose buffer
// is full misses the message; Send never blocks.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.m {
		select {
		case ch <- s:
		default:
		}
	}
}

// EvHandler returns an event handler, in the form the ledger packages accept,
// that formats and sends each event.
func (evt *Events) EvHandler() func(v string, args ...any) {
	return func(v string, args ...any) {
		evt.Send(fmt.Sprintf(v, args...))
	}
}
