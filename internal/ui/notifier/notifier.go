// Package notifier fans tree changes out to live SSE subscribers.
package notifier

import (
	"sync"

	"github.com/leapstack-labs/treegrid/pkg/core"
)

// Kind identifies what changed.
type Kind string

const (
	// KindMove is sent after a committed reparent.
	KindMove Kind = "move"
	// KindReload is sent after the whole forest was replaced.
	KindReload Kind = "reload"
)

// Event is delivered to subscribers. Move is set only for KindMove.
type Event struct {
	Kind Kind
	Move *core.MoveEvent
}

// bufferSize bounds how far a slow subscriber may fall behind before
// events are dropped for it.
const bufferSize = 8

// Notifier broadcasts events to all subscribed listeners.
// Listeners that fall behind miss events and should re-query the source.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives events.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, bufferSize)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	_, ok := n.listeners[ch]
	delete(n.listeners, ch)
	n.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Len returns the number of active listeners.
func (n *Notifier) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}

// Broadcast sends ev to all listeners without blocking.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
			// full, listener catches up on the next event
		}
	}
}

// Moved broadcasts a committed move. It has the shape of a forest observer.
func (n *Notifier) Moved(ev core.MoveEvent) {
	n.Broadcast(Event{Kind: KindMove, Move: &ev})
}

// Reloaded broadcasts a forest reload.
func (n *Notifier) Reloaded() {
	n.Broadcast(Event{Kind: KindReload})
}
