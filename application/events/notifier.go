// Package events fans accepted model changes out to attached observers.
package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"archgraph-backend/domain/versioning"
	"archgraph-backend/pkg/observability"
)

// Event types carried by change events.
const (
	EventModelLoaded    = "model.loaded"
	EventModelChanged   = "model.changed"
	EventModelCommitted = "model.committed"
	EventModelRestored  = "model.restored"
)

// ObserverID identifies an attached observer (typically one UI process).
type ObserverID string

// Event is one broadcast change notification. Seq is strictly increasing
// across all publishes; observers use it to detect gaps and request a full
// resync instead of an incremental patch.
type Event struct {
	Seq       uint64           `json:"seq"`
	Type      string           `json:"type"`
	Version   uint64           `json:"version"`
	Diff      *versioning.Diff `json:"diff,omitempty"`
	Origin    ObserverID       `json:"origin,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Subscription is an observer's handle on the notifier. Events are consumed
// from Events(); the channel is closed when the observer is detached or
// dropped for falling behind.
type Subscription struct {
	id       ObserverID
	events   chan Event
	notifier *Notifier

	mu      sync.Mutex
	lastSeq uint64
	dropped bool
	closed  bool
}

// ID returns the observer id bound to this subscription
func (s *Subscription) ID() ObserverID { return s.id }

// Events returns the delivery channel
func (s *Subscription) Events() <-chan Event { return s.events }

// Detach removes the subscription from the notifier
func (s *Subscription) Detach() { s.notifier.Detach(s.id) }

// closeOnce marks the subscription dropped and closes its channel exactly
// once, whichever of detach, replacement or overflow gets there first.
func (s *Subscription) closeOnce() {
	s.mu.Lock()
	s.dropped = true
	alreadyClosed := s.closed
	s.closed = true
	s.mu.Unlock()

	if !alreadyClosed {
		close(s.events)
	}
}

// deliver hands one event to the subscription's queue. Dedup key is
// (event sequence number, observer id): a sequence at or below the last
// delivered one is discarded, so re-entered publishes of the same logical
// mutation can never deliver twice. Delivery never blocks; a full queue
// drops the observer, which must resync from scratch on reattachment.
func (s *Subscription) deliver(evt Event) (delivered, dropped bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dropped || evt.Seq <= s.lastSeq {
		return false, false
	}
	select {
	case s.events <- evt:
		s.lastSeq = evt.Seq
		return true, false
	default:
		s.dropped = true
		return false, true
	}
}

// NotifierMetrics tracks fan-out counters
type NotifierMetrics struct {
	mu               sync.RWMutex
	EventsPublished  int64
	EventsDelivered  int64
	ObserversDropped int64
}

// Notifier converts applied mutation batches into broadcast events and
// delivers each exactly once per attached observer, skipping the observer
// that originated the change. Per-observer queues are independent and
// bounded so one slow observer never blocks the rest.
type Notifier struct {
	mu        sync.RWMutex
	subs      map[ObserverID]*Subscription
	seq       uint64
	queueSize int
	collector *observability.Collector
	logger    *zap.Logger
	metrics   NotifierMetrics
}

// DefaultQueueSize is the per-observer delivery buffer used when no size is
// configured.
const DefaultQueueSize = 256

// NewNotifier creates a notifier with the given per-observer queue size.
// collector may be nil.
func NewNotifier(queueSize int, collector *observability.Collector, logger *zap.Logger) *Notifier {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		subs:      make(map[ObserverID]*Subscription),
		queueSize: queueSize,
		collector: collector,
		logger:    logger,
	}
}

// Attach registers an observer and returns its subscription. Reattaching an
// id that is already present replaces the old subscription; the observer is
// expected to resync from the current working copy, not to replay history.
func (n *Notifier) Attach(id ObserverID) *Subscription {
	sub := &Subscription{
		id:       id,
		events:   make(chan Event, n.queueSize),
		notifier: n,
	}

	n.mu.Lock()
	old, replaced := n.subs[id]
	n.subs[id] = sub
	total := len(n.subs)
	n.mu.Unlock()

	if replaced {
		old.closeOnce()
	}
	if n.collector != nil {
		n.collector.ActiveObservers.Set(float64(total))
	}

	n.logger.Info("observer attached",
		zap.String("observerID", string(id)),
		zap.Int("observers", total),
	)
	return sub
}

// Detach removes an observer and closes its delivery channel
func (n *Notifier) Detach(id ObserverID) {
	n.mu.Lock()
	sub, ok := n.subs[id]
	if ok {
		delete(n.subs, id)
	}
	total := len(n.subs)
	n.mu.Unlock()

	if !ok {
		return
	}
	sub.closeOnce()
	if n.collector != nil {
		n.collector.ActiveObservers.Set(float64(total))
	}

	n.logger.Info("observer detached", zap.String("observerID", string(id)))
}

// Publish assigns the next sequence number to the event and delivers it to
// every attached observer except the originating one. Returns the assigned
// sequence number.
func (n *Notifier) Publish(eventType string, version uint64, diff *versioning.Diff, origin ObserverID) uint64 {
	n.mu.Lock()
	n.seq++
	evt := Event{
		Seq:       n.seq,
		Type:      eventType,
		Version:   version,
		Diff:      diff,
		Origin:    origin,
		Timestamp: time.Now(),
	}
	targets := make([]*Subscription, 0, len(n.subs))
	for id, sub := range n.subs {
		if id == origin {
			continue
		}
		targets = append(targets, sub)
	}
	n.mu.Unlock()

	n.metrics.mu.Lock()
	n.metrics.EventsPublished++
	n.metrics.mu.Unlock()
	if n.collector != nil {
		n.collector.EventsPublished.Inc()
	}

	var overflowed []*Subscription
	for _, sub := range targets {
		delivered, dropped := sub.deliver(evt)
		if delivered {
			n.metrics.mu.Lock()
			n.metrics.EventsDelivered++
			n.metrics.mu.Unlock()
			if n.collector != nil {
				n.collector.EventsDelivered.Inc()
			}
		}
		if dropped {
			overflowed = append(overflowed, sub)
		}
	}

	// Overflowing observers are dropped silently from the notifier's
	// perspective; resync on reattachment is their responsibility.
	for _, sub := range overflowed {
		n.removeOverflowed(sub)
	}

	return evt.Seq
}

// ObserverCount returns the number of attached observers
func (n *Notifier) ObserverCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Metrics returns a copy of the fan-out counters
func (n *Notifier) Metrics() (published, delivered, droppedObservers int64) {
	n.metrics.mu.RLock()
	defer n.metrics.mu.RUnlock()
	return n.metrics.EventsPublished, n.metrics.EventsDelivered, n.metrics.ObserversDropped
}

func (n *Notifier) removeOverflowed(sub *Subscription) {
	n.mu.Lock()
	if current, ok := n.subs[sub.id]; ok && current == sub {
		delete(n.subs, sub.id)
	}
	total := len(n.subs)
	n.mu.Unlock()

	sub.closeOnce()

	n.metrics.mu.Lock()
	n.metrics.ObserversDropped++
	n.metrics.mu.Unlock()
	if n.collector != nil {
		n.collector.ObserversDropped.Inc()
		n.collector.ActiveObservers.Set(float64(total))
	}

	n.logger.Warn("observer queue overflowed, observer dropped",
		zap.String("observerID", string(sub.id)),
	)
}
