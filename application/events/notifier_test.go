package events

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"archgraph-backend/pkg/observability"
)

func drain(sub *Subscription) []Event {
	var out []Event
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestNotifier_DeliversToAllObservers(t *testing.T) {
	n := NewNotifier(8, nil, nil)
	a := n.Attach("a")
	b := n.Attach("b")

	seq := n.Publish(EventModelChanged, 1, nil, "")
	assert.Equal(t, uint64(1), seq)

	eventsA := drain(a)
	eventsB := drain(b)
	require.Len(t, eventsA, 1)
	require.Len(t, eventsB, 1)
	assert.Equal(t, eventsA[0].Seq, eventsB[0].Seq)
}

func TestNotifier_SequenceStrictlyIncreasing(t *testing.T) {
	n := NewNotifier(16, nil, nil)
	sub := n.Attach("a")

	for i := 0; i < 5; i++ {
		n.Publish(EventModelChanged, uint64(i+1), nil, "")
	}

	received := drain(sub)
	require.Len(t, received, 5)
	for i := 1; i < len(received); i++ {
		assert.Greater(t, received[i].Seq, received[i-1].Seq)
	}
}

func TestNotifier_OriginExcluded(t *testing.T) {
	n := NewNotifier(8, nil, nil)
	origin := n.Attach("origin")
	other := n.Attach("other")

	n.Publish(EventModelChanged, 1, nil, "origin")

	assert.Empty(t, drain(origin), "the originating observer must not be echoed its own change")
	assert.Len(t, drain(other), 1)
}

func TestNotifier_NoDuplicateDeliveryPerObserver(t *testing.T) {
	n := NewNotifier(16, nil, nil)
	sub := n.Attach("a")

	n.Publish(EventModelChanged, 1, nil, "")
	n.Publish(EventModelChanged, 2, nil, "")

	received := drain(sub)
	require.Len(t, received, 2)
	seen := make(map[uint64]bool)
	for _, evt := range received {
		assert.False(t, seen[evt.Seq], "sequence %d delivered twice", evt.Seq)
		seen[evt.Seq] = true
	}
}

func TestNotifier_OverflowDropsOnlySlowObserver(t *testing.T) {
	n := NewNotifier(2, nil, nil)
	slow := n.Attach("slow") // never drained
	fast := n.Attach("fast")

	// queue size 2: the third publish overflows the slow observer
	for i := 0; i < 3; i++ {
		n.Publish(EventModelChanged, uint64(i+1), nil, "")
		drain(fast)
	}

	assert.Equal(t, 1, n.ObserverCount())

	// the slow observer's channel is closed
	received := drain(slow)
	assert.Len(t, received, 2)
	_, open := <-slow.Events()
	assert.False(t, open)

	_, _, dropped := n.Metrics()
	assert.Equal(t, int64(1), dropped)

	// remaining observer keeps receiving
	n.Publish(EventModelChanged, 4, nil, "")
	assert.Len(t, drain(fast), 1)
}

func TestNotifier_ReattachReplacesSubscription(t *testing.T) {
	n := NewNotifier(8, nil, nil)
	old := n.Attach("a")
	fresh := n.Attach("a")

	assert.Equal(t, 1, n.ObserverCount())

	_, open := <-old.Events()
	assert.False(t, open, "replaced subscription must be closed")

	n.Publish(EventModelChanged, 1, nil, "")
	assert.Len(t, drain(fresh), 1)
}

func TestNotifier_Detach(t *testing.T) {
	n := NewNotifier(8, nil, nil)
	sub := n.Attach("a")
	sub.Detach()

	assert.Equal(t, 0, n.ObserverCount())
	_, open := <-sub.Events()
	assert.False(t, open)

	// detaching twice is harmless
	sub.Detach()
}

func TestNotifier_FeedsCollector(t *testing.T) {
	collector := observability.NewCollector("archgraph")
	published := testutil.ToFloat64(collector.EventsPublished)
	delivered := testutil.ToFloat64(collector.EventsDelivered)
	droppedObs := testutil.ToFloat64(collector.ObserversDropped)

	n := NewNotifier(1, collector, nil)
	fast := n.Attach("fast")
	n.Attach("slow")
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.ActiveObservers))

	n.Publish(EventModelChanged, 1, nil, "")
	assert.Len(t, drain(fast), 1)
	// slow never reads; the second publish overflows its queue of one
	n.Publish(EventModelChanged, 2, nil, "")

	assert.Equal(t, published+2, testutil.ToFloat64(collector.EventsPublished))
	assert.Equal(t, delivered+3, testutil.ToFloat64(collector.EventsDelivered))
	assert.Equal(t, droppedObs+1, testutil.ToFloat64(collector.ObserversDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.ActiveObservers))
}
