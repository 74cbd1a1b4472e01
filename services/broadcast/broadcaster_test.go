package broadcast

import (
	"testing"

	"Staymates/services/coordination"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFanout(t *testing.T) {
	b := NewBroadcaster()
	s1 := b.Subscribe("ABC234")
	s2 := b.Subscribe("ABC234")
	other := b.Subscribe("XYZ789")
	defer s1.Close()
	defer s2.Close()
	defer other.Close()

	ev := coordination.Event{GroupCode: "ABC234", Seq: 1, Type: coordination.EventMemberJoined, Member: "bob"}
	b.Publish(ev)

	assert.Equal(t, ev, <-s1.C)
	assert.Equal(t, ev, <-s2.C)

	select {
	case got := <-other.C:
		t.Fatalf("subscriber of another group received %v", got)
	default:
	}
}

func TestPublishNoSubscribers(t *testing.T) {
	b := NewBroadcaster()
	// Must not block or panic.
	b.Publish(coordination.Event{GroupCode: "ABC234", Seq: 1})
	assert.Zero(t, b.Subscribers("ABC234"))
}

// A subscriber that stops draining its channel is skipped once the buffer
// fills; other subscribers keep receiving.
func TestSlowSubscriberDropped(t *testing.T) {
	b := NewBroadcaster()
	slow := b.Subscribe("ABC234")
	fast := b.Subscribe("ABC234")
	defer slow.Close()
	defer fast.Close()

	for i := 1; i <= subscriberBuffer+5; i++ {
		b.Publish(coordination.Event{GroupCode: "ABC234", Seq: uint64(i)})
		// Keep the fast consumer drained so only the slow one backs up.
		<-fast.C
	}

	assert.Len(t, slow.C, subscriberBuffer)
	first := <-slow.C
	assert.Equal(t, uint64(1), first.Seq)
}

func TestSubscriptionClose(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("ABC234")
	require.Equal(t, 1, b.Subscribers("ABC234"))

	sub.Close()
	assert.Zero(t, b.Subscribers("ABC234"))

	_, open := <-sub.C
	assert.False(t, open, "channel closed on unsubscribe")

	// Close is idempotent.
	sub.Close()
}

func TestCloseTopic(t *testing.T) {
	b := NewBroadcaster()
	s1 := b.Subscribe("ABC234")
	s2 := b.Subscribe("ABC234")

	b.CloseTopic("ABC234")
	assert.Zero(t, b.Subscribers("ABC234"))

	_, open := <-s1.C
	assert.False(t, open)
	_, open = <-s2.C
	assert.False(t, open)

	// Closing the subscription after the topic is gone must not panic.
	s1.Close()
	s2.Close()
}
