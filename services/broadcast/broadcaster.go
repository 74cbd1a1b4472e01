package broadcast

import (
	"log"
	"sync"

	"Staymates/services/coordination"

	"github.com/google/uuid"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind gets a gap, which its sync agent repairs with a full
// reconciliation, so dropping here is safe.
const subscriberBuffer = 32

// Subscription is one consumer's handle on a group topic. Close is
// idempotent.
type Subscription struct {
	ID   string
	C    <-chan coordination.Event
	code string
	b    *Broadcaster
	once sync.Once
}

func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.unsubscribe(s.code, s.ID)
	})
}

// Broadcaster fans out coordination events, one topic per group session.
// Publishing never blocks and publishing to a topic with no subscribers is
// a silent no-op. Delivery is at-least-once for currently-subscribed
// consumers; nothing is retained once delivered.
type Broadcaster struct {
	mu     sync.RWMutex
	topics map[string]map[string]chan coordination.Event
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{topics: make(map[string]map[string]chan coordination.Event)}
}

// Subscribe attaches a new consumer to the group's topic.
func (b *Broadcaster) Subscribe(code string) *Subscription {
	ch := make(chan coordination.Event, subscriberBuffer)
	id := uuid.New().String()

	b.mu.Lock()
	subs, ok := b.topics[code]
	if !ok {
		subs = make(map[string]chan coordination.Event)
		b.topics[code] = subs
	}
	subs[id] = ch
	b.mu.Unlock()

	return &Subscription{ID: id, C: ch, code: code, b: b}
}

// Publish delivers ev to every subscriber of its group's topic. Slow
// subscribers are skipped rather than blocking the publisher.
func (b *Broadcaster) Publish(ev coordination.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.topics[ev.GroupCode] {
		select {
		case ch <- ev:
		default:
			log.Printf("[BROADCAST] Subscriber %s of group %s is lagging, dropping event %d",
				id, ev.GroupCode, ev.Seq)
		}
	}
}

// Subscribers reports how many consumers a group topic currently has.
func (b *Broadcaster) Subscribers(code string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[code])
}

// CloseTopic drops every subscription of a group, closing their channels.
// Used when a session reaches a terminal state.
func (b *Broadcaster) CloseTopic(code string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.topics[code] {
		close(ch)
	}
	delete(b.topics, code)
}

func (b *Broadcaster) unsubscribe(code, id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs, ok := b.topics[code]
	if !ok {
		return
	}
	if ch, ok := subs[id]; ok {
		close(ch)
		delete(subs, id)
	}
	if len(subs) == 0 {
		delete(b.topics, code)
	}
}
