package clientsync

import (
	"log"
	"sync"
	"time"

	"Staymates/services/broadcast"
	"Staymates/services/coordination"
)

// ConnState is the connection state machine of one synchronization agent:
// DISCONNECTED -> CONNECTING -> CONNECTED -> DISCONNECTED, with OFFLINE as
// the give-up state once the retry bound is exhausted.
type ConnState string

const (
	StateDisconnected ConnState = "DISCONNECTED"
	StateConnecting   ConnState = "CONNECTING"
	StateConnected    ConnState = "CONNECTED"
	StateOffline      ConnState = "OFFLINE"
)

// Backoff computes reconnect delays purely from the attempt count, with no
// coupling to any timer API.
type Backoff struct {
	Base       time.Duration
	Factor     float64
	Max        time.Duration
	MaxRetries int
}

// DefaultBackoff: 500ms, 1s, 2s, 4s, 8s, then capped at 10s.
var DefaultBackoff = Backoff{
	Base:       500 * time.Millisecond,
	Factor:     2,
	Max:        10 * time.Second,
	MaxRetries: 8,
}

// Delay returns the wait before reconnect attempt n (0-based).
func (b Backoff) Delay(attempt int) time.Duration {
	d := float64(b.Base)
	for i := 0; i < attempt; i++ {
		d *= b.Factor
		if time.Duration(d) >= b.Max {
			return b.Max
		}
	}
	if time.Duration(d) > b.Max {
		return b.Max
	}
	return time.Duration(d)
}

// FetchFunc performs a full reconciliation fetch of the group state.
type FetchFunc func(code string) (*coordination.SessionView, error)

// Agent keeps one connected participant's local view of a group session in
// step with the event stream. It applies events strictly in sequence,
// discards duplicates, and falls back to a full reconciliation whenever it
// detects a gap or reconnects. One Agent per connection.
type Agent struct {
	code  string
	b     *broadcast.Broadcaster
	fetch FetchFunc

	backoff Backoff
	sleep   func(time.Duration) // injectable for tests

	mu       sync.Mutex
	state    ConnState
	view     *coordination.SessionView
	lastSeen uint64
	sub      *broadcast.Subscription
	stopped  bool

	// OnOffline, if set, is called once when the retry bound is exhausted.
	OnOffline func()
}

func NewAgent(code string, b *broadcast.Broadcaster, fetch FetchFunc, backoff Backoff) *Agent {
	return &Agent{
		code:    code,
		b:       b,
		fetch:   fetch,
		backoff: backoff,
		sleep:   time.Sleep,
		state:   StateDisconnected,
	}
}

// Connect performs the initial reconciliation, subscribes to the group's
// topic and starts consuming events. The event stream is never trusted
// across a connection boundary: every (re)connect reconciles first.
func (a *Agent) Connect() error {
	a.mu.Lock()
	a.state = StateConnecting
	a.mu.Unlock()

	view, err := a.fetch(a.code)
	if err != nil {
		a.mu.Lock()
		a.state = StateDisconnected
		a.mu.Unlock()
		return err
	}

	sub := a.b.Subscribe(a.code)

	a.mu.Lock()
	a.view = view
	a.lastSeen = view.Seq
	a.sub = sub
	a.state = StateConnected
	a.mu.Unlock()

	go a.consume(sub)
	return nil
}

// Disconnect tears the agent down for good. Idempotent.
func (a *Agent) Disconnect() {
	a.mu.Lock()
	a.stopped = true
	a.state = StateDisconnected
	sub := a.sub
	a.sub = nil
	a.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

// State returns the current connection state.
func (a *Agent) State() ConnState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LocalView returns a copy of the agent's current view of the session.
func (a *Agent) LocalView() *coordination.SessionView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil {
		return nil
	}
	copied := *a.view
	copied.Members = append([]coordination.MemberView(nil), a.view.Members...)
	return &copied
}

// ApplyLocal funnels the result of a direct API call (the no-realtime
// fallback path) through the same local-view update as the event stream.
// Stale results are ignored.
func (a *Agent) ApplyLocal(view *coordination.SessionView) {
	if view == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.view == nil || view.Seq >= a.lastSeen {
		a.view = view
		a.lastSeen = view.Seq
	}
}

// OnEvent merges one event into the local view. Duplicates are discarded;
// a gap triggers a full reconciliation instead of partial replay.
func (a *Agent) OnEvent(ev coordination.Event) {
	a.mu.Lock()
	switch {
	case ev.Seq <= a.lastSeen:
		// Duplicate delivery, drop it.
		a.mu.Unlock()
		return
	case ev.Seq == a.lastSeen+1:
		a.view.Apply(ev)
		a.lastSeen = ev.Seq
		a.mu.Unlock()
		return
	default:
		log.Printf("[SYNC-AGENT] Gap detected for group %s (have %d, got %d), reconciling",
			a.code, a.lastSeen, ev.Seq)
		a.mu.Unlock()
		a.reconcile()
	}
}

// consume drains the subscription until its channel closes, then runs the
// reconnect loop. Each consume goroutine belongs to exactly one
// subscription, so a reconnect never leaks consumers.
func (a *Agent) consume(sub *broadcast.Subscription) {
	for ev := range sub.C {
		a.OnEvent(ev)
	}

	a.mu.Lock()
	if a.stopped || a.sub != sub {
		a.mu.Unlock()
		return
	}
	a.sub = nil
	a.state = StateDisconnected
	a.mu.Unlock()

	a.runReconnect()
}

// runReconnect is the bounded exponential-backoff loop. After the retry
// bound it surfaces a persistent-offline signal instead of retrying
// forever.
func (a *Agent) runReconnect() {
	for attempt := 0; attempt < a.backoff.MaxRetries; attempt++ {
		a.sleep(a.backoff.Delay(attempt))

		a.mu.Lock()
		if a.stopped {
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()

		if err := a.Connect(); err == nil {
			log.Printf("[SYNC-AGENT] Reconnected to group %s after %d attempt(s)", a.code, attempt+1)
			return
		}
	}

	a.mu.Lock()
	a.state = StateOffline
	cb := a.OnOffline
	a.mu.Unlock()
	log.Printf("[SYNC-AGENT] Giving up on group %s after %d attempts", a.code, a.backoff.MaxRetries)
	if cb != nil {
		cb()
	}
}

// reconcile refetches the full session state and resets the sequence
// cursor.
func (a *Agent) reconcile() {
	view, err := a.fetch(a.code)
	if err != nil {
		log.Printf("[SYNC-AGENT] Reconciliation of group %s failed: %v", a.code, err)
		return
	}
	a.mu.Lock()
	a.view = view
	a.lastSeen = view.Seq
	a.mu.Unlock()
}
