package coordination

import (
	"log"
	"sync"
	"time"

	redis_models "Staymates/models/redis"
)

// SnapshotStore persists live session documents outside the process so a
// restarted server (or a reconciliation fetch) can restore them. The Redis
// client implements it; a nil SnapshotStore disables snapshotting.
type SnapshotStore interface {
	SaveGroupSession(session *redis_models.GroupSession) error
	// GetGroupSession returns (nil, nil) when the code is unknown.
	GetGroupSession(code string) (*redis_models.GroupSession, error)
	DeleteGroupSession(code string) error
}

// GroupSpec carries the organizer-supplied parameters of a new session.
type GroupSpec struct {
	HotelID      int        `json:"hotel_id"`
	CheckIn      time.Time  `json:"check_in"`
	CheckOut     time.Time  `json:"check_out"`
	MaxMembers   int        `json:"max_members"`
	JoinDeadline *time.Time `json:"join_deadline,omitempty"`
}

// Store is the authoritative registry of live group sessions. Each session
// is guarded by its own mutex, which is the single serialization owner for
// that session's mutations; reads return copies and never block writers for
// longer than the copy takes.
type Store struct {
	mu        sync.RWMutex
	groups    map[string]*groupEntry
	snapshots SnapshotStore
	now       func() time.Time
	newCode   func() string
}

type groupEntry struct {
	mu      sync.Mutex
	session *redis_models.GroupSession
}

func NewStore(snapshots SnapshotStore) *Store {
	return &Store{
		groups:    make(map[string]*groupEntry),
		snapshots: snapshots,
		now:       time.Now,
		newCode:   generateGroupCode,
	}
}

// CreateGroup validates the spec, assigns a unique join code and registers
// the session with the organizer as its only member.
func (st *Store) CreateGroup(organizer string, spec GroupSpec) (*SessionView, error) {
	if organizer == "" {
		return nil, newError(CodeValidation, "", "organizer is required")
	}
	if spec.MaxMembers < 2 {
		return nil, newError(CodeValidation, "", "max_members must be at least 2, got %d", spec.MaxMembers)
	}
	if spec.CheckIn.IsZero() || spec.CheckOut.IsZero() || !spec.CheckIn.Before(spec.CheckOut) {
		return nil, newError(CodeValidation, "", "check_in must be before check_out")
	}
	if spec.JoinDeadline != nil && spec.JoinDeadline.After(spec.CheckIn) {
		return nil, newError(CodeValidation, "", "join_deadline must not be after check_in")
	}

	now := st.now()
	session := &redis_models.GroupSession{
		Organizer:    organizer,
		HotelID:      spec.HotelID,
		CheckIn:      spec.CheckIn,
		CheckOut:     spec.CheckOut,
		MaxMembers:   spec.MaxMembers,
		JoinDeadline: spec.JoinDeadline,
		Status:       redis_models.GroupOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
		Members: []*redis_models.SessionMember{{
			Username:    organizer,
			IsOrganizer: true,
			Status:      redis_models.MemberPending,
			JoinedAt:    now,
		}},
	}

	entry := &groupEntry{session: session}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	st.mu.Lock()
	// Ensure the generated code is unique. Collisions are rare with a 32^6
	// space, so looping is fine. The snapshot store must be consulted too: a
	// session can survive a restart as a Redis-only snapshot, and reusing
	// its code would overwrite it on the next saveSnapshot.
	for {
		code := st.newCode()
		if _, taken := st.groups[code]; taken {
			continue
		}
		if st.snapshots != nil {
			if existing, err := st.snapshots.GetGroupSession(code); err == nil && existing != nil {
				continue
			}
		}
		session.Code = code
		st.groups[code] = entry
		break
	}
	st.mu.Unlock()

	st.saveSnapshot(session)
	log.Printf("[STORE] Group %s created by %s (hotel %d, max %d)",
		session.Code, organizer, spec.HotelID, spec.MaxMembers)
	return newView(session), nil
}

// GetGroup returns a consistent snapshot of the session with the given code.
func (st *Store) GetGroup(code string) (*SessionView, error) {
	entry, err := st.entry(code)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return newView(entry.session), nil
}

// Update runs fn against the live session under its lock. fn returns the
// event produced by the mutation (nil for idempotent no-ops). The snapshot
// is saved after every successful mutation.
func (st *Store) Update(code string, fn func(s *redis_models.GroupSession) (*Event, error)) (*SessionView, *Event, error) {
	entry, err := st.entry(code)
	if err != nil {
		return nil, nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	ev, err := fn(entry.session)
	if err != nil {
		return nil, nil, err
	}
	if ev != nil {
		entry.session.UpdatedAt = st.now()
		st.saveSnapshot(entry.session)
	}
	return newView(entry.session), ev, nil
}

// AddMember admits username into the session, enforcing capacity, the join
// deadline and the OPEN-only rule.
func (st *Store) AddMember(code, username string) (*SessionView, *Event, error) {
	return st.Update(code, func(s *redis_models.GroupSession) (*Event, error) {
		if s.Status != redis_models.GroupOpen {
			return nil, newError(CodeState, "", "group %s is %s, joins are only allowed while OPEN", s.Code, s.Status)
		}
		if s.Member(username) != nil {
			return nil, newError(CodeConflict, "AlreadyMember", "user %s is already in group %s", username, s.Code)
		}
		if s.JoinDeadline != nil && st.now().After(*s.JoinDeadline) {
			return nil, newError(CodeCapacity, "DeadlinePassed", "join deadline for group %s has passed", s.Code)
		}
		if s.ActiveMembers() >= s.MaxMembers {
			return nil, newError(CodeCapacity, "CapacityExceeded", "group %s is full (%d members)", s.Code, s.MaxMembers)
		}
		s.Members = append(s.Members, &redis_models.SessionMember{
			Username: username,
			Status:   redis_models.MemberPending,
			JoinedAt: st.now(),
		})
		ev := nextEvent(s, EventMemberJoined)
		ev.Member = username
		return ev, nil
	})
}

// RemoveMember takes username out of the session, releasing any claim they
// hold. Removing a user that is not a member is a no-op so leave stays
// idempotent. The organizer can never be removed.
func (st *Store) RemoveMember(code, username string) (*SessionView, *Event, error) {
	return st.Update(code, func(s *redis_models.GroupSession) (*Event, error) {
		m := s.Member(username)
		if m == nil {
			return nil, nil
		}
		if m.IsOrganizer {
			return nil, newError(CodeAuthorization, "", "the organizer cannot leave group %s", s.Code)
		}
		if s.Status != redis_models.GroupOpen {
			return nil, newError(CodeState, "", "cannot leave group %s while it is %s", s.Code, s.Status)
		}
		for i, member := range s.Members {
			if member.Username == username {
				s.Members = append(s.Members[:i], s.Members[i+1:]...)
				break
			}
		}
		ev := nextEvent(s, EventMemberLeft)
		ev.Member = username
		return ev, nil
	})
}

// TransitionStatus moves the session to newStatus, enforcing the organizer
// check and the transition table: OPEN->LOCKED, LOCKED->CONFIRMED and
// OPEN|LOCKED->CANCELLED. Anything else is a state error.
func (st *Store) TransitionStatus(code string, newStatus redis_models.GroupStatus, actor, reason string) (*SessionView, *Event, error) {
	return st.Update(code, func(s *redis_models.GroupSession) (*Event, error) {
		return applyTransition(s, newStatus, actor, reason, 0)
	})
}

// ConfirmGroup is TransitionStatus to CONFIRMED with the computed total
// price attached. Reservation creation happens before this call; see the
// coordination service.
func (st *Store) ConfirmGroup(code, actor string, totalPrice float64) (*SessionView, *Event, error) {
	return st.Update(code, func(s *redis_models.GroupSession) (*Event, error) {
		return applyTransition(s, redis_models.GroupConfirmed, actor, "", totalPrice)
	})
}

func applyTransition(s *redis_models.GroupSession, newStatus redis_models.GroupStatus, actor, reason string, totalPrice float64) (*Event, error) {
	if actor != s.Organizer {
		return nil, newError(CodeAuthorization, "", "only the organizer may change the status of group %s", s.Code)
	}

	allowed := false
	switch newStatus {
	case redis_models.GroupLocked:
		allowed = s.Status == redis_models.GroupOpen
	case redis_models.GroupConfirmed:
		allowed = s.Status == redis_models.GroupLocked
	case redis_models.GroupCancelled:
		allowed = s.Status == redis_models.GroupOpen || s.Status == redis_models.GroupLocked
	}
	if !allowed {
		return nil, newError(CodeState, "", "group %s cannot go from %s to %s", s.Code, s.Status, newStatus)
	}

	s.Status = newStatus
	var ev *Event
	switch newStatus {
	case redis_models.GroupLocked:
		ev = nextEvent(s, EventGroupLocked)
	case redis_models.GroupConfirmed:
		// Members without a room are excluded from reservation creation
		// and terminate as CANCELLED.
		for _, m := range s.Members {
			switch m.Status {
			case redis_models.MemberRoomSelected:
				m.Status = redis_models.MemberConfirmed
			case redis_models.MemberPending:
				m.Status = redis_models.MemberCancelled
			}
		}
		s.TotalPrice = totalPrice
		ev = nextEvent(s, EventGroupConfirmed)
	case redis_models.GroupCancelled:
		for _, m := range s.Members {
			if m.Status != redis_models.MemberCancelled {
				m.Status = redis_models.MemberCancelled
			}
			m.RoomID = 0
			m.GuestCount = 0
		}
		ev = nextEvent(s, EventGroupCancelled)
		ev.Reason = reason
	}
	return ev, nil
}

// entry finds the live session, falling back to the snapshot store after a
// process restart.
func (st *Store) entry(code string) (*groupEntry, error) {
	st.mu.RLock()
	entry, ok := st.groups[code]
	st.mu.RUnlock()
	if ok {
		return entry, nil
	}

	if st.snapshots != nil {
		session, err := st.snapshots.GetGroupSession(code)
		if err != nil {
			log.Printf("[STORE-ERROR] Error restoring group %s from snapshot: %v", code, err)
		} else if session != nil {
			st.mu.Lock()
			defer st.mu.Unlock()
			if existing, ok := st.groups[code]; ok {
				return existing, nil
			}
			entry = &groupEntry{session: session}
			st.groups[code] = entry
			log.Printf("[STORE] Group %s restored from snapshot", code)
			return entry, nil
		}
	}
	return nil, newError(CodeNotFound, "", "group %s not found", code)
}

func (st *Store) saveSnapshot(s *redis_models.GroupSession) {
	if st.snapshots == nil {
		return
	}
	if err := st.snapshots.SaveGroupSession(s); err != nil {
		// Snapshot persistence is best-effort and never fails a mutation.
		log.Printf("[STORE-ERROR] Error saving snapshot of group %s: %v", s.Code, err)
	}
}
