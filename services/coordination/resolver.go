package coordination

import (
	redis_models "Staymates/models/redis"
)

// Resolver enforces the one-claim-per-room invariant. All claim mutations
// go through Store.Update, so the check-then-set on a session's claim set
// is serialized by the session's own lock: two concurrent claims on the
// same room can never both succeed.
type Resolver struct {
	store *Store
}

func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// ClaimRoom binds roomID to username inside the session. A member that
// already holds a different room releases it as part of the same operation
// (replace semantics). If roomID is held by someone else, the caller loses:
// first committer wins and the conflict is always explicit.
func (r *Resolver) ClaimRoom(code, username string, roomID, guestCount int) (*SessionView, *Event, error) {
	if roomID <= 0 {
		return nil, nil, newError(CodeValidation, "", "room_id must be positive, got %d", roomID)
	}
	if guestCount < 1 {
		return nil, nil, newError(CodeValidation, "", "guest_count must be at least 1, got %d", guestCount)
	}
	return r.store.Update(code, func(s *redis_models.GroupSession) (*Event, error) {
		if s.Status != redis_models.GroupOpen {
			return nil, newError(CodeState, "", "rooms can only be claimed while group %s is OPEN, it is %s", s.Code, s.Status)
		}
		m := s.Member(username)
		if m == nil {
			return nil, newError(CodeNotFound, "", "user %s is not a member of group %s", username, s.Code)
		}
		if holder := s.ClaimedBy(roomID); holder != nil && holder.Username != username {
			return nil, newError(CodeConflict, "RoomAlreadyClaimed", "room %d in group %s is already claimed by %s", roomID, s.Code, holder.Username)
		}

		// Replaces any previous claim held by this member.
		m.RoomID = roomID
		m.GuestCount = guestCount
		m.Status = redis_models.MemberRoomSelected

		ev := nextEvent(s, EventRoomClaimed)
		ev.Member = username
		ev.RoomID = roomID
		ev.Guests = guestCount
		return ev, nil
	})
}

// ReleaseClaim drops username's claim, if any. Releasing a member with no
// claim is a no-op.
func (r *Resolver) ReleaseClaim(code, username string) (*SessionView, *Event, error) {
	return r.store.Update(code, func(s *redis_models.GroupSession) (*Event, error) {
		m := s.Member(username)
		if m == nil || m.RoomID == 0 {
			return nil, nil
		}
		released := m.RoomID
		m.RoomID = 0
		m.GuestCount = 0
		if m.Status == redis_models.MemberRoomSelected {
			m.Status = redis_models.MemberPending
		}

		ev := nextEvent(s, EventClaimReleased)
		ev.Member = username
		ev.RoomID = released
		return ev, nil
	})
}
