package coordination

import (
	"time"

	redis_models "Staymates/models/redis"
)

type EventType string

const (
	EventMemberJoined   EventType = "member_joined"
	EventMemberLeft     EventType = "member_left"
	EventRoomClaimed    EventType = "room_claimed"
	EventClaimReleased  EventType = "claim_released"
	EventGroupLocked    EventType = "group_locked"
	EventGroupConfirmed EventType = "group_confirmed"
	EventGroupCancelled EventType = "group_cancelled"
)

// Event is the fixed-schema notification produced by every successful
// mutation. Seq increases by one per event within a group, so consumers
// can detect duplicates and gaps.
type Event struct {
	GroupCode string                    `json:"group_code"`
	Seq       uint64                    `json:"seq"`
	Type      EventType                 `json:"type"`
	Member    string                    `json:"member,omitempty"`
	RoomID    int                       `json:"room_id,omitempty"`
	Guests    int                       `json:"guests,omitempty"`
	Status    redis_models.GroupStatus  `json:"status,omitempty"`
	Reason    string                    `json:"reason,omitempty"`
	Timestamp time.Time                 `json:"timestamp"`
}

// nextEvent stamps an event with the group's next sequence number. Must be
// called while holding the group's lock.
func nextEvent(s *redis_models.GroupSession, typ EventType) *Event {
	s.EventSeq++
	return &Event{
		GroupCode: s.Code,
		Seq:       s.EventSeq,
		Type:      typ,
		Status:    s.Status,
		Timestamp: time.Now(),
	}
}
