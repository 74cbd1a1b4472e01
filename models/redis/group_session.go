package redis

import "time"

type GroupStatus string

const (
	GroupOpen      GroupStatus = "OPEN"
	GroupLocked    GroupStatus = "LOCKED"
	GroupConfirmed GroupStatus = "CONFIRMED"
	GroupCancelled GroupStatus = "CANCELLED"
)

type MemberStatus string

const (
	MemberPending      MemberStatus = "PENDING"
	MemberRoomSelected MemberStatus = "ROOM_SELECTED"
	MemberConfirmed    MemberStatus = "CONFIRMED"
	MemberCancelled    MemberStatus = "CANCELLED"
)

// SessionMember represents one participant inside a live group session
type SessionMember struct {
	Username    string       `json:"username"`    // Matches users.username
	IsOrganizer bool         `json:"is_organizer"`
	Status      MemberStatus `json:"status"`
	RoomID      int          `json:"room_id"`     // 0 means no room claimed
	GuestCount  int          `json:"guest_count"`
	JoinedAt    time.Time    `json:"joined_at"`
}

// GroupSession is the live state of a group booking session. It is the
// document stored in Redis under "group:{code}" while the session is alive.
type GroupSession struct {
	Code         string           `json:"code"` // Matches booking_groups.id
	Organizer    string           `json:"organizer"`
	HotelID      int              `json:"hotel_id"`
	CheckIn      time.Time        `json:"check_in"`
	CheckOut     time.Time        `json:"check_out"`
	MaxMembers   int              `json:"max_members"`
	JoinDeadline *time.Time       `json:"join_deadline,omitempty"`
	Status       GroupStatus      `json:"status"`
	TotalPrice   float64          `json:"total_price"` // Set when the group is confirmed
	EventSeq     uint64           `json:"event_seq"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
	Members      []*SessionMember `json:"members"`
}

// Member returns the member with the given username, or nil.
func (s *GroupSession) Member(username string) *SessionMember {
	for _, m := range s.Members {
		if m.Username == username {
			return m
		}
	}
	return nil
}

// ActiveMembers counts members that have not cancelled or left.
func (s *GroupSession) ActiveMembers() int {
	n := 0
	for _, m := range s.Members {
		if m.Status != MemberCancelled {
			n++
		}
	}
	return n
}

// ClaimedBy returns the member currently holding a claim on roomID, or nil.
func (s *GroupSession) ClaimedBy(roomID int) *SessionMember {
	for _, m := range s.Members {
		if m.Status != MemberCancelled && m.RoomID == roomID {
			return m
		}
	}
	return nil
}
