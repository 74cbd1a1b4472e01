package coordination

import (
	"time"

	redis_models "Staymates/models/redis"
)

// MemberView is the participant snapshot handed to presentation layers.
type MemberView struct {
	Username    string                    `json:"username"`
	IsOrganizer bool                      `json:"is_organizer"`
	Status      redis_models.MemberStatus `json:"status"`
	RoomID      int                       `json:"room_id"`
	GuestCount  int                       `json:"guest_count"`
	JoinedAt    time.Time                 `json:"joined_at"`
}

// SessionView is an immutable snapshot of a group session. Store methods
// always return copies, so readers never share memory with live state.
type SessionView struct {
	Code         string                   `json:"code"`
	Organizer    string                   `json:"organizer"`
	HotelID      int                      `json:"hotel_id"`
	CheckIn      time.Time                `json:"check_in"`
	CheckOut     time.Time                `json:"check_out"`
	MaxMembers   int                      `json:"max_members"`
	JoinDeadline *time.Time               `json:"join_deadline,omitempty"`
	Status       redis_models.GroupStatus `json:"status"`
	TotalPrice   float64                  `json:"total_price"`
	Seq          uint64                   `json:"seq"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	Members      []MemberView             `json:"members"`
}

func newView(s *redis_models.GroupSession) *SessionView {
	v := &SessionView{
		Code:       s.Code,
		Organizer:  s.Organizer,
		HotelID:    s.HotelID,
		CheckIn:    s.CheckIn,
		CheckOut:   s.CheckOut,
		MaxMembers: s.MaxMembers,
		Status:     s.Status,
		TotalPrice: s.TotalPrice,
		Seq:        s.EventSeq,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
		Members:    make([]MemberView, 0, len(s.Members)),
	}
	if s.JoinDeadline != nil {
		d := *s.JoinDeadline
		v.JoinDeadline = &d
	}
	for _, m := range s.Members {
		v.Members = append(v.Members, MemberView{
			Username:    m.Username,
			IsOrganizer: m.IsOrganizer,
			Status:      m.Status,
			RoomID:      m.RoomID,
			GuestCount:  m.GuestCount,
			JoinedAt:    m.JoinedAt,
		})
	}
	return v
}

// Member returns a pointer into v.Members for the given username, or nil.
func (v *SessionView) Member(username string) *MemberView {
	for i := range v.Members {
		if v.Members[i].Username == username {
			return &v.Members[i]
		}
	}
	return nil
}

// Apply merges a single event into the view. Callers are responsible for
// ordering: events must be applied with consecutive sequence numbers.
func (v *SessionView) Apply(ev Event) {
	switch ev.Type {
	case EventMemberJoined:
		if v.Member(ev.Member) == nil {
			v.Members = append(v.Members, MemberView{
				Username: ev.Member,
				Status:   redis_models.MemberPending,
				JoinedAt: ev.Timestamp,
			})
		}
	case EventMemberLeft:
		for i := range v.Members {
			if v.Members[i].Username == ev.Member {
				v.Members = append(v.Members[:i], v.Members[i+1:]...)
				break
			}
		}
	case EventRoomClaimed:
		if m := v.Member(ev.Member); m != nil {
			m.RoomID = ev.RoomID
			m.GuestCount = ev.Guests
			m.Status = redis_models.MemberRoomSelected
		}
	case EventClaimReleased:
		if m := v.Member(ev.Member); m != nil {
			m.RoomID = 0
			m.GuestCount = 0
			m.Status = redis_models.MemberPending
		}
	case EventGroupLocked:
		v.Status = redis_models.GroupLocked
	case EventGroupConfirmed:
		v.Status = redis_models.GroupConfirmed
		for i := range v.Members {
			switch v.Members[i].Status {
			case redis_models.MemberRoomSelected:
				v.Members[i].Status = redis_models.MemberConfirmed
			case redis_models.MemberPending:
				v.Members[i].Status = redis_models.MemberCancelled
			}
		}
	case EventGroupCancelled:
		v.Status = redis_models.GroupCancelled
		for i := range v.Members {
			if v.Members[i].Status != redis_models.MemberCancelled {
				v.Members[i].Status = redis_models.MemberCancelled
			}
			v.Members[i].RoomID = 0
		}
	}
	v.Seq = ev.Seq
	v.UpdatedAt = ev.Timestamp
}
