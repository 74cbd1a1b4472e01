package postgres

import (
	"time"
)

/*
 * 'BookingGroup' is the durable record of a group booking session. The id
 * is the short join code that participants type to join. Live coordination
 * state is held in memory and mirrored to Redis while the session is
 * active; rows here are kept in sync by the sync manager.
 */
type BookingGroup struct {
	ID                string     `gorm:"primaryKey;size:10;not null"` // join code
	OrganizerUsername string     `gorm:"size:50;not null;index:idx_booking_groups_organizer"`
	HotelID           int        `gorm:"not null;index:idx_booking_groups_hotel"`
	CheckIn           time.Time  `gorm:"not null"`
	CheckOut          time.Time  `gorm:"not null"`
	MaxMembers        int        `gorm:"not null"`
	JoinDeadline      *time.Time
	Status            string     `gorm:"size:20;not null;default:'OPEN';index:idx_booking_groups_status"`
	TotalPrice        float64    `gorm:"default:0"` // Only set once the group is CONFIRMED
	CreatedAt         time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time  `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the group's members
	Members []*GroupMember `gorm:"foreignKey:GroupID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
