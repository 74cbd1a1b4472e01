package postgres

import (
	"time"
)

/*
 * 'GroupMember' represents one participant of a booking group. It contains
 * references to BookingGroup and User
 */
type GroupMember struct {
	// NOTE: composite primary key definition
	GroupID     string    `gorm:"primaryKey;size:10;not null"`
	Username    string    `gorm:"primaryKey;size:50;not null;index"`
	IsOrganizer bool      `gorm:"default:false"`
	Status      string    `gorm:"size:20;not null;default:'PENDING'"`
	RoomID      *int      // nil while no room is claimed
	GuestCount  int       `gorm:"default:0"`
	JoinedAt    time.Time `gorm:"default:CURRENT_TIMESTAMP"`

	// Relationship with the group and the member's user account
	BookingGroup BookingGroup `gorm:"foreignKey:GroupID"`
	User         User         `gorm:"foreignKey:Username;references:Username"`
}
