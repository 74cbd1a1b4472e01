package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'Reservation' is one downstream room reservation, created per selected
 * room when a booking group is confirmed.
 */
type Reservation struct {
	Ref           string         `gorm:"primaryKey;size:36;not null"` // uuid
	HotelID       int            `gorm:"not null;index:idx_reservations_hotel"`
	RoomID        int            `gorm:"not null;index:idx_reservations_room"`
	CheckIn       time.Time      `gorm:"not null"`
	CheckOut      time.Time      `gorm:"not null"`
	GuestCount    int            `gorm:"not null;default:1"`
	OwnerUsername string         `gorm:"size:50;not null;index:idx_reservations_owner"`
	GroupID       string         `gorm:"size:10;index:idx_reservations_group"`
	Details       datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt     time.Time      `gorm:"default:CURRENT_TIMESTAMP"`
}
