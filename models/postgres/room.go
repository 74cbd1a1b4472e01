package postgres

/*
 * 'Room' is one bookable room of a hotel, used by the room inventory to
 * offer candidates for selection.
 */
type Room struct {
	ID            int     `gorm:"primaryKey"`
	HotelID       int     `gorm:"not null;index:idx_rooms_hotel"`
	Name          string  `gorm:"size:100;not null"`
	Capacity      int     `gorm:"not null;default:2"`
	PricePerNight float64 `gorm:"not null;default:0"`
}
