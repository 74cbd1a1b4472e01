package reservations

import (
	"encoding/json"
	"fmt"
	"time"

	models "Staymates/models/postgres"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReservationRef identifies one downstream reservation.
type ReservationRef string

// RoomSummary is a candidate room offered for selection.
type RoomSummary struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Capacity      int     `json:"capacity"`
	PricePerNight float64 `json:"price_per_night"`
}

// Inventory supplies the rooms available for a hotel and date range.
type Inventory interface {
	GetAvailableRooms(hotelID int, checkIn, checkOut time.Time) ([]RoomSummary, error)
}

// Service creates reservations. ConfirmGroup calls it once per selected
// room; calls are best-effort and independently reported, there is no
// transaction spanning them.
type Service interface {
	CreateReservation(hotelID, roomID int, checkIn, checkOut time.Time, guestCount int, ownerUsername, groupCode string) (ReservationRef, error)
}

// GormInventory reads the rooms table, excluding rooms already reserved
// for an overlapping date range.
type GormInventory struct {
	DB *gorm.DB
}

func (inv *GormInventory) GetAvailableRooms(hotelID int, checkIn, checkOut time.Time) ([]RoomSummary, error) {
	var rooms []models.Room
	err := inv.DB.
		Where("hotel_id = ?", hotelID).
		Where("id NOT IN (?)", inv.DB.Model(&models.Reservation{}).
			Select("room_id").
			Where("hotel_id = ? AND check_in < ? AND check_out > ?", hotelID, checkOut, checkIn)).
		Order("id").
		Find(&rooms).Error
	if err != nil {
		return nil, fmt.Errorf("error querying available rooms: %w", err)
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		summaries = append(summaries, RoomSummary{
			ID:            r.ID,
			Name:          r.Name,
			Capacity:      r.Capacity,
			PricePerNight: r.PricePerNight,
		})
	}
	return summaries, nil
}

// GormService persists reservations in Postgres.
type GormService struct {
	DB *gorm.DB
}

func (rs *GormService) CreateReservation(hotelID, roomID int, checkIn, checkOut time.Time, guestCount int, ownerUsername, groupCode string) (ReservationRef, error) {
	details, _ := json.Marshal(map[string]interface{}{
		"source": "group_booking",
	})
	reservation := models.Reservation{
		Ref:           uuid.New().String(),
		HotelID:       hotelID,
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		GuestCount:    guestCount,
		OwnerUsername: ownerUsername,
		GroupID:       groupCode,
		Details:       details,
	}
	if err := rs.DB.Create(&reservation).Error; err != nil {
		return "", fmt.Errorf("error creating reservation for room %d: %w", roomID, err)
	}
	return ReservationRef(reservation.Ref), nil
}
