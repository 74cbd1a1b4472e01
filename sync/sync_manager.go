package sync

import (
	redis_models "Staymates/models/redis"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
)

// SessionSource is where the live state comes from. The Redis client
// implements it.
type SessionSource interface {
	GetGroupSession(code string) (*redis_models.GroupSession, error)
	DeleteGroupSession(code string) error
}

// Manager mirrors the live coordination state from Redis into PostgreSQL.
// It runs write-behind: the coordination service triggers it asynchronously
// after each mutation, so a slow database never blocks a session operation.
type Manager struct {
	source SessionSource
	db     *sql.DB
}

// NewManager creates a new instance of the synchronization manager
func NewManager(source SessionSource, db *sql.DB) *Manager {
	return &Manager{
		source: source,
		db:     db,
	}
}

// SyncGroupState synchronizes a group and its members from Redis to
// PostgreSQL
func (sm *Manager) SyncGroupState(code string) error {
	// Get group state from Redis
	session, err := sm.source.GetGroupSession(code)
	if err != nil {
		return fmt.Errorf("error getting group state from Redis: %v", err)
	}
	if session == nil {
		return fmt.Errorf("group %s has no live state in Redis", code)
	}

	// Start transaction
	tx, err := sm.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %v", err)
	}
	defer tx.Rollback()

	// Upsert booking_groups
	groupQuery := `
		INSERT INTO booking_groups
			(id, organizer_username, hotel_id, check_in, check_out,
			 max_members, join_deadline, status, total_price, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			total_price = EXCLUDED.total_price,
			updated_at = EXCLUDED.updated_at
	`

	_, err = tx.Exec(groupQuery,
		session.Code,
		session.Organizer,
		session.HotelID,
		session.CheckIn,
		session.CheckOut,
		session.MaxMembers,
		session.JoinDeadline,
		string(session.Status),
		session.TotalPrice,
		session.CreatedAt,
		session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("error updating group state in PostgreSQL: %v", err)
	}

	// Upsert every live member
	memberQuery := `
		INSERT INTO group_members
			(group_id, username, is_organizer, status, room_id, guest_count, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (group_id, username) DO UPDATE SET
			status = EXCLUDED.status,
			room_id = EXCLUDED.room_id,
			guest_count = EXCLUDED.guest_count
	`

	usernames := make([]string, 0, len(session.Members))
	for _, m := range session.Members {
		var roomID *int
		if m.RoomID != 0 {
			r := m.RoomID
			roomID = &r
		}
		_, err = tx.Exec(memberQuery,
			session.Code,
			m.Username,
			m.IsOrganizer,
			string(m.Status),
			roomID,
			m.GuestCount,
			m.JoinedAt)
		if err != nil {
			return fmt.Errorf("error updating member %s in PostgreSQL: %v", m.Username, err)
		}
		usernames = append(usernames, m.Username)
	}

	// Members that left the live session are removed from the durable set
	_, err = tx.Exec(`DELETE FROM group_members WHERE group_id = $1 AND username <> ALL($2)`,
		session.Code, pq.Array(usernames))
	if err != nil {
		return fmt.Errorf("error pruning departed members in PostgreSQL: %v", err)
	}

	// Confirm transaction
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %v", err)
	}

	return nil
}

// CleanupGroupData syncs the final state of a terminal group and removes
// its live document from Redis
func (sm *Manager) CleanupGroupData(code string) error {
	if err := sm.SyncGroupState(code); err != nil {
		return fmt.Errorf("error syncing final group state: %v", err)
	}

	if err := sm.source.DeleteGroupSession(code); err != nil {
		return fmt.Errorf("error cleaning up Redis data: %v", err)
	}

	return nil
}
