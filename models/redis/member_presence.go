package redis

type PresenceStatus string

const (
	StatusOnline  PresenceStatus = "online"
	StatusOffline PresenceStatus = "offline"
)

type MemberPresence struct {
	Username  string         `json:"username"`
	GroupCode string         `json:"group_code"`
	Status    PresenceStatus `json:"status"`
	LastPing  int64          `json:"last_ping"` // Unix timestamp
	SocketID  string         `json:"socket_id"` // For direct messaging
}
