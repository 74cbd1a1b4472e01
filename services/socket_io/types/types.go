package socketio_types

import (
	"sync"

	"Staymates/services/broadcast"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer is a struct that contains the socket.io server, a map of
// socket connections and the per-group event pumps bridging broadcaster
// topics onto socket.io rooms.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track username -> socket connections
	UserConnections map[string]*socket.Socket
	mutex           sync.RWMutex

	pumps  map[string]*broadcast.Subscription
	pumpMu sync.Mutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		UserConnections: make(map[string]*socket.Socket),
		pumps:           make(map[string]*broadcast.Subscription),
	}
}

// Add methods to manage connections
func (s *SocketServer) AddConnection(username string, socket *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.UserConnections[username] = socket
}

func (s *SocketServer) RemoveConnection(username string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.UserConnections, username)
}

func (s *SocketServer) GetConnection(username string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	socket, exists := s.UserConnections[username]
	return socket, exists
}

// EnsureGroupPump starts (once per group) the goroutine that forwards
// broadcaster events to the group's socket.io room. The pump dies when the
// topic is closed, i.e. when the group reaches a terminal state.
func (s *SocketServer) EnsureGroupPump(b *broadcast.Broadcaster, code string) {
	s.pumpMu.Lock()
	defer s.pumpMu.Unlock()
	if s.pumps == nil {
		s.pumps = make(map[string]*broadcast.Subscription)
	}
	if _, running := s.pumps[code]; running {
		return
	}
	sub := b.Subscribe(code)
	s.pumps[code] = sub

	go func() {
		for ev := range sub.C {
			s.Sio_server.To(socket.Room(code)).Emit("group_event", ev)
		}
		s.pumpMu.Lock()
		delete(s.pumps, code)
		s.pumpMu.Unlock()
	}()
}

// StopGroupPump tears the pump down explicitly. Idempotent.
func (s *SocketServer) StopGroupPump(code string) {
	s.pumpMu.Lock()
	sub, ok := s.pumps[code]
	s.pumpMu.Unlock()
	if ok {
		sub.Close()
	}
}
