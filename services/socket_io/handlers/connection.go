package handlers

import (
	redis_models "Staymates/models/redis"
	redis_svc "Staymates/services/redis"
	socketio_types "Staymates/services/socket_io/types"
	"log"
	"time"
)

// Function to handle socket.io client disconnections. A disconnect does
// NOT remove the user from their groups: membership survives connectivity,
// only the presence record flips to offline. The client resynchronizes
// with a full reconciliation when it reconnects.
func HandleDisconnecting(username string, sio *socketio_types.SocketServer,
	redisClient *redis_svc.RedisClient) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[DISCONNECT] HandleDisconnecting started - User: %s", username)

		if redisClient != nil {
			presence, err := redisClient.GetMemberPresence(username)
			if err != nil || presence == nil {
				presence = &redis_models.MemberPresence{Username: username}
			}
			presence.Status = redis_models.StatusOffline
			presence.LastPing = time.Now().Unix()
			presence.SocketID = ""
			if err := redisClient.SaveMemberPresence(presence); err != nil {
				log.Printf("[DISCONNECT-ERROR] Error saving presence for %s: %v", username, err)
			}
		}

		// Finally remove connection from map
		sio.RemoveConnection(username)
		log.Printf("[DISCONNECT-DONE] User disconnected: %s", username)
	}
}
