package handlers

import (
	redis_models "Staymates/models/redis"
	"Staymates/services/broadcast"
	"Staymates/services/coordination"
	redis_svc "Staymates/services/redis"
	socketio_types "Staymates/services/socket_io/types"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleJoinGroup subscribes a connected member to their group's room and
// sends the full session snapshot. The member must already be in the group
// (joining happens over the REST API); this only attaches the realtime
// channel.
func HandleJoinGroup(service *coordination.Service, b *broadcast.Broadcaster,
	redisClient *redis_svc.RedisClient, client *socket.Socket, username string,
	sio *socketio_types.SocketServer) func(args ...interface{}) {
	return func(args ...interface{}) {
		log.Printf("[JOIN] HandleJoinGroup started - User: %s, Args: %v, Socket ID: %s",
			username, args, client.Id())

		if len(args) < 1 {
			log.Printf("[JOIN-ERROR] Missing group code for user %s", username)
			client.Emit("error", gin.H{"error": "Group code is required"})
			return
		}

		code, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid group code"})
			return
		}

		// Membership check doubles as the reconciliation fetch.
		view, err := service.GetGroup(code, username)
		if err != nil {
			log.Printf("[JOIN-ERROR] User %s cannot attach to group %s: %v", username, code, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		client.Join(socket.Room(code))
		sio.EnsureGroupPump(b, code)

		if redisClient != nil {
			presence := &redis_models.MemberPresence{
				Username:  username,
				GroupCode: code,
				Status:    redis_models.StatusOnline,
				LastPing:  time.Now().Unix(),
				SocketID:  string(client.Id()),
			}
			if err := redisClient.SaveMemberPresence(presence); err != nil {
				log.Printf("[JOIN-ERROR] Error saving presence for %s: %v", username, err)
			}
		}

		log.Printf("[JOIN-SUCCESS] User %s attached to group %s (seq %d)", username, code, view.Seq)
		client.Emit("group_state", view)
	}
}
