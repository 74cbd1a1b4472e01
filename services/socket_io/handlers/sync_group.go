package handlers

import (
	"Staymates/services/coordination"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleSyncGroup performs a full reconciliation fetch for a client that
// detected a gap in the event stream or just reconnected. The snapshot
// carries the current sequence number so the client can resume incremental
// consumption from it.
func HandleSyncGroup(service *coordination.Service, client *socket.Socket,
	username string) func(args ...interface{}) {
	return func(args ...interface{}) {
		if len(args) < 1 {
			client.Emit("error", gin.H{"error": "Group code is required"})
			return
		}

		code, ok := args[0].(string)
		if !ok {
			client.Emit("error", gin.H{"error": "Invalid group code"})
			return
		}

		view, err := service.GetGroup(code, username)
		if err != nil {
			log.Printf("[SYNC-ERROR] Reconciliation for user %s in group %s failed: %v", username, code, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		log.Printf("[SYNC] Sent full state of group %s to %s (seq %d)", code, username, view.Seq)
		client.Emit("group_state", view)
	}
}
