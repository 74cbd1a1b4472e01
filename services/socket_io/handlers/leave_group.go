package handlers

import (
	"Staymates/services/coordination"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/socket.io/v2/socket"
)

// HandleLeaveGroup removes the member from the group and detaches their
// socket from the room. The member_left event reaches the remaining
// members through the group pump.
func HandleLeaveGroup(service *coordination.Service, client *socket.Socket,
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

		if err := service.LeaveGroup(code, username); err != nil {
			log.Printf("[LEAVE-ERROR] User %s could not leave group %s: %v", username, code, err)
			client.Emit("error", gin.H{"error": err.Error()})
			return
		}

		client.Leave(socket.Room(code))
		log.Printf("[LEAVE-SUCCESS] User %s left group %s", username, code)
		client.Emit("group_left", gin.H{"group_code": code})
	}
}
