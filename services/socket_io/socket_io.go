package socket_io

import (
	"Staymates/middleware"
	"Staymates/services/broadcast"
	"Staymates/services/coordination"
	redis_svc "Staymates/services/redis"
	"Staymates/services/socket_io/handlers"
	socketio_types "Staymates/services/socket_io/types"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io/v2/socket"
)

type MySocketServer socketio_types.SocketServer

// Start mounts the socket.io endpoint on the gin router and wires the
// group coordination handlers. Clients authenticate the handshake with the
// JWT obtained from GET /auth/socketToken.
func (sio *MySocketServer) Start(router *gin.Engine, service *coordination.Service,
	broadcaster *broadcast.Broadcaster, redisClient *redis_svc.RedisClient) {
	c := socket.DefaultServerOptions()
	c.SetServeClient(true)
	// NOTE: higher ping interval and timeout to 1) reduce network load and
	// 2) support slower networks
	c.SetPingInterval(5 * time.Second)
	c.SetPingTimeout(3 * time.Second)
	c.SetMaxHttpBufferSize(1000000)
	c.SetConnectTimeout(10 * time.Second)
	c.SetTransports(types.NewSet("polling", "websocket"))
	c.SetCors(&types.Cors{
		Origin:      "*",
		Credentials: true,
	})

	sio.UserConnections = make(map[string]*socket.Socket)

	sio.Sio_server = socket.NewServer(nil, nil)
	sio.Sio_server.On("connection", func(clients ...interface{}) {
		client := clients[0].(*socket.Socket)

		// Check if the client is authenticated
		username, ok := verifyConnection(client)
		if !ok {
			return
		}

		// Add connection to map
		(*socketio_types.SocketServer)(sio).AddConnection(username, client)
		log.Printf("[CONNECT] User %s connected (socket %s)", username, client.Id())

		// Attach the realtime channel of a group booking session
		client.On("join_group", handlers.HandleJoinGroup(service, broadcaster, redisClient,
			client, username, (*socketio_types.SocketServer)(sio)))

		// Full reconciliation fetch after a gap or reconnect
		client.On("sync_group", handlers.HandleSyncGroup(service, client, username))

		// Leave a group voluntarily
		client.On("leave_group", handlers.HandleLeaveGroup(service, client, username))

		// NOTE: will remove sio connection from map
		client.On("disconnecting", handlers.HandleDisconnecting(username,
			(*socketio_types.SocketServer)(sio), redisClient))
	})

	router.POST("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))
	router.GET("/socket.io/*f", gin.WrapH(sio.Sio_server.ServeHandler(c)))

	log.Println("Socket server started")
}

// Close shuts the socket.io server down.
func (sio *MySocketServer) Close() {
	if sio.Sio_server != nil {
		sio.Sio_server.Close(nil)
	}
}

// verifyConnection validates the handshake JWT and returns the username it
// belongs to.
func verifyConnection(client *socket.Socket) (string, bool) {
	authData, ok := client.Handshake().Auth.(map[string]interface{})
	if !ok {
		log.Println("Handshake auth data is missing or invalid!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing auth data"})
		return "", false
	}

	tokenString, exists := authData["token"].(string)
	if !exists {
		log.Println("No token provided in handshake!")
		client.Emit("error", gin.H{"error": "Authentication failed: missing token"})
		return "", false
	}

	username, err := middleware.VerifySocketToken(tokenString)
	if err != nil {
		log.Printf("Invalid handshake token: %v", err)
		client.Emit("error", gin.H{"error": "Authentication failed: invalid token"})
		return "", false
	}
	return username, true
}
