package routes

import (
	"Staymates/controllers"
	"Staymates/middleware"
	"Staymates/services/coordination"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, service *coordination.Service) {
	groupController := &controllers.GroupController{Service: service}

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.POST("/login", controllers.Login(db))

	api.POST("/signup", controllers.SignUp(db))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/socketToken", controllers.SocketToken)

		authentication.POST("/groups", groupController.CreateGroup)

		authentication.GET("/groups/:code", groupController.GetGroup)

		authentication.POST("/groups/:code/join", groupController.JoinGroup)

		authentication.GET("/groups/:code/rooms", groupController.AvailableRooms)

		authentication.POST("/groups/:code/room", groupController.SelectRoom)

		authentication.POST("/groups/:code/lock", groupController.LockGroup)

		authentication.POST("/groups/:code/confirm", groupController.ConfirmGroup)

		authentication.POST("/groups/:code/cancel", groupController.CancelGroup)

		authentication.POST("/groups/:code/leave", groupController.LeaveGroup)
	}
}
