package main

import (
	"Staymates/config"
	_ "Staymates/config/swagger"
	"Staymates/middleware"
	"Staymates/routes"
	"Staymates/services/broadcast"
	"Staymates/services/coordination"
	"Staymates/services/redis"
	"Staymates/services/reservations"
	"Staymates/services/socket_io"
	"Staymates/sync"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// @title Staymates API
// @version 1.0
// @description Gin-Gonic server for the Staymates group booking API
// @BasePath /
// @paths
func main() {
	godotenv.Load()
	log.Println("Setting up server...")

	if os.Getenv("PROD") == "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	gormDB, err := config.ConnectGORM()
	if err != nil {
		log.Fatalf("Error connecting to PostgreSQL: %v", err)
	}
	log.Println("GORM Connected")

	// Only migrate in development or during deployment
	if os.Getenv("MIGRATE_POSTGRES") == "true" {
		log.Println("Migrating PostgreSQL database...")
		if err := config.MigrateDatabase(gormDB); err != nil {
			log.Printf("Warning: Database migration failed: %v", err)
			// Continue execution even if migration fails
		} else {
			log.Println("Database migrated successfully")
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		log.Fatalf("Error reading GORM PostgreSQL instance: %v", err)
	}
	defer sqlDB.Close()

	redisClient, err := config.Connect_redis()
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	log.Println("Connection to Redis successful")
	defer redis.CloseRedis(redisClient)

	// Coordination core: in-memory registry snapshotted to Redis, events
	// fanned out by the broadcaster, durable rows written behind by the
	// sync manager.
	store := coordination.NewStore(redisClient)
	resolver := coordination.NewResolver(store)
	broadcaster := broadcast.NewBroadcaster()
	syncManager := sync.NewManager(redisClient, sqlDB)
	service := coordination.NewService(store, resolver, broadcaster, syncManager,
		&reservations.GormService{DB: gormDB},
		&reservations.GormInventory{DB: gormDB})

	r := gin.Default()

	middleware.SetUpMiddleware(r)

	routes.SetupRoutes(r, gormDB, service)

	sioServer := &socket_io.MySocketServer{}
	sioServer.Start(r, service, broadcaster, redisClient)
	defer sioServer.Close()

	// Configure port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
