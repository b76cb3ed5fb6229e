package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/RidwanSharkar/Erebus-sub004/internal/api"
	"github.com/RidwanSharkar/Erebus-sub004/internal/config"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("💡 No .env file found, using environment variables only")
		}
	} else {
		log.Println("✅ Loaded environment from ../.env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  EREBUS - GAME SERVER")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	port := strconv.Itoa(appConfig.Server.Port)

	log.Printf("🛡️ Room limits: %d players, %d enemies, %d towers/room",
		appConfig.RoomLimits.MaxPlayersPerRoom, appConfig.RoomLimits.MaxEnemies, appConfig.RoomLimits.MaxTowersPerRoom)
	log.Printf("⏱️ Ticks: enemy-ai %s, summoned-unit %s, snapshot %s",
		appConfig.Ticks.EnemyAIInterval, appConfig.Ticks.SummonedUnitInterval, appConfig.Ticks.SnapshotInterval)

	server := api.NewServer(appConfig)

	go func() {
		addr := ":" + port
		log.Printf("🌐 server listening on http://localhost%s", addr)
		log.Printf("🔌 WebSocket endpoint: ws://localhost%s/ws", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Server ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	if err := server.Stop(context.Background()); err != nil {
		log.Printf("⚠️ shutdown error: %v", err)
	}
	log.Println("👋 Goodbye!")
}
