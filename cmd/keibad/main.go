package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"keibaboard/internal/logger"
	"keibaboard/internal/service"
	"keibaboard/internal/storage"
)

func main() {
	// .env is optional; real deployments configure the environment directly
	_ = godotenv.Load()

	logger.Init(os.Getenv("LOG_LEVEL"))

	// Initialize SQLite database
	dbPath := os.Getenv("KEIBA_DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/keiba.db"
	}
	logger.Infof("initializing database at %s", dbPath)
	if err := storage.InitDB(dbPath); err != nil {
		logger.Errorf("failed to initialize database: %v", err)
		os.Exit(1)
	}
	defer storage.CloseDB()

	engine := service.NewSettlementEngine()

	// Telegram reporting is optional; settlement runs without it
	if ns, err := service.NewNotificationService(); err != nil {
		logger.Warnf("notifications disabled: %v", err)
	} else {
		engine.SetNotificationService(ns)
	}

	// Start settlement worker for races with attached results
	worker := service.NewSettlementWorker(engine)
	worker.Start()
	defer worker.Stop()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("shutting down")
}
