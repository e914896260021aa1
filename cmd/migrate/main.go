package main

import (
	"flag"
	"fmt"
	"os"

	"episode-pulse/logging"
	"episode-pulse/storage"

	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
)

func main() {
	defaultData := os.Getenv("DATA_PATH")
	if defaultData == "" {
		defaultData = "./data"
	}

	var (
		dataPath = flag.String("data", defaultData, "Path to database directory")
		command  = flag.String("cmd", "up", "Migration command: up, down, status, version, reset, stats")
		logLevel = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	logging.Setup(*logLevel, false)

	sqliteStorage := storage.NewSQLiteStorage(*dataPath)
	if err := sqliteStorage.Initialize(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer sqliteStorage.Close()

	switch *command {
	case "up":
		if err := sqliteStorage.RunMigrations(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("Migrations completed successfully")

	case "down":
		if err := sqliteStorage.RollbackMigration(); err != nil {
			log.Fatalf("Failed to rollback migration: %v", err)
		}
		fmt.Println("Migration rolled back successfully")

	case "status":
		migrationManager := sqliteStorage.GetMigrationManager()
		if err := migrationManager.Initialize(); err != nil {
			log.Fatalf("Failed to initialize migration manager: %v", err)
		}
		if err := migrationManager.Status(); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}

	case "version":
		version, err := sqliteStorage.GetDatabaseVersion()
		if err != nil {
			log.Fatalf("Failed to get database version: %v", err)
		}
		fmt.Printf("Database version: %d\n", version)

	case "reset":
		if err := sqliteStorage.ResetDatabase(); err != nil {
			log.Fatalf("Failed to reset database: %v", err)
		}
		fmt.Println("Database reset completed successfully")

	case "stats":
		stats, err := sqliteStorage.GetStats()
		if err != nil {
			log.Fatalf("Failed to get database stats: %v", err)
		}
		fmt.Printf("Titles: %d\nSnapshots: %d\nEpisode rows: %d (rated %d)\n",
			stats["titles"], stats["snapshots"], stats["episodes"], stats["rated"])

	default:
		fmt.Printf("Unknown command: %s\n", *command)
		fmt.Println("Available commands: up, down, status, version, reset, stats")
		os.Exit(1)
	}
}
