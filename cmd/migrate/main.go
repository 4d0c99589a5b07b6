package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/axiestudio/embedded-chat/internal/config"
	"github.com/axiestudio/embedded-chat/internal/database"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	dir := flag.String("dir", database.DefaultMigrationsDir, "migrations directory")
	flag.Parse()
	args := flag.Args()

	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]

	switch command {
	case "up":
		cfg := loadConfig()
		fmt.Println("Running database migrations...")
		if err := database.RunMigrations(cfg.Database.URL, *dir); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("Migrations completed successfully!")
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				log.Fatalf("Invalid step count: %s", args[1])
			}
			steps = n
		}
		cfg := loadConfig()
		fmt.Printf("Rolling back %d migration(s)...\n", steps)
		if err := database.RollbackMigrations(cfg.Database.URL, *dir, steps); err != nil {
			log.Fatalf("Failed to roll back migrations: %v", err)
		}
		fmt.Println("Rollback completed successfully!")
	case "create":
		if len(args) < 2 {
			fmt.Println("Error: migration name required")
			fmt.Println("Usage: go run cmd/migrate/main.go create <migration_name>")
			os.Exit(1)
		}
		up, down, err := database.CreateMigration(*dir, args[1])
		if err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		fmt.Printf("Created %s\nCreated %s\n", up, down)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	return cfg
}

func printUsage() {
	fmt.Println(`Usage: go run cmd/migrate/main.go [-dir migrations] <command> [arguments]

Commands:
  up                Run all pending migrations
  down [steps]      Roll back the last migration, or the given number of them
  create <name>     Create a new migration with the specified name

Examples:
  go run cmd/migrate/main.go up
  go run cmd/migrate/main.go down 1
  go run cmd/migrate/main.go create add_widget_theme`)
}
