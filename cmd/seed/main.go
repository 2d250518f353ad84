package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/buzzboard/backend/internal/database"
	"github.com/buzzboard/backend/internal/logger"
	"github.com/buzzboard/backend/internal/seed"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), "seed.log"); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	command := "dev"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "dev":
		run("Seeding development database", func(s *seed.Seeder) error { return s.SeedDev() })
	case "test":
		run("Seeding test database", func(s *seed.Seeder) error { return s.SeedTest() })
	case "clean":
		run("Cleaning seed data", func(s *seed.Seeder) error { return s.Clean() })
	default:
		fmt.Println("Usage: seed [dev|test|clean]")
		fmt.Println("  dev   - Seed development database with realistic data")
		fmt.Println("  test  - Seed test database with minimal fixtures")
		fmt.Println("  clean - Remove all seed data (use with caution)")
		os.Exit(1)
	}
}

func run(what string, fn func(*seed.Seeder) error) {
	log.Printf("🌱 %s...", what)

	if err := database.Initialize(os.Getenv("DATABASE_URL")); err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}

	if err := fn(seed.NewSeeder(database.DB)); err != nil {
		log.Fatalf("❌ %s failed: %v", what, err)
	}

	log.Println("✅ Done")
}
