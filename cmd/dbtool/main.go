package main

import (
	"database/sql"
	"log"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	_ "modernc.org/sqlite"

	"collection-planning-service/internal/adapters/repositories"
	"collection-planning-service/internal/config"
	"collection-planning-service/internal/platform/db"
)

// dbtool prepares both stores: the Postgres assignment schema and the
// local SQLite fleet database with its seed data.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	pg, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	log.Println("Initializing assignment schema...")
	if err := repositories.InitAssignmentSchema(pg); err != nil {
		log.Fatalf("assignment schema initialization failed: %v", err)
	}
	log.Println("Assignment schema ready.")

	dbPath := config.Get("DB_PATH", "data/fleet.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/fleet.json")

	fleetDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		log.Fatalf("open fleet database: %v", err)
	}
	defer fleetDB.Close()

	if err := initAndSeed(fleetDB, seedPath); err != nil {
		log.Fatal(err)
	}
}

func initAndSeed(fleetDB *sql.DB, seedPath string) error {
	log.Println("Initializing fleet schema...")
	if err := repositories.InitSchema(fleetDB); err != nil {
		log.Fatalf("fleet schema initialization failed: %v", err)
	}
	log.Println("Fleet schema ready.")

	log.Println("Seeding fleet data...")
	if err := repositories.SeedFromJSON(fleetDB, seedPath); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("Seeding complete.")

	return nil
}
