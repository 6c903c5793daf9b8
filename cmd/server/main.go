package main

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	_ "modernc.org/sqlite"

	"collection-planning-service/internal/adapters/cache"
	"collection-planning-service/internal/adapters/distance"
	"collection-planning-service/internal/adapters/notify"
	"collection-planning-service/internal/adapters/repositories"
	"collection-planning-service/internal/api"
	"collection-planning-service/internal/config"
	"collection-planning-service/internal/platform/db"
	"collection-planning-service/internal/ports"
	"collection-planning-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQLite, Postgres, Redis, ORS) behind
// ports and starts the HTTP server.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	dbPath := config.Get("DB_PATH", "data/fleet.db")
	seedPath := config.Get("SEED_PATH", "data/seeds/fleet.json")
	port := config.Get("PORT", "8080")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	fleetDB, err := openDB(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer fleetDB.Close()

	// Initialize schema and seed demo data on startup for local runs.
	if err := initAndSeed(fleetDB, seedPath); err != nil {
		log.Fatal(err)
	}

	distanceCache := buildDistanceCache(fleetDB)
	provider := buildProvider(cfg, distanceCache)

	store := repositories.NewSqliteFleetStore(fleetDB)

	var sink ports.AssignmentSink
	var lister ports.AssignmentLister
	if databaseURL := os.Getenv("DATABASE_URL"); strings.TrimSpace(databaseURL) != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		repo := repositories.NewPostgresAssignmentRepository(pg)
		sink, lister = repo, repo
	} else {
		log.Fatal("DATABASE_URL is required")
	}

	planner := &services.Planner{
		Clients:   store,
		Vehicles:  store,
		Provider:  provider,
		Clusterer: services.NewKMeansClusterer(cfg),
		Sink:      sink,
		Notifier:  notify.NewLogNotifier(),
		Cfg:       cfg,
	}

	router := api.NewRouter(planner, lister)

	// Timeouts are tuned for cold-cache monthly planning (external API
	// latency plus the solver budget per bucket).
	log.Printf("Server listening addr=:%s", port)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      300 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

// buildDistanceCache prefers Redis when REDIS_ADDR is set, falling
// back to the SQLite table next to the fleet data.
func buildDistanceCache(fleetDB *sql.DB) cache.DistanceCache {
	addr := os.Getenv("REDIS_ADDR")
	if strings.TrimSpace(addr) == "" {
		return cache.NewSqliteDistanceCache(fleetDB)
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	log.Printf("Distance cache backend=redis addr=%s", addr)
	return cache.NewRedisDistanceCache(client, 0)
}

// buildProvider uses the road-distance matrix service when a key is
// configured, otherwise plain haversine estimates.
func buildProvider(cfg config.PlannerConfig, distanceCache cache.DistanceCache) ports.DistanceProvider {
	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Println("ORS_API_KEY not set, using haversine estimates")
		return distance.NewHaversineProvider(cfg.AvgSpeedKmh)
	}

	provider, err := distance.NewMatrixDistanceProvider(orsKey, os.Getenv("ORS_BASE_URL"), cfg.AvgSpeedKmh, distanceCache)
	if err != nil {
		log.Fatal(err)
	}
	return provider
}

func openDB(dbPath string) (*sql.DB, error) {
	fleetDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("openDB: open sqlite database %q: %w", dbPath, err)
	}

	if err := fleetDB.Ping(); err != nil {
		return nil, fmt.Errorf("openDB: verify sqlite connection to %q: %w", dbPath, err)
	}

	return fleetDB, nil
}

func initAndSeed(fleetDB *sql.DB, seedPath string) error {
	if err := repositories.InitSchema(fleetDB); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	if err := repositories.SeedFromJSON(fleetDB, seedPath); err != nil {
		return fmt.Errorf("init and seed: %w", err)
	}

	return nil
}
