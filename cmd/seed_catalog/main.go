package main

import (
	"context"
	"log"

	"civicreward/internal/config"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/services/progression"
)

// main upserts the default levels and badges. Existing rows keep their ids;
// names, thresholds and rules are overwritten with the shipped defaults.
func main() {
	config.LoadEnv()
	ctx := context.Background()

	db, err := repositories.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		sqlDB, err := db.DB()
		if err != nil {
			log.Printf("⚠️ Failed to get SQL DB instance: %v", err)
			return
		}
		if err := sqlDB.Close(); err != nil {
			log.Printf("⚠️ Failed to close PostgreSQL connection: %v", err)
		}
	}()

	store := repositories.NewStore(db)
	if err := progression.Seed(ctx, store.Rewards()); err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	// The catalog must still be valid once read back.
	catalog, err := progression.LoadCatalog(ctx, store.Rewards())
	if err != nil {
		log.Fatalf("Seeded catalog is invalid: %v", err)
	}

	// Cached profiles embed level and badge names.
	client := cache.NewRedisClient(cache.RedisConfigFromEnv())
	cacheService := cache.NewCacheService(client, 0)
	defer cacheService.Close()
	if err := cacheService.HealthCheck(ctx); err != nil {
		log.Printf("⚠️ Redis unavailable, cached profiles expire on their own: %v", err)
	} else {
		for _, pattern := range []string{"rewards:*", "leaderboard:*"} {
			if err := cacheService.DeleteMatching(ctx, pattern); err != nil {
				log.Printf("⚠️ Failed to clear %s: %v", pattern, err)
			}
		}
	}

	log.Printf("✅ Catalog seeded: %d levels, %d badges", len(catalog.Levels()), len(catalog.Badges()))
}
