// Package main is the entry point for the rewards API.
// It initializes all dependencies, sets up the HTTP server,
// and starts the application.
package main

import (
	"context"
	"log"
	"strings"
	"time"

	"civicreward/internal/config"
	"civicreward/internal/handlers"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/routes"
	"civicreward/internal/services/exchange"
	"civicreward/internal/services/notification"
	"civicreward/internal/services/payout"
	"civicreward/internal/services/progression"
	"civicreward/internal/services/wallet"
	"civicreward/internal/services/withdrawal"
	"civicreward/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// main initializes and starts the HTTP server.
// It performs the following setup:
// - Loads configuration
// - Opens the store (PostgreSQL, or memory when STORE=memory)
// - Connects Redis for caching and notification fan-out
// - Loads the level and badge catalog
// - Configures routes
// - Starts the HTTP server
func main() {
	// Load environment variables
	config.LoadEnv()
	ctx := context.Background()

	var (
		store  repositories.Store
		db     *gorm.DB
		checks []handlers.Check
	)
	if config.GetEnv("STORE", "postgres") == "memory" {
		if config.IsProduction() {
			log.Fatal("STORE=memory is for development only")
		}
		log.Println("⚠️ STORE=memory: state is lost on restart")
		store = repositories.NewMemoryStore()
	} else {
		var err error
		db, err = repositories.InitDB()
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("Failed to get database instance: %v", err)
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatalf("Failed to ping database: %v", err)
		}
		log.Println("✅ Successfully connected to database with connection pooling")
		defer func() {
			if err := sqlDB.Close(); err != nil {
				log.Printf("⚠️ Failed to close database connection: %v", err)
			}
		}()

		// Add a periodic check of connection pool stats
		go func() {
			ticker := time.NewTicker(1 * time.Minute)
			defer ticker.Stop()
			for range ticker.C {
				stats := sqlDB.Stats()
				log.Printf("DB Stats: Open=%d, Idle=%d, InUse=%d, WaitCount=%d, WaitDuration=%s",
					stats.OpenConnections, stats.Idle, stats.InUse, stats.WaitCount, stats.WaitDuration)
			}
		}()

		store = repositories.NewStore(db)
		checks = append(checks, handlers.Check{Name: "database", Ping: sqlDB.PingContext})
	}

	// Redis is optional: without it caching and metrics are disabled and events only reach the log.
	var (
		c           cache.Cache = cache.Noop{}
		redisClient *redis.Client
		metrics     wallet.MetricsCollector
	)
	client := cache.NewRedisClient(cache.RedisConfigFromEnv())
	cacheService := cache.NewCacheService(client, config.GetDurationEnv("CACHE_TTL", 5*time.Minute))
	if err := cacheService.HealthCheck(ctx); err != nil {
		log.Printf("⚠️ Redis unavailable, caching disabled: %v", err)
		_ = client.Close()
	} else {
		log.Println("✅ Redis connected")
		c = cacheService
		redisClient = client
		metrics = cache.NewRedisMetrics(client, config.GetEnv("METRICS_KEY", cache.DefaultMetricsKey))
		checks = append(checks, handlers.Check{Name: "redis", Ping: cacheService.HealthCheck})
		defer func() {
			if err := cacheService.Close(); err != nil {
				log.Printf("⚠️ Failed to close Redis connection: %v", err)
			}
		}()
	}

	catalog, err := progression.LoadCatalog(ctx, store.Rewards())
	if err != nil {
		log.Fatalf("Failed to load level catalog: %v", err)
	}

	sinks := []notification.Sink{notification.LogSink{}}
	if redisClient != nil {
		sinks = append(sinks, notification.NewRedisSink(redisClient, config.GetEnv("NOTIFY_CHANNEL", notification.DefaultChannel)))
	}
	if db != nil {
		sinks = append(sinks, notification.NewOutboxSink(db))
	}
	dispatcher := notification.NewDispatcher(config.GetIntEnv("NOTIFY_QUEUE_SIZE", notification.DefaultQueueSize), sinks...)
	dispatcher.Start()
	defer dispatcher.Close()

	var payouts payout.Gateway = payout.NoopGateway{}
	if key := config.GetEnv("STRIPE_SECRET_KEY", ""); key != "" {
		payouts = payout.NewStripeGateway(key, config.GetEnv("PAYOUT_CURRENCY", "xof"))
		log.Println("✅ Stripe payouts enabled")
	} else {
		log.Println("⚠️ STRIPE_SECRET_KEY not set, payouts are only logged")
	}

	signer, err := withdrawal.QRSignerFromEnv()
	if err != nil {
		log.Fatalf("Failed to configure withdrawal QR signing: %v", err)
	}

	jwtSecret := utils.JWTSecret()
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET must be set")
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName: "civicreward",
	})

	app.Use(recover.New())

	// CORS middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.GetEnv("CORS_ORIGINS", "http://localhost:5173"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowCredentials: !strings.Contains(config.GetEnv("CORS_ORIGINS", ""), "*"),
	}))

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Money-moving endpoints are throttled per client.
	moneyLimiter := limiter.New(limiter.Config{
		Max:        config.GetIntEnv("RATE_LIMIT_MAX", 10),
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
		},
	})
	app.Use("/api/rewards/exchange", moneyLimiter)
	app.Use("/api/wallet/request-withdrawal", moneyLimiter)
	app.Use("/api/wallet/generate-withdrawal-qr", moneyLimiter)
	app.Use("/api/wallet/process-withdrawal-qr", moneyLimiter)

	// Routes
	routes.SetupRoutes(app, routes.Config{
		Store:          store,
		Cache:          c,
		Catalog:        catalog,
		Notifier:       dispatcher,
		Payouts:        payouts,
		QRSigner:       signer,
		JWTSecret:      jwtSecret,
		Exchange:       exchange.ConfigFunc(config.ExchangeConfigFromEnv),
		LeaderboardTTL: config.GetDurationEnv("LEADERBOARD_CACHE_TTL", 30*time.Second),
		Metrics:        metrics,
		Checks:         checks,
	})

	// Start server
	if err := app.Listen(":" + config.GetEnv("PORT", "3000")); err != nil {
		log.Printf("❌ Server stopped: %v", err)
	}
}
