// Package routes defines the API routing configuration.
// It builds the services from their collaborators, sets up all HTTP routes
// and applies authentication and role requirements.
package routes

import (
	"time"

	"civicreward/internal/handlers"
	"civicreward/internal/middleware"
	"civicreward/internal/models"
	"civicreward/internal/repositories"
	"civicreward/internal/repositories/cache"
	"civicreward/internal/services/exchange"
	"civicreward/internal/services/leaderboard"
	"civicreward/internal/services/notification"
	"civicreward/internal/services/payout"
	"civicreward/internal/services/progression"
	"civicreward/internal/services/rewards"
	"civicreward/internal/services/wallet"
	"civicreward/internal/services/withdrawal"

	"github.com/gofiber/fiber/v2"
)

const apiVersion = "1.0.0"

// Config carries the collaborators the API is built from.
type Config struct {
	Store          repositories.Store
	Cache          cache.Cache
	Catalog        *progression.Catalog
	Notifier       notification.Notifier
	Payouts        payout.Gateway
	QRSigner       *withdrawal.QRSigner
	JWTSecret      string
	Exchange       exchange.ConfigFunc
	LeaderboardTTL time.Duration
	Metrics        wallet.MetricsCollector
	Checks         []handlers.Check
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, cfg Config) {
	// Initialize services in dependency order
	walletService := wallet.NewService(cfg.Store, cfg.Cache, cfg.Metrics)
	board := leaderboard.NewService(cfg.Store.Rewards(), cfg.Cache, cfg.LeaderboardTTL)
	rewardsService := rewards.NewService(
		cfg.Store,
		progression.NewEvaluator(cfg.Catalog),
		board,
		cfg.Cache,
		cfg.Notifier,
	)
	exchangeService := exchange.NewService(cfg.Store, walletService, cfg.Cache, cfg.Notifier, cfg.Exchange)
	withdrawalService := withdrawal.NewService(cfg.Store, walletService, cfg.QRSigner, cfg.Payouts, cfg.Notifier)

	// Initialize handlers
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)
	rewardsHandler := handlers.NewRewardsHandler(rewardsService, exchangeService, board)
	walletHandler := handlers.NewWalletHandler(walletService, withdrawalService)
	healthHandler := handlers.NewHealthHandler(apiVersion, cfg.Checks...)

	app.Get("/health", healthHandler.HealthCheck)

	api := app.Group("/api")
	staff := middleware.RequireStaff()
	admins := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)

	// Rewards: public catalog and ranking
	r := api.Group("/rewards")
	r.Get("/levels", rewardsHandler.GetLevels)
	r.Get("/badges", rewardsHandler.GetBadges)
	r.Get("/leaderboard", rewardsHandler.GetLeaderboard)
	r.Get("/exchange-config", rewardsHandler.GetExchangeConfig)

	// Rewards: own profile
	read := middleware.HasPermission(models.PermissionRewardsRead)
	r.Get("/my-rewards", auth.Handler, read, rewardsHandler.GetMyRewards)
	r.Get("/my-history", auth.Handler, read, rewardsHandler.GetMyHistory)
	r.Get("/my-stats", auth.Handler, read, rewardsHandler.GetMyStats)
	r.Get("/user/:userId", auth.Handler, read, rewardsHandler.GetUserRewards)
	r.Get("/history/:userId", auth.Handler, read, rewardsHandler.GetUserHistory)

	// Rewards: exchange
	r.Post("/exchange", auth.Handler, middleware.HasPermission(models.PermissionRewardsExchange), rewardsHandler.ExchangePoints)
	r.Get("/exchanges/my", auth.Handler, read, rewardsHandler.GetMyExchanges)

	// Rewards: staff
	r.Get("/exchanges", auth.Handler, staff, rewardsHandler.ListExchanges)
	r.Get("/stats", auth.Handler, staff, rewardsHandler.GetGlobalStats)
	r.Post("/contribute", auth.Handler, staff, middleware.HasPermission(models.PermissionRewardsAward), rewardsHandler.RecordContribution)
	r.Post("/award-manual", auth.Handler, middleware.RequireRoles(models.RoleSuperAdmin), rewardsHandler.AwardManual)
	r.Post("/badges/:code/grant", auth.Handler, admins, rewardsHandler.GrantBadge)
	r.Post("/recheck/:userId", auth.Handler, staff, rewardsHandler.RecheckBadges)

	// Wallet
	w := api.Group("/wallet")
	walletRead := middleware.HasPermission(models.PermissionWalletRead)
	walletWrite := middleware.HasPermission(models.PermissionWalletWrite)
	w.Get("/my-wallet", auth.Handler, walletRead, walletHandler.GetWallet)
	w.Get("/available-balance", auth.Handler, walletRead, walletHandler.GetAvailableBalance)
	w.Get("/transactions", auth.Handler, walletRead, walletHandler.GetTransactions)
	w.Get("/transactions/:id", auth.Handler, walletRead, walletHandler.GetTransaction)
	w.Post("/generate-withdrawal-qr", auth.Handler, walletWrite, walletHandler.GenerateWithdrawalQR)
	w.Post("/request-withdrawal", auth.Handler, walletWrite, walletHandler.RequestWithdrawal)
	w.Post("/process-withdrawal-qr", auth.Handler, walletWrite, walletHandler.ProcessWithdrawalQR)
	w.Post("/cancel-withdrawal/:withdrawalId", auth.Handler, walletWrite, walletHandler.CancelWithdrawal)
	w.Post("/complete-withdrawal/:withdrawalId", auth.Handler, staff, middleware.HasPermission(models.PermissionWithdrawalSettle), walletHandler.CompleteWithdrawal)
}
