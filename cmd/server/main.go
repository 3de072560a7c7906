package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging

	"arcade_wallet/internal/api"        // Custom package for API handlers
	"arcade_wallet/internal/blob"       // Payment-proof blob store
	"arcade_wallet/internal/config"     // Custom package for configuration
	"arcade_wallet/internal/domain"     // Domain models (roles)
	"arcade_wallet/internal/game"       // Game session engine
	"arcade_wallet/internal/ledger"     // Ledger engine
	"arcade_wallet/internal/middleware" // Custom package for middleware
	"arcade_wallet/internal/operator"   // Operator state machine
	"arcade_wallet/internal/topup"      // Topup intake and approval

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Engines
	blobs := blob.NewStore(cfg.BlobDir, "/api/files", []byte(cfg.BlobSecret))
	ledgerEngine := ledger.New(db)
	topups := topup.New(db, ledgerEngine, blobs)
	operators := operator.New(db)
	games := game.New(db, ledgerEngine, operators, game.MultiplierPolicy{Multiplier: cfg.RewardMultiplier})

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Service banner and health check
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"service": "arcade wallet", "status": "ok"})
	})
	r.GET("/api/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Signed proof-image downloads (signature is the auth)
	r.GET("/api/files/*path", api.FileHandler(blobs))

	// Auth routes
	authGroup := r.Group("/api/auth")
	authGroup.POST("/login", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint
	authGroup.POST("/logout", api.LogoutHandler())                // Logout endpoint
	authGroup.GET("/me", middleware.JWTAuthMiddleware(cfg.JWTSecret), api.MeHandler(db))

	// Visitor routes (protected, visitor only; admins may read the leaderboard too)
	visitorGroup := r.Group("/api/visitor")
	visitorGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireRole(domain.RoleVisitor))
	visitorGroup.GET("/wallet", api.GetWalletHandler(db, redisClient))       // Wallet endpoint
	visitorGroup.GET("/history", api.GetHistoryHandler(db, ledgerEngine, redisClient)) // Transaction history endpoint
	visitorGroup.GET("/leaderboard", api.LeaderboardHandler(db, redisClient))
	visitorGroup.POST("/topup-request", api.SubmitTopupHandler(topups)) // Payment-proof upload

	// Stall routes (protected, operator only)
	stallGroup := r.Group("/api/stall")
	stallGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireRole(domain.RoleOperator))
	stallGroup.POST("/play", api.StartPlayHandler(db, games, operators, redisClient))
	stallGroup.POST("/submit-score", api.SubmitScoreHandler(redisClient, games))
	stallGroup.POST("/claim-reward", api.ClaimRewardHandler(db, games, redisClient))
	stallGroup.GET("/pending-games", api.PendingGamesHandler(games, operators))
	stallGroup.GET("/history", api.StallHistoryHandler(ledgerEngine, operators))
	stallGroup.GET("/wallet", api.StallWalletHandler(db, operators))
	stallGroup.GET("/visitor-balance/:wallet_id", api.VisitorBalanceHandler(db))

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/api/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.RequireRole(domain.RoleAdmin))
	adminGroup.POST("/create-user", api.CreateUserHandler(db))
	adminGroup.POST("/create-stall", api.CreateStallHandler(db))
	adminGroup.POST("/bulk-users", api.BulkUsersHandler(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))
	adminGroup.GET("/wallets", api.ListWalletsHandler(db))
	adminGroup.GET("/transactions", api.ListTransactionsHandler(db, redisClient))
	adminGroup.GET("/plays", api.ListPlaysHandler(db))
	adminGroup.POST("/topup", api.AdminTopupHandler(db, ledgerEngine, redisClient))
	adminGroup.GET("/topup-requests", api.ListTopupRequestsHandler(topups))
	adminGroup.POST("/topup-approve", api.ApproveTopupHandler(db, topups, redisClient))
	adminGroup.POST("/topup-reject", api.RejectTopupHandler(topups))
	adminGroup.POST("/freeze/:wallet_id", api.FreezeWalletHandler(db, redisClient))
	adminGroup.POST("/unfreeze/:wallet_id", api.UnfreezeWalletHandler(db, redisClient))
	adminGroup.POST("/attendance", api.AttendanceHandler(db))
	adminGroup.GET("/leaderboard", api.LeaderboardHandler(db, redisClient))
	adminGroup.GET("/reconcile", api.ReconcileHandler(ledgerEngine))
	adminGroup.POST("/operators/assign", api.AssignOperatorHandler(operators))
	adminGroup.POST("/operators/activate", api.ActivateOperatorHandler(operators))
	adminGroup.POST("/operators/deactivate", api.DeactivateOperatorHandler(operators))
	adminGroup.POST("/operators/remove", api.RemoveOperatorHandler(operators))
	adminGroup.GET("/operators", api.ListOperatorsHandler(db))

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
