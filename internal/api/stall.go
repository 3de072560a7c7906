package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes

	"arcade_wallet/internal/domain"   // Importing domain models
	"arcade_wallet/internal/game"     // Game session engine
	"arcade_wallet/internal/ledger"   // Ledger engine
	"arcade_wallet/internal/operator" // Operator state machine
	"arcade_wallet/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// PlayRequest starts a game for a visitor at the operator's stall
type PlayRequest struct {
	WalletID string `json:"wallet_id" binding:"required"` // Visitor wallet to charge
}

// invalidateWalletCaches drops the cached wallet and history entries for the
// user owning walletID, if any.
func invalidateWalletCaches(db *gorm.DB, rdb *redis.Client, walletID string) {
	var wallet domain.Wallet
	if err := db.Select("user_id").First(&wallet, "id = ?", walletID).Error; err != nil || wallet.UserID == nil {
		return
	}
	ctx := context.Background()
	_ = utils.DeleteCache(ctx, rdb, "wallet:user:"+*wallet.UserID)
	_ = utils.DeleteCacheByPrefix(ctx, rdb, "txhistory:user:"+*wallet.UserID)
}

// StartPlayHandler charges the visitor the stall's price and opens a play.
// The operator must have an active session; the engine enforces that.
func StartPlayHandler(db *gorm.DB, games *game.Engine, ops *operator.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := c.GetString("userID") // Set by JWTAuthMiddleware
		var req PlayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		stall, err := ops.StallFor(c.Request.Context(), operatorID) // Resolve the operator's stall
		if err != nil {
			respondError(c, err)
			return
		}
		txn, err := games.Start(c.Request.Context(), req.WalletID, stall.ID, operatorID)
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateWalletCaches(db, rdb, req.WalletID) // Balance changed
		c.JSON(http.StatusCreated, gin.H{
			"message":        "Game started",
			"transaction_id": txn.ID,
			"amount":         txn.PointsAmount,
		})
	}
}

// SubmitScoreRequest settles an open play with its score
type SubmitScoreRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"` // Play to settle
	Score         *int64 `json:"score" binding:"required"`          // Pointer so zero binds
}

// SubmitScoreHandler attaches the score to an open play
func SubmitScoreHandler(rdb *redis.Client, games *game.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitScoreRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		txn, err := games.Settle(c.Request.Context(), req.TransactionID, *req.Score)
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.DeleteCache(context.Background(), rdb, "leaderboard:visitors") // Scores feed the board
		c.JSON(http.StatusOK, gin.H{
			"message":        "Score recorded",
			"transaction_id": txn.ID,
			"score":          txn.Score,
		})
	}
}

// ClaimRewardRequest issues the prize for a settled play
type ClaimRewardRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"` // Settled play
}

// ClaimRewardHandler pays the score-based prize from the stall's wallet back
// to the visitor. At most one reward per play.
func ClaimRewardHandler(db *gorm.DB, games *game.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ClaimRewardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		txn, err := games.Reward(c.Request.Context(), req.TransactionID)
		if err != nil {
			respondError(c, err)
			return
		}
		if txn == nil {
			// Zero-score plays earn nothing; not an error.
			c.JSON(http.StatusOK, gin.H{"message": "No reward for this score"})
			return
		}
		invalidateWalletCaches(db, rdb, *txn.ToWalletID) // Visitor balance changed
		c.JSON(http.StatusCreated, gin.H{
			"message":        "Reward issued",
			"transaction_id": txn.ID,
			"amount":         txn.PointsAmount,
		})
	}
}

// PendingGamesHandler lists the stall's open (unscored) plays
func PendingGamesHandler(games *game.Engine, ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := c.GetString("userID")
		stall, err := ops.StallFor(c.Request.Context(), operatorID)
		if err != nil {
			respondError(c, err)
			return
		}
		plays, err := games.PendingForStall(c.Request.Context(), stall.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stall_id": stall.ID, "pending": plays})
	}
}

// StallWalletHandler returns the stall's earnings wallet
func StallWalletHandler(db *gorm.DB, ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := c.GetString("userID")
		stall, err := ops.StallFor(c.Request.Context(), operatorID)
		if err != nil {
			respondError(c, err)
			return
		}
		var wallet domain.Wallet
		if err := db.First(&wallet, "id = ?", stall.WalletID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Stall wallet not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stall": stall, "wallet": wallet})
	}
}

// StallHistoryHandler returns the stall wallet's transactions, paginated
func StallHistoryHandler(ldg *ledger.Engine, ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		operatorID := c.GetString("userID")
		stall, err := ops.StallFor(c.Request.Context(), operatorID)
		if err != nil {
			respondError(c, err)
			return
		}
		page, pageSize := pageParams(c)
		transactions, total, err := ldg.History(c.Request.Context(), stall.WalletID, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"transactions": transactions,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  (int(total) + pageSize - 1) / pageSize,
		})
	}
}

// VisitorBalanceHandler lets an operator check a visitor's balance before a
// play, by wallet ID (scanned from the visitor's badge)
func VisitorBalanceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		walletID := c.Param("wallet_id")
		var wallet domain.Wallet
		if err := db.First(&wallet, "id = ?", walletID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"wallet_id":    wallet.ID,
			"display_name": wallet.DisplayName,
			"balance":      wallet.Balance,
			"is_active":    wallet.IsActive,
		})
	}
}
