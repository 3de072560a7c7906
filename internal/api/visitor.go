package api

import (
	"context"  // Context for Redis operations
	"io"       // Reading the uploaded proof
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"time"     // Cache TTLs

	"arcade_wallet/internal/domain" // Importing domain models
	"arcade_wallet/internal/ledger" // Ledger engine
	"arcade_wallet/internal/topup"  // Topup intake service
	"arcade_wallet/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// GetWalletHandler returns the authenticated visitor's wallet
func GetWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")       // Set by JWTAuthMiddleware
		ctx := context.Background()           // Context for Redis operations
		cacheKey := "wallet:user:" + userID   // Cache key for wallet
		var wallet domain.Wallet              // Wallet struct to hold data
		found, err := utils.GetCache(ctx, rdb, cacheKey, &wallet)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": true})
			return
		}
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, wallet, 60*time.Second) // Cache for 60 seconds
		c.JSON(http.StatusOK, gin.H{"wallet": wallet, "cached": false})
	}
}

// pageParams reads page/page_size query params with the shared defaults
func pageParams(c *gin.Context) (page, pageSize int) {
	page, pageSize = 1, 20
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}
	return page, pageSize
}

// GetHistoryHandler returns the visitor's transaction history, paginated
func GetHistoryHandler(db *gorm.DB, ldg *ledger.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		var wallet domain.Wallet // Resolve the wallet first
		if err := db.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		page, pageSize := pageParams(c)
		cacheKey := "txhistory:user:" + userID + ":page:" + strconv.Itoa(page) + ":size:" + strconv.Itoa(pageSize)
		ctx := context.Background()
		var cached gin.H
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			cached["cached"] = true
			c.JSON(http.StatusOK, cached)
			return
		}
		transactions, total, err := ldg.History(c.Request.Context(), wallet.ID, page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize
		resp := gin.H{
			"transactions": transactions,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  totalPages,
			"cached":       false,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp)
	}
}

// LeaderboardEntry is one visitor row, ranked by total settled score
type LeaderboardEntry struct {
	WalletID    string `json:"wallet_id"`    // Visitor wallet
	DisplayName string `json:"display_name"` // Shown on the board
	TotalScore  int64  `json:"total_score"`  // Sum of settled play scores
	PlayCount   int64  `json:"play_count"`   // Settled plays
}

// LeaderboardHandler ranks visitors by the sum of their settled play scores.
// Results are cached briefly; the board tolerates a little staleness.
func LeaderboardHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		cacheKey := "leaderboard:visitors"
		var entries []LeaderboardEntry
		found, err := utils.GetCache(ctx, rdb, cacheKey, &entries)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": true})
			return
		}
		// Settled plays debit the visitor wallet, so group on the from leg.
		if err := db.Model(&domain.Transaction{}).
			Select("transactions.from_wallet_id AS wallet_id, wallets.display_name, SUM(transactions.score) AS total_score, COUNT(*) AS play_count").
			Joins("JOIN wallets ON wallets.id = transactions.from_wallet_id").
			Where("transactions.type = ? AND transactions.score IS NOT NULL", domain.TxPlay).
			Group("transactions.from_wallet_id, wallets.display_name").
			Order("total_score desc").
			Limit(50).
			Scan(&entries).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build leaderboard"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, entries, 30*time.Second)
		c.JSON(http.StatusOK, gin.H{"leaderboard": entries, "cached": false})
	}
}

// SubmitTopupHandler accepts a multipart payment-proof upload and files a
// pending topup request
func SubmitTopupHandler(svc *topup.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID")
		amount, err := strconv.ParseInt(c.PostForm("amount"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		fileHeader, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Proof image is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read proof image"})
			return
		}
		defer file.Close()
		// Read one byte past the ceiling so oversize uploads are caught
		// without buffering the whole thing.
		proof, err := io.ReadAll(io.LimitReader(file, topup.MaxProofBytes+1))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read proof image"})
			return
		}
		req, err := svc.Submit(c.Request.Context(), userID, amount, proof)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "Topup request submitted",
			"request": gin.H{
				"id":     req.ID,
				"amount": req.Amount,
				"status": req.Status,
			},
		})
	}
}
