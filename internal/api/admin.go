package api

import (
	"context"  // Context for Redis operations
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Cache TTLs and signed URL lifetime

	"arcade_wallet/internal/domain"   // Importing domain models
	"arcade_wallet/internal/ledger"   // Ledger engine
	"arcade_wallet/internal/operator" // Operator state machine
	"arcade_wallet/internal/topup"    // Topup approval service
	"arcade_wallet/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"golang.org/x/crypto/bcrypt"   // Password hashing
	"gorm.io/gorm"                 // GORM ORM library
)

// seedBalance is the wallet balance a freshly created user starts with.
// Visitors get a small float to play immediately; the admin float funds
// topups; operators hold nothing themselves.
func seedBalance(role domain.Role) int64 {
	switch role {
	case domain.RoleVisitor:
		return 100
	case domain.RoleAdmin:
		return 10000
	default:
		return 0
	}
}

// CreateUserRequest creates one user with a wallet
type CreateUserRequest struct {
	Username string      `json:"username" binding:"required"` // Unique login name
	Password string      `json:"password" binding:"required"` // Plain password, hashed here
	Name     string      `json:"name"`                        // Display name
	Role     domain.Role `json:"role" binding:"required"`     // visitor, admin or operator
}

// createUser hashes the password and creates the user plus wallet in one
// transaction. Shared by the single and bulk endpoints.
func createUser(db *gorm.DB, req CreateUserRequest) (*domain.User, *domain.Wallet, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	name := req.Name
	if name == "" {
		name = req.Username
	}
	user := domain.User{
		Username:     strings.ToLower(req.Username),
		PasswordHash: string(hash),
		Name:         name,
		Role:         req.Role,
	}
	balance := seedBalance(req.Role)
	var wallet domain.Wallet
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		wallet = domain.Wallet{
			UserID:         &user.ID,
			DisplayName:    name,
			Balance:        balance,
			InitialBalance: balance,
			IsActive:       true,
		}
		return tx.Create(&wallet).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &user, &wallet, nil
}

// validRole reports whether r is one of the three known roles
func validRole(r domain.Role) bool {
	return r == domain.RoleVisitor || r == domain.RoleAdmin || r == domain.RoleOperator
}

// CreateUserHandler creates a user with a role-seeded wallet
func CreateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !validRole(req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
			return
		}
		user, wallet, err := createUser(db, req)
		if err != nil {
			// Duplicate username is the common failure
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create user (username taken?)"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,
			"username": user.Username,
			"role":     user.Role,
			"balance":  wallet.Balance,
		}).Info("User created")
		c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "wallet_id": wallet.ID, "balance": wallet.Balance})
	}
}

// BulkUsersRequest creates many users at once (event-day onboarding)
type BulkUsersRequest struct {
	Users []CreateUserRequest `json:"users" binding:"required"`
}

// BulkUsersHandler creates each user independently and reports per-row
// results; one duplicate does not sink the batch
func BulkUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkUsersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		results := make([]gin.H, 0, len(req.Users))
		for _, u := range req.Users {
			if !validRole(u.Role) {
				results = append(results, gin.H{"username": u.Username, "error": "Unknown role"})
				continue
			}
			user, wallet, err := createUser(db, u)
			if err != nil {
				results = append(results, gin.H{"username": u.Username, "error": "Failed to create"})
				continue
			}
			results = append(results, gin.H{"username": user.Username, "user_id": user.ID, "wallet_id": wallet.ID})
		}
		c.JSON(http.StatusOK, gin.H{"results": results})
	}
}

// CreateStallRequest creates a stall with its own wallet
type CreateStallRequest struct {
	Name         string `json:"name" binding:"required"`                  // Unique stall name
	PricePerPlay int64  `json:"price_per_play" binding:"required,gt=0"`   // Cost of one play
}

// CreateStallHandler creates the stall and its earnings wallet together
func CreateStallHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateStallRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var stall domain.Stall
		err := db.Transaction(func(tx *gorm.DB) error {
			// Stall wallets have no owning user.
			wallet := domain.Wallet{DisplayName: req.Name, IsActive: true}
			if err := tx.Create(&wallet).Error; err != nil {
				return err
			}
			stall = domain.Stall{Name: req.Name, WalletID: wallet.ID, PricePerPlay: req.PricePerPlay}
			return tx.Create(&stall).Error
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create stall (name taken?)"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"stall_id": stall.ID,
			"name":     stall.Name,
			"price":    stall.PricePerPlay,
		}).Info("Stall created")
		c.JSON(http.StatusCreated, gin.H{"stall_id": stall.ID, "wallet_id": stall.WalletID})
	}
}

// UserAdminRow is the user data returned to admin lists
type UserAdminRow struct {
	ID       string         `json:"id"`       // User ID
	Username string         `json:"username"` // Username
	Name     string         `json:"name"`     // Display name
	Role     domain.Role    `json:"role"`     // User role
	Wallet   *domain.Wallet `json:"wallet"`   // Associated wallet, nil if missing
}

// ListUsersHandler returns all users with their wallet info
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		page, pageSize := pageParams(c)
		cacheKey := "admin:users:page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		var cached gin.H
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			cached["cached"] = true
			c.JSON(http.StatusOK, cached)
			return
		}
		var total int64
		if err := db.Model(&domain.User{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
			return
		}
		var users []domain.User
		if err := db.Order("created_at").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		// Fetch the page's wallets in one query and stitch them on.
		ids := make([]string, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		var wallets []domain.Wallet
		if len(ids) > 0 {
			if err := db.Where("user_id IN ?", ids).Find(&wallets).Error; err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallets"})
				return
			}
		}
		byUser := make(map[string]*domain.Wallet, len(wallets))
		for i := range wallets {
			if wallets[i].UserID != nil {
				byUser[*wallets[i].UserID] = &wallets[i]
			}
		}
		rows := make([]UserAdminRow, len(users))
		for i, u := range users {
			rows[i] = UserAdminRow{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role, Wallet: byUser[u.ID]}
		}
		resp := gin.H{
			"users":       rows,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": (int(total) + pageSize - 1) / pageSize,
			"cached":      false,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp)
	}
}

// ListWalletsHandler returns all wallets, stall wallets included
func ListWalletsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		var total int64
		if err := db.Model(&domain.Wallet{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count wallets"})
			return
		}
		var wallets []domain.Wallet
		if err := db.Order("created_at").Offset((page - 1) * pageSize).Limit(pageSize).Find(&wallets).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch wallets"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"wallets":     wallets,
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": (int(total) + pageSize - 1) / pageSize,
		})
	}
}

// ListTransactionsHandler returns all transactions, with optional filtering
// by wallet, type, or time range
func ListTransactionsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		var keyParts []string // Build cache key from all query params
		for _, k := range []string{"wallet_id", "type", "from", "to", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, ""))
		}
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached gin.H
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			cached["cached"] = true
			c.JSON(http.StatusOK, cached)
			return
		}
		page, pageSize := pageParams(c)
		query := db.Model(&domain.Transaction{})
		if walletID := c.Query("wallet_id"); walletID != "" {
			query = query.Where("from_wallet_id = ? OR to_wallet_id = ?", walletID, walletID)
		}
		if txType := c.Query("type"); txType != "" {
			query = query.Where("type = ?", txType)
		}
		if from := c.Query("from"); from != "" {
			query = query.Where("created_at >= ?", from)
		}
		if to := c.Query("to"); to != "" {
			query = query.Where("created_at <= ?", to)
		}
		var total int64
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count transactions"})
			return
		}
		var txs []domain.Transaction
		if err := query.Order("created_at desc").Offset((page - 1) * pageSize).Limit(pageSize).Find(&txs).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch transactions"})
			return
		}
		resp := gin.H{
			"transactions": txs,
			"page":         page,
			"page_size":    pageSize,
			"total":        total,
			"total_pages":  (int(total) + pageSize - 1) / pageSize,
			"cached":       false,
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, 60*time.Second)
		c.JSON(http.StatusOK, resp)
	}
}

// PlayAdminRow is one play enriched with visitor and stall names
type PlayAdminRow struct {
	TransactionID string `json:"transaction_id"`
	VisitorName   string `json:"visitor_name"`
	StallName     string `json:"stall_name"`
	PointsAmount  int64  `json:"points_amount"`
	Score         *int64 `json:"score"` // Nil while unsettled
	CreatedAt     int64  `json:"created_at"`
}

// ListPlaysHandler returns plays joined with visitor and stall names
func ListPlaysHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, pageSize := pageParams(c)
		var rows []PlayAdminRow
		if err := db.Model(&domain.Transaction{}).
			Select("transactions.id AS transaction_id, wallets.display_name AS visitor_name, stalls.name AS stall_name, transactions.points_amount, transactions.score, transactions.created_at").
			Joins("JOIN wallets ON wallets.id = transactions.from_wallet_id").
			Joins("JOIN stalls ON stalls.id = transactions.stall_id").
			Where("transactions.type = ?", domain.TxPlay).
			Order("transactions.created_at desc").
			Offset((page - 1) * pageSize).
			Limit(pageSize).
			Scan(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch plays"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"plays": rows, "page": page, "page_size": pageSize})
	}
}

// AdminTopupRequest credits a wallet directly from the admin's float
type AdminTopupRequest struct {
	WalletID string `json:"wallet_id" binding:"required"`   // Wallet to credit
	Amount   int64  `json:"amount" binding:"required,gt=0"` // Points to move
}

// AdminTopupHandler moves points from the admin's own wallet, so the float is
// finite and reconciliation still balances
func AdminTopupHandler(db *gorm.DB, ldg *ledger.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetString("userID")
		var req AdminTopupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var adminWallet domain.Wallet
		if err := db.Where("user_id = ?", adminID).First(&adminWallet).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Admin wallet not found"})
			return
		}
		txn, err := ldg.Transfer(c.Request.Context(), ledger.TransferParams{
			FromWalletID: &adminWallet.ID,
			ToWalletID:   &req.WalletID,
			Amount:       req.Amount,
			Type:         domain.TxAdminTopup,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		invalidateWalletCaches(db, rdb, req.WalletID)
		_ = utils.DeleteCache(context.Background(), rdb, "wallet:user:"+adminID)
		c.JSON(http.StatusCreated, gin.H{"message": "Topup complete", "transaction_id": txn.ID})
	}
}

// ListTopupRequestsHandler returns pending requests with signed proof URLs
func ListTopupRequestsHandler(svc *topup.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		pending, err := svc.Pending(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		rows := make([]gin.H, len(pending))
		for i := range pending {
			url, err := svc.SignedImageURL(&pending[i], 15*time.Minute)
			if err != nil {
				url = "" // Row still listed; proof link just missing
			}
			rows[i] = gin.H{
				"id":         pending[i].ID,
				"user_id":    pending[i].UserID,
				"wallet_id":  pending[i].WalletID,
				"amount":     pending[i].Amount,
				"status":     pending[i].Status,
				"image_url":  url,
				"created_at": pending[i].CreatedAt,
			}
		}
		c.JSON(http.StatusOK, gin.H{"requests": rows})
	}
}

// TopupDecisionRequest names the request being approved or rejected
type TopupDecisionRequest struct {
	RequestID string `json:"request_id" binding:"required"`
}

// ApproveTopupHandler approves a pending request; the credit comes from the
// admin's wallet. Re-approving returns the original transaction.
func ApproveTopupHandler(db *gorm.DB, svc *topup.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetString("userID")
		var req TopupDecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		txn, err := svc.Approve(c.Request.Context(), req.RequestID, adminID)
		if err != nil {
			respondError(c, err)
			return
		}
		if txn.ToWalletID != nil {
			invalidateWalletCaches(db, rdb, *txn.ToWalletID)
		}
		_ = utils.DeleteCache(context.Background(), rdb, "wallet:user:"+adminID)
		c.JSON(http.StatusOK, gin.H{"message": "Topup approved", "transaction_id": txn.ID})
	}
}

// RejectTopupHandler rejects a pending request; no points move
func RejectTopupHandler(svc *topup.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminID := c.GetString("userID")
		var req TopupDecisionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := svc.Reject(c.Request.Context(), req.RequestID, adminID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Topup rejected"})
	}
}

// setWalletActive flips the freeze flag; frozen wallets reject every leg
func setWalletActive(db *gorm.DB, rdb *redis.Client, c *gin.Context, active bool) {
	walletID := c.Param("wallet_id")
	res := db.Model(&domain.Wallet{}).Where("id = ?", walletID).Update("is_active", active)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update wallet"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
		return
	}
	invalidateWalletCaches(db, rdb, walletID)
	logrus.WithFields(logrus.Fields{"wallet_id": walletID, "active": active}).Info("Wallet state changed")
	c.JSON(http.StatusOK, gin.H{"wallet_id": walletID, "is_active": active})
}

// FreezeWalletHandler freezes a wallet
func FreezeWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) { setWalletActive(db, rdb, c, false) }
}

// UnfreezeWalletHandler unfreezes a wallet
func UnfreezeWalletHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) { setWalletActive(db, rdb, c, true) }
}

// AttendanceRequest records a visitor checking in at the event desk
type AttendanceRequest struct {
	Username string `json:"username" binding:"required"` // Visitor login name
	RegNo    string `json:"reg_no" binding:"required"`   // Registration number on the badge
}

// AttendanceHandler records a check-in against the visitor's wallet
func AttendanceHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AttendanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User
		if err := db.Where("username = ?", strings.ToLower(req.Username)).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var wallet domain.Wallet
		if err := db.Where("user_id = ?", user.ID).First(&wallet).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Wallet not found"})
			return
		}
		record := domain.AttendanceRecord{
			UserID:   user.ID,
			Username: user.Username,
			RegNo:    req.RegNo,
			WalletID: wallet.ID,
		}
		if err := db.Create(&record).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record attendance"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"attendance_id": record.ID, "wallet_id": wallet.ID})
	}
}

// ReconcileHandler recomputes every balance from the transaction log and
// reports drift. Empty drift list means the books balance.
func ReconcileHandler(ldg *ledger.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		drifts, err := ldg.Reconcile(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"balanced": len(drifts) == 0, "drifts": drifts})
	}
}

// OperatorRequest names a (stall, user) pair for operator management
type OperatorRequest struct {
	StallID string `json:"stall_id" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
}

// AssignOperatorHandler assigns an operator to a stall
func AssignOperatorHandler(ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OperatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := ops.Assign(c.Request.Context(), req.StallID, req.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Operator assigned"})
	}
}

// ActivateOperatorHandler opens a live session for the assigned operator
func ActivateOperatorHandler(ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OperatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		session, err := ops.Activate(c.Request.Context(), req.StallID, req.UserID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Session opened", "session_id": session.ID})
	}
}

// DeactivateOperatorHandler closes the live session
func DeactivateOperatorHandler(ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OperatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := ops.Deactivate(c.Request.Context(), req.StallID, req.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Session closed"})
	}
}

// RemoveOperatorHandler removes the assignment, closing any live session
func RemoveOperatorHandler(ops *operator.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OperatorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if err := ops.Remove(c.Request.Context(), req.StallID, req.UserID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Operator removed"})
	}
}

// OperatorAdminRow is one assignment with its live state
type OperatorAdminRow struct {
	StallID   string `json:"stall_id"`
	StallName string `json:"stall_name"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Live      bool   `json:"live"` // True while a session is open
}

// ListOperatorsHandler returns every assignment and whether it is live
func ListOperatorsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var rows []OperatorAdminRow
		if err := db.Model(&domain.StallOperatorAssignment{}).
			Select("stall_operator_assignments.stall_id, stalls.name AS stall_name, stall_operator_assignments.user_id, users.username, " +
				"EXISTS (SELECT 1 FROM stall_sessions WHERE stall_sessions.stall_id = stall_operator_assignments.stall_id " +
				"AND stall_sessions.user_id = stall_operator_assignments.user_id AND stall_sessions.is_active) AS live").
			Joins("JOIN stalls ON stalls.id = stall_operator_assignments.stall_id").
			Joins("JOIN users ON users.id = stall_operator_assignments.user_id").
			Order("stalls.name").
			Scan(&rows).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch operators"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"operators": rows})
	}
}
