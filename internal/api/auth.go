package api

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation
	"time"     // Token lifetime

	"arcade_wallet/internal/domain" // Importing domain models
	"arcade_wallet/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// tokenTTL is the JWT lifetime for all roles.
const tokenTTL = 12 * time.Hour

// LoginRequest carries the credentials
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AuthResponse is returned on a successful login
type AuthResponse struct {
	Token string      `json:"token"` // JWT token
	Role  domain.Role `json:"role"`  // Role, so clients can route to the right dashboard
	Name  string      `json:"name"`  // Display name
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("username = ?", strings.ToLower(req.Username)).First(&user).Error; err != nil {
			// Same response for unknown user and wrong password
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Generate JWT token carrying uid, username and role
		token, err := utils.GenerateJWT(&user, jwtSecret, tokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		c.JSON(http.StatusOK, AuthResponse{Token: token, Role: user.Role, Name: user.Name})
	}
}

// LogoutHandler is a no-op server side; tokens are stateless and expire on
// their own. The endpoint exists so clients have a uniform logout call.
func LogoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
	}
}

// MeHandler returns the authenticated user's profile
func MeHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("userID") // Set by JWTAuthMiddleware
		var user domain.User
		if err := db.First(&user, "id = ?", userID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
			"role":     user.Role,
		})
	}
}
