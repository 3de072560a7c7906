package config

import (
	"os"      // For environment variables
	"strconv" // For string to int conversion

	"github.com/joho/godotenv" // For loading .env files
)

// Config holds the application configuration
type Config struct {
	AppPort          string // Application port
	DBUser           string // Database user
	DBPassword       string // Database password
	DBHost           string // Database host
	DBPort           string // Database port
	DBName           string // Database name
	JWTSecret        string // JWT secret key
	RedisAddr        string // Redis server address
	RedisPass        string // Redis password
	RedisDB          int    // Redis database number
	BlobDir          string // Directory for payment-proof images
	BlobSecret       string // HMAC key for signed image URLs
	RewardMultiplier int64  // Points credited per score unit
	SeedAdminUser    string // Initial admin username (migrations)
	SeedAdminPass    string // Initial admin password (migrations)
	IsProd           bool   // Is production environment
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	_ = godotenv.Load() // Load .env file if present
	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	multiplier, err := strconv.ParseInt(os.Getenv("REWARD_MULTIPLIER"), 10, 64)
	if err != nil || multiplier < 0 {
		multiplier = 1
	}
	blobDir := os.Getenv("BLOB_DIR")
	if blobDir == "" {
		blobDir = "data/blobs"
	}
	return &Config{
		AppPort:          os.Getenv("APP_PORT"),          // Application port
		DBUser:           os.Getenv("DB_USER"),           // Database user
		DBPassword:       os.Getenv("DB_PASSWORD"),       // Database password
		DBHost:           os.Getenv("DB_HOST"),           // Database host
		DBPort:           os.Getenv("DB_PORT"),           // Database port
		DBName:           os.Getenv("DB_NAME"),           // Database name
		JWTSecret:        os.Getenv("JWT_SECRET"),        // JWT secret key
		RedisAddr:        os.Getenv("REDIS_ADDR"),        // Redis server address
		RedisPass:        os.Getenv("REDIS_PASS"),        // Redis password
		RedisDB:          redisDB,                        // Redis database number
		BlobDir:          blobDir,                        // Payment-proof image directory
		BlobSecret:       os.Getenv("BLOB_SECRET"),       // Signed URL HMAC key
		RewardMultiplier: multiplier,                     // Score-to-points multiplier
		SeedAdminUser:    os.Getenv("SEED_ADMIN_USER"),   // Initial admin username
		SeedAdminPass:    os.Getenv("SEED_ADMIN_PASS"),   // Initial admin password
		IsProd:           os.Getenv("IS_PROD") == "true", // Is production environment
	}
}
