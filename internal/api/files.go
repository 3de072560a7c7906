package api

import (
	"net/http" // HTTP status codes
	"strconv"  // Parsing the expiry
	"strings"  // Path trimming

	"arcade_wallet/internal/blob" // Blob store

	"github.com/gin-gonic/gin" // Gin web framework
)

// FileHandler serves a blob if the request carries a valid, unexpired
// signature. Proof images are only reachable through URLs the service signed.
func FileHandler(blobs *blob.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimPrefix(c.Param("path"), "/")
		exp, err := strconv.ParseInt(c.Query("exp"), 10, 64)
		if err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Missing or invalid signature"})
			return
		}
		if err := blobs.Verify(key, exp, c.Query("sig")); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "Missing or invalid signature"})
			return
		}
		data, err := blobs.Get(key)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		}
		// Everything stored is a normalized JPEG.
		c.Data(http.StatusOK, "image/jpeg", data)
	}
}
