package api

import (
	"net/http" // HTTP status codes

	"arcade_wallet/internal/fault" // Error taxonomy

	"github.com/gin-gonic/gin" // Gin web framework
)

// respondError maps an engine error onto an HTTP status by its fault kind.
// Engines never know about HTTP; this is the single translation point.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch fault.KindOf(err) {
	case fault.ErrNotFound:
		status = http.StatusNotFound
	case fault.ErrConflict:
		status = http.StatusConflict
	case fault.ErrPreconditionFailed:
		status = http.StatusForbidden
	case fault.ErrTransient:
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
