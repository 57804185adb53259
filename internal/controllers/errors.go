package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/osassistant/backend/internal/logger"
	"github.com/osassistant/backend/internal/services"
)

// respondError maps service errors to HTTP responses. Unexpected errors are
// logged and reported with msg.
func respondError(c *gin.Context, err error, component, msg string) {
	switch {
	case services.IsInputError(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrCaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		logger.WithError(err, component).Warn(msg)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Storage temporarily unavailable, try again"})
	default:
		logger.WithError(err, component).Error(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func parseID(c *gin.Context, param string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(param), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid case ID"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
