package handler

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	storageDir string
}

func NewHealthHandler(storageDir string) *HealthHandler {
	return &HealthHandler{storageDir: storageDir}
}

// Health reports unhealthy when the storage root has gone missing.
func (h *HealthHandler) Health(c *gin.Context) {
	if stat, err := os.Stat(h.storageDir); err != nil || !stat.IsDir() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": "missing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
