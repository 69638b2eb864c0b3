package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker is anything that can report its connection health.
type HealthChecker interface {
	HealthCheck() error
}

// HealthHandler serves the service health endpoint.
type HealthHandler struct {
	checkers map[string]HealthChecker
}

func NewHealthHandler(checkers map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// GetHealth reports overall and per-dependency health.
// GET /api/health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}
	for name, checker := range h.checkers {
		if err := checker.HealthCheck(); err != nil {
			status = http.StatusServiceUnavailable
			deps[name] = gin.H{"healthy": false, "error": err.Error()}
			continue
		}
		deps[name] = gin.H{"healthy": true}
	}

	c.JSON(status, gin.H{
		"status":       map[bool]string{true: "healthy", false: "unhealthy"}[status == http.StatusOK],
		"service":      "mlsmap",
		"dependencies": deps,
	})
}
