package handlers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"supportmatch/internal/utils"

	"github.com/gin-gonic/gin"
)

// Pinger is satisfied by the database and cache clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	dependencies map[string]Pinger
	timeout      time.Duration
}

func NewHealthHandler(dependencies map[string]Pinger) *HealthHandler {
	return &HealthHandler{dependencies: dependencies, timeout: 2 * time.Second}
}

// Health reports 503 when any dependency fails its ping.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.dependencies))
	for name := range h.dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		if err := h.dependencies[name].Ping(ctx); err != nil {
			checks[name] = err.Error()
			healthy = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":  status,
		"version": utils.AppVersion,
		"checks":  checks,
	})
}
