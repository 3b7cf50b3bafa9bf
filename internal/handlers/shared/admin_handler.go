package handlers

import (
	"context"
	"net/http"

	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Sweeper is implemented by services.PendingSweeper.
type Sweeper interface {
	Enabled() bool
	SweepOnce(ctx context.Context) (int, error)
}

type AdminHandler struct {
	sweeper Sweeper
	logger  *logger.Logger
}

func NewAdminHandler(sweeper Sweeper, log *logger.Logger) *AdminHandler {
	return &AdminHandler{sweeper: sweeper, logger: log}
}

// SweepPendingMatches runs one expiry pass immediately.
func (h *AdminHandler) SweepPendingMatches(c *gin.Context) {
	if !h.sweeper.Enabled() {
		utils.ErrorResponse(c, http.StatusConflict, "SWEEP_DISABLED", "Pending match expiry is not configured")
		return
	}

	expired, err := h.sweeper.SweepOnce(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.LogAudit("sweep", "matches", "", actorFrom(c).UserID, map[string]interface{}{"expired": expired})
	utils.SuccessResponse(c, "Pending matches swept", gin.H{"expired": expired})
}
