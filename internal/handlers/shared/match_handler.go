package handlers

import (
	"supportmatch/internal/models"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/internal/validators"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

type MatchHandler struct {
	matchService services.MatchService
	logger       *logger.Logger
}

func NewMatchHandler(matchService services.MatchService, log *logger.Logger) *MatchHandler {
	return &MatchHandler{matchService: matchService, logger: log}
}

type acceptMatchResponse struct {
	Match       *models.Match       `json:"match"`
	Appointment *models.Appointment `json:"appointment"`
}

// AcceptMatch accepts a pending match for one of the caller's services and
// schedules the appointment. The body is optional.
func (h *MatchHandler) AcceptMatch(c *gin.Context) {
	var request models.AcceptMatchRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &request) {
			return
		}
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, validationDetails(errs))
		return
	}

	match, appointment, err := h.matchService.Accept(c.Request.Context(), c.Param("id"), actorFrom(c).UserID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Match accepted successfully", acceptMatchResponse{Match: match, Appointment: appointment})
}

func (h *MatchHandler) DeclineMatch(c *gin.Context) {
	match, err := h.matchService.Decline(c.Request.Context(), c.Param("id"), actorFrom(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Match declined successfully", match)
}

func (h *MatchHandler) GetMatch(c *gin.Context) {
	match, err := h.matchService.GetMatch(c.Request.Context(), c.Param("id"), actorFrom(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Match retrieved successfully", match)
}

// ListMatches lists matches across the caller's services, optionally filtered by ?status=.
func (h *MatchHandler) ListMatches(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	status := models.MatchStatusType(c.Query("status"))

	matches, total, err := h.matchService.ListForProvider(c.Request.Context(), actorFrom(c).UserID, status, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Matches retrieved successfully", matches, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(matches),
	})
}
