package handlers

import (
	"supportmatch/internal/models"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

type SupportServiceHandler struct {
	serviceService services.SupportServiceService
	logger         *logger.Logger
}

func NewSupportServiceHandler(serviceService services.SupportServiceService, log *logger.Logger) *SupportServiceHandler {
	return &SupportServiceHandler{serviceService: serviceService, logger: log}
}

func (h *SupportServiceHandler) RegisterService(c *gin.Context) {
	var request models.SupportServiceRequest
	if !bindJSON(c, &request) {
		return
	}

	service, err := h.serviceService.Register(c.Request.Context(), actorFrom(c).UserID, &request)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Support service registered successfully", service)
}

func (h *SupportServiceHandler) GetService(c *gin.Context) {
	service, err := h.serviceService.GetService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Support service retrieved successfully", service)
}

func (h *SupportServiceHandler) ListMyServices(c *gin.Context) {
	list, err := h.serviceService.ListByOwner(c.Request.Context(), actorFrom(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Support services retrieved successfully", list, &utils.Meta{Count: len(list)})
}
