package handlers

import (
	"supportmatch/internal/models"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/internal/validators"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AppointmentHandler struct {
	appointmentService services.AppointmentService
	logger             *logger.Logger
}

func NewAppointmentHandler(appointmentService services.AppointmentService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{appointmentService: appointmentService, logger: log}
}

func (h *AppointmentHandler) GetAppointment(c *gin.Context) {
	appointment, err := h.appointmentService.GetAppointment(c.Request.Context(), c.Param("id"), actorFrom(c).UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Appointment retrieved successfully", appointment)
}

func (h *AppointmentHandler) ListAppointments(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	appointments, total, err := h.appointmentService.ListForParticipant(c.Request.Context(), actorFrom(c).UserID, params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Appointments retrieved successfully", appointments, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(appointments),
	})
}

// UpdateAppointmentStatus completes or cancels a scheduled appointment.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var request models.AppointmentStatusRequest
	if !bindJSON(c, &request) {
		return
	}
	if errs := validators.ValidateStruct(&request); len(errs) > 0 {
		utils.ValidationErrorResponse(c, validationDetails(errs))
		return
	}

	appointment, err := h.appointmentService.UpdateStatus(c.Request.Context(), c.Param("id"), actorFrom(c).UserID, models.AppointmentStatus(request.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Appointment updated successfully", appointment)
}
