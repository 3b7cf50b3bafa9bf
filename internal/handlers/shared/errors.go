package handlers

import (
	"errors"
	"net/http"

	"supportmatch/internal/middleware"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/internal/validators"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

// actorFrom builds the caller identity that the auth middleware left on the context.
func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:   c.GetString(middleware.ContextUserID),
		UserType: c.GetString(middleware.ContextUserType),
	}
}

func validationDetails(errs validators.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, e := range errs {
		if _, seen := details[e.Field]; !seen {
			details[e.Field] = e.Message
		}
	}
	return details
}

// respondError maps service errors onto HTTP responses. Anything unrecognised
// is logged and hidden behind a 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var verrs validators.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		utils.ValidationErrorResponse(c, validationDetails(verrs))
	case errors.Is(err, services.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, services.ErrReportNotFound):
		utils.NotFoundResponse(c, "Report")
	case errors.Is(err, services.ErrServiceNotFound):
		utils.NotFoundResponse(c, "Support service")
	case errors.Is(err, services.ErrMatchNotFound):
		utils.NotFoundResponse(c, "Match")
	case errors.Is(err, services.ErrAppointmentNotFound):
		utils.NotFoundResponse(c, "Appointment")
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.ErrorResponse(c, http.StatusConflict, "INVALID_TRANSITION", services.ErrInvalidTransition.Error())
	case errors.Is(err, services.ErrAppointmentConflict):
		utils.ErrorResponse(c, http.StatusConflict, "APPOINTMENT_CONFLICT", services.ErrAppointmentConflict.Error())
	case errors.Is(err, services.ErrLockUnavailable):
		c.Header("Retry-After", "1")
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "MATCHING_BUSY", services.ErrLockUnavailable.Error())
	case errors.Is(err, services.ErrCatalogUnavailable):
		utils.ServiceUnavailableResponse(c, services.ErrCatalogUnavailable.Error())
	case errors.Is(err, services.ErrMatchPersistenceFailed):
		log.WithContext(c.Request.Context()).WithError(err).Error("Match persistence failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "MATCH_PERSISTENCE_FAILED", services.ErrMatchPersistenceFailed.Error())
	default:
		log.WithContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).
			Error("Request failed")
		utils.InternalServerErrorResponse(c)
	}
}

// bindJSON decodes the body, answering 400 on malformed JSON.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.BadRequestResponse(c, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
