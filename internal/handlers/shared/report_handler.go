package handlers

import (
	"supportmatch/internal/models"
	"supportmatch/internal/services"
	"supportmatch/internal/utils"
	"supportmatch/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService services.ReportService
	logger        *logger.Logger
}

func NewReportHandler(reportService services.ReportService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, logger: log}
}

// SubmitReport stores a report and runs matching. Anonymous submissions are allowed.
// A matching failure still answers 201 with matching_error set.
func (h *ReportHandler) SubmitReport(c *gin.Context) {
	var submission models.ReportSubmission
	if !bindJSON(c, &submission) {
		return
	}

	result, err := h.reportService.Submit(c.Request.Context(), actorFrom(c), &submission)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Report submitted successfully", result)
}

func (h *ReportHandler) GetReport(c *gin.Context) {
	report, err := h.reportService.GetReport(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Report retrieved successfully", report)
}

func (h *ReportHandler) ListMyReports(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	reports, total, err := h.reportService.ListMine(c.Request.Context(), actorFrom(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Reports retrieved successfully", reports, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Count:      len(reports),
	})
}

func (h *ReportHandler) ListReportMatches(c *gin.Context) {
	matches, err := h.reportService.ListMatches(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Matches retrieved successfully", matches, &utils.Meta{Count: len(matches)})
}

// RematchReport re-runs matching for an existing report.
func (h *ReportHandler) RematchReport(c *gin.Context) {
	result, err := h.reportService.Rematch(c.Request.Context(), actorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Report matched successfully", result)
}
