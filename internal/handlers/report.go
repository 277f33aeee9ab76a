package handlers

import (
	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReportHandler struct {
	reportService *services.ReportService
	audit         *services.AuditService
}

func NewReportHandler(db *gorm.DB, cfg *config.Config, queue services.TaskQueue) *ReportHandler {
	return &ReportHandler{
		reportService: services.NewReportService(db, cfg, queue),
		audit:         services.NewAuditService(db),
	}
}

// ReportService exposes the underlying service for worker wiring.
func (h *ReportHandler) ReportService() *services.ReportService {
	return h.reportService
}

// Create requests an asynchronous payment status report
// POST /api/admin/projects/:id/reports
func (h *ReportHandler) Create(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.ReportFilters
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	adminID := middleware.GetUserID(c)
	report, err := h.reportService.Create(projectID, &adminID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Info("report", "create", "report requested", &adminID, c.ClientIP())
	response.Accepted(c, report)
}

// List returns a project's reports, newest first
// GET /api/admin/projects/:id/reports
func (h *ReportHandler) List(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	page, pageSize := pagination(c)
	reports, total, err := h.reportService.List(projectID, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": reports, "total": total})
}

// Download streams a ready report file
// GET /api/admin/projects/:id/reports/:reportId/download
func (h *ReportHandler) Download(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	reportID := parseIDParam(c, "reportId")
	if projectID == 0 || reportID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	report, absPath, err := h.reportService.Download(projectID, reportID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", report.MimeType)
	c.FileAttachment(absPath, report.FileName)
}
