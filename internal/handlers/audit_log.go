package handlers

import (
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditLogHandler struct {
	auditService *services.AuditService
}

func NewAuditLogHandler(db *gorm.DB) *AuditLogHandler {
	return &AuditLogHandler{auditService: services.NewAuditService(db)}
}

// List returns a page of audit entries
// GET /api/admin/audit-logs
func (h *AuditLogHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	entries, total, err := h.auditService.List(c.Query("level"), c.Query("module"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": entries, "total": total})
}
