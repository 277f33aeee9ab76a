package handlers

import (
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MemberHandler covers the admin-facing member management of a project.
type MemberHandler struct {
	membershipService *services.MembershipService
	audit             *services.AuditService
}

// NewMemberHandler shares the membership service with the participant-facing
// handler so restore competes for seats under the same admission mutex.
func NewMemberHandler(db *gorm.DB, memberships *services.MembershipService) *MemberHandler {
	return &MemberHandler{
		membershipService: memberships,
		audit:             services.NewAuditService(db),
	}
}

// List returns a page of a project's members
// GET /api/admin/projects/:id/members
func (h *MemberHandler) List(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	page, pageSize := pagination(c)
	items, total, err := h.membershipService.ListMembers(projectID, c.Query("status"), c.Query("search"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": items, "total": total})
}

// Remove marks a membership as removed, freeing its seat
// DELETE /api/admin/projects/:id/members/:memberId
func (h *MemberHandler) Remove(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	memberID := parseIDParam(c, "memberId")
	if projectID == 0 || memberID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	adminID := middleware.GetUserID(c)
	membership, err := h.membershipService.Remove(projectID, memberID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Warning("membership", "remove", "member removed", &adminID, c.ClientIP())
	response.Success(c, membership)
}

// Restore reinstates a removed membership if a seat is free
// POST /api/admin/projects/:id/members/:memberId/restore
func (h *MemberHandler) Restore(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	memberID := parseIDParam(c, "memberId")
	if projectID == 0 || memberID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	adminID := middleware.GetUserID(c)
	result, err := h.membershipService.Restore(projectID, memberID, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Outcome == services.JoinRejectedFull {
		response.Conflict(c, "project is full")
		return
	}

	h.audit.Info("membership", "restore", "member restored", &adminID, c.ClientIP())
	response.Success(c, result)
}
