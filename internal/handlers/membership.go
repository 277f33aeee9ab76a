package handlers

import (
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MembershipHandler covers the participant-facing membership operations.
type MembershipHandler struct {
	membershipService *services.MembershipService
	audit             *services.AuditService
}

// NewMembershipHandler takes the membership service instead of building its
// own: the admission mutex only works when join and restore share an instance.
func NewMembershipHandler(db *gorm.DB, memberships *services.MembershipService) *MembershipHandler {
	return &MembershipHandler{
		membershipService: memberships,
		audit:             services.NewAuditService(db),
	}
}

// Join requests admission into a project
// POST /api/projects/:id/join
func (h *MembershipHandler) Join(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	userID := middleware.GetUserID(c)
	result, err := h.membershipService.Join(projectID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch result.Outcome {
	case services.JoinAccepted:
		h.audit.Info("membership", "join", "participant admitted", &userID, c.ClientIP())
		response.Created(c, result)
	case services.JoinAlreadyAccepted:
		response.Success(c, result)
	case services.JoinRejectedFull:
		response.Conflict(c, "project is full")
	case services.JoinRejectedRemoved:
		response.Forbidden(c, "membership was removed by an administrator")
	}
}

// Show returns the caller's membership in a project
// GET /api/projects/:id/membership
func (h *MembershipHandler) Show(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	membership, err := h.membershipService.Get(projectID, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	if membership == nil {
		response.NotFound(c, "no membership in this project")
		return
	}
	response.Success(c, membership)
}
