package handlers

import (
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type PaymentMethodHandler struct {
	methodService     *services.PaymentMethodService
	membershipService *services.MembershipService
}

func NewPaymentMethodHandler(db *gorm.DB) *PaymentMethodHandler {
	return &PaymentMethodHandler{
		methodService:     services.NewPaymentMethodService(db),
		membershipService: services.NewMembershipService(db),
	}
}

// Create adds a payment method to a project
// POST /api/admin/projects/:id/payment-methods
func (h *PaymentMethodHandler) Create(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.PaymentMethodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	method, err := h.methodService.Create(projectID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, method)
}

// Update edits a payment method
// PUT /api/admin/projects/:id/payment-methods/:methodId
func (h *PaymentMethodHandler) Update(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	methodID := parseIDParam(c, "methodId")
	if projectID == 0 || methodID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	var req services.PaymentMethodInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	method, err := h.methodService.Update(projectID, methodID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, method)
}

// Delete removes a payment method
// DELETE /api/admin/projects/:id/payment-methods/:methodId
func (h *PaymentMethodHandler) Delete(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	methodID := parseIDParam(c, "methodId")
	if projectID == 0 || methodID == 0 {
		response.BadRequest(c, "invalid id")
		return
	}

	if err := h.methodService.Delete(projectID, methodID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "payment method deleted"})
}

// List returns all payment methods of a project for the admin panel
// GET /api/admin/projects/:id/payment-methods
func (h *PaymentMethodHandler) List(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	methods, err := h.methodService.List(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, methods)
}

// Options returns the decrypted active methods for an accepted member
// GET /api/projects/:id/payment-methods
func (h *PaymentMethodHandler) Options(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	if _, err := h.membershipService.RequireAccepted(projectID, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}

	options, err := h.methodService.ActiveOptions(projectID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, options)
}
