package handlers

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxReceiptSize = 10 << 20 // 10 MiB

type PaymentHandler struct {
	paymentService *services.PaymentService
	audit          *services.AuditService
	storageDir     string
}

func NewPaymentHandler(db *gorm.DB, cfg *config.Config) *PaymentHandler {
	memberships := services.NewMembershipService(db)
	return &PaymentHandler{
		paymentService: services.NewPaymentService(db, memberships),
		audit:          services.NewAuditService(db),
		storageDir:     cfg.Storage.Dir,
	}
}

// Record stores one payment for the caller, with an optional receipt upload
// POST /api/projects/:id/payments
func (h *PaymentHandler) Record(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	input := services.RecordPaymentInput{
		Year:        parseIntForm(c, "year"),
		Month:       parseIntForm(c, "month"),
		WeekOfMonth: parseIntForm(c, "week_of_month"),
		Sequence:    parseIntForm(c, "sequence"),
	}
	if input.Year == 0 {
		response.BadRequest(c, "year is required")
		return
	}

	if file, err := c.FormFile("receipt"); err == nil {
		if file.Size > maxReceiptSize {
			response.BadRequest(c, "receipt exceeds the 10 MiB limit")
			return
		}
		ext := strings.ToLower(filepath.Ext(file.Filename))
		switch ext {
		case ".jpg", ".jpeg", ".png", ".pdf":
		default:
			response.BadRequest(c, "receipt must be a jpg, png or pdf file")
			return
		}

		relPath := filepath.Join("receipts", fmt.Sprintf("%d", projectID), uuid.NewString()+ext)
		if err := c.SaveUploadedFile(file, filepath.Join(h.storageDir, relPath)); err != nil {
			response.ServerError(c, "failed to store receipt")
			return
		}
		input.ReceiptPath = relPath
	}

	userID := middleware.GetUserID(c)
	payment, err := h.paymentService.Record(projectID, userID, &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Info("payment", "record", "payment recorded", &userID, c.ClientIP())
	response.Created(c, payment)
}

// List returns the caller's payments in a project
// GET /api/projects/:id/payments
func (h *PaymentHandler) List(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	page, pageSize := pagination(c)
	payments, total, err := h.paymentService.List(projectID, middleware.GetUserID(c), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": payments, "total": total})
}

// Options returns the period selection metadata for the payment form
// GET /api/projects/:id/payments/options
func (h *PaymentHandler) Options(c *gin.Context) {
	projectID := parseIDParam(c, "id")
	if projectID == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	opts, err := h.paymentService.Options(projectID,
		parseIntQuery(c, "year", 0), parseIntQuery(c, "month", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, opts)
}

// parseIntForm reads a numeric field from the multipart form, falling back to
// the query string.
func parseIntForm(c *gin.Context, name string) int {
	raw := c.PostForm(name)
	if raw == "" {
		raw = c.Query(name)
	}
	n, _ := strconv.Atoi(raw)
	return n
}
