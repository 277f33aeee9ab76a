package handlers

import (
	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct {
	authService *services.AuthService
	audit       *services.AuditService
}

func NewAuthHandler(db *gorm.DB, cfg *config.Config) *AuthHandler {
	return &AuthHandler{
		authService: services.NewAuthService(db, cfg),
		audit:       services.NewAuditService(db),
	}
}

// Register creates a participant account
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Register(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Info("auth", "register", "participant registered", &result.User.ID, c.ClientIP())
	response.Created(c, result)
}

// Login authenticates by phone and password
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(&req)
	if err != nil {
		h.audit.Warning("auth", "login_failed", "login failed for "+req.Phone, nil, c.ClientIP())
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Me returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.authService.Me(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// Logout handles user logout (client-side token removal)
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.Success(c, gin.H{"message": "logged out successfully"})
}

// CreateAdminIfNotExists creates the default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
