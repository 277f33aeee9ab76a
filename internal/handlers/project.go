package handlers

import (
	"strconv"

	"github.com/coletiva/backend/internal/middleware"
	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/services"
	"github.com/coletiva/backend/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProjectHandler struct {
	projectService *services.ProjectService
	audit          *services.AuditService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
		audit:          services.NewAuditService(db),
	}
}

// Create registers a new collective project
// POST /api/admin/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	adminID := middleware.GetUserID(c)
	project, err := h.projectService.Create(&req, adminID)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.audit.Info("project", "create", "project created: "+project.Slug, &adminID, c.ClientIP())
	response.Created(c, project)
}

// Update edits a project
// PUT /api/admin/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.ProjectInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(id, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// List returns a page of projects for the admin panel
// GET /api/admin/projects
func (h *ProjectHandler) List(c *gin.Context) {
	page, pageSize := pagination(c)
	projects, total, err := h.projectService.List(c.Query("search"), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"items": projects, "total": total})
}

// Get returns one project
// GET /api/admin/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	project, err := h.projectService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// Delete soft-deletes a project
// DELETE /api/admin/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	id := parseIDParam(c, "id")
	if id == 0 {
		response.BadRequest(c, "invalid project id")
		return
	}

	if err := h.projectService.Delete(id); err != nil {
		response.Error(c, err)
		return
	}

	adminID := middleware.GetUserID(c)
	h.audit.Warning("project", "delete", "project deleted", &adminID, c.ClientIP())
	response.Success(c, gin.H{"message": "project deleted"})
}

// PublicList returns the active projects with seat availability
// GET /api/projects
func (h *ProjectHandler) PublicList(c *gin.Context) {
	projects, err := h.projectService.PublicList()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// PublicGet returns one active project, addressed by numeric id or by slug
// GET /api/projects/:id
func (h *ProjectHandler) PublicGet(c *gin.Context) {
	ref := c.Param("id")

	var project *models.CollectiveProject
	var err error
	if id, perr := strconv.ParseUint(ref, 10, 32); perr == nil {
		project, err = h.projectService.GetActiveByID(uint(id))
	} else {
		project, err = h.projectService.GetBySlug(ref)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}
