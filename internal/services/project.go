package services

import (
	"errors"
	"regexp"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/coletiva/backend/pkg/response"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ProjectService is the admin CRUD surface for collective projects plus the
// public listing participants browse before joining.
type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

// ProjectInput carries the create/update payload. Amount arrives as a string
// and is parsed into an exact decimal; floats never touch money.
type ProjectInput struct {
	Title                string `json:"title" binding:"required"`
	Slug                 string `json:"slug" binding:"required"`
	Description          string `json:"description"`
	ParticipantLimit     int    `json:"participant_limit" binding:"required"`
	AmountPerParticipant string `json:"amount_per_participant" binding:"required"`
	PaymentInterval      string `json:"payment_interval" binding:"required"`
	PaymentsPerInterval  int    `json:"payments_per_interval"`
	IsActive             *bool  `json:"is_active"`
}

func (s *ProjectService) validate(in *ProjectInput) (decimal.Decimal, error) {
	if !slugPattern.MatchString(in.Slug) {
		return decimal.Zero, response.NewBadRequest("slug must be lowercase letters, digits and hyphens")
	}
	if in.ParticipantLimit < 1 {
		return decimal.Zero, response.NewBadRequest("participant limit must be at least 1")
	}
	if !models.ValidInterval(in.PaymentInterval) {
		return decimal.Zero, response.NewBadRequest("payment interval must be week, month or year")
	}
	if in.PaymentsPerInterval < 0 {
		return decimal.Zero, response.NewBadRequest("payments per interval cannot be negative")
	}

	amount, err := decimal.NewFromString(in.AmountPerParticipant)
	if err != nil || amount.IsNegative() || amount.IsZero() {
		return decimal.Zero, response.NewBadRequest("amount per participant must be a positive decimal")
	}
	return amount, nil
}

// Create registers a new project.
func (s *ProjectService) Create(in *ProjectInput, createdBy uint) (*models.CollectiveProject, error) {
	amount, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if in.PaymentsPerInterval == 0 {
		in.PaymentsPerInterval = 1
	}

	project := models.CollectiveProject{
		Title:                in.Title,
		Slug:                 in.Slug,
		Description:          in.Description,
		ParticipantLimit:     in.ParticipantLimit,
		AmountPerParticipant: amount,
		PaymentInterval:      in.PaymentInterval,
		PaymentsPerInterval:  in.PaymentsPerInterval,
		IsActive:             true,
		CreatedBy:            createdBy,
	}
	if in.IsActive != nil {
		project.IsActive = *in.IsActive
	}

	if err := s.db.Create(&project).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("slug already in use")
		}
		return nil, err
	}

	logger.Info().Uint("project_id", project.ID).Str("slug", project.Slug).Msg("project created")
	return &project, nil
}

// Update edits a project. The schedule fields (interval, payments per
// interval) stay editable; historical payment rows keep their recorded slot
// tuples and amounts.
func (s *ProjectService) Update(id uint, in *ProjectInput) (*models.CollectiveProject, error) {
	project, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	amount, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	if in.PaymentsPerInterval == 0 {
		in.PaymentsPerInterval = 1
	}

	updates := map[string]interface{}{
		"title":                  in.Title,
		"slug":                   in.Slug,
		"description":            in.Description,
		"participant_limit":      in.ParticipantLimit,
		"amount_per_participant": amount,
		"payment_interval":       in.PaymentInterval,
		"payments_per_interval":  in.PaymentsPerInterval,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}

	if err := s.db.Model(project).Updates(updates).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, response.NewConflict("slug already in use")
		}
		return nil, err
	}
	return s.GetByID(id)
}

// GetByID loads one project.
func (s *ProjectService) GetByID(id uint) (*models.CollectiveProject, error) {
	var project models.CollectiveProject
	err := s.db.First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetActiveByID loads one active project by numeric id. Deactivated projects
// stay reachable to admins through GetByID but disappear from this lookup.
func (s *ProjectService) GetActiveByID(id uint) (*models.CollectiveProject, error) {
	var project models.CollectiveProject
	err := s.db.Where("is_active = ?", true).First(&project, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetBySlug loads one active project by its public slug.
func (s *ProjectService) GetBySlug(slug string) (*models.CollectiveProject, error) {
	var project models.CollectiveProject
	err := s.db.Where("slug = ? AND is_active = ?", slug, true).First(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns a page of projects for the admin panel, optionally filtered by
// a title search.
func (s *ProjectService) List(search string, page, pageSize int) ([]models.CollectiveProject, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.Model(&models.CollectiveProject{})
	if search != "" {
		q = q.Where("title LIKE ?", "%"+search+"%")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var projects []models.CollectiveProject
	err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&projects).Error
	if err != nil {
		return nil, 0, err
	}
	return projects, total, nil
}

// PublicProject is a project listing entry with seat availability.
type PublicProject struct {
	models.CollectiveProject
	AcceptedCount int64 `json:"accepted_count"`
}

// PublicList returns the active projects participants can browse, with the
// current accepted count so the UI can show remaining seats. The count is a
// snapshot; the join operation is the only arbiter of capacity.
func (s *ProjectService) PublicList() ([]PublicProject, error) {
	var projects []models.CollectiveProject
	err := s.db.Where("is_active = ?", true).Order("id DESC").Find(&projects).Error
	if err != nil {
		return nil, err
	}

	out := make([]PublicProject, 0, len(projects))
	for _, p := range projects {
		var accepted int64
		err := s.db.Model(&models.ProjectMembership{}).
			Where("project_id = ? AND status = ?", p.ID, models.MembershipAccepted).
			Count(&accepted).Error
		if err != nil {
			return nil, err
		}
		out = append(out, PublicProject{CollectiveProject: p, AcceptedCount: accepted})
	}
	return out, nil
}

// Delete soft-deletes a project and deactivates it. Memberships, payments and
// reports stay in place for audit history.
func (s *ProjectService) Delete(id uint) error {
	project, err := s.GetByID(id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(project).Update("is_active", false).Error; err != nil {
			return err
		}
		return tx.Delete(project).Error
	})
}
