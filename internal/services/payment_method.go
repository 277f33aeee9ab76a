package services

import (
	"errors"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/utils"
	"github.com/coletiva/backend/pkg/response"
	"gorm.io/gorm"
)

// PaymentMethodService manages the payment instructions shown to accepted
// participants. Payloads (pix keys, bank accounts) are encrypted at rest and
// only decrypted when served to a member of the project.
type PaymentMethodService struct {
	db *gorm.DB
}

func NewPaymentMethodService(db *gorm.DB) *PaymentMethodService {
	return &PaymentMethodService{db: db}
}

// PaymentMethodInput is the admin create/update payload. Payload is the
// cleartext JSON document; it is encrypted before it reaches the database.
type PaymentMethodInput struct {
	Type      string `json:"payment_method_type" binding:"required"`
	Payload   string `json:"payload" binding:"required"`
	Label     string `json:"label"`
	SortOrder int    `json:"sort_order"`
	IsActive  *bool  `json:"is_active"`
}

func validMethodType(t string) bool {
	return t == "pix" || t == "bank_transfer"
}

// Create adds a payment method to a project.
func (s *PaymentMethodService) Create(projectID uint, in *PaymentMethodInput) (*models.PaymentMethod, error) {
	if !validMethodType(in.Type) {
		return nil, response.NewBadRequest("payment method type must be pix or bank_transfer")
	}

	encrypted, err := utils.EncryptString(in.Payload)
	if err != nil {
		return nil, err
	}

	method := models.PaymentMethod{
		ProjectID: projectID,
		Type:      in.Type,
		Payload:   encrypted,
		Label:     in.Label,
		IsActive:  true,
		SortOrder: in.SortOrder,
	}
	if in.IsActive != nil {
		method.IsActive = *in.IsActive
	}
	if method.SortOrder == 0 {
		method.SortOrder = 1
	}

	if err := s.db.Create(&method).Error; err != nil {
		return nil, err
	}
	return &method, nil
}

// Update edits a payment method.
func (s *PaymentMethodService) Update(projectID, methodID uint, in *PaymentMethodInput) (*models.PaymentMethod, error) {
	method, err := s.get(projectID, methodID)
	if err != nil {
		return nil, err
	}
	if !validMethodType(in.Type) {
		return nil, response.NewBadRequest("payment method type must be pix or bank_transfer")
	}

	encrypted, err := utils.EncryptString(in.Payload)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"type":       in.Type,
		"payload":    encrypted,
		"label":      in.Label,
		"sort_order": in.SortOrder,
	}
	if in.IsActive != nil {
		updates["is_active"] = *in.IsActive
	}
	if err := s.db.Model(method).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.get(projectID, methodID)
}

// Delete removes a payment method.
func (s *PaymentMethodService) Delete(projectID, methodID uint) error {
	method, err := s.get(projectID, methodID)
	if err != nil {
		return err
	}
	return s.db.Delete(method).Error
}

// List returns all of a project's payment methods for the admin panel, with
// payloads left encrypted.
func (s *PaymentMethodService) List(projectID uint) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := s.db.Where("project_id = ?", projectID).
		Order("sort_order, id").
		Find(&methods).Error
	return methods, err
}

// MethodOption is a decrypted payment method as served to a project member.
type MethodOption struct {
	ID      uint   `json:"id"`
	Type    string `json:"payment_method_type"`
	Label   string `json:"label"`
	Payload string `json:"payload"`
}

// ActiveOptions decrypts and returns the active methods of a project, in
// display order. Callers gate this behind an accepted membership.
func (s *PaymentMethodService) ActiveOptions(projectID uint) ([]MethodOption, error) {
	var methods []models.PaymentMethod
	err := s.db.Where("project_id = ? AND is_active = ?", projectID, true).
		Order("sort_order, id").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}

	out := make([]MethodOption, 0, len(methods))
	for _, m := range methods {
		payload, err := utils.DecryptString(m.Payload)
		if err != nil {
			return nil, err
		}
		out = append(out, MethodOption{
			ID:      m.ID,
			Type:    m.Type,
			Label:   m.Label,
			Payload: payload,
		})
	}
	return out, nil
}

func (s *PaymentMethodService) get(projectID, methodID uint) (*models.PaymentMethod, error) {
	var method models.PaymentMethod
	err := s.db.Where("id = ? AND project_id = ?", methodID, projectID).First(&method).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("payment method not found")
	}
	if err != nil {
		return nil, err
	}
	return &method, nil
}
