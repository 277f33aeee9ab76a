package services

import (
	"time"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/pkg/logger"
	"gorm.io/gorm"
)

// AuditService writes and queries the audit trail. Writes are best effort;
// a failed audit insert is logged and never fails the business operation.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) write(level, module, action, message string, userID *uint, ip string) {
	entry := models.AuditLog{
		Level:   level,
		Module:  module,
		Action:  action,
		Message: message,
		UserID:  userID,
		IP:      ip,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Errorf("[Audit] Failed to write audit log: %v", err)
	}
}

func (s *AuditService) Info(module, action, message string, userID *uint, ip string) {
	s.write("info", module, action, message, userID, ip)
}

func (s *AuditService) Warning(module, action, message string, userID *uint, ip string) {
	s.write("warning", module, action, message, userID, ip)
}

func (s *AuditService) Error(module, action, message string, userID *uint, ip string) {
	s.write("error", module, action, message, userID, ip)
}

// CleanupOld deletes audit entries older than the retention window.
func (s *AuditService) CleanupOld(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	res := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{})
	return res.RowsAffected, res.Error
}

// List returns a page of audit entries, newest first, optionally filtered by
// level and module.
func (s *AuditService) List(level, module string, page, pageSize int) ([]models.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}

	q := s.db.Model(&models.AuditLog{})
	if level != "" {
		q = q.Where("level = ?", level)
	}
	if module != "" {
		q = q.Where("module = ?", module)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.AuditLog
	err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
