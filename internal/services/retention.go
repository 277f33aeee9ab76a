package services

import (
	"github.com/coletiva/backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// RetentionScheduler deletes expired report files and stale audit entries on
// a nightly cron.
type RetentionScheduler struct {
	reports       *ReportService
	audit         *AuditService
	retentionDays int
	cronScheduler *cron.Cron
}

func NewRetentionScheduler(reports *ReportService, audit *AuditService, retentionDays int) *RetentionScheduler {
	return &RetentionScheduler{
		reports:       reports,
		audit:         audit,
		retentionDays: retentionDays,
	}
}

// Start schedules the nightly cleanup. A non-positive retention disables it.
func (s *RetentionScheduler) Start() {
	if s.retentionDays <= 0 {
		logger.Infof("[Retention] Report retention disabled")
		return
	}

	s.cronScheduler = cron.New()
	_, err := s.cronScheduler.AddFunc("0 3 * * *", func() {
		if _, err := s.reports.CleanupExpired(s.retentionDays); err != nil {
			logger.Errorf("[Retention] Report cleanup failed: %v", err)
		}
		if _, err := s.audit.CleanupOld(s.retentionDays); err != nil {
			logger.Errorf("[Retention] Audit cleanup failed: %v", err)
		}
	})
	if err != nil {
		logger.Errorf("[Retention] Failed to add cron job: %v", err)
		return
	}

	s.cronScheduler.Start()
	logger.Infof("[Retention] Scheduler started, retention=%d days", s.retentionDays)
}

func (s *RetentionScheduler) Stop() {
	if s.cronScheduler != nil {
		s.cronScheduler.Stop()
	}
}
