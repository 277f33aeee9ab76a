package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coletiva/backend/internal/config"
	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/reconcile"
	"github.com/coletiva/backend/pkg/logger"
	"github.com/coletiva/backend/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportFilters is the persisted reporting scope of one report request.
type ReportFilters struct {
	Year        int    `json:"year"`
	Month       int    `json:"month,omitempty"`
	WeekOfMonth int    `json:"week_of_month,omitempty"`
	StatusScope string `json:"status_scope"`
	ReportMode  string `json:"report_mode"`
}

// ReportService owns the report lifecycle: create a pending row, hand the ID
// to the task queue, and generate the file in the worker. Status transitions
// are pending -> ready | failed, written as the last action of the job, so a
// crash mid-run leaves the row pending and the partial file is discarded.
type ReportService struct {
	db    *gorm.DB
	cfg   *config.Config
	queue TaskQueue
	now   func() time.Time
}

func NewReportService(db *gorm.DB, cfg *config.Config, queue TaskQueue) *ReportService {
	return &ReportService{db: db, cfg: cfg, queue: queue, now: time.Now}
}

// Create validates the filters against the project's interval, persists a
// pending report and enqueues its generation.
func (s *ReportService) Create(projectID uint, createdBy *uint, f *ReportFilters) (*models.ProjectReport, error) {
	var project models.CollectiveProject
	err := s.db.First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, response.NewNotFound("project not found")
	}
	if err != nil {
		return nil, err
	}

	if f.StatusScope == "" {
		f.StatusScope = string(reconcile.ScopeAcceptedOnly)
	}
	if f.ReportMode == "" {
		f.ReportMode = string(reconcile.ModeStrict)
	}
	if !reconcile.ValidScope(reconcile.StatusScope(f.StatusScope)) {
		return nil, response.NewBadRequest("invalid status scope")
	}
	if !reconcile.ValidMode(reconcile.Mode(f.ReportMode)) {
		return nil, response.NewBadRequest("invalid report mode")
	}
	if err := validatePeriod(&project, f.Year, f.Month, f.WeekOfMonth, false); err != nil {
		return nil, err
	}
	f.Month, f.WeekOfMonth = normalizePeriod(&project, f.Month, f.WeekOfMonth)

	raw, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}

	report := models.ProjectReport{
		ProjectID: projectID,
		CreatedBy: createdBy,
		Type:      models.ReportTypePaymentStatus,
		Status:    models.ReportPending,
		Filters:   string(raw),
	}
	if err := s.db.Create(&report).Error; err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(&ReportTask{ReportID: report.ID}); err != nil {
		s.markFailed(&report, fmt.Sprintf("enqueue: %v", err))
		return nil, response.NewServerError("failed to schedule report generation")
	}

	logger.Info().
		Uint("report_id", report.ID).
		Uint("project_id", projectID).
		Str("filters", report.Filters).
		Msg("report requested")
	return &report, nil
}

// List returns a project's reports, newest first.
func (s *ReportService) List(projectID uint, page, pageSize int) ([]models.ProjectReport, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	q := s.db.Model(&models.ProjectReport{}).Where("project_id = ?", projectID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var reports []models.ProjectReport
	err := q.Order("id DESC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// Download resolves a ready report to its absolute file path. Anything not
// ready is a 409: the caller should poll the listing instead.
func (s *ReportService) Download(projectID, reportID uint) (*models.ProjectReport, string, error) {
	var report models.ProjectReport
	err := s.db.Where("id = ? AND project_id = ?", reportID, projectID).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", response.NewNotFound("report not found")
	}
	if err != nil {
		return nil, "", err
	}
	if report.Status != models.ReportReady {
		return nil, "", response.NewConflict("report is not ready")
	}

	abs := filepath.Join(s.cfg.Storage.Dir, report.Path)
	if _, err := os.Stat(abs); err != nil {
		return nil, "", response.NewNotFound("report file is gone")
	}
	return &report, abs, nil
}

// Process is the worker entry point for one report task. It only runs pending
// reports; re-delivered tasks for finished reports are acknowledged and
// skipped.
func (s *ReportService) Process(ctx context.Context, task *ReportTask) error {
	var report models.ProjectReport
	err := s.db.First(&report, task.ReportID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		logger.Warn().Uint("report_id", task.ReportID).Msg("report task for missing report")
		return nil
	}
	if err != nil {
		return err
	}
	if report.Status != models.ReportPending {
		logger.Info().
			Uint("report_id", report.ID).
			Str("status", string(report.Status)).
			Msg("skipping report in terminal state")
		return nil
	}

	var project models.CollectiveProject
	if err := s.db.First(&project, report.ProjectID).Error; err != nil {
		s.markFailed(&report, fmt.Sprintf("load project: %v", err))
		return err
	}

	var filters ReportFilters
	if err := json.Unmarshal([]byte(report.Filters), &filters); err != nil {
		s.markFailed(&report, fmt.Sprintf("decode filters: %v", err))
		return err
	}

	if err := s.generate(ctx, &report, &project, &filters); err != nil {
		s.markFailed(&report, err.Error())
		return err
	}
	return nil
}

// generate runs the reconciliation stream into a temp file, moves the file
// into place and then, as the final step, flips the report to ready.
func (s *ReportService) generate(ctx context.Context, report *models.ProjectReport, project *models.CollectiveProject, filters *ReportFilters) error {
	fileName := s.buildFileName(project, filters)
	relDir := filepath.Join("reports", fmt.Sprintf("%d", project.ID), fmt.Sprintf("%d", report.ID))
	absDir := filepath.Join(s.cfg.Storage.Dir, relDir)
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	tmp, err := os.CreateTemp(absDir, ".report-*.csv")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	mode := reconcile.Mode(filters.ReportMode)
	exporter := reconcile.NewCSVExporter(tmp, mode, s.receiptResolver())

	rec := &reconcile.Reconciler{
		DB:      s.db,
		Project: project,
		Params: reconcile.Params{
			Year:  filters.Year,
			Month: filters.Month,
			Week:  filters.WeekOfMonth,
			Scope: reconcile.StatusScope(filters.StatusScope),
			Mode:  mode,
		},
		BatchSize: s.cfg.Reports.BatchSize,
		Now:       s.now,
	}

	var rows int64
	err = exporter.WriteHeader()
	if err == nil {
		err = rec.Each(func(row reconcile.Row) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows++
			return exporter.WriteRow(row)
		})
	}
	if err == nil {
		err = exporter.Flush()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	relPath := filepath.Join(relDir, fileName)
	absPath := filepath.Join(s.cfg.Storage.Dir, relPath)
	if err := os.Rename(tmpPath, absPath); err != nil {
		return fmt.Errorf("publish report file: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return fmt.Errorf("stat report file: %w", err)
	}

	generatedAt := s.now()
	err = s.db.Model(report).Updates(map[string]interface{}{
		"status":       models.ReportReady,
		"path":         relPath,
		"file_name":    fileName,
		"mime_type":    "text/csv",
		"file_size":    info.Size(),
		"generated_at": generatedAt,
	}).Error
	if err != nil {
		os.Remove(absPath)
		return fmt.Errorf("finalize report: %w", err)
	}

	logger.Info().
		Uint("report_id", report.ID).
		Int64("rows", rows).
		Int64("bytes", info.Size()).
		Msg("report ready")
	return nil
}

func (s *ReportService) markFailed(report *models.ProjectReport, msg string) {
	err := s.db.Model(report).Updates(map[string]interface{}{
		"status":        models.ReportFailed,
		"error_message": msg,
	}).Error
	if err != nil {
		logger.Error().Err(err).Uint("report_id", report.ID).Msg("failed to mark report failed")
		return
	}
	logger.Warn().Uint("report_id", report.ID).Str("error", msg).Msg("report failed")
}

// buildFileName produces a descriptive, collision-free file name such as
// payment-status_caixinha-2026_2026-03_w2_20260301T120000Z_1a2b3c4d.csv.
func (s *ReportService) buildFileName(project *models.CollectiveProject, filters *ReportFilters) string {
	var b strings.Builder
	b.WriteString("payment-status_")
	b.WriteString(project.Slug)
	fmt.Fprintf(&b, "_%04d", filters.Year)
	if filters.Month > 0 {
		fmt.Fprintf(&b, "-%02d", filters.Month)
	}
	if filters.WeekOfMonth > 0 {
		fmt.Fprintf(&b, "_w%d", filters.WeekOfMonth)
	}
	fmt.Fprintf(&b, "_%s", s.now().UTC().Format("20060102T150405Z"))
	fmt.Fprintf(&b, "_%s", uuid.NewString()[:8])
	b.WriteString(".csv")
	return b.String()
}

// receiptResolver turns stored receipt paths into links for the hyperlink
// column. Without a configured base URL the column stays empty.
func (s *ReportService) receiptResolver() reconcile.ReceiptResolver {
	base := strings.TrimRight(s.cfg.Storage.BaseURL, "/")
	if base == "" {
		return nil
	}
	return func(path string) string {
		return base + "/" + strings.TrimLeft(path, "/")
	}
}

// CleanupExpired deletes report rows and files older than the retention
// window. Returns how many reports were removed.
func (s *ReportService) CleanupExpired(retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, nil
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)

	var reports []models.ProjectReport
	if err := s.db.Where("created_at < ?", cutoff).Find(&reports).Error; err != nil {
		return 0, err
	}

	var removed int64
	for _, report := range reports {
		if report.Path != "" {
			abs := filepath.Join(s.cfg.Storage.Dir, report.Path)
			if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
				logger.Warn().Err(err).Uint("report_id", report.ID).Msg("failed to remove report file")
				continue
			}
			// Best effort: drop the now-empty per-report directory.
			os.Remove(filepath.Dir(abs))
		}
		if err := s.db.Delete(&models.ProjectReport{}, report.ID).Error; err != nil {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		logger.Infof("[Reports] Cleaned up %d expired reports", removed)
	}
	return removed, nil
}
