package services

import (
	"testing"
	"time"

	"github.com/coletiva/backend/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// In-memory sqlite is one database per connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.CollectiveProject{},
		&models.ProjectMembership{},
		&models.ProjectPayment{},
		&models.PaymentMethod{},
		&models.ProjectReport{},
		&models.AuditLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, phone string) *models.User {
	t.Helper()
	user := &models.User{
		FirstName: "Test",
		LastName:  "User",
		Phone:     phone,
		Role:      "participant",
		IsActive:  true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedProject(t *testing.T, db *gorm.DB, slug, interval string, limit int) *models.CollectiveProject {
	t.Helper()
	project := &models.CollectiveProject{
		Title:                "Project " + slug,
		Slug:                 slug,
		ParticipantLimit:     limit,
		AmountPerParticipant: decimal.RequireFromString("100.00"),
		PaymentInterval:      interval,
		PaymentsPerInterval:  1,
		IsActive:             true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func acceptMember(t *testing.T, db *gorm.DB, projectID, userID uint) *models.ProjectMembership {
	t.Helper()
	acceptedAt := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &models.ProjectMembership{
		ProjectID:  projectID,
		UserID:     userID,
		Status:     models.MembershipAccepted,
		AcceptedAt: &acceptedAt,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return m
}
