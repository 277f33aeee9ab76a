package services

import (
	"testing"

	"github.com/coletiva/backend/internal/models"
)

func TestProjectCreate(t *testing.T) {
	svc := NewProjectService(newTestDB(t))

	project, err := svc.Create(&ProjectInput{
		Title:                "Gerado 2026",
		Slug:                 "gerado-2026",
		ParticipantLimit:     30,
		AmountPerParticipant: "150.50",
		PaymentInterval:      models.IntervalWeek,
	}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if project.AmountPerParticipant.String() != "150.5" {
		t.Errorf("amount = %s", project.AmountPerParticipant)
	}
	if project.PaymentsPerInterval != 1 {
		t.Errorf("payments per interval = %d, expected default 1", project.PaymentsPerInterval)
	}
	if !project.IsActive {
		t.Error("new projects default to active")
	}
}

func TestProjectCreate_Validation(t *testing.T) {
	svc := NewProjectService(newTestDB(t))

	base := func() *ProjectInput {
		return &ProjectInput{
			Title:                "Gerado",
			Slug:                 "gerado",
			ParticipantLimit:     10,
			AmountPerParticipant: "100.00",
			PaymentInterval:      models.IntervalMonth,
		}
	}

	cases := []struct {
		name   string
		mutate func(*ProjectInput)
	}{
		{"uppercase slug", func(in *ProjectInput) { in.Slug = "Gerado" }},
		{"slug with spaces", func(in *ProjectInput) { in.Slug = "gerado 2026" }},
		{"zero limit", func(in *ProjectInput) { in.ParticipantLimit = 0 }},
		{"bad interval", func(in *ProjectInput) { in.PaymentInterval = "fortnight" }},
		{"negative amount", func(in *ProjectInput) { in.AmountPerParticipant = "-10" }},
		{"zero amount", func(in *ProjectInput) { in.AmountPerParticipant = "0.00" }},
		{"amount not a number", func(in *ProjectInput) { in.AmountPerParticipant = "ten" }},
		{"negative payments per interval", func(in *ProjectInput) { in.PaymentsPerInterval = -1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base()
			tc.mutate(in)
			_, err := svc.Create(in, 1)
			if status := appErrStatus(t, err); status != 400 {
				t.Errorf("status = %d, expected 400", status)
			}
		})
	}
}

func TestProjectCreate_DuplicateSlug(t *testing.T) {
	svc := NewProjectService(newTestDB(t))

	in := &ProjectInput{
		Title:                "Gerado",
		Slug:                 "gerado",
		ParticipantLimit:     10,
		AmountPerParticipant: "100.00",
		PaymentInterval:      models.IntervalMonth,
	}
	if _, err := svc.Create(in, 1); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	_, err := svc.Create(in, 1)
	if status := appErrStatus(t, err); status != 409 {
		t.Errorf("status = %d, expected 409", status)
	}
}

func TestProjectUpdate(t *testing.T) {
	svc := NewProjectService(newTestDB(t))

	project, err := svc.Create(&ProjectInput{
		Title:                "Gerado",
		Slug:                 "gerado",
		ParticipantLimit:     10,
		AmountPerParticipant: "100.00",
		PaymentInterval:      models.IntervalMonth,
	}, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	inactive := false
	updated, err := svc.Update(project.ID, &ProjectInput{
		Title:                "Gerado Renovado",
		Slug:                 "gerado",
		ParticipantLimit:     12,
		AmountPerParticipant: "125.00",
		PaymentInterval:      models.IntervalWeek,
		PaymentsPerInterval:  2,
		IsActive:             &inactive,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Title != "Gerado Renovado" || updated.ParticipantLimit != 12 {
		t.Errorf("updated = %+v", updated)
	}
	if updated.PaymentInterval != models.IntervalWeek || updated.PaymentsPerInterval != 2 {
		t.Errorf("schedule = %s/%d", updated.PaymentInterval, updated.PaymentsPerInterval)
	}
	if updated.IsActive {
		t.Error("is_active update not applied")
	}
}

func TestProjectPublicLookups_OnlyActive(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)

	project := seedProject(t, db, "gerado", models.IntervalMonth, 10)

	if _, err := svc.GetBySlug("gerado"); err != nil {
		t.Fatalf("GetBySlug: %v", err)
	}
	if _, err := svc.GetActiveByID(project.ID); err != nil {
		t.Fatalf("GetActiveByID: %v", err)
	}

	if err := db.Model(project).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err := svc.GetBySlug("gerado")
	if status := appErrStatus(t, err); status != 404 {
		t.Errorf("slug lookup status = %d, expected 404", status)
	}
	_, err = svc.GetActiveByID(project.ID)
	if status := appErrStatus(t, err); status != 404 {
		t.Errorf("id lookup status = %d, expected 404", status)
	}

	// Admin lookup still sees the deactivated project.
	if _, err := svc.GetByID(project.ID); err != nil {
		t.Errorf("GetByID after deactivation: %v", err)
	}
}

func TestProjectPublicList(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)

	open := seedProject(t, db, "aberto", models.IntervalMonth, 10)
	closed := seedProject(t, db, "fechado", models.IntervalMonth, 10)
	if err := db.Model(closed).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	u1 := seedUser(t, db, "+5511999990001")
	u2 := seedUser(t, db, "+5511999990002")
	acceptMember(t, db, open.ID, u1.ID)
	acceptMember(t, db, open.ID, u2.ID)

	// A pending membership must not count toward seats.
	u3 := seedUser(t, db, "+5511999990003")
	pending := &models.ProjectMembership{ProjectID: open.ID, UserID: u3.ID, Status: models.MembershipPending}
	if err := db.Create(pending).Error; err != nil {
		t.Fatalf("seed pending: %v", err)
	}

	listed, err := svc.PublicList()
	if err != nil {
		t.Fatalf("PublicList: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed = %d, expected only the active project", len(listed))
	}
	if listed[0].Slug != "aberto" || listed[0].AcceptedCount != 2 {
		t.Errorf("entry = %s count=%d", listed[0].Slug, listed[0].AcceptedCount)
	}
}

func TestProjectDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db)

	project := seedProject(t, db, "gerado", models.IntervalMonth, 10)
	if err := svc.Delete(project.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := svc.GetByID(project.ID)
	if status := appErrStatus(t, err); status != 404 {
		t.Errorf("status = %d, expected 404", status)
	}

	// Soft delete keeps the row for history.
	var count int64
	if err := db.Unscoped().Model(&models.CollectiveProject{}).
		Where("id = ?", project.ID).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("unscoped count = %d, expected 1", count)
	}
}
