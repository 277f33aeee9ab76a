package reconcile

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
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, first, last, phone string) *models.User {
	t.Helper()
	user := &models.User{FirstName: first, LastName: last, Phone: phone, Role: "participant", IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func seedMembership(t *testing.T, db *gorm.DB, projectID, userID uint, status models.MembershipStatus, acceptedAt time.Time) *models.ProjectMembership {
	t.Helper()
	m := &models.ProjectMembership{ProjectID: projectID, UserID: userID, Status: status, AcceptedAt: &acceptedAt}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed membership: %v", err)
	}
	return m
}

func seedWeeklyProject(t *testing.T, db *gorm.DB) *models.CollectiveProject {
	t.Helper()
	project := &models.CollectiveProject{
		Title:                "Caixinha",
		Slug:                 "caixinha",
		ParticipantLimit:     10,
		AmountPerParticipant: decimal.RequireFromString("50.00"),
		PaymentInterval:      models.IntervalWeek,
		PaymentsPerInterval:  1,
		IsActive:             true,
	}
	if err := db.Create(project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func TestReconciler_Each(t *testing.T) {
	db := newTestDB(t)
	project := seedWeeklyProject(t, db)

	accepted := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	ana := seedUser(t, db, "Ana", "Silva", "+5511999990001")
	bia := seedUser(t, db, "Bia", "Souza", "+5511999990002")
	seedMembership(t, db, project.ID, ana.ID, models.MembershipAccepted, accepted)
	seedMembership(t, db, project.ID, bia.ID, models.MembershipAccepted, accepted)

	// Ana paid week 1 of March 2026.
	paidAt := time.Date(2026, 3, 3, 14, 0, 0, 0, time.UTC)
	err := db.Create(&models.ProjectPayment{
		ProjectID:   project.ID,
		UserID:      ana.ID,
		PeriodYear:  2026,
		PeriodMonth: 3,
		PeriodWeek:  1,
		Sequence:    1,
		Amount:      decimal.RequireFromString("50.00"),
		PaidAt:      paidAt,
		ReceiptPath: "receipts/1/abc.jpg",
	}).Error
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	rec := &Reconciler{
		DB:      db,
		Project: project,
		Params: Params{
			Year:  2026,
			Month: 3,
			Scope: ScopeAcceptedOnly,
			Mode:  ModeStrict,
		},
		Now: func() time.Time { return now },
	}

	var rows []Row
	if err := rec.Each(func(row Row) error {
		rows = append(rows, row)
		return nil
	}); err != nil {
		t.Fatalf("Each: %v", err)
	}

	weeks := WeeksInMonth(2026, 3, time.UTC)
	if len(rows) != weeks*2 {
		t.Fatalf("got %d rows, expected %d", len(rows), weeks*2)
	}

	// Membership order outer, slot order inner: Ana's rows first.
	for i := 0; i < weeks; i++ {
		if rows[i].FirstName != "Ana" {
			t.Fatalf("row %d = %s, expected Ana's block first", i, rows[i].FirstName)
		}
	}
	for i := weeks; i < 2*weeks; i++ {
		if rows[i].FirstName != "Bia" {
			t.Fatalf("row %d = %s, expected Bia's block second", i, rows[i].FirstName)
		}
	}

	// Week 1 ends Mar 7, week 2 ends Mar 14; the clock reads Mar 10.
	if rows[0].Status != StatusPaid {
		t.Errorf("Ana week 1 = %q, expected paid", rows[0].Status)
	}
	if rows[0].PaidAt == nil || !rows[0].PaidAt.Equal(paidAt) {
		t.Errorf("Ana week 1 paid-at = %v", rows[0].PaidAt)
	}
	if rows[0].ReceiptPath != "receipts/1/abc.jpg" {
		t.Errorf("Ana week 1 receipt = %q", rows[0].ReceiptPath)
	}
	if rows[1].Status != StatusPending {
		t.Errorf("Ana week 2 = %q, expected pending at Mar 10", rows[1].Status)
	}

	// Bia: week 1 deadline passed unpaid.
	if rows[weeks].Status != StatusOverdue {
		t.Errorf("Bia week 1 = %q, expected overdue", rows[weeks].Status)
	}

	if !rows[0].Amount.Equal(decimal.RequireFromString("50.00")) {
		t.Errorf("amount = %s", rows[0].Amount)
	}
}

func TestReconciler_ScopeAndNotApplicable(t *testing.T) {
	db := newTestDB(t)
	project := seedWeeklyProject(t, db)

	// Accepted after week 1 of March closed.
	lateAccept := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	carla := seedUser(t, db, "Carla", "Lima", "+5511999990003")
	seedMembership(t, db, project.ID, carla.ID, models.MembershipAccepted, lateAccept)

	removedAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	dani := seedUser(t, db, "Dani", "Rocha", "+5511999990004")
	m := seedMembership(t, db, project.ID, dani.ID, models.MembershipRemoved, removedAt.AddDate(0, -1, 0))
	if err := db.Model(m).Update("removed_at", removedAt).Error; err != nil {
		t.Fatalf("mark removed: %v", err)
	}

	// Stray payment on a not-applicable slot must not surface.
	err := db.Create(&models.ProjectPayment{
		ProjectID:   project.ID,
		UserID:      carla.ID,
		PeriodYear:  2026,
		PeriodMonth: 3,
		PeriodWeek:  1,
		Sequence:    1,
		Amount:      decimal.RequireFromString("50.00"),
		PaidAt:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
	}).Error
	if err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	now := time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)
	run := func(scope StatusScope) []Row {
		rec := &Reconciler{
			DB:      db,
			Project: project,
			Params:  Params{Year: 2026, Month: 3, Week: 1, Scope: scope, Mode: ModeStrict},
			Now:     func() time.Time { return now },
		}
		var rows []Row
		if err := rec.Each(func(row Row) error {
			rows = append(rows, row)
			return nil
		}); err != nil {
			t.Fatalf("Each: %v", err)
		}
		return rows
	}

	rows := run(ScopeAcceptedOnly)
	if len(rows) != 1 {
		t.Fatalf("accepted_only: got %d rows, expected 1", len(rows))
	}
	if rows[0].Status != StatusNotApplicable {
		t.Errorf("late acceptance = %q, expected not_applicable", rows[0].Status)
	}
	if rows[0].PaidAt != nil || rows[0].ReceiptPath != "" {
		t.Errorf("not_applicable row must not carry payment evidence: %+v", rows[0])
	}

	rows = run(ScopeIncludeRemoved)
	if len(rows) != 2 {
		t.Fatalf("include_removed: got %d rows, expected 2", len(rows))
	}
}

func TestMembershipCursor_Batches(t *testing.T) {
	db := newTestDB(t)
	project := seedWeeklyProject(t, db)

	accepted := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		user := seedUser(t, db, "User", "N", "+55119999800"+string(rune('0'+i)))
		seedMembership(t, db, project.ID, user.ID, models.MembershipAccepted, accepted)
	}

	cursor := NewMembershipCursor(db, project.ID, ScopeAcceptedOnly, 2)

	var seen []uint
	for {
		batch, err := cursor.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if batch == nil {
			break
		}
		if len(batch) > 2 {
			t.Fatalf("batch size %d exceeds limit", len(batch))
		}
		for _, m := range batch {
			seen = append(seen, m.MembershipID)
		}
	}

	if len(seen) != 5 {
		t.Fatalf("visited %d memberships, expected 5", len(seen))
	}
	for i := 1; i < len(seen); i++ {
		if seen[i] <= seen[i-1] {
			t.Errorf("membership ids out of order or repeated: %v", seen)
		}
	}
}

func TestLoadPaymentIndex_SentinelFilters(t *testing.T) {
	db := newTestDB(t)
	project := seedWeeklyProject(t, db)
	user := seedUser(t, db, "Eva", "Melo", "+5511999990005")

	mk := func(month, week, seq int) {
		t.Helper()
		err := db.Create(&models.ProjectPayment{
			ProjectID:   project.ID,
			UserID:      user.ID,
			PeriodYear:  2026,
			PeriodMonth: month,
			PeriodWeek:  week,
			Sequence:    seq,
			Amount:      decimal.RequireFromString("50.00"),
			PaidAt:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		}).Error
		if err != nil {
			t.Fatalf("seed payment: %v", err)
		}
	}
	mk(3, 1, 1)
	mk(3, 2, 1)
	mk(4, 1, 1) // different month, must not match

	// Whole-month scope picks up every week.
	idx, err := LoadPaymentIndex(db, project.ID, models.IntervalWeek, 2026, 3, 0, []uint{user.ID})
	if err != nil {
		t.Fatalf("LoadPaymentIndex: %v", err)
	}
	if idx.Lookup(user.ID, SlotKey(2026, 3, 1, 1)) == nil {
		t.Error("week 1 payment missing from index")
	}
	if idx.Lookup(user.ID, SlotKey(2026, 3, 2, 1)) == nil {
		t.Error("week 2 payment missing from index")
	}
	if idx.Lookup(user.ID, SlotKey(2026, 4, 1, 1)) != nil {
		t.Error("april payment leaked into march index")
	}

	// Single-week scope narrows further.
	idx, err = LoadPaymentIndex(db, project.ID, models.IntervalWeek, 2026, 3, 2, []uint{user.ID})
	if err != nil {
		t.Fatalf("LoadPaymentIndex: %v", err)
	}
	if idx.Lookup(user.ID, SlotKey(2026, 3, 1, 1)) != nil {
		t.Error("week 1 payment should be filtered out")
	}
	if idx.Lookup(user.ID, SlotKey(2026, 3, 2, 1)) == nil {
		t.Error("week 2 payment missing")
	}

	// Empty user list short-circuits.
	idx, err = LoadPaymentIndex(db, project.ID, models.IntervalWeek, 2026, 3, 0, nil)
	if err != nil {
		t.Fatalf("LoadPaymentIndex: %v", err)
	}
	if len(idx) != 0 {
		t.Errorf("empty user list produced %d entries", len(idx))
	}
}

func TestLoadPaymentIndex_DuplicateSlotLatestWins(t *testing.T) {
	db := newTestDB(t)

	// The unique slot index normally forbids duplicate rows; the index must
	// resolve them anyway when the constraint is absent or was added late.
	if err := db.Exec("DROP INDEX uniq_payment_slot").Error; err != nil {
		t.Fatalf("drop index: %v", err)
	}

	project := seedWeeklyProject(t, db)
	user := seedUser(t, db, "Eva", "Melo", "+5511999990005")

	mk := func(paidAt time.Time, receipt string) {
		t.Helper()
		err := db.Create(&models.ProjectPayment{
			ProjectID:   project.ID,
			UserID:      user.ID,
			PeriodYear:  2026,
			PeriodMonth: 3,
			PeriodWeek:  1,
			Sequence:    1,
			Amount:      decimal.RequireFromString("50.00"),
			PaidAt:      paidAt,
			ReceiptPath: receipt,
		}).Error
		if err != nil {
			t.Fatalf("seed payment: %v", err)
		}
	}
	// Insertion order straddles the maximum so the result cannot come from
	// first-row-wins or last-row-wins behavior.
	mk(time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC), "receipts/1/middle.jpg")
	mk(time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC), "receipts/1/latest.jpg")
	mk(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), "receipts/1/earliest.jpg")

	idx, err := LoadPaymentIndex(db, project.ID, models.IntervalWeek, 2026, 3, 0, []uint{user.ID})
	if err != nil {
		t.Fatalf("LoadPaymentIndex: %v", err)
	}

	ev := idx.Lookup(user.ID, SlotKey(2026, 3, 1, 1))
	if ev == nil {
		t.Fatal("duplicated slot missing from index")
	}
	want := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	if !ev.PaidAt.Equal(want) {
		t.Errorf("paid at = %v, expected the latest row %v", ev.PaidAt, want)
	}
	if ev.ReceiptPath != "receipts/1/latest.jpg" {
		t.Errorf("receipt = %q, expected the latest row's receipt", ev.ReceiptPath)
	}
}
