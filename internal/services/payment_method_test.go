package services

import (
	"testing"

	"github.com/coletiva/backend/internal/models"
	"github.com/coletiva/backend/internal/utils"
)

func TestPaymentMethodEncryptedAtRest(t *testing.T) {
	utils.SetEncryptionKey("method-test-key")
	defer utils.SetEncryptionKey("")

	db := newTestDB(t)
	svc := NewPaymentMethodService(db)
	project := seedProject(t, db, "gerado", models.IntervalMonth, 10)

	payload := `{"pix_key":"+5511999990001"}`
	method, err := svc.Create(project.ID, &PaymentMethodInput{
		Type:    "pix",
		Payload: payload,
		Label:   "Pix da tesouraria",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var stored models.PaymentMethod
	if err := db.First(&stored, method.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if stored.Payload == payload {
		t.Error("payload must be encrypted in the database")
	}

	options, err := svc.ActiveOptions(project.ID)
	if err != nil {
		t.Fatalf("ActiveOptions: %v", err)
	}
	if len(options) != 1 {
		t.Fatalf("options = %d, expected 1", len(options))
	}
	if options[0].Payload != payload {
		t.Errorf("decrypted payload = %q, expected %q", options[0].Payload, payload)
	}
	if options[0].Type != "pix" || options[0].Label != "Pix da tesouraria" {
		t.Errorf("option = %+v", options[0])
	}
}

func TestPaymentMethodCreate_InvalidType(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentMethodService(db)
	project := seedProject(t, db, "gerado", models.IntervalMonth, 10)

	_, err := svc.Create(project.ID, &PaymentMethodInput{Type: "cash", Payload: "{}"})
	if status := appErrStatus(t, err); status != 400 {
		t.Errorf("status = %d, expected 400", status)
	}
}

func TestPaymentMethodActiveOptions_Ordering(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentMethodService(db)
	project := seedProject(t, db, "gerado", models.IntervalMonth, 10)

	if _, err := svc.Create(project.ID, &PaymentMethodInput{
		Type: "bank_transfer", Payload: `{"account":"1"}`, Label: "Banco", SortOrder: 2,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(project.ID, &PaymentMethodInput{
		Type: "pix", Payload: `{"pix_key":"a"}`, Label: "Pix", SortOrder: 1,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	inactive := false
	if _, err := svc.Create(project.ID, &PaymentMethodInput{
		Type: "pix", Payload: `{"pix_key":"b"}`, Label: "Antigo", SortOrder: 3, IsActive: &inactive,
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	options, err := svc.ActiveOptions(project.ID)
	if err != nil {
		t.Fatalf("ActiveOptions: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("options = %d, expected inactive method excluded", len(options))
	}
	if options[0].Label != "Pix" || options[1].Label != "Banco" {
		t.Errorf("order = %s, %s", options[0].Label, options[1].Label)
	}
}

func TestPaymentMethodUpdateAndDelete(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentMethodService(db)
	project := seedProject(t, db, "gerado", models.IntervalMonth, 10)

	method, err := svc.Create(project.ID, &PaymentMethodInput{
		Type: "pix", Payload: `{"pix_key":"a"}`, Label: "Pix",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(project.ID, method.ID, &PaymentMethodInput{
		Type: "bank_transfer", Payload: `{"account":"1"}`, Label: "Banco", SortOrder: 5,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Type != "bank_transfer" || updated.Label != "Banco" || updated.SortOrder != 5 {
		t.Errorf("updated = %+v", updated)
	}

	if err := svc.Delete(project.ID, method.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	_, err = svc.Update(project.ID, method.ID, &PaymentMethodInput{
		Type: "pix", Payload: "{}",
	})
	if status := appErrStatus(t, err); status != 404 {
		t.Errorf("status = %d, expected 404", status)
	}

	// Deleting under the wrong project must not match.
	other := seedProject(t, db, "outro", models.IntervalMonth, 10)
	m2, err := svc.Create(other.ID, &PaymentMethodInput{Type: "pix", Payload: "{}"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(project.ID, m2.ID); err == nil {
		t.Error("delete across projects must fail")
	}
}
