package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestJSONFileStore_LoadMissing(t *testing.T) {
	s, err := NewJSONFileStore(filepath.Join(t.TempDir(), "data", "data.json"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	if _, err := s.Load(); !errors.Is(err, ErrNotExist) {
		t.Errorf("Expected ErrNotExist, got %v", err)
	}
}

func TestJSONFileStore_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	s, err := NewJSONFileStore(path)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	doc := sampleDocument()
	if err := s.Save(doc); err != nil {
		t.Fatalf("Failed to save document: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if !strings.Contains(string(raw), `"totalAmount": 5000`) {
		t.Errorf("Expected money to be written as a bare number, got:\n%s", raw)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	assertSameDocument(t, doc, loaded)

}

func TestJSONFileStore_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	s, _ := NewJSONFileStore(path)

	doc := sampleDocument()
	for i := 0; i < 3; i++ {
		doc.PaymentID++
		if err := s.Save(doc); err != nil {
			t.Fatalf("Save %d failed: %v", i, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("Failed to list directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "data.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("Expected only data.json, found %v", names)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("Failed to load document: %v", err)
	}
	if loaded.PaymentID != doc.PaymentID {
		t.Errorf("Expected the last save to win, got payment counter %d", loaded.PaymentID)
	}
}

func TestJSONFileStore_LoadsLegacyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	legacy := `{
  "customers": [
    {
      "id": 1,
      "name": "Ravi",
      "phone": "9000000001",
      "address": "",
      "loanAmount": 4500,
      "interestRate": 0,
      "loanTenure": 0,
      "dailyInstallment": 500,
      "durationDays": 10,
      "totalAmount": 5000,
      "amountPaid": 500,
      "outstandingAmount": 4500,
      "loanDate": "2024-02-01T09:30:00.000Z",
      "status": "ACTIVE",
      "createdAt": "2024-02-01T09:30:00.000Z",
      "updatedAt": null
    }
  ],
  "payments": [
    {
      "id": 1,
      "customerId": 1,
      "amount": 500,
      "paymentMethod": "CASH",
      "transactionId": null,
      "notes": "",
      "paymentDate": "2024-02-02T10:00:00.000Z",
      "createdAt": "2024-02-02T10:00:01.123Z"
    }
  ],
  "customerId": 2,
  "paymentId": 2
}`
	if err := os.WriteFile(path, []byte(legacy), 0o644); err != nil {
		t.Fatalf("Failed to write legacy file: %v", err)
	}

	s, _ := NewJSONFileStore(path)
	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Failed to load legacy file: %v", err)
	}

	if len(doc.Customers) != 1 || len(doc.Payments) != 1 {
		t.Fatalf("Expected 1 customer and 1 payment, got %d/%d", len(doc.Customers), len(doc.Payments))
	}
	c := doc.Customers[0]
	if !c.OutstandingAmount.Equal(decimal.NewFromInt(4500)) || c.UpdatedAt != nil || c.Plan != "" {
		t.Errorf("Unexpected customer: %+v", c)
	}
	if doc.Payments[0].TransactionID != nil {
		t.Error("Expected a null transactionId")
	}
	if doc.CustomerID != 2 || doc.PaymentID != 2 {
		t.Errorf("Expected counters 2/2, got %d/%d", doc.CustomerID, doc.PaymentID)
	}
}

func TestJSONFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	os.WriteFile(path, []byte("{not json"), 0o644)

	s, _ := NewJSONFileStore(path)
	_, err := s.Load()
	if err == nil || errors.Is(err, ErrNotExist) {
		t.Errorf("Expected a decode error, got %v", err)
	}
}
