package reports

import (
	"testing"
	"time"

	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/shopspring/decimal"
)

func payment(id, customerID int, amount int64, method models.PaymentMethod, date time.Time) *models.Payment {
	return &models.Payment{
		ID:            id,
		CustomerID:    customerID,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: method,
		PaymentDate:   date,
	}
}

func TestDashboard(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 5, 20, 14, 0, 0, 0, loc)
	yesterday := now.AddDate(0, 0, -1)

	customers := []*models.Customer{
		{ID: 1, Name: "A", LoanAmount: decimal.NewFromInt(4500), AmountPaid: decimal.NewFromInt(600), OutstandingAmount: decimal.NewFromInt(4400), Status: models.StatusActive},
		{ID: 2, Name: "B", LoanAmount: decimal.NewFromInt(1000), AmountPaid: decimal.NewFromInt(1120), OutstandingAmount: decimal.Zero, Status: models.StatusClosed},
	}
	payments := []*models.Payment{
		payment(1, 1, 200, models.PaymentMethodCash, now.Add(-2*time.Hour)),
		payment(2, 1, 300, models.PaymentMethodOnline, now.Add(time.Hour)),
		payment(3, 1, 100, models.PaymentMethodCash, yesterday),
	}

	stats := Dashboard(customers, payments, now, loc)

	if stats.TotalCustomers != 2 || stats.ActiveLoans != 1 {
		t.Errorf("Expected 2 customers / 1 active, got %d / %d", stats.TotalCustomers, stats.ActiveLoans)
	}
	checks := []struct {
		name string
		got  decimal.Decimal
		want int64
	}{
		{"todayCollection", stats.TodayCollection, 500},
		{"cashPayments", stats.CashPayments, 200},
		{"onlinePayments", stats.OnlinePayments, 300},
		{"totalDisbursed", stats.TotalDisbursed, 5500},
		{"totalCollected", stats.TotalCollected, 1720},
		{"totalOutstanding", stats.TotalOutstanding, 4400},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.NewFromInt(c.want)) {
			t.Errorf("Expected %s %d, got %s", c.name, c.want, c.got)
		}
	}
	if stats.NumberOfPayments != 2 {
		t.Errorf("Expected 2 payments today, got %d", stats.NumberOfPayments)
	}
}

func TestDashboard_DayBoundariesAreLocal(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, loc)
	start, end := DayBounds(now, loc)

	payments := []*models.Payment{
		payment(1, 1, 10, models.PaymentMethodCash, start),
		payment(2, 1, 20, models.PaymentMethodCash, end),
		payment(3, 1, 40, models.PaymentMethodCash, start.Add(-time.Nanosecond)),
		payment(4, 1, 80, models.PaymentMethodCash, end.Add(time.Millisecond)),
		// Same instant as local 02:00, but still the previous day in UTC.
		payment(5, 1, 160, models.PaymentMethodOnline, time.Date(2024, 5, 19, 20, 30, 0, 0, time.UTC)),
	}

	stats := Dashboard(nil, payments, now, loc)
	if !stats.TodayCollection.Equal(decimal.NewFromInt(190)) {
		t.Errorf("Expected todayCollection 190, got %s", stats.TodayCollection)
	}
	if stats.NumberOfPayments != 3 {
		t.Errorf("Expected 3 payments, got %d", stats.NumberOfPayments)
	}
}

func TestDashboard_UnknownMethodCountsOnlyInTotal(t *testing.T) {
	now := time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)
	payments := []*models.Payment{payment(1, 1, 70, "CHEQUE", now)}

	stats := Dashboard(nil, payments, now, time.UTC)
	if !stats.TodayCollection.Equal(decimal.NewFromInt(70)) {
		t.Errorf("Expected todayCollection 70, got %s", stats.TodayCollection)
	}
	if !stats.CashPayments.IsZero() || !stats.OnlinePayments.IsZero() {
		t.Error("Expected no cash or online amounts")
	}
}

func TestPaymentsInRange(t *testing.T) {
	customers := []*models.Customer{{ID: 1, Name: "Asha"}}
	start := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		payment(1, 1, 100, models.PaymentMethodCash, start),
		payment(2, 1, 200, models.PaymentMethodCash, time.Date(2024, 5, 10, 23, 59, 59, 0, time.UTC)),
		payment(3, 2, 300, models.PaymentMethodOnline, time.Date(2024, 5, 5, 12, 0, 0, 0, time.UTC)),
		payment(4, 1, 400, models.PaymentMethodCash, time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC)),
		payment(5, 1, 500, models.PaymentMethodCash, start.Add(-time.Second)),
	}

	rows := PaymentsInRange(customers, payments, start, end, time.UTC)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	wantIDs := []int{1, 2, 3}
	for i, r := range rows {
		if r.ID != wantIDs[i] {
			t.Errorf("Row %d: expected payment %d, got %d", i, wantIDs[i], r.ID)
		}
	}
	if rows[0].CustomerName != "Asha" {
		t.Errorf("Expected customer name Asha, got %q", rows[0].CustomerName)
	}
	if rows[2].CustomerName != UnknownCustomer {
		t.Errorf("Expected %q for a missing customer, got %q", UnknownCustomer, rows[2].CustomerName)
	}

	summary := Summarize(rows)
	if summary.NumberOfPayments != 3 || !summary.TotalCollected.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected 3 payments totalling 600, got %d / %s", summary.NumberOfPayments, summary.TotalCollected)
	}
}

func TestPaymentsInRange_EndDayIsLocal(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	customers := []*models.Customer{{ID: 1, Name: "Asha"}}
	start := time.Date(2024, 5, 20, 0, 0, 0, 0, ist)
	// Midnight UTC is 05:30 on the 20th in IST, so the range ends with the 20th.
	end := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)

	payments := []*models.Payment{
		payment(1, 1, 100, models.PaymentMethodCash, time.Date(2024, 5, 20, 23, 0, 0, 0, ist)),
		payment(2, 1, 200, models.PaymentMethodCash, time.Date(2024, 5, 21, 3, 0, 0, 0, ist)),
	}

	rows := PaymentsInRange(customers, payments, start, end, ist)
	if len(rows) != 1 || rows[0].ID != 1 {
		t.Fatalf("Expected only payment 1, got %+v", rows)
	}
}

func TestPaymentsInRange_Empty(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := PaymentsInRange(nil, nil, day, day, time.UTC)
	if rows == nil || len(rows) != 0 {
		t.Errorf("Expected an empty, non-nil result, got %v", rows)
	}
	if s := Summarize(rows); !s.TotalCollected.IsZero() || s.NumberOfPayments != 0 {
		t.Errorf("Expected an empty summary, got %+v", s)
	}
}

func TestWithCustomerNames(t *testing.T) {
	customers := []*models.Customer{{ID: 1, Name: "Asha"}, {ID: 2, Name: "Bala"}}
	payments := []*models.Payment{
		payment(1, 2, 10, models.PaymentMethodCash, time.Now()),
		payment(2, 3, 20, models.PaymentMethodCash, time.Now()),
	}

	rows := WithCustomerNames(customers, payments)
	if len(rows) != 2 || rows[0].CustomerName != "Bala" || rows[1].CustomerName != UnknownCustomer {
		t.Errorf("Unexpected rows: %+v", rows)
	}
}
