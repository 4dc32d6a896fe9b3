// Package reports derives dashboard figures and payment reports by scanning
// customers and payments. Nothing is cached; callers pass a consistent
// snapshot of both collections.
package reports

import (
	"time"

	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/shopspring/decimal"
)

// UnknownCustomer is shown for payments whose customer no longer exists.
const UnknownCustomer = "Unknown"

type DashboardStats struct {
	TotalCustomers   int             `json:"totalCustomers"`
	ActiveLoans      int             `json:"activeLoans"`
	TotalOutstanding decimal.Decimal `json:"totalOutstanding"`
	TodayCollection  decimal.Decimal `json:"todayCollection"`
	TotalDisbursed   decimal.Decimal `json:"totalDisbursed"`
	TotalCollected   decimal.Decimal `json:"totalCollected"`
	CashPayments     decimal.Decimal `json:"cashPayments"`
	OnlinePayments   decimal.Decimal `json:"onlinePayments"`
	NumberOfPayments int             `json:"numberOfPayments"`
}

// Summary totals a list of report rows.
type Summary struct {
	TotalCollected   decimal.Decimal `json:"totalCollected"`
	NumberOfPayments int             `json:"numberOfPayments"`
}

// DayBounds returns the first and last instant of t's calendar day in loc.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	t = t.In(loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), loc)
	return start, end
}

func within(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Dashboard computes the portfolio totals and today's collection, where
// "today" is the calendar day of now in loc.
func Dashboard(customers []*models.Customer, payments []*models.Payment, now time.Time, loc *time.Location) DashboardStats {
	stats := DashboardStats{
		TotalCustomers:   len(customers),
		TotalOutstanding: decimal.Zero,
		TodayCollection:  decimal.Zero,
		TotalDisbursed:   decimal.Zero,
		TotalCollected:   decimal.Zero,
		CashPayments:     decimal.Zero,
		OnlinePayments:   decimal.Zero,
	}

	for _, c := range customers {
		if c.Status == models.StatusActive {
			stats.ActiveLoans++
		}
		stats.TotalDisbursed = stats.TotalDisbursed.Add(c.LoanAmount)
		stats.TotalCollected = stats.TotalCollected.Add(c.AmountPaid)
		stats.TotalOutstanding = stats.TotalOutstanding.Add(c.OutstandingAmount)
	}

	start, end := DayBounds(now, loc)
	for _, p := range payments {
		if !within(p.PaymentDate, start, end) {
			continue
		}
		stats.NumberOfPayments++
		stats.TodayCollection = stats.TodayCollection.Add(p.Amount)
		switch p.PaymentMethod {
		case models.PaymentMethodCash:
			stats.CashPayments = stats.CashPayments.Add(p.Amount)
		case models.PaymentMethodOnline:
			stats.OnlinePayments = stats.OnlinePayments.Add(p.Amount)
		}
	}
	return stats
}

func customerNames(customers []*models.Customer) map[int]string {
	names := make(map[int]string, len(customers))
	for _, c := range customers {
		names[c.ID] = c.Name
	}
	return names
}

func view(p *models.Payment, names map[int]string) models.PaymentView {
	name, ok := names[p.CustomerID]
	if !ok {
		name = UnknownCustomer
	}
	return models.PaymentView{Payment: *p, CustomerName: name}
}

// WithCustomerNames joins every payment to its customer's name.
func WithCustomerNames(customers []*models.Customer, payments []*models.Payment) []models.PaymentView {
	names := customerNames(customers)
	rows := make([]models.PaymentView, 0, len(payments))
	for _, p := range payments {
		rows = append(rows, view(p, names))
	}
	return rows
}

// PaymentsInRange returns the payments dated between start and the end of
// end's calendar day in loc, both inclusive, joined to customer names.
func PaymentsInRange(customers []*models.Customer, payments []*models.Payment, start, end time.Time, loc *time.Location) []models.PaymentView {
	_, end = DayBounds(end, loc)

	names := customerNames(customers)
	rows := make([]models.PaymentView, 0)
	for _, p := range payments {
		if within(p.PaymentDate, start, end) {
			rows = append(rows, view(p, names))
		}
	}
	return rows
}

// Summarize totals the amounts of rows.
func Summarize(rows []models.PaymentView) Summary {
	s := Summary{TotalCollected: decimal.Zero, NumberOfPayments: len(rows)}
	for _, r := range rows {
		s.TotalCollected = s.TotalCollected.Add(r.Amount)
	}
	return s
}
