package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Documents written by earlier versions of the service hold plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type CustomerStatus string

const (
	StatusActive CustomerStatus = "ACTIVE"
	StatusClosed CustomerStatus = "CLOSED"
)

type PlanKind string

const (
	PlanDailyInstallment PlanKind = "DAILY_INSTALLMENT"
	PlanInterestBearing  PlanKind = "INTEREST_BEARING"
)

type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodOnline PaymentMethod = "ONLINE"
)

type Customer struct {
	ID                int             `json:"id" db:"id"`
	Name              string          `json:"name" db:"name"`
	Phone             string          `json:"phone" db:"phone"`
	Address           string          `json:"address" db:"address"`
	LoanAmount        decimal.Decimal `json:"loanAmount" db:"loan_amount"`
	InterestRate      decimal.Decimal `json:"interestRate" db:"interest_rate"` // Percent per year, 0 when unused
	LoanTenure        int             `json:"loanTenure" db:"loan_tenure"`     // Months
	DailyInstallment  decimal.Decimal `json:"dailyInstallment" db:"daily_installment"`
	DurationDays      int             `json:"durationDays" db:"duration_days"`
	Plan              PlanKind        `json:"plan,omitempty" db:"plan"`
	TotalAmount       decimal.Decimal `json:"totalAmount" db:"total_amount"` // Fixed at creation
	AmountPaid        decimal.Decimal `json:"amountPaid" db:"amount_paid"`
	OutstandingAmount decimal.Decimal `json:"outstandingAmount" db:"outstanding_amount"`
	Status            CustomerStatus  `json:"status" db:"status"`
	LoanDate          time.Time       `json:"loanDate" db:"loan_date"`
	CreatedAt         time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt         *time.Time      `json:"updatedAt" db:"updated_at"`
}

type Payment struct {
	ID            int             `json:"id" db:"id"`
	CustomerID    int             `json:"customerId" db:"customer_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod" db:"payment_method"`
	TransactionID *string         `json:"transactionId" db:"transaction_id"`
	Notes         string          `json:"notes" db:"notes"`
	PaymentDate   time.Time       `json:"paymentDate" db:"payment_date"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     *time.Time      `json:"updatedAt,omitempty" db:"updated_at"`
}

// PaymentView is a payment joined with the name of its customer for listings.
type PaymentView struct {
	Payment
	CustomerName string `json:"customerName"`
}

// Document is the whole persisted state. CustomerID and PaymentID hold the
// next id to hand out and never move backwards.
type Document struct {
	Customers  []*Customer `json:"customers"`
	Payments   []*Payment  `json:"payments"`
	CustomerID int         `json:"customerId"`
	PaymentID  int         `json:"paymentId"`
}

// NewDocument returns an empty document with both counters starting at 1.
func NewDocument() *Document {
	return &Document{
		Customers:  []*Customer{},
		Payments:   []*Payment{},
		CustomerID: 1,
		PaymentID:  1,
	}
}
