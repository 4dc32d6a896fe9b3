package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mcclellann/loanbook/pkg/ledger"
	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// flexNumber accepts a JSON number, a numeric string, an empty string or
// null. Forms post numbers as strings, so anything unparseable is kept as
// zero and flagged instead of failing the request.
type flexNumber struct {
	Value     decimal.Decimal
	Set       bool
	Malformed bool
	Quoted    bool // sent as a non-empty string
	Raw       string
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		return nil
	}

	s, err := cast.ToStringE(raw)
	if err != nil {
		n.Set, n.Malformed, n.Raw = true, true, string(b)
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, n.Quoted = raw.(string)
	n.Set, n.Raw = true, s

	d, err := decimal.NewFromString(s)
	if err != nil {
		n.Malformed = true
		return nil
	}
	n.Value = d
	return nil
}

// Given reports whether a client meant to supply the field: any non-zero
// number, or any non-empty string including "0".
func (n flexNumber) Given() bool {
	return n.Quoted || !n.Value.IsZero()
}

func (n flexNumber) Int() int {
	return int(n.Value.IntPart())
}

// Accepted layouts for dates sent by clients, most specific first.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDate reads s in loc unless it carries its own offset. An empty string
// yields nil.
func parseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q", s)
}

type customerRequest struct {
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Address          string     `json:"address"`
	LoanAmount       flexNumber `json:"loanAmount"`
	InterestRate     flexNumber `json:"interestRate"`
	LoanTenure       flexNumber `json:"loanTenure"`
	DailyInstallment flexNumber `json:"dailyInstallment"`
	DurationDays     flexNumber `json:"durationDays"`
	StartDate        string     `json:"startDate"`
	CreatedAt        string     `json:"createdAt"`
}

type customerUpdateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type paymentRequest struct {
	CustomerID    flexNumber `json:"customerId"`
	Amount        flexNumber `json:"amount"`
	PaymentMethod string     `json:"paymentMethod"`
	TransactionID string     `json:"transactionId"`
	Notes         string     `json:"notes"`
	PaymentDate   string     `json:"paymentDate"`
}

type paymentUpdateRequest struct {
	Amount        flexNumber `json:"amount"`
	PaymentMethod string     `json:"paymentMethod"`
	TransactionID string     `json:"transactionId"`
	Notes         string     `json:"notes"`
	PaymentDate   string     `json:"paymentDate"`
}

// Rules applied only in strict mode.
type customerRules struct {
	Name             string  `validate:"required"`
	LoanAmount       float64 `validate:"gte=0"`
	InterestRate     float64 `validate:"gte=0"`
	LoanTenure       int     `validate:"gte=0"`
	DailyInstallment float64 `validate:"gte=0"`
	DurationDays     int     `validate:"gte=0"`
}

type paymentRules struct {
	CustomerID    int     `validate:"required,gt=0"`
	Amount        float64 `validate:"gt=0"`
	PaymentMethod string  `validate:"required,oneof=CASH ONLINE"`
}

type paymentUpdateRules struct {
	Amount        *float64 `validate:"omitempty,gt=0"`
	PaymentMethod string   `validate:"omitempty,oneof=CASH ONLINE"`
}

// malformedFields lists the JSON names of numbers that could not be parsed.
func malformedFields(fields map[string]flexNumber) []string {
	var names []string
	for name, f := range fields {
		if f.Malformed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (r *customerRequest) numbers() map[string]flexNumber {
	return map[string]flexNumber{
		"loanAmount":       r.LoanAmount,
		"interestRate":     r.InterestRate,
		"loanTenure":       r.LoanTenure,
		"dailyInstallment": r.DailyInstallment,
		"durationDays":     r.DurationDays,
	}
}

func (r *customerRequest) rules() customerRules {
	return customerRules{
		Name:             r.Name,
		LoanAmount:       r.LoanAmount.Value.InexactFloat64(),
		InterestRate:     r.InterestRate.Value.InexactFloat64(),
		LoanTenure:       r.LoanTenure.Int(),
		DailyInstallment: r.DailyInstallment.Value.InexactFloat64(),
		DurationDays:     r.DurationDays.Int(),
	}
}

func (r *customerRequest) toNewCustomer(loc *time.Location) (ledger.NewCustomer, []string) {
	var bad []string
	loanDate, err := parseDate(r.StartDate, loc)
	if err != nil {
		bad = append(bad, "startDate")
	}
	createdAt, err := parseDate(r.CreatedAt, loc)
	if err != nil {
		bad = append(bad, "createdAt")
	}

	return ledger.NewCustomer{
		Name:    r.Name,
		Phone:   r.Phone,
		Address: r.Address,
		Terms: ledger.LoanTerms{
			LoanAmount:       r.LoanAmount.Value,
			InterestRate:     r.InterestRate.Value,
			LoanTenure:       r.LoanTenure.Int(),
			DailyInstallment: r.DailyInstallment.Value,
			DurationDays:     r.DurationDays.Int(),
			DailyTermsGiven:  r.DailyInstallment.Given() && r.DurationDays.Given(),
		},
		LoanDate:  loanDate,
		CreatedAt: createdAt,
	}, bad
}

func (r *paymentRequest) numbers() map[string]flexNumber {
	return map[string]flexNumber{"customerId": r.CustomerID, "amount": r.Amount}
}

func (r *paymentRequest) rules() paymentRules {
	return paymentRules{
		CustomerID:    r.CustomerID.Int(),
		Amount:        r.Amount.Value.InexactFloat64(),
		PaymentMethod: r.PaymentMethod,
	}
}

func (r *paymentRequest) toNewPayment(loc *time.Location) (ledger.NewPayment, []string) {
	var bad []string
	paymentDate, err := parseDate(r.PaymentDate, loc)
	if err != nil {
		bad = append(bad, "paymentDate")
	}
	return ledger.NewPayment{
		CustomerID:    r.CustomerID.Int(),
		Amount:        r.Amount.Value,
		PaymentMethod: models.PaymentMethod(r.PaymentMethod),
		TransactionID: r.TransactionID,
		Notes:         r.Notes,
		PaymentDate:   paymentDate,
	}, bad
}

func (r *paymentUpdateRequest) numbers() map[string]flexNumber {
	return map[string]flexNumber{"amount": r.Amount}
}

func (r *paymentUpdateRequest) rules() paymentUpdateRules {
	rules := paymentUpdateRules{PaymentMethod: r.PaymentMethod}
	if r.Amount.Set {
		f := r.Amount.Value.InexactFloat64()
		rules.Amount = &f
	}
	return rules
}

func (r *paymentUpdateRequest) toPaymentUpdate(loc *time.Location) (ledger.PaymentUpdate, []string) {
	var bad []string
	paymentDate, err := parseDate(r.PaymentDate, loc)
	if err != nil {
		bad = append(bad, "paymentDate")
	}

	upd := ledger.PaymentUpdate{
		PaymentMethod: models.PaymentMethod(r.PaymentMethod),
		TransactionID: r.TransactionID,
		Notes:         r.Notes,
		PaymentDate:   paymentDate,
	}
	if r.Amount.Set {
		amount := r.Amount.Value
		upd.Amount = &amount
	}
	return upd, bad
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	var msgs []string
	for _, e := range verrs {
		switch e.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("field %s is required", e.Field()))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("field %s must be greater than %s", e.Field(), e.Param()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("field %s must not be negative", e.Field()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("field %s must be one of: %s", e.Field(), e.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}
	return strings.Join(msgs, "; ")
}
