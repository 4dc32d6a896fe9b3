package ledger

import (
	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/shopspring/decimal"
)

var monthsTimesPercent = decimal.NewFromInt(100 * 12)

// LoanTerms are the loan fields supplied when a customer is opened.
// Absent values are zero.
type LoanTerms struct {
	LoanAmount       decimal.Decimal
	InterestRate     decimal.Decimal
	LoanTenure       int
	DailyInstallment decimal.Decimal
	DurationDays     int
	// DailyTermsGiven selects the daily model even when the values are zero,
	// for clients that send "0" strings.
	DailyTermsGiven bool
}

// Plan is the accounting model a customer's total payable amount comes from.
type Plan interface {
	Kind() models.PlanKind
	Total() decimal.Decimal
}

// DailyInstallmentPlan is a fixed daily repayment over a fixed number of days, no interest.
type DailyInstallmentPlan struct {
	Installment decimal.Decimal
	Days        int
}

func (p DailyInstallmentPlan) Kind() models.PlanKind { return models.PlanDailyInstallment }

func (p DailyInstallmentPlan) Total() decimal.Decimal {
	return p.Installment.Mul(decimal.NewFromInt(int64(p.Days)))
}

// InterestBearingPlan accrues simple monthly interest on the principal over
// the whole tenure. Nothing is amortized.
type InterestBearingPlan struct {
	Principal    decimal.Decimal
	RatePercent  decimal.Decimal
	TenureMonths int
}

func (p InterestBearingPlan) Kind() models.PlanKind { return models.PlanInterestBearing }

func (p InterestBearingPlan) Total() decimal.Decimal {
	interest := p.Principal.
		Mul(p.RatePercent).
		Mul(decimal.NewFromInt(int64(p.TenureMonths))).
		Div(monthsTimesPercent)
	return p.Principal.Add(interest)
}

// ResolvePlan picks the daily-installment model when both the installment and
// the day count are set, and the interest model otherwise.
func ResolvePlan(t LoanTerms) Plan {
	if t.DailyTermsGiven || (!t.DailyInstallment.IsZero() && t.DurationDays != 0) {
		return DailyInstallmentPlan{Installment: t.DailyInstallment, Days: t.DurationDays}
	}
	return InterestBearingPlan{
		Principal:    t.LoanAmount,
		RatePercent:  t.InterestRate,
		TenureMonths: t.LoanTenure,
	}
}

// ComputeTotal returns the total payable amount for the given terms.
func ComputeTotal(t LoanTerms) decimal.Decimal {
	return ResolvePlan(t).Total()
}
