package ledger

import (
	"testing"

	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/shopspring/decimal"
)

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name  string
		terms LoanTerms
		want  decimal.Decimal
		kind  models.PlanKind
	}{
		{
			name:  "daily installment",
			terms: LoanTerms{DailyInstallment: decimal.NewFromInt(500), DurationDays: 10},
			want:  decimal.NewFromInt(5000),
			kind:  models.PlanDailyInstallment,
		},
		{
			name: "daily installment wins over interest fields",
			terms: LoanTerms{
				LoanAmount:       decimal.NewFromInt(1000),
				InterestRate:     decimal.NewFromInt(12),
				LoanTenure:       12,
				DailyInstallment: decimal.NewFromInt(120),
				DurationDays:     30,
			},
			want: decimal.NewFromInt(3600),
			kind: models.PlanDailyInstallment,
		},
		{
			name: "explicit zero daily terms keep the daily model",
			terms: LoanTerms{
				LoanAmount:      decimal.NewFromInt(1000),
				DurationDays:    10,
				DailyTermsGiven: true,
			},
			want: decimal.Zero,
			kind: models.PlanDailyInstallment,
		},
		{
			name:  "simple monthly interest",
			terms: LoanTerms{LoanAmount: decimal.NewFromInt(1000), InterestRate: decimal.NewFromInt(12), LoanTenure: 12},
			want:  decimal.NewFromInt(1120),
			kind:  models.PlanInterestBearing,
		},
		{
			name:  "fractional interest",
			terms: LoanTerms{LoanAmount: decimal.NewFromInt(10000), InterestRate: decimal.NewFromFloat(2.5), LoanTenure: 6},
			want:  decimal.NewFromInt(10125),
			kind:  models.PlanInterestBearing,
		},
		{
			name:  "installment without days falls back to interest model",
			terms: LoanTerms{LoanAmount: decimal.NewFromInt(2000), DailyInstallment: decimal.NewFromInt(100)},
			want:  decimal.NewFromInt(2000),
			kind:  models.PlanInterestBearing,
		},
		{
			name:  "nothing supplied",
			terms: LoanTerms{},
			want:  decimal.Zero,
			kind:  models.PlanInterestBearing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := ResolvePlan(tt.terms)
			if plan.Kind() != tt.kind {
				t.Errorf("Expected plan %s, got %s", tt.kind, plan.Kind())
			}
			if got := ComputeTotal(tt.terms); !got.Equal(tt.want) {
				t.Errorf("Expected total %s, got %s", tt.want, got)
			}
		})
	}
}
