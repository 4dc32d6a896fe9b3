package ledger

import (
	"time"

	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/shopspring/decimal"
)

// ApplyNewPayment adds a payment to the customer's paid amount. It may close
// the loan but never reopens it.
func ApplyNewPayment(c *models.Customer, amount decimal.Decimal, now time.Time) {
	c.AmountPaid = c.AmountPaid.Add(amount)
	c.OutstandingAmount = c.TotalAmount.Sub(c.AmountPaid)

	// If outstanding is 0 or negative, close the loan
	if c.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
		c.Status = models.StatusClosed
		c.OutstandingAmount = decimal.Zero
	}
	c.UpdatedAt = &now
}

// ApplyPaymentEdit swaps the old amount of an edited payment for the new one
// and recomputes the status in both directions.
func ApplyPaymentEdit(c *models.Customer, oldAmount, newAmount decimal.Decimal, now time.Time) {
	c.AmountPaid = c.AmountPaid.Sub(oldAmount).Add(newAmount)
	c.OutstandingAmount = c.TotalAmount.Sub(c.AmountPaid)

	if c.OutstandingAmount.LessThanOrEqual(decimal.Zero) {
		c.Status = models.StatusClosed
		c.OutstandingAmount = decimal.Zero
	} else {
		c.Status = models.StatusActive
	}
	c.UpdatedAt = &now
}

// ApplyPaymentDeletion reverses a removed payment. The customer is always
// left ACTIVE, even when the remaining payments still cover the total.
func ApplyPaymentDeletion(c *models.Customer, amount decimal.Decimal, now time.Time) {
	c.AmountPaid = c.AmountPaid.Sub(amount)
	c.OutstandingAmount = decimal.Max(c.TotalAmount.Sub(c.AmountPaid), decimal.Zero)
	c.Status = models.StatusActive
	c.UpdatedAt = &now
}
