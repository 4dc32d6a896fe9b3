package ledger

import (
	"errors"
	"sync"
	"time"

	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/mcclellann/loanbook/pkg/reports"
	"github.com/mcclellann/loanbook/pkg/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrPaymentNotFound  = errors.New("payment not found")
)

// NewCustomer holds the fields used to open a customer account. Nil dates
// default to the time of creation.
type NewCustomer struct {
	Name      string
	Phone     string
	Address   string
	Terms     LoanTerms
	LoanDate  *time.Time
	CreatedAt *time.Time
}

// CustomerUpdate carries contact details. Empty fields keep their current value.
type CustomerUpdate struct {
	Name    string
	Phone   string
	Address string
}

type NewPayment struct {
	CustomerID    int
	Amount        decimal.Decimal
	PaymentMethod models.PaymentMethod
	TransactionID string
	Notes         string
	PaymentDate   *time.Time
}

// PaymentUpdate edits a payment. A nil Amount or PaymentDate and empty
// strings keep the current value.
type PaymentUpdate struct {
	Amount        *decimal.Decimal
	PaymentMethod models.PaymentMethod
	TransactionID string
	Notes         string
	PaymentDate   *time.Time
}

// Ledger owns the in-memory loan book. Every mutation reconciles the affected
// customer and writes the whole document back to storage before returning.
type Ledger struct {
	mu      sync.Mutex
	storage store.Storage
	doc     *models.Document
	logger  *zap.Logger
	now     func() time.Time
	loc     *time.Location
}

type Option func(*Ledger)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLocation sets the timezone that defines "today" on the dashboard.
func WithLocation(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = loc }
}

// NewLedger loads the document from s. A missing document starts an empty
// book and writes it out; any other load error is logged and the ledger
// starts empty without touching storage.
func NewLedger(s store.Storage, logger *zap.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		storage: s,
		logger:  logger,
		now:     time.Now,
		loc:     time.Local,
	}
	for _, opt := range opts {
		opt(l)
	}

	doc, err := s.Load()
	switch {
	case errors.Is(err, store.ErrNotExist):
		logger.Info("No stored loan book found, starting with empty data")
		l.doc = models.NewDocument()
		l.persist()
	case err != nil:
		logger.Error("Failed to load loan book, starting with empty data", zap.Error(err))
		l.doc = models.NewDocument()
	default:
		l.doc = normalize(doc)
		logger.Info("Loan book loaded",
			zap.Int("customers", len(l.doc.Customers)),
			zap.Int("payments", len(l.doc.Payments)),
		)
	}
	return l
}

// normalize repairs documents written by hand or by older versions: nil
// collections or entries, and counters that would hand out an id already in use.
func normalize(doc *models.Document) *models.Document {
	customers := make([]*models.Customer, 0, len(doc.Customers))
	for _, c := range doc.Customers {
		if c == nil {
			continue
		}
		if c.ID >= doc.CustomerID {
			doc.CustomerID = c.ID + 1
		}
		customers = append(customers, c)
	}
	payments := make([]*models.Payment, 0, len(doc.Payments))
	for _, p := range doc.Payments {
		if p == nil {
			continue
		}
		if p.ID >= doc.PaymentID {
			doc.PaymentID = p.ID + 1
		}
		payments = append(payments, p)
	}
	doc.Customers, doc.Payments = customers, payments
	return doc
}

// persist writes the document. Failures are logged and swallowed: the
// in-memory state stays authoritative until the next successful write.
func (l *Ledger) persist() {
	if err := l.storage.Save(l.doc); err != nil {
		l.logger.Error("Failed to persist loan book", zap.Error(err))
	}
}

func (l *Ledger) findCustomer(id int) (int, *models.Customer) {
	for i, c := range l.doc.Customers {
		if c.ID == id {
			return i, c
		}
	}
	return -1, nil
}

func (l *Ledger) findPayment(id int) (int, *models.Payment) {
	for i, p := range l.doc.Payments {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func copyCustomer(c *models.Customer) *models.Customer {
	cp := *c
	return &cp
}

func copyPayment(p *models.Payment) *models.Payment {
	cp := *p
	return &cp
}

// CreateCustomer opens a new ACTIVE account. The total payable amount is
// fixed here from the resolved plan and never recomputed.
func (l *Ledger) CreateCustomer(in NewCustomer) *models.Customer {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	loanDate, createdAt := now, now
	if in.LoanDate != nil {
		loanDate = *in.LoanDate
	}
	if in.CreatedAt != nil {
		createdAt = *in.CreatedAt
	}

	plan := ResolvePlan(in.Terms)
	total := plan.Total()

	customer := &models.Customer{
		ID:                l.doc.CustomerID,
		Name:              in.Name,
		Phone:             in.Phone,
		Address:           in.Address,
		LoanAmount:        in.Terms.LoanAmount,
		InterestRate:      in.Terms.InterestRate,
		LoanTenure:        in.Terms.LoanTenure,
		DailyInstallment:  in.Terms.DailyInstallment,
		DurationDays:      in.Terms.DurationDays,
		Plan:              plan.Kind(),
		TotalAmount:       total,
		AmountPaid:        decimal.Zero,
		OutstandingAmount: total,
		Status:            models.StatusActive,
		LoanDate:          loanDate,
		CreatedAt:         createdAt,
	}
	l.doc.CustomerID++
	l.doc.Customers = append(l.doc.Customers, customer)
	l.persist()

	l.logger.Info("Customer created",
		zap.Int("customer_id", customer.ID),
		zap.String("plan", string(customer.Plan)),
		zap.String("total_amount", total.StringFixed(2)),
	)
	return copyCustomer(customer)
}

// GetCustomer retrieves a customer by its ID.
func (l *Ledger) GetCustomer(id int) (*models.Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, c := l.findCustomer(id)
	if c == nil {
		return nil, ErrCustomerNotFound
	}
	return copyCustomer(c), nil
}

// GetAllCustomers retrieves all customers in creation order.
func (l *Ledger) GetAllCustomers() []*models.Customer {
	l.mu.Lock()
	defer l.mu.Unlock()

	customers := make([]*models.Customer, 0, len(l.doc.Customers))
	for _, c := range l.doc.Customers {
		customers = append(customers, copyCustomer(c))
	}
	return customers
}

// GetActiveCustomers retrieves customers whose loan is still open.
func (l *Ledger) GetActiveCustomers() []*models.Customer {
	l.mu.Lock()
	defer l.mu.Unlock()

	customers := []*models.Customer{}
	for _, c := range l.doc.Customers {
		if c.Status == models.StatusActive {
			customers = append(customers, copyCustomer(c))
		}
	}
	return customers
}

// UpdateCustomer changes contact details only; loan terms and balances are
// left alone.
func (l *Ledger) UpdateCustomer(id int, upd CustomerUpdate) (*models.Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, c := l.findCustomer(id)
	if c == nil {
		return nil, ErrCustomerNotFound
	}

	if upd.Name != "" {
		c.Name = upd.Name
	}
	if upd.Phone != "" {
		c.Phone = upd.Phone
	}
	if upd.Address != "" {
		c.Address = upd.Address
	}
	now := l.now()
	c.UpdatedAt = &now

	l.persist()
	return copyCustomer(c), nil
}

// DeleteCustomer removes a customer together with all of its payments.
func (l *Ledger) DeleteCustomer(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, c := l.findCustomer(id)
	if c == nil {
		return ErrCustomerNotFound
	}

	kept := make([]*models.Payment, 0, len(l.doc.Payments))
	for _, p := range l.doc.Payments {
		if p.CustomerID != id {
			kept = append(kept, p)
		}
	}
	removed := len(l.doc.Payments) - len(kept)
	l.doc.Payments = kept
	l.doc.Customers = append(l.doc.Customers[:idx], l.doc.Customers[idx+1:]...)

	l.persist()
	l.logger.Info("Customer deleted", zap.Int("customer_id", id), zap.Int("payments_removed", removed))
	return nil
}

// RecordPayment stores a payment against an existing customer and applies it
// to the customer's balance.
func (l *Ledger) RecordPayment(in NewPayment) (*models.PaymentView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, customer := l.findCustomer(in.CustomerID)
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	now := l.now()
	paymentDate := now
	if in.PaymentDate != nil {
		paymentDate = *in.PaymentDate
	}
	var txID *string
	if in.TransactionID != "" {
		id := in.TransactionID
		txID = &id
	}

	payment := &models.Payment{
		ID:            l.doc.PaymentID,
		CustomerID:    customer.ID,
		Amount:        in.Amount,
		PaymentMethod: in.PaymentMethod,
		TransactionID: txID,
		Notes:         in.Notes,
		PaymentDate:   paymentDate,
		CreatedAt:     now,
	}
	l.doc.PaymentID++
	l.doc.Payments = append(l.doc.Payments, payment)

	ApplyNewPayment(customer, payment.Amount, now)
	l.persist()

	l.logger.Info("Payment recorded",
		zap.Int("payment_id", payment.ID),
		zap.Int("customer_id", customer.ID),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("outstanding", customer.OutstandingAmount.StringFixed(2)),
		zap.String("status", string(customer.Status)),
	)
	return &models.PaymentView{Payment: *payment, CustomerName: customer.Name}, nil
}

// GetPayment retrieves a payment by its ID.
func (l *Ledger) GetPayment(id int) (*models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, p := l.findPayment(id)
	if p == nil {
		return nil, ErrPaymentNotFound
	}
	return copyPayment(p), nil
}

// UpdatePayment edits a payment and swaps its old amount for the new one on
// the owning customer. Nothing changes if the customer no longer exists.
func (l *Ledger) UpdatePayment(id int, upd PaymentUpdate) (*models.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, payment := l.findPayment(id)
	if payment == nil {
		return nil, ErrPaymentNotFound
	}
	_, customer := l.findCustomer(payment.CustomerID)
	if customer == nil {
		return nil, ErrCustomerNotFound
	}

	oldAmount := payment.Amount
	newAmount := oldAmount
	if upd.Amount != nil {
		newAmount = *upd.Amount
	}

	payment.Amount = newAmount
	if upd.PaymentMethod != "" {
		payment.PaymentMethod = upd.PaymentMethod
	}
	if upd.TransactionID != "" {
		txID := upd.TransactionID
		payment.TransactionID = &txID
	}
	if upd.Notes != "" {
		payment.Notes = upd.Notes
	}
	if upd.PaymentDate != nil {
		payment.PaymentDate = *upd.PaymentDate
	}
	now := l.now()
	payment.UpdatedAt = &now

	ApplyPaymentEdit(customer, oldAmount, newAmount, now)
	l.persist()

	l.logger.Info("Payment updated",
		zap.Int("payment_id", payment.ID),
		zap.Int("customer_id", customer.ID),
		zap.String("old_amount", oldAmount.StringFixed(2)),
		zap.String("new_amount", newAmount.StringFixed(2)),
		zap.String("status", string(customer.Status)),
	)
	return copyPayment(payment), nil
}

// DeletePayment removes a payment and reverses it on the owning customer, if
// that customer still exists.
func (l *Ledger) DeletePayment(id int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, payment := l.findPayment(id)
	if payment == nil {
		return ErrPaymentNotFound
	}

	if _, customer := l.findCustomer(payment.CustomerID); customer != nil {
		ApplyPaymentDeletion(customer, payment.Amount, l.now())
	} else {
		l.logger.Warn("Deleting payment of unknown customer",
			zap.Int("payment_id", payment.ID),
			zap.Int("customer_id", payment.CustomerID),
		)
	}
	l.doc.Payments = append(l.doc.Payments[:idx], l.doc.Payments[idx+1:]...)

	l.persist()
	l.logger.Info("Payment deleted", zap.Int("payment_id", id), zap.Int("customer_id", payment.CustomerID))
	return nil
}

// GetPaymentsForCustomer returns the payments recorded for a customer. An
// unknown customer simply has none.
func (l *Ledger) GetPaymentsForCustomer(customerID int) []*models.Payment {
	l.mu.Lock()
	defer l.mu.Unlock()

	payments := []*models.Payment{}
	for _, p := range l.doc.Payments {
		if p.CustomerID == customerID {
			payments = append(payments, copyPayment(p))
		}
	}
	return payments
}

// GetAllPayments returns every payment joined to its customer's name.
func (l *Ledger) GetAllPayments() []models.PaymentView {
	l.mu.Lock()
	defer l.mu.Unlock()

	return reports.WithCustomerNames(l.doc.Customers, l.doc.Payments)
}

// PaymentsInRange returns payments dated within [start, end of end's day in
// the ledger's timezone].
// When either bound is missing every payment is returned.
func (l *Ledger) PaymentsInRange(start, end *time.Time) []models.PaymentView {
	l.mu.Lock()
	defer l.mu.Unlock()

	if start == nil || end == nil {
		return reports.WithCustomerNames(l.doc.Customers, l.doc.Payments)
	}
	return reports.PaymentsInRange(l.doc.Customers, l.doc.Payments, *start, *end, l.loc)
}

// DashboardStats computes portfolio totals and today's collection.
func (l *Ledger) DashboardStats() reports.DashboardStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	return reports.Dashboard(l.doc.Customers, l.doc.Payments, l.now(), l.loc)
}

// Location returns the timezone calendar days are evaluated in.
func (l *Ledger) Location() *time.Location {
	return l.loc
}

// Close flushes the document one last time and closes the storage.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.storage.Save(l.doc); err != nil {
		l.logger.Error("Final flush failed", zap.Error(err))
	}
	return l.storage.Close()
}
