package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mcclellann/loanbook/pkg/models"

	_ "github.com/mattn/go-sqlite3"
)

const (
	counterCustomer = "customer"
	counterPayment  = "payment"
)

// SQLiteStore keeps the document in SQLite tables, one row per customer and
// payment plus a counters table for the next ids.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore creates a new SQLiteStore and initializes the database.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL;")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the tables if they don't already exist.
// Money is stored as TEXT so no precision is lost. payments.customer_id has no
// foreign key: documents imported from older files may hold orphaned payments.
func (s *SQLiteStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS customers (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		loan_amount TEXT NOT NULL DEFAULT '0',
		interest_rate TEXT NOT NULL DEFAULT '0',
		loan_tenure INTEGER NOT NULL DEFAULT 0,
		daily_installment TEXT NOT NULL DEFAULT '0',
		duration_days INTEGER NOT NULL DEFAULT 0,
		plan TEXT NOT NULL DEFAULT '',
		total_amount TEXT NOT NULL DEFAULT '0',
		amount_paid TEXT NOT NULL DEFAULT '0',
		outstanding_amount TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL,
		loan_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME
	);
	CREATE TABLE IF NOT EXISTS payments (
		id INTEGER PRIMARY KEY,
		customer_id INTEGER NOT NULL,
		amount TEXT NOT NULL DEFAULT '0',
		payment_method TEXT NOT NULL DEFAULT '',
		transaction_id TEXT,
		notes TEXT NOT NULL DEFAULT '',
		payment_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME
	);
	CREATE INDEX IF NOT EXISTS idx_payments_customer_id ON payments(customer_id);
	CREATE TABLE IF NOT EXISTS counters (
		name TEXT PRIMARY KEY,
		next_id INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads every customer, payment and counter back into a document.
func (s *SQLiteStore) Load() (*models.Document, error) {
	doc := models.NewDocument()

	var counters []struct {
		Name   string `db:"name"`
		NextID int    `db:"next_id"`
	}
	if err := s.db.Select(&counters, `SELECT name, next_id FROM counters`); err != nil {
		return nil, fmt.Errorf("failed to read counters: %w", err)
	}
	if len(counters) == 0 {
		return nil, ErrNotExist
	}
	for _, c := range counters {
		switch c.Name {
		case counterCustomer:
			doc.CustomerID = c.NextID
		case counterPayment:
			doc.PaymentID = c.NextID
		}
	}

	if err := s.db.Select(&doc.Customers, `SELECT * FROM customers ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("failed to get customers: %w", err)
	}
	if err := s.db.Select(&doc.Payments, `SELECT * FROM payments ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}
	return doc, nil
}

// Save replaces the stored document within a single transaction.
func (s *SQLiteStore) Save(doc *models.Document) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM payments`); err != nil {
		return fmt.Errorf("failed to clear payments: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM customers`); err != nil {
		return fmt.Errorf("failed to clear customers: %w", err)
	}

	for _, c := range doc.Customers {
		_, err := tx.NamedExec(
			`INSERT INTO customers (id, name, phone, address, loan_amount, interest_rate, loan_tenure, daily_installment, duration_days, plan, total_amount, amount_paid, outstanding_amount, status, loan_date, created_at, updated_at)
			VALUES (:id, :name, :phone, :address, :loan_amount, :interest_rate, :loan_tenure, :daily_installment, :duration_days, :plan, :total_amount, :amount_paid, :outstanding_amount, :status, :loan_date, :created_at, :updated_at)`,
			c,
		)
		if err != nil {
			return fmt.Errorf("failed to store customer %d: %w", c.ID, err)
		}
	}

	for _, p := range doc.Payments {
		_, err := tx.NamedExec(
			`INSERT INTO payments (id, customer_id, amount, payment_method, transaction_id, notes, payment_date, created_at, updated_at)
			VALUES (:id, :customer_id, :amount, :payment_method, :transaction_id, :notes, :payment_date, :created_at, :updated_at)`,
			p,
		)
		if err != nil {
			return fmt.Errorf("failed to store payment %d: %w", p.ID, err)
		}
	}

	upsert := `INSERT INTO counters (name, next_id) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET next_id = excluded.next_id`
	if _, err := tx.Exec(upsert, counterCustomer, doc.CustomerID); err != nil {
		return fmt.Errorf("failed to store customer counter: %w", err)
	}
	if _, err := tx.Exec(upsert, counterPayment, doc.PaymentID); err != nil {
		return fmt.Errorf("failed to store payment counter: %w", err)
	}

	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

