package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/mcclellann/loanbook/pkg/ledger"
	"github.com/mcclellann/loanbook/pkg/models"
	"github.com/mcclellann/loanbook/pkg/reports"
	"go.uber.org/zap"
)

// Server exposes the ledger over HTTP.
type Server struct {
	ledger   *ledger.Ledger
	logger   *zap.Logger
	validate *validator.Validate
	strict   bool // reject malformed input instead of coercing it
}

func NewServer(l *ledger.Ledger, logger *zap.Logger, strict bool) *Server {
	return &Server{
		ledger:   l,
		logger:   logger,
		validate: validator.New(),
		strict:   strict,
	}
}

// Routes registers every endpoint under /api.
func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.healthHandler).Methods("GET")
	api.HandleFunc("/dashboard/stats", s.dashboardStatsHandler).Methods("GET")

	api.HandleFunc("/customers", s.listCustomersHandler).Methods("GET")
	api.HandleFunc("/customers", s.createCustomerHandler).Methods("POST")
	api.HandleFunc("/customers/active", s.listActiveCustomersHandler).Methods("GET")
	api.HandleFunc("/customers/{id:[0-9]+}", s.getCustomerHandler).Methods("GET")
	api.HandleFunc("/customers/{id:[0-9]+}", s.updateCustomerHandler).Methods("PUT")
	api.HandleFunc("/customers/{id:[0-9]+}", s.deleteCustomerHandler).Methods("DELETE")

	api.HandleFunc("/payments", s.listPaymentsHandler).Methods("GET")
	api.HandleFunc("/payments", s.createPaymentHandler).Methods("POST")
	api.HandleFunc("/payments/customer/{customerId:[0-9]+}", s.customerPaymentsHandler).Methods("GET")
	api.HandleFunc("/payments/date-range", s.paymentsByDateRangeHandler).Methods("GET")
	api.HandleFunc("/payments/{id:[0-9]+}", s.updatePaymentHandler).Methods("PUT")
	api.HandleFunc("/payments/{id:[0-9]+}", s.deletePaymentHandler).Methods("DELETE")

	api.HandleFunc("/reports/summary", s.reportSummaryHandler).Methods("GET")

	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeLedgerError maps ledger errors to status codes.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrCustomerNotFound):
		writeError(w, http.StatusNotFound, "Customer not found")
	case errors.Is(err, ledger.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "Payment not found")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func pathID(r *http.Request, key string) int {
	// The route pattern only admits digits; overflow falls through to not found.
	id, _ := strconv.Atoi(mux.Vars(r)[key])
	return id
}

func decodeBody(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// checkInput reports malformed numbers and dates. In strict mode the request
// is rejected with 400; otherwise the coerced values are used and a warning
// is logged. It returns false when the handler must stop.
func (s *Server) checkInput(w http.ResponseWriter, r *http.Request, fields []string, rules interface{}) bool {
	if len(fields) > 0 {
		if s.strict {
			writeError(w, http.StatusBadRequest, "malformed fields: "+strings.Join(fields, ", "))
			return false
		}
		s.logger.Warn("Coercing malformed input",
			zap.String("request_id", requestID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Strings("fields", fields),
		)
	}
	if s.strict {
		if err := s.validate.Struct(rules); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return false
		}
	}
	return true
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.DashboardStats())
}

func (s *Server) listCustomersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetAllCustomers())
}

func (s *Server) listActiveCustomersHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetActiveCustomers())
}

func (s *Server) getCustomerHandler(w http.ResponseWriter, r *http.Request) {
	customer, err := s.ledger.GetCustomer(pathID(r, "id"))
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) createCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, badDates := req.toNewCustomer(s.ledger.Location())
	bad := append(malformedFields(req.numbers()), badDates...)
	if !s.checkInput(w, r, bad, req.rules()) {
		return
	}

	writeJSON(w, http.StatusCreated, s.ledger.CreateCustomer(in))
}

func (s *Server) updateCustomerHandler(w http.ResponseWriter, r *http.Request) {
	var req customerUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := s.ledger.UpdateCustomer(pathID(r, "id"), ledger.CustomerUpdate{
		Name:    req.Name,
		Phone:   req.Phone,
		Address: req.Address,
	})
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (s *Server) deleteCustomerHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteCustomer(pathID(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetAllPayments())
}

func (s *Server) customerPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.ledger.GetPaymentsForCustomer(pathID(r, "customerId")))
}

// paymentsInRange reads startDate and endDate from the query. ok is false
// when a bound was given but could not be parsed.
func (s *Server) paymentsInRange(r *http.Request) (rows []models.PaymentView, ok bool) {
	loc := s.ledger.Location()
	start, errStart := parseDate(r.URL.Query().Get("startDate"), loc)
	end, errEnd := parseDate(r.URL.Query().Get("endDate"), loc)
	if errStart != nil || errEnd != nil {
		return []models.PaymentView{}, false
	}
	return s.ledger.PaymentsInRange(start, end), true
}

func (s *Server) paymentsByDateRangeHandler(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.paymentsInRange(r)
	if !ok && s.strict {
		writeError(w, http.StatusBadRequest, "invalid date range")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) reportSummaryHandler(w http.ResponseWriter, r *http.Request) {
	rows, ok := s.paymentsInRange(r)
	if !ok && s.strict {
		writeError(w, http.StatusBadRequest, "invalid date range")
		return
	}
	writeJSON(w, http.StatusOK, struct {
		reports.Summary
		Payments []models.PaymentView `json:"payments"`
	}{reports.Summarize(rows), rows})
}

func (s *Server) createPaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	in, badDates := req.toNewPayment(s.ledger.Location())
	bad := append(malformedFields(req.numbers()), badDates...)
	if !s.checkInput(w, r, bad, req.rules()) {
		return
	}

	payment, err := s.ledger.RecordPayment(in)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, payment)
}

func (s *Server) updatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	var req paymentUpdateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	upd, badDates := req.toPaymentUpdate(s.ledger.Location())
	bad := append(malformedFields(req.numbers()), badDates...)
	if !s.checkInput(w, r, bad, req.rules()) {
		return
	}

	payment, err := s.ledger.UpdatePayment(pathID(r, "id"), upd)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (s *Server) deletePaymentHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeletePayment(pathID(r, "id")); err != nil {
		writeLedgerError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
