package http

import (
	"net/http"

	"github.com/shopspring/decimal"

	"giardino/internal/core"
	"giardino/internal/store"
)

type debtRequest struct {
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Paid    decimal.Decimal `json:"paid"`
	Rate    decimal.Decimal `json:"rate"`
	DueDate core.Date       `json:"due_date"`
}

type debtPatchRequest struct {
	Name    *string          `json:"name"`
	Amount  *decimal.Decimal `json:"amount"`
	Paid    *decimal.Decimal `json:"paid"`
	Rate    *decimal.Decimal `json:"rate"`
	DueDate *core.Date       `json:"due_date"`
}

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	debts, err := s.garden.Debts(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	var req debtRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	debt, err := s.garden.AddDebt(r.Context(), token, core.Debt{
		Name:    req.Name,
		Amount:  req.Amount,
		Paid:    req.Paid,
		Rate:    req.Rate,
		DueDate: req.DueDate,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, debt)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	var req debtPatchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	debt, err := s.garden.UpdateDebt(r.Context(), token, r.PathValue("id"), store.DebtUpdate{
		Name:    req.Name,
		Amount:  req.Amount,
		Paid:    req.Paid,
		Rate:    req.Rate,
		DueDate: req.DueDate,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, debt)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	if err := s.garden.DeleteDebt(r.Context(), token, r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	payments, err := s.garden.Payments(r.Context(), token)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payments)
}

func (s *Server) handleMarkPaymentPaid(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}
	payment, err := s.garden.MarkPaymentAsPaid(r.Context(), token, r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}
