package http

import (
	"net/http"

	"ledger/internal/core"
)

// Incomes and expenses share handlers; the kind is bound at route setup.

func (s *Server) handleAddTransaction(kind core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req transactionRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		in, err := req.toDomain(kind)
		if err != nil {
			writeError(w, r, err)
			return
		}

		saved, err := s.transactions.Add(r.Context(), currentUser(r), kind, in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		Success(kind.Label()+" added successfully").
			Status(http.StatusCreated).
			With(string(kind), newTransactionView(saved)).
			Write(w)
	}
}

func (s *Server) handleListCurrentMonth(kind core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := s.transactions.CurrentMonth(r.Context(), currentUser(r), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		Success(kind.Label()+"s retrieved successfully").
			With(pluralKey(kind), newTransactionViews(records)).
			Write(w)
	}
}

func (s *Server) handleDeleteTransaction(kind core.TransactionType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := s.transactions.Delete(r.Context(), currentUser(r), kind, id); err != nil {
			writeError(w, r, err)
			return
		}
		Success(kind.Label() + " deleted successfully").Write(w)
	}
}
