package http

import (
	"net/http"

	"ledger/internal/core"
	"ledger/internal/filter"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.ledger.Dashboard(r.Context(), currentUser(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	Success("Dashboard data retrieved successfully").
		With("totalBalance", core.FormatAmount(d.NetBalance)).
		With("totalIncomes", core.FormatAmount(d.TotalIncome)).
		With("totalExpenses", core.FormatAmount(d.TotalExpense)).
		With("recent5Expenses", newTransactionViews(d.RecentExpenses)).
		With("recent5Incomes", newTransactionViews(d.RecentIncomes)).
		With("recentTransactions", newRecentViews(d.RecentMerged)).
		Write(w)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filter.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	kind, records, err := s.transactions.Filter(r.Context(), currentUser(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	Success("Transactions filtered successfully").
		With(pluralKey(kind), newTransactionViews(records)).
		Write(w)
}
