package http

import (
	"net/http"

	"moneybook/internal/analysis"
	"moneybook/internal/core"
	"moneybook/internal/log"
	"moneybook/internal/middleware/trace"
)

const recentTransactionLimit = 5

type dashboardData struct {
	Year              int
	Month             int
	Monthly           analysis.Totals
	Recent            []core.Transaction
	TotalAssets       string
	IncomeCategories  []core.Category
	ExpenseCategories []core.Category
	Today             string
	RefreshDelayMS    int64
}

// handleIndex renders the dashboard page: current month summary, recent
// transactions and the total asset value.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.ErrorContext(r.Context(), "templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	now := s.now()
	data := dashboardData{
		Year:           now.Year(),
		Month:          int(now.Month()),
		Today:          core.Today().String(),
		RefreshDelayMS: s.refreshDelay.Milliseconds(),
	}

	txs, err := s.backend.List(ctx, core.TransactionFilter{})
	if err != nil {
		s.logger.ErrorContext(ctx, "list transactions for dashboard failed",
			log.FieldRequestID, trace.RequestID(ctx),
			log.FieldError, err,
		)
	} else {
		data.Monthly = analysis.MonthlySummary(txs, data.Year, data.Month)
		if len(txs) > recentTransactionLimit {
			txs = txs[:recentTransactionLimit]
		}
		data.Recent = txs
	}

	if snap, err := s.assets(ctx); err == nil {
		data.TotalAssets = snap.Total().String()
	} else {
		s.logger.ErrorContext(ctx, "load assets for dashboard failed",
			log.FieldRequestID, trace.RequestID(ctx),
			log.FieldError, err,
		)
	}

	if cats, err := s.categories(ctx); err == nil {
		for _, c := range cats {
			switch c.Type {
			case core.Income:
				data.IncomeCategories = append(data.IncomeCategories, c)
			case core.Expense:
				data.ExpenseCategories = append(data.ExpenseCategories, c)
			}
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		s.logger.ErrorContext(ctx, "dashboard template execution failed",
			log.FieldRequestID, trace.RequestID(ctx),
			log.FieldError, err,
		)
	}
}
