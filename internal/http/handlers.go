package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"moneybook/internal/analysis"
	"moneybook/internal/core"
	"moneybook/internal/log"
	"moneybook/internal/middleware/trace"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.categories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list categories failed",
			log.FieldRequestID, trace.RequestID(r.Context()),
			log.FieldError, err,
		)
		respondError(w, http.StatusInternalServerError, "카테고리를 불러오지 못했습니다.")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{"categories": cats})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := core.TransactionFilter{
		Category: strings.TrimSpace(q.Get("category")),
		Type:     core.TransactionType(strings.TrimSpace(q.Get("type"))),
	}
	if filter.Type != "" {
		if err := filter.Type.Validate(); err != nil {
			respondError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
	}
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "시작 날짜 형식이 올바르지 않습니다.")
			return
		}
		filter.StartDate = d
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "종료 날짜 형식이 올바르지 않습니다.")
			return
		}
		filter.EndDate = d
	}

	txs, err := s.backend.List(r.Context(), filter)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions failed",
			log.FieldRequestID, trace.RequestID(r.Context()),
			log.FieldError, err,
		)
		respondError(w, http.StatusInternalServerError, "거래 내역을 불러오지 못했습니다.")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"transactions": txs,
		"count":        len(txs),
	})
}

type createTransactionRequest struct {
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "요청 형식이 올바르지 않습니다.")
		return
	}

	tx := core.Transaction{
		Type:        core.TransactionType(strings.TrimSpace(req.Type)),
		Amount:      req.Amount,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
	}
	if v := strings.TrimSpace(req.Date); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "날짜 형식이 올바르지 않습니다.")
			return
		}
		tx.Date = d
	}
	if err := tx.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	// The category must belong to the list for the transaction type.
	known, err := s.categoryKnown(r, tx.Type, tx.Category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "카테고리를 불러오지 못했습니다.")
		return
	}
	if !known {
		respondError(w, http.StatusBadRequest, validationMessage(core.ErrUnknownCategory))
		return
	}

	saved, err := s.backend.Append(r.Context(), tx)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "append transaction failed",
			log.FieldRequestID, trace.RequestID(r.Context()),
			log.FieldError, err,
		)
		respondError(w, http.StatusInternalServerError, "거래 내역을 저장하지 못했습니다.")
		return
	}

	if s.metrics != nil {
		s.metrics.TransactionsCreated.WithLabelValues(string(saved.Type)).Inc()
	}
	if s.publisher != nil {
		if err := s.publisher.PublishTransactionCreated(r.Context(), saved.ID); err != nil {
			// Export is asynchronous best-effort; the write already succeeded.
			s.logger.WarnContext(r.Context(), "publish transaction event failed",
				log.FieldTransaction, saved.ID,
				log.FieldError, err,
			)
			if s.metrics != nil {
				s.metrics.EventPublishErrors.Inc()
			}
		} else if s.metrics != nil {
			s.metrics.EventsPublished.Inc()
		}
	}

	respondSuccess(w, http.StatusCreated, map[string]any{"transaction": saved})
}

func (s *Server) categoryKnown(r *http.Request, typ core.TransactionType, name string) (bool, error) {
	cats, err := s.categories(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "load categories failed",
			log.FieldRequestID, trace.RequestID(r.Context()),
			log.FieldError, err,
		)
		return false, err
	}
	for _, c := range cats {
		if c.Type == typ && c.Name == name {
			return true, nil
		}
	}
	return false, nil
}

// handleAnalysis recomputes the report from source records on every call.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	txs, err := s.backend.List(r.Context(), core.TransactionFilter{})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions for analysis failed",
			log.FieldRequestID, trace.RequestID(r.Context()),
			log.FieldError, err,
		)
		respondError(w, http.StatusInternalServerError, "분석 데이터를 불러오지 못했습니다.")
		return
	}

	now := s.now()
	year, month := now.Year(), int(now.Month())
	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "연도 형식이 올바르지 않습니다.")
			return
		}
		year = y
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			respondError(w, http.StatusBadRequest, "월 형식이 올바르지 않습니다.")
			return
		}
		month = m
	}

	report := analysis.Build(txs)
	monthly := analysis.MonthlySummary(txs, year, month)
	if s.metrics != nil {
		s.metrics.AnalysisBuilds.Inc()
	}

	respondSuccess(w, http.StatusOK, map[string]any{
		"totals":      report.Totals,
		"by_category": report.ByCategory,
		"by_month":    report.ByMonth,
		"monthly": map[string]any{
			"year":    year,
			"month":   month,
			"income":  monthly.Income,
			"expense": monthly.Expense,
			"balance": monthly.Balance,
		},
	})
}
