package http

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	"moneybook/internal/log"
	"moneybook/internal/middleware/trace"
)

func (s *Server) handleGetAssets(w http.ResponseWriter, r *http.Request) {
	snap, err := s.assets(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "load assets failed",
			log.FieldRequestID, trace.RequestID(r.Context()),
			log.FieldError, err,
		)
		respondError(w, http.StatusInternalServerError, "자산 정보를 불러오지 못했습니다.")
		return
	}
	respondSuccess(w, http.StatusOK, map[string]any{
		"assets":       snap,
		"total_assets": snap.Total(),
	})
}

func (s *Server) handleSetCash(w http.ResponseWriter, r *http.Request) {
	var req core.Cash
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "요청 형식이 올바르지 않습니다.")
		return
	}
	if err := s.backend.SetCash(r.Context(), req); err != nil {
		s.respondAssetWriteError(w, r, "set cash", err)
		return
	}
	s.assetCache.Delete(assetSnapshotKey)
	respondSuccess(w, http.StatusOK, nil)
}

type addBankAccountRequest struct {
	Name          string          `json:"name"`
	Amount        decimal.Decimal `json:"amount"`
	AccountNumber string          `json:"account_number"`
}

func (s *Server) handleAddBankAccount(w http.ResponseWriter, r *http.Request) {
	var req addBankAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "요청 형식이 올바르지 않습니다.")
		return
	}
	account := core.BankAccount{
		Name:          req.Name,
		Amount:        req.Amount,
		AccountNumber: req.AccountNumber,
	}
	if err := s.backend.AddBankAccount(r.Context(), account); err != nil {
		s.respondAssetWriteError(w, r, "add bank account", err)
		return
	}
	s.assetCache.Delete(assetSnapshotKey)
	respondSuccess(w, http.StatusCreated, nil)
}

func (s *Server) handleAddInvestment(w http.ResponseWriter, r *http.Request) {
	var req core.Investment
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "요청 형식이 올바르지 않습니다.")
		return
	}
	if err := s.backend.AddInvestment(r.Context(), req); err != nil {
		s.respondAssetWriteError(w, r, "add investment", err)
		return
	}
	s.assetCache.Delete(assetSnapshotKey)
	respondSuccess(w, http.StatusCreated, nil)
}

func (s *Server) handleAddOtherAsset(w http.ResponseWriter, r *http.Request) {
	var req core.OtherAsset
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "요청 형식이 올바르지 않습니다.")
		return
	}
	if err := s.backend.AddOtherAsset(r.Context(), req); err != nil {
		s.respondAssetWriteError(w, r, "add other asset", err)
		return
	}
	s.assetCache.Delete(assetSnapshotKey)
	respondSuccess(w, http.StatusCreated, nil)
}

func (s *Server) respondAssetWriteError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if isValidationError(err) {
		respondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}
	s.logger.ErrorContext(r.Context(), op+" failed",
		log.FieldRequestID, trace.RequestID(r.Context()),
		log.FieldError, err,
	)
	respondError(w, http.StatusInternalServerError, "자산 정보를 저장하지 못했습니다.")
}
