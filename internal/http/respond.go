package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"moneybook/internal/core"
)

// Every API response carries a status field: "success" or "error".
// Error responses add a human-readable message.

func respondSuccess(w http.ResponseWriter, code int, payload map[string]any) {
	body := map[string]any{"status": "success"}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, code, body)
}

func respondError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, map[string]any{
		"status":  "error",
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidType,
		core.ErrInvalidAmount,
		core.ErrEmptyCategory,
		core.ErrEmptyDate,
		core.ErrUnknownCategory,
		core.ErrEmptyAssetName,
		core.ErrNegativeAmount,
		core.ErrInvalidQuantity,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

// validationMessage maps core validation errors to the user-facing messages
// shown by the dashboard.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidType):
		return "거래 유형이 올바르지 않습니다."
	case errors.Is(err, core.ErrInvalidAmount):
		return "금액은 0보다 커야 합니다."
	case errors.Is(err, core.ErrEmptyCategory):
		return "카테고리를 선택해주세요."
	case errors.Is(err, core.ErrEmptyDate):
		return "날짜를 입력해주세요."
	case errors.Is(err, core.ErrUnknownCategory):
		return "알 수 없는 카테고리입니다."
	case errors.Is(err, core.ErrEmptyAssetName):
		return "자산 이름을 입력해주세요."
	case errors.Is(err, core.ErrNegativeAmount):
		return "금액은 0 이상이어야 합니다."
	case errors.Is(err, core.ErrInvalidQuantity):
		return "수량은 0 이상이어야 합니다."
	}
	return err.Error()
}
