package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/log"
	"moneybook/internal/metrics"
	"moneybook/internal/store/memory"
)

type capturingPublisher struct {
	ids []string
}

func (p *capturingPublisher) PublishTransactionCreated(_ context.Context, id string) error {
	p.ids = append(p.ids, id)
	return nil
}

func newTestServer(t *testing.T) (*Server, *capturingPublisher) {
	t.Helper()
	publisher := &capturingPublisher{}
	s := NewServer("127.0.0.1:0", memory.New(core.DefaultCategories()), publisher,
		log.New(log.ComponentHTTP, nil), metrics.New(), time.Second)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s, publisher
}

func doJSON(t *testing.T, s *Server, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(rec, req)

	var parsed map[string]any
	if strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("parse response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, parsed
}

func TestListCategories(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodGet, "/categories", nil)

	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("status %d body %v", rec.Code, body)
	}
	cats := body["categories"].([]any)
	if len(cats) != 12 {
		t.Fatalf("got %d categories, want 12", len(cats))
	}
	first := cats[0].(map[string]any)
	if first["name"] != "급여" || first["type"] != "income" {
		t.Fatalf("first category: %v", first)
	}
}

// Submitting an expense and listing it back is the core flow of the API.
func TestCreateAndListTransaction(t *testing.T) {
	s, publisher := newTestServer(t)

	rec, body := doJSON(t, s, http.MethodPost, "/transactions", map[string]any{
		"type":        "expense",
		"amount":      5000,
		"category":    "식비",
		"description": "점심식사",
		"date":        "2025-09-03",
	})
	if rec.Code != http.StatusCreated || body["status"] != "success" {
		t.Fatalf("status %d body %v", rec.Code, body)
	}
	created := body["transaction"].(map[string]any)
	if created["id"] == "" {
		t.Fatal("created transaction must carry an ID")
	}
	if len(publisher.ids) != 1 {
		t.Fatalf("expected one published event, got %v", publisher.ids)
	}

	rec, body = doJSON(t, s, http.MethodGet, "/transactions", nil)
	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("status %d body %v", rec.Code, body)
	}
	txs := body["transactions"].([]any)
	if len(txs) != 1 || body["count"].(float64) != 1 {
		t.Fatalf("listed: %v count %v", txs, body["count"])
	}
	tx := txs[0].(map[string]any)
	if tx["amount"].(float64) != 5000 || tx["category"] != "식비" ||
		tx["type"] != "expense" || tx["date"] != "2025-09-03" {
		t.Fatalf("round trip mismatch: %v", tx)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s, publisher := newTestServer(t)

	cases := []struct {
		name    string
		payload map[string]any
		message string
	}{
		{
			"bad type",
			map[string]any{"type": "transfer", "amount": 100, "category": "식비", "date": "2026-03-01"},
			"거래 유형이 올바르지 않습니다.",
		},
		{
			"zero amount",
			map[string]any{"type": "expense", "amount": 0, "category": "식비", "date": "2026-03-01"},
			"금액은 0보다 커야 합니다.",
		},
		{
			"missing category",
			map[string]any{"type": "expense", "amount": 100, "date": "2026-03-01"},
			"카테고리를 선택해주세요.",
		},
		{
			"missing date",
			map[string]any{"type": "expense", "amount": 100, "category": "식비"},
			"날짜를 입력해주세요.",
		},
		{
			"unknown category for type",
			map[string]any{"type": "income", "amount": 100, "category": "식비", "date": "2026-03-01"},
			"알 수 없는 카테고리입니다.",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := doJSON(t, s, http.MethodPost, "/transactions", tc.payload)
			if rec.Code != http.StatusBadRequest || body["status"] != "error" {
				t.Fatalf("status %d body %v", rec.Code, body)
			}
			if body["message"] != tc.message {
				t.Fatalf("message %q, want %q", body["message"], tc.message)
			}
		})
	}
	if len(publisher.ids) != 0 {
		t.Fatalf("rejected submissions must not publish events: %v", publisher.ids)
	}
}

func TestListTransactionsFilters(t *testing.T) {
	s, _ := newTestServer(t)

	for _, payload := range []map[string]any{
		{"type": "income", "amount": 3000000, "category": "급여", "date": "2026-02-25"},
		{"type": "expense", "amount": 5000, "category": "식비", "date": "2026-03-01"},
		{"type": "expense", "amount": 1500, "category": "교통비", "date": "2026-03-02"},
	} {
		rec, _ := doJSON(t, s, http.MethodPost, "/transactions", payload)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", rec.Code)
		}
	}

	rec, body := doJSON(t, s, http.MethodGet, "/transactions?type=expense&start_date=2026-03-01&end_date=2026-03-31", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if body["count"].(float64) != 2 {
		t.Fatalf("count %v, want 2", body["count"])
	}

	rec, body = doJSON(t, s, http.MethodGet, "/transactions?category=식비", nil)
	if rec.Code != http.StatusOK || body["count"].(float64) != 1 {
		t.Fatalf("category filter: status %d body %v", rec.Code, body)
	}

	rec, body = doJSON(t, s, http.MethodGet, "/transactions?start_date=03-01-2026", nil)
	if rec.Code != http.StatusBadRequest || body["status"] != "error" {
		t.Fatalf("malformed date must be rejected: %d %v", rec.Code, body)
	}
}

func TestAnalysisEmptyLedger(t *testing.T) {
	s, _ := newTestServer(t)
	rec, body := doJSON(t, s, http.MethodGet, "/analysis", nil)

	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("status %d body %v", rec.Code, body)
	}
	totals := body["totals"].(map[string]any)
	for _, field := range []string{"income", "expense", "balance"} {
		if totals[field].(float64) != 0 {
			t.Fatalf("empty ledger must yield zero %s: %v", field, totals)
		}
	}
	if len(body["by_category"].(map[string]any)) != 0 {
		t.Fatalf("by_category must be an empty object: %v", body["by_category"])
	}
}

func TestAnalysisAggregates(t *testing.T) {
	s, _ := newTestServer(t)

	for _, payload := range []map[string]any{
		{"type": "income", "amount": 3000000, "category": "급여", "date": "2026-03-25"},
		{"type": "expense", "amount": 5000, "category": "식비", "date": "2026-03-01"},
		{"type": "expense", "amount": 7000, "category": "식비", "date": "2026-03-02"},
	} {
		rec, _ := doJSON(t, s, http.MethodPost, "/transactions", payload)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seed failed: %d", rec.Code)
		}
	}

	rec, body := doJSON(t, s, http.MethodGet, "/analysis?year=2026&month=3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	totals := body["totals"].(map[string]any)
	if totals["income"].(float64) != 3000000 || totals["expense"].(float64) != 12000 {
		t.Fatalf("totals: %v", totals)
	}
	byCategory := body["by_category"].(map[string]any)
	food := byCategory["식비"].(map[string]any)
	if food["expense"].(float64) != 12000 {
		t.Fatalf("food breakdown: %v", food)
	}
	monthly := body["monthly"].(map[string]any)
	if monthly["balance"].(float64) != 2988000 {
		t.Fatalf("monthly: %v", monthly)
	}

	rec, body = doJSON(t, s, http.MethodGet, "/analysis?month=13", nil)
	if rec.Code != http.StatusBadRequest || body["status"] != "error" {
		t.Fatalf("month out of range must be rejected: %d %v", rec.Code, body)
	}
}

func TestAssetEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec, _ := doJSON(t, s, http.MethodPost, "/assets/cash", map[string]any{
		"name": "비상금", "amount": 50000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set cash: %d", rec.Code)
	}
	rec, _ = doJSON(t, s, http.MethodPost, "/assets/bank-accounts", map[string]any{
		"name": "주거래", "amount": 1000000, "account_number": "110-234-567890",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add account: %d", rec.Code)
	}
	rec, _ = doJSON(t, s, http.MethodPost, "/assets/investments", map[string]any{
		"name": "삼성전자", "quantity": 10, "current_price": 70000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add investment: %d", rec.Code)
	}
	rec, _ = doJSON(t, s, http.MethodPost, "/assets/other", map[string]any{
		"name": "금", "type": "귀금속", "amount": 300000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add other: %d", rec.Code)
	}

	rec, body := doJSON(t, s, http.MethodGet, "/assets", nil)
	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("get assets: %d %v", rec.Code, body)
	}
	if body["total_assets"].(float64) != 50000+1000000+700000+300000 {
		t.Fatalf("total_assets: %v", body["total_assets"])
	}
	snap := body["assets"].(map[string]any)
	accounts := snap["bank_accounts"].([]any)
	if accounts[0].(map[string]any)["account_number"] != "*********7890" {
		t.Fatalf("account number must be masked: %v", accounts[0])
	}
}

func TestAssetSnapshotCacheInvalidatedOnWrite(t *testing.T) {
	s, _ := newTestServer(t)

	// Prime the snapshot cache.
	rec, body := doJSON(t, s, http.MethodGet, "/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get assets: %d", rec.Code)
	}
	if body["total_assets"].(float64) != 0 {
		t.Fatalf("expected empty snapshot, got %v", body["total_assets"])
	}

	rec, _ = doJSON(t, s, http.MethodPost, "/assets/cash", map[string]any{
		"name": "현금", "amount": 10000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("set cash: %d", rec.Code)
	}

	// The write must be visible immediately, not after the cache TTL.
	rec, body = doJSON(t, s, http.MethodGet, "/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get assets after write: %d", rec.Code)
	}
	if body["total_assets"].(float64) != 10000 {
		t.Fatalf("stale snapshot served after write: %v", body["total_assets"])
	}
}

func TestAssetValidationErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := doJSON(t, s, http.MethodPost, "/assets/cash", map[string]any{
		"name": "", "amount": 100,
	})
	if rec.Code != http.StatusBadRequest || body["message"] != "자산 이름을 입력해주세요." {
		t.Fatalf("empty name: %d %v", rec.Code, body)
	}

	rec, body = doJSON(t, s, http.MethodPost, "/assets/other", map[string]any{
		"name": "금", "amount": -5,
	})
	if rec.Code != http.StatusBadRequest || body["message"] != "금액은 0 이상이어야 합니다." {
		t.Fatalf("negative amount: %d %v", rec.Code, body)
	}
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	rec, body := doJSON(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK || body["status"] != "success" {
		t.Fatalf("health: %d %v", rec.Code, body)
	}

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.Server.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t)

	rec, _ := doJSON(t, s, http.MethodPost, "/transactions", map[string]any{
		"type": "expense", "amount": 5000, "category": "식비", "date": "2026-03-01",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("seed: %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	s.Server.Handler.ServeHTTP(mrec, req)
	if mrec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", mrec.Code)
	}
	if !strings.Contains(mrec.Body.String(), "moneybook_transactions_created_total") {
		t.Fatal("metrics output must include transaction counter")
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s, _ := newTestServer(t)
	rec, _ := doJSON(t, s, http.MethodGet, "/health", nil)

	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing X-Content-Type-Options header")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("missing request ID header")
	}
}
