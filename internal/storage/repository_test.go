package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
	"moneybook/internal/log"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "moneybook.db"), log.New(log.ComponentStore, nil))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAppendAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	tx := core.Transaction{
		Type:        core.Expense,
		Amount:      decimal.NewFromInt(5000),
		Category:    "식비",
		Description: "점심",
		Date:        core.NewDate(2026, 3, 1),
	}
	saved, err := repo.Append(ctx, tx)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Fatalf("append must assign ID and timestamp: %+v", saved)
	}

	listed, err := repo.List(ctx, core.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d entries, want 1", len(listed))
	}
	got := listed[0]
	if got.ID != saved.ID || got.Category != "식비" || !got.Amount.Equal(tx.Amount) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Date.String() != "2026-03-01" {
		t.Fatalf("date round trip: %s", got.Date)
	}
}

func TestAppendRejectsInvalid(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.Append(context.Background(), core.Transaction{
		Type:     core.Expense,
		Amount:   decimal.Zero,
		Category: "식비",
		Date:     core.NewDate(2026, 3, 1),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestIDsUniqueUnderFrozenClock(t *testing.T) {
	repo := newTestRepo(t)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return frozen }

	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		saved, err := repo.Append(context.Background(), core.Transaction{
			Type:     core.Income,
			Amount:   decimal.NewFromInt(1000),
			Category: "급여",
			Date:     core.NewDate(2026, 3, 1),
		})
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if seen[saved.ID] {
			t.Fatalf("duplicate ID %s", saved.ID)
		}
		seen[saved.ID] = true
	}
}

func TestListFilters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []core.Transaction{
		{Type: core.Income, Amount: decimal.NewFromInt(3000000), Category: "급여", Date: core.NewDate(2026, 2, 25)},
		{Type: core.Expense, Amount: decimal.NewFromInt(5000), Category: "식비", Date: core.NewDate(2026, 3, 1)},
		{Type: core.Expense, Amount: decimal.NewFromInt(1500), Category: "교통비", Date: core.NewDate(2026, 3, 2)},
	}
	for _, e := range entries {
		if _, err := repo.Append(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	byType, err := repo.List(ctx, core.TransactionFilter{Type: core.Expense})
	if err != nil {
		t.Fatalf("list by type: %v", err)
	}
	if len(byType) != 2 {
		t.Fatalf("expense filter returned %d, want 2", len(byType))
	}

	byCategory, err := repo.List(ctx, core.TransactionFilter{Category: "식비"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory[0].Category != "식비" {
		t.Fatalf("category filter: %+v", byCategory)
	}

	byRange, err := repo.List(ctx, core.TransactionFilter{
		StartDate: core.NewDate(2026, 3, 1),
		EndDate:   core.NewDate(2026, 3, 31),
	})
	if err != nil {
		t.Fatalf("list by range: %v", err)
	}
	if len(byRange) != 2 {
		t.Fatalf("range filter returned %d, want 2", len(byRange))
	}
}

func TestCategoriesSeeded(t *testing.T) {
	repo := newTestRepo(t)
	cats, err := repo.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 12 {
		t.Fatalf("seeded %d categories, want 12", len(cats))
	}
	if cats[0].Name != "급여" || cats[0].Type != core.Income {
		t.Fatalf("first category: %+v", cats[0])
	}
	if cats[4].Name != "식비" || cats[4].Type != core.Expense {
		t.Fatalf("fifth category: %+v", cats[4])
	}
}

func TestAssetWrites(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SetCash(ctx, core.Cash{Name: "비상금", Amount: decimal.NewFromInt(50000)}); err != nil {
		t.Fatalf("set cash: %v", err)
	}
	if err := repo.AddBankAccount(ctx, core.BankAccount{
		Name: "주거래", Amount: decimal.NewFromInt(1000000), AccountNumber: "110-234-567890",
	}); err != nil {
		t.Fatalf("add account: %v", err)
	}
	if err := repo.AddInvestment(ctx, core.Investment{
		Name: "삼성전자", Quantity: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(70000),
	}); err != nil {
		t.Fatalf("add investment: %v", err)
	}
	if err := repo.AddOtherAsset(ctx, core.OtherAsset{
		Name: "금", Type: "귀금속", Amount: decimal.NewFromInt(300000),
	}); err != nil {
		t.Fatalf("add other: %v", err)
	}

	snap, err := repo.Assets(ctx)
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	if snap.Cash.Name != "비상금" || snap.Cash.Currency != "KRW" {
		t.Fatalf("cash: %+v", snap.Cash)
	}
	if len(snap.BankAccounts) != 1 || snap.BankAccounts[0].AccountNumber != "*********7890" {
		t.Fatalf("account must be stored masked: %+v", snap.BankAccounts)
	}
	if len(snap.Investments) != 1 || !snap.Investments[0].Amount.Equal(decimal.NewFromInt(700000)) {
		t.Fatalf("investment amount must derive from quantity and price: %+v", snap.Investments)
	}
	want := decimal.NewFromInt(50000 + 1000000 + 700000 + 300000)
	if !snap.Total().Equal(want) {
		t.Fatalf("total %s, want %s", snap.Total(), want)
	}
}

func TestRepositoryReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "moneybook.db")
	logger := log.New(log.ComponentStore, nil)

	repo, err := NewSQLiteRepository(dbPath, logger)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	saved, err := repo.Append(context.Background(), core.Transaction{
		Type: core.Income, Amount: decimal.NewFromInt(1000), Category: "급여", Date: core.NewDate(2026, 3, 1),
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	repo.Close()

	reopened, err := NewSQLiteRepository(dbPath, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	listed, err := reopened.List(context.Background(), core.TransactionFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != saved.ID {
		t.Fatalf("reopened data: %+v", listed)
	}
}
