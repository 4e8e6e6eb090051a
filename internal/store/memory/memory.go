// Package memory provides an in-memory backend used by tests and local
// development. It mirrors the JSON-file stores without touching disk.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"moneybook/internal/core"
)

type Store struct {
	mu     sync.Mutex
	cats   []core.Category
	items  []core.Transaction
	assets core.Assets
	lastID int64
}

// New creates a store seeded with the given categories.
func New(cats []core.Category) *Store {
	return &Store{
		cats:   append([]core.Category(nil), cats...),
		assets: core.DefaultAssets(),
	}
}

func (s *Store) Append(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	t.ID = strconv.FormatInt(id, 10)
	t.CreatedAt = now
	s.items = append(s.items, t)
	return t, nil
}

func (s *Store) List(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	// Appends are already ordered by creation time; walk backwards for
	// newest first.
	for i := len(s.items) - 1; i >= 0; i-- {
		if f.Matches(s.items[i]) {
			out = append(out, s.items[i])
		}
	}
	return out, nil
}

func (s *Store) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.cats...), nil
}

func (s *Store) Assets(_ context.Context) (core.Assets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.assets
	snap.BankAccounts = append([]core.BankAccount(nil), s.assets.BankAccounts...)
	snap.Investments = append([]core.Investment(nil), s.assets.Investments...)
	snap.Other = append([]core.OtherAsset(nil), s.assets.Other...)
	return snap, nil
}

func (s *Store) SetCash(_ context.Context, c core.Cash) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Currency == "" {
		c.Currency = "KRW"
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets.Cash = c
	return nil
}

func (s *Store) AddBankAccount(_ context.Context, b core.BankAccount) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.AccountNumber = core.MaskAccountNumber(b.AccountNumber)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets.BankAccounts = append(s.assets.BankAccounts, b)
	return nil
}

func (s *Store) AddInvestment(_ context.Context, i core.Investment) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.Amount = i.Value()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets.Investments = append(s.assets.Investments, i)
	return nil
}

func (s *Store) AddOtherAsset(_ context.Context, o core.OtherAsset) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets.Other = append(s.assets.Other, o)
	return nil
}
