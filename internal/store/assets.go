package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"moneybook/internal/core"
	"moneybook/internal/log"
)

// AssetStore holds the current asset snapshot in a single JSON file. Writes
// replace or append whole records; there is no partial patch and no delete.
type AssetStore struct {
	mu       sync.Mutex
	path     string
	snapshot core.Assets
	logger   *log.Logger
}

// NewAssetStore loads the snapshot file, seeding the empty default on first
// run. A nil logger falls back to the default store logger.
func NewAssetStore(dataDir string, logger *log.Logger) (*AssetStore, error) {
	if logger == nil {
		logger = log.New(log.ComponentStore, nil)
	}
	s := &AssetStore{path: filepath.Join(dataDir, "assets.json"), logger: logger}
	var snap core.Assets
	if err := loadJSON(s.path, &snap); err != nil {
		if !isNotExist(err) {
			return nil, fmt.Errorf("load assets: %w", err)
		}
		snap = core.DefaultAssets()
		if err := saveJSON(s.path, snap); err != nil {
			return nil, fmt.Errorf("seed assets file: %w", err)
		}
	}
	s.snapshot = snap
	return s, nil
}

// Assets returns a copy of the current snapshot.
func (s *AssetStore) Assets(_ context.Context) (core.Assets, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshot
	snap.BankAccounts = append([]core.BankAccount(nil), s.snapshot.BankAccounts...)
	snap.Investments = append([]core.Investment(nil), s.snapshot.Investments...)
	snap.Other = append([]core.OtherAsset(nil), s.snapshot.Other...)
	return snap, nil
}

// SetCash replaces the singleton cash record.
func (s *AssetStore) SetCash(ctx context.Context, c core.Cash) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Currency == "" {
		c.Currency = "KRW"
	}
	return s.update(ctx, "cash", func(snap *core.Assets) {
		snap.Cash = c
	})
}

// AddBankAccount appends an account to the collection. The account number is
// persisted masked.
func (s *AssetStore) AddBankAccount(ctx context.Context, b core.BankAccount) error {
	if err := b.Validate(); err != nil {
		return err
	}
	b.AccountNumber = core.MaskAccountNumber(b.AccountNumber)
	return s.update(ctx, "bank_account", func(snap *core.Assets) {
		snap.BankAccounts = append(snap.BankAccounts, b)
	})
}

// AddInvestment appends a position, deriving its amount from quantity and
// price when none was supplied.
func (s *AssetStore) AddInvestment(ctx context.Context, i core.Investment) error {
	if err := i.Validate(); err != nil {
		return err
	}
	i.Amount = i.Value()
	return s.update(ctx, "investment", func(snap *core.Assets) {
		snap.Investments = append(snap.Investments, i)
	})
}

// AddOtherAsset appends a free-form holding.
func (s *AssetStore) AddOtherAsset(ctx context.Context, o core.OtherAsset) error {
	if err := o.Validate(); err != nil {
		return err
	}
	return s.update(ctx, "other", func(snap *core.Assets) {
		snap.Other = append(snap.Other, o)
	})
}

func (s *AssetStore) update(ctx context.Context, kind string, mutate func(*core.Assets)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot
	next.BankAccounts = append([]core.BankAccount(nil), s.snapshot.BankAccounts...)
	next.Investments = append([]core.Investment(nil), s.snapshot.Investments...)
	next.Other = append([]core.OtherAsset(nil), s.snapshot.Other...)
	mutate(&next)

	if err := saveJSON(s.path, next); err != nil {
		return fmt.Errorf("save assets: %w", err)
	}
	s.snapshot = next

	s.logger.InfoContext(ctx, "asset snapshot updated",
		"kind", kind,
		"total", next.Total().String())
	return nil
}
