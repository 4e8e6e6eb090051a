package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/log"
)

// TransactionStore is the append-only ledger backed by a single JSON file.
// Entries are immutable once appended.
type TransactionStore struct {
	mu     sync.Mutex
	path   string
	items  []core.Transaction
	lastID int64
	logger *log.Logger
	now    func() time.Time
}

// NewTransactionStore loads the ledger file, creating an empty one on first
// run. A nil logger falls back to the default store logger.
func NewTransactionStore(dataDir string, logger *log.Logger) (*TransactionStore, error) {
	if logger == nil {
		logger = log.New(log.ComponentStore, nil)
	}
	s := &TransactionStore{
		path:   filepath.Join(dataDir, "transactions.json"),
		logger: logger,
		now:    time.Now,
	}
	var items []core.Transaction
	if err := loadJSON(s.path, &items); err != nil {
		if !isNotExist(err) {
			return nil, fmt.Errorf("load transactions: %w", err)
		}
		items = []core.Transaction{}
		if err := saveJSON(s.path, items); err != nil {
			return nil, fmt.Errorf("seed transactions file: %w", err)
		}
	}
	s.items = items
	for _, t := range items {
		if id, err := strconv.ParseInt(t.ID, 10, 64); err == nil && id > s.lastID {
			s.lastID = id
		}
	}
	return s, nil
}

// Append validates, assigns a timestamp-derived ID and persists the entry.
func (s *TransactionStore) Append(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	id := now.UnixMilli()
	// IDs must stay unique per store; bump past the last one on collision.
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id

	t.ID = strconv.FormatInt(id, 10)
	t.CreatedAt = now

	s.items = append(s.items, t)
	if err := saveJSON(s.path, s.items); err != nil {
		s.items = s.items[:len(s.items)-1]
		return core.Transaction{}, fmt.Errorf("save transactions: %w", err)
	}

	s.logger.InfoContext(ctx, "transaction appended",
		log.FieldTransaction, t.ID,
		"type", string(t.Type),
		log.FieldAmount, t.Amount.String(),
		log.FieldCategory, t.Category,
		"date", t.Date.String())

	return t, nil
}

// List returns entries matching the filter, newest first by creation time.
func (s *TransactionStore) List(_ context.Context, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
