package store

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"moneybook/internal/core"
)

// CategoryStore holds the immutable category lists, loaded once from its
// JSON file. When the file is absent the default set is seeded.
type CategoryStore struct {
	mu    sync.Mutex
	path  string
	items []core.Category
}

// NewCategoryStore loads categories from dataDir/categories.json, seeding
// the default set when the file does not exist.
func NewCategoryStore(dataDir string) (*CategoryStore, error) {
	s := &CategoryStore{path: filepath.Join(dataDir, "categories.json")}
	var items []core.Category
	if err := loadJSON(s.path, &items); err != nil {
		if !isNotExist(err) {
			return nil, fmt.Errorf("load categories: %w", err)
		}
		items = core.DefaultCategories()
		if err := saveJSON(s.path, items); err != nil {
			return nil, fmt.Errorf("seed categories file: %w", err)
		}
	}
	s.items = items
	return s, nil
}

// Categories returns a copy of the full list.
func (s *CategoryStore) Categories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Category(nil), s.items...), nil
}

// ByType returns the categories matching one transaction type.
func (s *CategoryStore) ByType(ctx context.Context, typ core.TransactionType) ([]core.Category, error) {
	all, err := s.Categories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Category, 0, len(all))
	for _, c := range all {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

// Contains reports whether name belongs to the category list for typ.
func (s *CategoryStore) Contains(ctx context.Context, typ core.TransactionType, name string) (bool, error) {
	byType, err := s.ByType(ctx, typ)
	if err != nil {
		return false, err
	}
	for _, c := range byType {
		if c.Name == name {
			return true, nil
		}
	}
	return false, nil
}
