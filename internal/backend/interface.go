// Package backend selects and assembles the data layer behind the HTTP
// server based on configuration.
package backend

import (
	"context"

	"moneybook/internal/ledger"
)

// Backend bundles every port the server depends on.
type Backend interface {
	ledger.TransactionWriter
	ledger.TransactionLister
	ledger.CategoryReader
	ledger.AssetReader
	ledger.AssetWriter
}

// CleanupFunc releases backend resources on shutdown.
type CleanupFunc func() error

// Result carries the assembled backend and its optional cleanup.
type Result struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration.
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*Result, error)
}

// Config holds what backend creation needs.
type Config struct {
	Type Type

	// JSON file backend
	DataDirectory string

	// SQLite backend
	SQLiteDBPath string
}

type Type string

const (
	JSONBackend   Type = "json"
	SQLiteBackend Type = "sqlite"
	MemoryBackend Type = "memory"
)

func (t Type) String() string {
	return string(t)
}

func (t Type) IsValid() bool {
	switch t {
	case JSONBackend, SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}
