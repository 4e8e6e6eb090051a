package ledger

import (
	"context"

	"moneybook/internal/core"
)

// Ports for outbound adapters.
type (
	TransactionWriter interface {
		// Append persists a new ledger entry and returns it with the
		// store-assigned ID and creation timestamp filled in.
		Append(ctx context.Context, t core.Transaction) (core.Transaction, error)
	}

	TransactionLister interface {
		// List returns entries matching the filter, newest first.
		List(ctx context.Context, f core.TransactionFilter) ([]core.Transaction, error)
	}

	CategoryReader interface {
		// Categories returns the full category list. Filtering by type is the
		// caller's concern; the list is immutable reference data.
		Categories(ctx context.Context) ([]core.Category, error)
	}

	AssetReader interface {
		Assets(ctx context.Context) (core.Assets, error)
	}

	// AssetWriter mutates the asset snapshot. Records are replaced or
	// appended wholesale; there is no partial patch.
	AssetWriter interface {
		SetCash(ctx context.Context, c core.Cash) error
		AddBankAccount(ctx context.Context, b core.BankAccount) error
		AddInvestment(ctx context.Context, i core.Investment) error
		AddOtherAsset(ctx context.Context, o core.OtherAsset) error
	}
)
