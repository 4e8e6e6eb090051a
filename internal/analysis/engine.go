// Package analysis derives aggregate reports from the transaction ledger.
// Reports are recomputed from source records on every request; nothing here
// is persisted or cached.
package analysis

import (
	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

type (
	// Totals carries overall income, expense and their balance.
	Totals struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
		Balance decimal.Decimal `json:"balance"`
	}

	// Breakdown is an income/expense pair for one grouping bucket.
	Breakdown struct {
		Income  decimal.Decimal `json:"income"`
		Expense decimal.Decimal `json:"expense"`
	}

	// Report is the full aggregate view over a set of transactions.
	Report struct {
		Totals     Totals               `json:"totals"`
		ByCategory map[string]Breakdown `json:"by_category"`
		ByMonth    map[string]Breakdown `json:"by_month"`
	}
)

func zeroBreakdown() Breakdown {
	return Breakdown{Income: decimal.Zero, Expense: decimal.Zero}
}

// Build computes the report for the given transactions. An empty input is
// valid and yields all-zero totals with empty groupings.
func Build(txs []core.Transaction) Report {
	r := Report{
		Totals: Totals{
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Balance: decimal.Zero,
		},
		ByCategory: map[string]Breakdown{},
		ByMonth:    map[string]Breakdown{},
	}

	for _, t := range txs {
		cat, ok := r.ByCategory[t.Category]
		if !ok {
			cat = zeroBreakdown()
		}
		month, ok := r.ByMonth[t.Date.MonthKey()]
		if !ok {
			month = zeroBreakdown()
		}

		switch t.Type {
		case core.Income:
			r.Totals.Income = r.Totals.Income.Add(t.Amount)
			cat.Income = cat.Income.Add(t.Amount)
			month.Income = month.Income.Add(t.Amount)
		case core.Expense:
			r.Totals.Expense = r.Totals.Expense.Add(t.Amount)
			cat.Expense = cat.Expense.Add(t.Amount)
			month.Expense = month.Expense.Add(t.Amount)
		}

		r.ByCategory[t.Category] = cat
		r.ByMonth[t.Date.MonthKey()] = month
	}

	r.Totals.Balance = r.Totals.Income.Sub(r.Totals.Expense)
	return r
}

// MonthlySummary computes income/expense/balance for one calendar month.
func MonthlySummary(txs []core.Transaction, year, month int) Totals {
	t := Totals{Income: decimal.Zero, Expense: decimal.Zero, Balance: decimal.Zero}
	for _, tx := range txs {
		if tx.Date.Year() != year || int(tx.Date.Month()) != month {
			continue
		}
		switch tx.Type {
		case core.Income:
			t.Income = t.Income.Add(tx.Amount)
		case core.Expense:
			t.Expense = t.Expense.Add(tx.Amount)
		}
	}
	t.Balance = t.Income.Sub(t.Expense)
	return t
}
