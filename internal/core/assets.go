package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Cash is the singleton cash holding.
	Cash struct {
		Name     string          `json:"name"`
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}

	// BankAccount is one entry of the ordered account collection. The account
	// number is stored masked; only the trailing digits stay visible.
	BankAccount struct {
		Name          string          `json:"name"`
		Amount        decimal.Decimal `json:"amount"`
		AccountNumber string          `json:"account_number,omitempty"`
	}

	// Investment holds a priced position. Amount is quantity × current price
	// unless supplied independently.
	Investment struct {
		Name         string          `json:"name"`
		Quantity     decimal.Decimal `json:"quantity"`
		CurrentPrice decimal.Decimal `json:"current_price"`
		Amount       decimal.Decimal `json:"amount"`
	}

	// OtherAsset covers holdings outside the fixed kinds.
	OtherAsset struct {
		Name   string          `json:"name"`
		Type   string          `json:"type"`
		Amount decimal.Decimal `json:"amount"`
	}

	// Assets is the current snapshot across all asset kinds. Records are
	// replaced wholesale, never patched.
	Assets struct {
		Cash         Cash          `json:"cash"`
		BankAccounts []BankAccount `json:"bank_accounts"`
		Investments  []Investment  `json:"investments"`
		Other        []OtherAsset  `json:"other"`
	}
)

var (
	ErrEmptyAssetName  = errors.New("asset name is required")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
)

// DefaultAssets returns the empty snapshot persisted on first run.
func DefaultAssets() Assets {
	return Assets{
		Cash:         Cash{Name: "현금", Amount: decimal.Zero, Currency: "KRW"},
		BankAccounts: []BankAccount{},
		Investments:  []Investment{},
		Other:        []OtherAsset{},
	}
}

// MaskAccountNumber hides all but the last four digits of an account number.
// Separators are dropped; an empty input stays empty.
func MaskAccountNumber(num string) string {
	digits := make([]rune, 0, len(num))
	for _, r := range num {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	visible := 4
	if len(digits) <= visible {
		return string(digits)
	}
	return strings.Repeat("*", len(digits)-visible) + string(digits[len(digits)-visible:])
}

func (c Cash) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyAssetName
	}
	if c.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (b BankAccount) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyAssetName
	}
	if b.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyAssetName
	}
	if i.Quantity.IsNegative() {
		return ErrInvalidQuantity
	}
	if i.CurrentPrice.IsNegative() || i.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Value returns the position amount, deriving quantity × current price when
// no independent amount was supplied.
func (i Investment) Value() decimal.Decimal {
	if !i.Amount.IsZero() {
		return i.Amount
	}
	return i.Quantity.Mul(i.CurrentPrice)
}

func (o OtherAsset) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrEmptyAssetName
	}
	if o.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// Total sums the snapshot across every asset kind.
func (a Assets) Total() decimal.Decimal {
	total := a.Cash.Amount
	for _, acc := range a.BankAccounts {
		total = total.Add(acc.Amount)
	}
	for _, inv := range a.Investments {
		total = total.Add(inv.Value())
	}
	for _, o := range a.Other {
		total = total.Add(o.Amount)
	}
	return total
}
