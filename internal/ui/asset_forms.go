package ui

import (
	"errors"

	"github.com/shopspring/decimal"

	"moneybook/internal/core"
)

// Prompter collects one field value. ok is false when the user cancels.
type Prompter interface {
	Prompt(label string) (value string, ok bool)
}

var (
	// ErrAborted is returned when the user cancels the workflow or leaves
	// the name empty; nothing is collected or written.
	ErrAborted = errors.New("asset entry aborted")

	// ErrPendingWrite marks the asset form submissions that are not yet
	// wired to the asset store endpoints. The forms collect and validate
	// input but deliberately stop short of writing; see the asset endpoints
	// for the server-side surface that will back them.
	ErrPendingWrite = errors.New("asset form submission not yet wired")
)

const pendingNotice = "아직 구현되지 않은 기능입니다."

// promptName asks for the asset name first; an empty or cancelled name
// aborts the whole operation.
func promptName(p Prompter, label string) (string, error) {
	name, ok := p.Prompt(label)
	if !ok || name == "" {
		return "", ErrAborted
	}
	return name, nil
}

// promptDecimal re-prompts until the input parses as a number or the user
// cancels.
func promptDecimal(p Prompter, label string) (decimal.Decimal, error) {
	for {
		raw, ok := p.Prompt(label)
		if !ok {
			return decimal.Zero, ErrAborted
		}
		if d, err := core.ParseAmount(raw); err == nil {
			return d, nil
		}
	}
}

// CashForm collects the singleton cash record.
type CashForm struct {
	prompter Prompter
	notifier *Notifier
}

func NewCashForm(p Prompter, n *Notifier) *CashForm {
	return &CashForm{prompter: p, notifier: n}
}

func (f *CashForm) Run() (core.Cash, error) {
	name, err := promptName(f.prompter, "자산 이름")
	if err != nil {
		return core.Cash{}, err
	}
	amount, err := promptDecimal(f.prompter, "금액")
	if err != nil {
		return core.Cash{}, err
	}

	f.notifier.Notify(pendingNotice, SeverityInfo)
	return core.Cash{Name: name, Amount: amount, Currency: "KRW"}, ErrPendingWrite
}

// BankAccountForm collects one bank account entry.
type BankAccountForm struct {
	prompter Prompter
	notifier *Notifier
}

func NewBankAccountForm(p Prompter, n *Notifier) *BankAccountForm {
	return &BankAccountForm{prompter: p, notifier: n}
}

func (f *BankAccountForm) Run() (core.BankAccount, error) {
	name, err := promptName(f.prompter, "은행 이름")
	if err != nil {
		return core.BankAccount{}, err
	}
	amount, err := promptDecimal(f.prompter, "잔액")
	if err != nil {
		return core.BankAccount{}, err
	}
	// Account number is optional; cancel means leave it unset.
	number, _ := f.prompter.Prompt("계좌번호 (선택)")

	f.notifier.Notify(pendingNotice, SeverityInfo)
	return core.BankAccount{
		Name:          name,
		Amount:        amount,
		AccountNumber: core.MaskAccountNumber(number),
	}, ErrPendingWrite
}

// InvestmentForm collects one investment position.
type InvestmentForm struct {
	prompter Prompter
	notifier *Notifier
}

func NewInvestmentForm(p Prompter, n *Notifier) *InvestmentForm {
	return &InvestmentForm{prompter: p, notifier: n}
}

func (f *InvestmentForm) Run() (core.Investment, error) {
	name, err := promptName(f.prompter, "종목 이름")
	if err != nil {
		return core.Investment{}, err
	}
	quantity, err := promptDecimal(f.prompter, "수량")
	if err != nil {
		return core.Investment{}, err
	}
	price, err := promptDecimal(f.prompter, "현재가")
	if err != nil {
		return core.Investment{}, err
	}

	f.notifier.Notify(pendingNotice, SeverityInfo)
	inv := core.Investment{Name: name, Quantity: quantity, CurrentPrice: price}
	inv.Amount = inv.Value()
	return inv, ErrPendingWrite
}

// OtherAssetForm collects one free-form holding.
type OtherAssetForm struct {
	prompter Prompter
	notifier *Notifier
}

func NewOtherAssetForm(p Prompter, n *Notifier) *OtherAssetForm {
	return &OtherAssetForm{prompter: p, notifier: n}
}

func (f *OtherAssetForm) Run() (core.OtherAsset, error) {
	name, err := promptName(f.prompter, "자산 이름")
	if err != nil {
		return core.OtherAsset{}, err
	}
	label, ok := f.prompter.Prompt("자산 종류")
	if !ok {
		return core.OtherAsset{}, ErrAborted
	}
	amount, err := promptDecimal(f.prompter, "금액")
	if err != nil {
		return core.OtherAsset{}, err
	}

	f.notifier.Notify(pendingNotice, SeverityInfo)
	return core.OtherAsset{Name: name, Type: label, Amount: amount}, ErrPendingWrite
}
