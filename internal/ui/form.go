package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"moneybook/internal/core"
	"moneybook/internal/ledger"
)

// FormState is the explicit view state of the transaction form.
type FormState int

const (
	FormClosed FormState = iota
	FormOpenIncome
	FormOpenExpense
)

// Field identifies a form field, used to move focus on validation failure.
type Field string

const (
	FieldType        Field = "type"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldDate        Field = "date"
	FieldDescription Field = "description"
)

// ValidationError is a client-detected failure. It never reaches the
// network; Field names the input that should receive focus.
type ValidationError struct {
	Field   Field
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AppError is a well-formed server rejection carrying the server's message.
type AppError struct {
	Message string
}

func (e *AppError) Error() string { return e.Message }

// ErrSubmitInFlight is returned when a submission is attempted while one is
// already outstanding. The submit control is disabled for the duration.
var ErrSubmitInFlight = errors.New("submission already in flight")

// Poster sends a validated transaction to the transaction store endpoint.
// An *AppError return means the server rejected the entry; any other error
// is a transport failure.
type Poster interface {
	PostTransaction(ctx context.Context, t core.Transaction) error
}

// DefaultRefreshDelay gives the user time to read the success notification
// before the view reloads.
const DefaultRefreshDelay = 1500 * time.Millisecond

// TransactionForm drives the transaction entry workflow: open with a type,
// validate, submit, and refresh the view on success. All state is explicit
// so the controller can be exercised without a rendering runtime.
type TransactionForm struct {
	mu         sync.Mutex
	state      FormState
	categories []core.Category

	// Field values as entered.
	TypeValue   string
	Amount      string
	Category    string
	Description string
	DateValue   string

	// Options is the category selector content for the open type.
	Options []string
	// Focus is the field that should hold input focus.
	Focus Field

	submitting bool

	poster       Poster
	notifier     *Notifier
	refresh      func()
	refreshDelay time.Duration
	after        func(time.Duration, func()) *time.Timer
	today        func() core.Date
}

// NewTransactionForm wires the controller to its collaborators. refresh is
// invoked after a successful submission, delayed so the notification stays
// readable.
func NewTransactionForm(p Poster, n *Notifier, refresh func()) *TransactionForm {
	return &TransactionForm{
		poster:       p,
		notifier:     n,
		refresh:      refresh,
		refreshDelay: DefaultRefreshDelay,
		after:        time.AfterFunc,
		today:        core.Today,
	}
}

// LoadCategories fetches the category list once at startup. On failure the
// in-memory list stays empty: the selector renders without options and any
// submission fails the category validation rule instead of crashing.
func (f *TransactionForm) LoadCategories(ctx context.Context, r ledger.CategoryReader) {
	cats, err := r.Categories(ctx)
	if err != nil {
		f.notifier.Notify("카테고리를 불러오지 못했습니다.", SeverityError)
		return
	}
	f.mu.Lock()
	f.categories = cats
	f.mu.Unlock()
}

// State returns the current view state.
func (f *TransactionForm) State() FormState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Open reveals the form for one transaction type: the selector is
// repopulated with exactly that type's categories, the amount is cleared and
// focused, and the date defaults to today in the local timezone.
func (f *TransactionForm) Open(t core.TransactionType) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch t {
	case core.Income:
		f.state = FormOpenIncome
	case core.Expense:
		f.state = FormOpenExpense
	default:
		return
	}

	f.TypeValue = string(t)
	f.Options = f.Options[:0]
	for _, c := range f.categories {
		if c.Type == t {
			f.Options = append(f.Options, c.Name)
		}
	}
	f.Amount = ""
	f.Category = ""
	f.Description = ""
	f.DateValue = f.today().String()
	f.Focus = FieldAmount
}

// Close hides the form and resets every field to its default.
func (f *TransactionForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = FormClosed
	f.TypeValue = ""
	f.Amount = ""
	f.Category = ""
	f.Description = ""
	f.DateValue = f.today().String()
	f.Options = f.Options[:0]
	f.Focus = ""
}

// HandleEscape is the cancel-key dismissal side channel.
func (f *TransactionForm) HandleEscape() { f.Close() }

// HandleOutsideClick dismisses the form when the user clicks outside its
// content area.
func (f *TransactionForm) HandleOutsideClick() { f.Close() }

// Submit validates the form and, if valid, issues a single write to the
// transaction store. Validation failures return before any network call and
// move focus to the offending field. On success the form closes and the view
// refresh is scheduled; on failure the form stays open and populated for
// retry.
func (f *TransactionForm) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return ErrSubmitInFlight
	}

	tx, verr := f.buildTransaction()
	if verr != nil {
		f.Focus = verr.Field
		f.mu.Unlock()
		return verr
	}

	f.submitting = true
	f.mu.Unlock()
	defer func() {
		// Always re-enable the submit control, whatever the outcome.
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	err := f.poster.PostTransaction(ctx, tx)
	if err != nil {
		var appErr *AppError
		if errors.As(err, &appErr) {
			f.notifier.Notify(appErr.Message, SeverityError)
		} else {
			f.notifier.Notify("서버에 연결할 수 없습니다.", SeverityError)
		}
		return err
	}

	f.notifier.Notify("거래 내역이 성공적으로 추가되었습니다.", SeveritySuccess)
	f.Close()
	f.after(f.refreshDelay, f.refresh)
	return nil
}

// buildTransaction runs the validation rules in order, short-circuiting on
// the first failure. Caller holds the lock.
func (f *TransactionForm) buildTransaction() (core.Transaction, *ValidationError) {
	typ := core.TransactionType(f.TypeValue)
	if err := typ.Validate(); err != nil {
		return core.Transaction{}, &ValidationError{Field: FieldType, Message: "거래 유형이 올바르지 않습니다."}
	}

	amount, err := core.ParseAmount(f.Amount)
	if err != nil || !amount.IsPositive() {
		return core.Transaction{}, &ValidationError{Field: FieldAmount, Message: "금액은 0보다 커야 합니다."}
	}

	if strings.TrimSpace(f.Category) == "" {
		return core.Transaction{}, &ValidationError{Field: FieldCategory, Message: "카테고리를 선택해주세요."}
	}

	if strings.TrimSpace(f.DateValue) == "" {
		return core.Transaction{}, &ValidationError{Field: FieldDate, Message: "날짜를 입력해주세요."}
	}
	date, err := core.ParseDate(f.DateValue)
	if err != nil {
		return core.Transaction{}, &ValidationError{Field: FieldDate, Message: "날짜 형식이 올바르지 않습니다."}
	}

	return core.Transaction{
		Type:        typ,
		Amount:      amount,
		Category:    strings.TrimSpace(f.Category),
		Description: strings.TrimSpace(f.Description),
		Date:        date,
	}, nil
}
