// Package export appends recorded transactions to a Google Sheets
// spreadsheet for offline analysis.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneybook/internal/core"
	"moneybook/internal/log"
)

// Exporter appends transaction rows to a single sheet. Columns:
// date, type, category, amount, description, transaction ID.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// New creates an exporter using service account credentials from the
// environment. Checks GOOGLE_SERVICE_ACCOUNT_JSON, then
// GOOGLE_SERVICE_ACCOUNT_FILE, then GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string, logger *log.Logger) (*Exporter, error) {
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if sheetName == "" {
		sheetName = "Transactions"
	}

	credentialsJSON, err := loadCredentials()
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

func loadCredentials() ([]byte, error) {
	if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
		return []byte(inline), nil
	}
	file := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if file == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// AppendTransaction appends one row for the transaction.
func (e *Exporter) AppendTransaction(ctx context.Context, tx core.Transaction) error {
	if e.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:F", e.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{transactionRow(tx)}}

	_, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", e.sheetName, err)
	}

	e.logger.InfoContext(ctx, "exported transaction row",
		log.FieldTransaction, tx.ID,
		"sheet", e.sheetName,
	)
	return nil
}

func transactionRow(tx core.Transaction) []any {
	return []any{
		tx.Date.String(),
		string(tx.Type),
		tx.Category,
		tx.Amount.InexactFloat64(),
		tx.Description,
		tx.ID,
	}
}
