// Package google exports garden activity to a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"giardino/internal/core"
	ports "giardino/internal/sheets"
)

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	transactionsSheet string
	achievementsSheet string
}

// Ensure interface conformance
var (
	_ ports.TransactionAppender = (*Client)(nil)
	_ ports.AchievementAppender = (*Client)(nil)
)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID plus service account credentials via
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS. Optional sheet names:
// GOOGLE_TRANSACTION_SHEET (default "Transactions") and
// GOOGLE_ACHIEVEMENT_SHEET (default "Achievements").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	transactionsSheet := strings.TrimSpace(os.Getenv("GOOGLE_TRANSACTION_SHEET"))
	if transactionsSheet == "" {
		transactionsSheet = "Transactions"
	}
	achievementsSheet := strings.TrimSpace(os.Getenv("GOOGLE_ACHIEVEMENT_SHEET"))
	if achievementsSheet == "" {
		achievementsSheet = "Achievements"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     spreadsheetID,
		transactionsSheet: transactionsSheet,
		achievementsSheet: achievementsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return service, nil
}

// AppendTransaction appends a row of
// [date, user, type, category, amount, description] to the transactions
// sheet.
func (c *Client) AppendTransaction(ctx context.Context, userID string, tx core.Transaction) error {
	row := []interface{}{
		tx.Date.String(),
		userID,
		string(tx.Type),
		tx.Category,
		tx.Amount.String(),
		tx.Description,
	}
	if err := c.appendRow(ctx, c.transactionsSheet, row); err != nil {
		return fmt.Errorf("append transaction %s: %w", tx.ID, err)
	}

	slog.InfoContext(ctx, "Transaction exported to Google Sheets",
		"id", tx.ID,
		"user_id", userID,
		"sheet", c.transactionsSheet)
	return nil
}

// AppendAchievement appends a row of [timestamp, user, kind, detail] to
// the achievements sheet.
func (c *Client) AppendAchievement(ctx context.Context, userID, kind, detail string) error {
	row := []interface{}{
		time.Now().UTC().Format(time.RFC3339),
		userID,
		kind,
		detail,
	}
	if err := c.appendRow(ctx, c.achievementsSheet, row); err != nil {
		return fmt.Errorf("append achievement %q: %w", kind, err)
	}

	slog.InfoContext(ctx, "Achievement exported to Google Sheets",
		"user_id", userID,
		"kind", kind,
		"sheet", c.achievementsSheet)
	return nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, row []interface{}) error {
	vr := &gsheet.ValueRange{Values: [][]interface{}{row}}
	_, err := c.svc.Spreadsheets.Values.
		Append(c.spreadsheetID, sheet+"!A:F", vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
