package service

import (
	"context"
	"errors"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrMirrorDisabled is returned by the mirror used when no spreadsheet is configured
var ErrMirrorDisabled = errors.New("sheet mirror is not configured")

// SheetHeader is the first row of the mirror spreadsheet
var SheetHeader = []string{
	"ID", "CHAT_ID", "ROLE", "BRANCH", "MESSAGE", "SENTIMENT", "CRITICALITY_LEVEL", "RESOLUTION_SUGGESTION", "SUBMITTED_AT",
}

// SheetMirror copies feedback records to an external spreadsheet, best effort
type SheetMirror interface {
	EnsureHeader(ctx context.Context) error
	Append(ctx context.Context, record *model.FeedbackRecord) error
}

// SheetsMirror appends rows through the Google Sheets API
type SheetsMirror struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	log           *logger.Logger
}

// NewSheetMirror returns a Google Sheets mirror, or a no-op mirror when no
// spreadsheet is configured.
func NewSheetMirror(ctx context.Context, cfg *config.SheetsConfig, log *logger.Logger, opts ...option.ClientOption) (SheetMirror, error) {
	if !cfg.IsEnabled() {
		return noopMirror{}, nil
	}
	base := credentialOptions(cfg.Credentials)
	base = append(base, option.WithScopes(sheets.SpreadsheetsScope), option.WithUserAgent(cfg.ApplicationName))
	svc, err := sheets.NewService(ctx, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &SheetsMirror{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheetName:     cfg.SheetName,
		log:           log.With("component", "sheet_mirror"),
	}, nil
}

func credentialOptions(creds string) []option.ClientOption {
	creds = strings.TrimSpace(creds)
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

// EnsureHeader rewrites the first row if it differs from SheetHeader
func (m *SheetsMirror) EnsureHeader(ctx context.Context) error {
	headerRange := m.sheetName + "!1:1"
	resp, err := m.svc.Spreadsheets.Values.Get(m.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read sheet header: %w", err)
	}
	if len(resp.Values) > 0 && headerMatches(resp.Values[0]) {
		m.log.Info("sheet header already correct")
		return nil
	}

	m.log.Info("sheet header missing or incorrect, rewriting")
	header := make([]interface{}, len(SheetHeader))
	for i, h := range SheetHeader {
		header[i] = h
	}
	body := &sheets.ValueRange{Values: [][]interface{}{header}}
	_, err = m.svc.Spreadsheets.Values.Update(m.spreadsheetID, headerRange, body).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("write sheet header: %w", err)
	}
	return nil
}

func headerMatches(row []interface{}) bool {
	if len(row) != len(SheetHeader) {
		return false
	}
	for i := range row {
		if fmt.Sprint(row[i]) != SheetHeader[i] {
			return false
		}
	}
	return true
}

// Append adds one row for the record. It is attempted exactly once.
func (m *SheetsMirror) Append(ctx context.Context, record *model.FeedbackRecord) error {
	body := &sheets.ValueRange{Values: [][]interface{}{SheetRow(record)}}
	_, err := m.svc.Spreadsheets.Values.Append(m.spreadsheetID, m.sheetName+"!A:I", body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append sheet row: %w", err)
	}
	return nil
}

// SheetRow lays out a record in SheetHeader order
func SheetRow(r *model.FeedbackRecord) []interface{} {
	return []interface{}{
		r.ID,
		r.ChatID,
		string(r.Role),
		r.Branch,
		r.Message,
		string(r.Sentiment),
		r.CriticalityLevel,
		r.ResolutionSuggestion,
		r.SubmittedAt.Format(time.RFC3339),
	}
}

type noopMirror struct{}

func (noopMirror) EnsureHeader(context.Context) error { return nil }

func (noopMirror) Append(context.Context, *model.FeedbackRecord) error {
	return ErrMirrorDisabled
}
