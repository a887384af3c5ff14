package service

import (
	"context"
	"encoding/json"
	"errors"
	"feedbackbot/internal/config"
	"feedbackbot/internal/logger"
	"feedbackbot/internal/model"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/api/option"
)

type sheetsCall struct {
	Method string
	Path   string
	Query  string
	Body   map[string]interface{}
}

type fakeSheetsAPI struct {
	mu     sync.Mutex
	calls  []sheetsCall
	header []interface{}
	status int
}

func (f *fakeSheetsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, _ := io.ReadAll(r.Body)
	var body map[string]interface{}
	json.Unmarshal(raw, &body)
	f.calls = append(f.calls, sheetsCall{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 {
		w.WriteHeader(f.status)
		io.WriteString(w, `{"error":{"code":503,"message":"unavailable"}}`)
		return
	}
	if r.Method == http.MethodGet {
		values := [][]interface{}{}
		if f.header != nil {
			values = append(values, f.header)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"range": "Sheet1!A1:I1", "values": values})
		return
	}
	io.WriteString(w, `{}`)
}

func newTestMirror(t *testing.T, api *fakeSheetsAPI) SheetMirror {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	cfg := &config.SheetsConfig{SpreadsheetID: "sheet-1", SheetName: "Sheet1", ApplicationName: "test"}
	m, err := NewSheetMirror(context.Background(), cfg, logger.Nop(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatalf("NewSheetMirror: %v", err)
	}
	return m
}

func TestEnsureHeaderWritesMissingHeader(t *testing.T) {
	api := &fakeSheetsAPI{}
	m := newTestMirror(t, api)

	if err := m.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(api.calls) != 2 {
		t.Fatalf("calls = %+v", api.calls)
	}
	update := api.calls[1]
	if update.Method != http.MethodPut || !strings.Contains(update.Query, "valueInputOption=RAW") {
		t.Fatalf("update call = %+v", update)
	}
	rows, _ := update.Body["values"].([]interface{})
	if len(rows) != 1 || len(rows[0].([]interface{})) != len(SheetHeader) {
		t.Fatalf("header body = %v", update.Body)
	}
}

func TestEnsureHeaderKeepsCorrectHeader(t *testing.T) {
	header := make([]interface{}, len(SheetHeader))
	for i, h := range SheetHeader {
		header[i] = h
	}
	api := &fakeSheetsAPI{header: header}
	m := newTestMirror(t, api)

	if err := m.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if len(api.calls) != 1 || api.calls[0].Method != http.MethodGet {
		t.Fatalf("calls = %+v, want only the read", api.calls)
	}
}

func TestAppendSendsRow(t *testing.T) {
	api := &fakeSheetsAPI{}
	m := newTestMirror(t, api)
	rec := &model.FeedbackRecord{
		ID: "abc", ChatID: 11, Role: model.RoleManager, Branch: "East", Message: "msg",
		Sentiment: model.SentimentPositive, CriticalityLevel: 2, ResolutionSuggestion: "s",
		SubmittedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := m.Append(context.Background(), rec); err != nil {
		t.Fatalf("Append: %v", err)
	}
	call := api.calls[0]
	if call.Method != http.MethodPost || !strings.HasSuffix(call.Path, ":append") {
		t.Fatalf("append call = %+v", call)
	}
	for _, q := range []string{"valueInputOption=RAW", "insertDataOption=INSERT_ROWS"} {
		if !strings.Contains(call.Query, q) {
			t.Fatalf("query %q missing %q", call.Query, q)
		}
	}
	row := call.Body["values"].([]interface{})[0].([]interface{})
	if row[0] != "abc" || row[2] != "МЕНЕДЖЕР" || row[8] != "2025-01-02T03:04:05Z" {
		t.Fatalf("row = %v", row)
	}
}

func TestAppendReportsFailure(t *testing.T) {
	api := &fakeSheetsAPI{status: http.StatusServiceUnavailable}
	m := newTestMirror(t, api)

	if err := m.Append(context.Background(), &model.FeedbackRecord{ID: "x"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDisabledMirror(t *testing.T) {
	m, err := NewSheetMirror(context.Background(), config.DefaultSheetsConfig(), logger.Nop())
	if err != nil {
		t.Fatal(err)
	}
	if err := m.EnsureHeader(context.Background()); err != nil {
		t.Fatalf("EnsureHeader: %v", err)
	}
	if err := m.Append(context.Background(), &model.FeedbackRecord{}); !errors.Is(err, ErrMirrorDisabled) {
		t.Fatalf("Append err = %v", err)
	}
}

func TestCredentialOptions(t *testing.T) {
	if got := credentialOptions("  "); got != nil {
		t.Fatalf("blank creds = %v", got)
	}
	if got := credentialOptions(`{"type":"service_account"}`); len(got) != 1 {
		t.Fatalf("json creds = %v", got)
	}
	if got := credentialOptions("/etc/creds.json"); len(got) != 1 {
		t.Fatalf("file creds = %v", got)
	}
}
