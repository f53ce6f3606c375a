package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "Journal")
	if err == nil {
		t.Fatal("expected error for missing GOOGLE_SPREADSHEET_ID")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil {
		t.Fatal("expected error without credentials")
	}
	if !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestNewSheetsService_UnreadableFile(t *testing.T) {
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "/nonexistent/fiscus/credentials.json")

	_, err := New(context.Background(), "sheet-id", "")
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestJournalRange(t *testing.T) {
	c := newWithService(nil, "id", "")
	if c.journalSheet != "Journal" {
		t.Fatalf("default sheet = %q", c.journalSheet)
	}
	if got := c.journalRange(); got != "Journal!A:K" {
		t.Fatalf("range = %q", got)
	}
}

func TestAppend_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Append(context.Background(), core.LedgerEvent{ID: "x"}); err == nil {
		t.Fatal("expected error with nil service")
	}
}

// fakeSheets records the requests a Client makes.
type fakeSheets struct {
	mu       sync.Mutex
	header   bool
	appended [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		if f.header {
			json.NewEncoder(w).Encode(map[string]any{"values": [][]string{{"Occurred At"}}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{})
	case r.Method == http.MethodPut:
		f.header = true
		json.NewEncoder(w).Encode(map[string]any{"updatedRows": 1})
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.appended = append(f.appended, vr.Values...)
		json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": "Journal!A2:K2"},
		})
	default:
		http.Error(w, "unexpected request", http.StatusNotFound)
	}
}

func TestAppend_WritesHeaderOnceAndRow(t *testing.T) {
	fake := &fakeSheets{}
	srv := httptest.NewServer(fake)
	defer srv.Close()

	ctx := context.Background()
	svc, err := gsheet.NewService(ctx,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithoutAuthentication(),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	c := newWithService(svc, "sheet-id", "Journal")

	ev := core.LedgerEvent{
		ID:   "ev-1",
		Kind: core.EventTransactionCreated,
		Transaction: &core.Transaction{
			ID: 3, Type: core.Expense, Amount: decimal.RequireFromString("12.30"), Category: "Bills",
		},
		OccurredAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	for i := 0; i < 2; i++ {
		ref, err := c.Append(ctx, ev)
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if ref != "Journal!A2:K2" {
			t.Fatalf("ref = %q", ref)
		}
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if !fake.header {
		t.Fatal("expected header to be written")
	}
	if len(fake.appended) != 2 {
		t.Fatalf("appended %d rows, want 2", len(fake.appended))
	}
	row := fake.appended[0]
	if row[1] != "ev-1" || row[5] != "12.3" || row[6] != "Bills" {
		t.Fatalf("unexpected row %v", row)
	}
}
