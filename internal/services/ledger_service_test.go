package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"fiscus/internal/analysis"
	"fiscus/internal/cache"
	"fiscus/internal/core"
	"fiscus/internal/storage"

	"github.com/shopspring/decimal"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []core.LedgerEvent
	err    error
}

func (p *fakePublisher) PublishLedgerEvent(_ context.Context, ev core.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) kinds() []core.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.EventKind, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Kind
	}
	return out
}

var testNow = time.Date(2026, time.March, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, pub EventPublisher) *LedgerService {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fiscus.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	reports := cache.NewLRUCache[analysis.MonthlyReport](16, time.Hour)
	svc := NewLedgerService(repo, pub, reports, time.UTC)
	svc.now = func() time.Time { return testNow }
	t.Cleanup(func() { svc.Close() })
	return svc
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestLedgerServicePublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)
	ctx := context.Background()

	acct, err := svc.CreateAccount(ctx, core.AccountInput{Name: "Cash", Type: core.AccountCash, Balance: dec("10")})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	created, err := svc.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("2"), Account: core.AccountRef{ID: acct.ID},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if _, err := svc.UpdateTransaction(ctx, created.Transaction.ID, core.TransactionInput{
		Type: core.Expense, Amount: dec("3"), Account: core.AccountRef{ID: acct.ID},
	}); err != nil {
		t.Fatalf("update transaction: %v", err)
	}
	if _, err := svc.DeleteTransaction(ctx, created.Transaction.ID); err != nil {
		t.Fatalf("delete transaction: %v", err)
	}
	if _, err := svc.DeleteAccount(ctx, acct.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}

	want := []core.EventKind{
		core.EventAccountCreated,
		core.EventTransactionCreated,
		core.EventTransactionUpdated,
		core.EventTransactionDeleted,
		core.EventAccountDeleted,
	}
	got := pub.kinds()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %s, want %s", i, got[i], want[i])
		}
	}

	seen := map[string]bool{}
	for _, ev := range pub.events {
		if ev.ID == "" || seen[ev.ID] {
			t.Fatalf("event ids must be unique and set: %q", ev.ID)
		}
		seen[ev.ID] = true
		if !ev.OccurredAt.Equal(testNow) {
			t.Fatalf("occurredAt = %s", ev.OccurredAt)
		}
	}

	upd := pub.events[2]
	if upd.Transaction == nil || len(upd.Accounts) != 1 || !upd.Accounts[0].Balance.Equal(dec("7")) {
		t.Fatalf("update event = %+v", upd)
	}
}

func TestLedgerServicePublishFailureIsSwallowed(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newTestService(t, pub)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, core.AccountInput{Name: "Bank", Type: core.AccountBank}); err != nil {
		t.Fatalf("create account should succeed despite publish failure: %v", err)
	}
	accounts, err := svc.ListAccounts(ctx)
	if err != nil || len(accounts) != 1 {
		t.Fatalf("accounts = %+v, %v", accounts, err)
	}
}

func TestLedgerServiceDeleteUnknownTransaction(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)

	acct, err := svc.DeleteTransaction(context.Background(), 99)
	if err != nil || acct != nil {
		t.Fatalf("got %+v, %v", acct, err)
	}
	if len(pub.kinds()) != 0 {
		t.Fatalf("no event expected for a no-op delete, got %v", pub.kinds())
	}
}

func TestLedgerServiceErrorsKeepClass(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateTransaction(ctx, core.TransactionInput{Type: core.Income, Amount: dec("1"), Account: core.AccountRef{ID: 5}})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	_, err = svc.CreateAccount(ctx, core.AccountInput{Type: core.AccountBank})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	_, err = svc.MonthlyReport(ctx, core.NewMonth(2026, 13))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for month 13, got %v", err)
	}
}

func TestLedgerServiceMonthlyReportInvalidatedByMutation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	march := core.NewMonth(2026, time.March)

	if _, err := svc.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("40"), Category: "Groceries",
		CreatedAt: time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := svc.MonthlyReport(ctx, march)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !first.Expense.Equal(dec("40")) {
		t.Fatalf("expense = %s", first.Expense)
	}

	cached, err := svc.MonthlyReport(ctx, march)
	if err != nil || !cached.Expense.Equal(first.Expense) {
		t.Fatalf("cached report = %+v, %v", cached, err)
	}

	if _, err := svc.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("60"), Category: "Groceries",
		CreatedAt: time.Date(2026, time.March, 15, 8, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	after, err := svc.MonthlyReport(ctx, march)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !after.Expense.Equal(dec("100")) {
		t.Fatalf("stale report after mutation: expense = %s", after.Expense)
	}
	if len(after.ExpenseByCat) != 1 || !after.ExpenseByCat[0].Total.Equal(dec("100")) {
		t.Fatalf("breakdown = %+v", after.ExpenseByCat)
	}
}

// commitOnStore books a transaction right before the first report is stored,
// the way a request racing the report computation would.
type commitOnStore struct {
	*cache.LRUCache[analysis.MonthlyReport]
	once   sync.Once
	commit func()
}

func (c *commitOnStore) SetVersioned(ctx context.Context, version uint64, key string, r analysis.MonthlyReport) {
	c.once.Do(c.commit)
	c.LRUCache.SetVersioned(ctx, version, key, r)
}

func TestLedgerServiceMonthlyReportNotCachedAcrossConcurrentCommit(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fiscus.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	reports := &commitOnStore{LRUCache: cache.NewLRUCache[analysis.MonthlyReport](16, time.Hour)}
	svc := NewLedgerService(repo, nil, reports, time.UTC)
	svc.now = func() time.Time { return testNow }
	t.Cleanup(func() { svc.Close() })

	ctx := context.Background()
	march := core.NewMonth(2026, time.March)
	reports.commit = func() {
		if _, err := svc.CreateTransaction(ctx, core.TransactionInput{
			Type: core.Expense, Amount: dec("60"),
			CreatedAt: time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Errorf("create during report: %v", err)
		}
	}

	first, err := svc.MonthlyReport(ctx, march)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !first.Expense.IsZero() {
		t.Fatalf("first report should predate the commit, expense = %s", first.Expense)
	}

	second, err := svc.MonthlyReport(ctx, march)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if !second.Expense.Equal(dec("60")) {
		t.Fatalf("report computed before the commit was served: expense = %s", second.Expense)
	}
}

func TestLedgerServiceImportPending(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	items := []core.TransactionInput{
		{Type: core.Expense, Amount: dec("5"), Account: core.AccountRef{Name: "Revolut", Type: core.AccountWallet}},
		{Type: core.Expense, Amount: decimal.Zero},
		{Type: core.Income, Amount: dec("7"), Account: core.AccountRef{Name: "revolut", Type: core.AccountWallet}},
	}
	results := svc.ImportPending(ctx, items)
	if len(results) != 3 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("unexpected errors: %v, %v", results[0].Err, results[2].Err)
	}
	if !errors.Is(results[1].Err, core.ErrValidation) {
		t.Fatalf("expected validation error for item 1, got %v", results[1].Err)
	}
	if results[2].Result.Account == nil || !results[2].Result.Account.Balance.Equal(dec("2")) {
		t.Fatalf("account after import = %+v", results[2].Result.Account)
	}

	txs, err := svc.ListTransactions(ctx)
	if err != nil || len(txs) != 2 {
		t.Fatalf("transactions = %d, %v", len(txs), err)
	}
}

func TestLedgerServiceSeedIfEmpty(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	seeded, err := svc.SeedIfEmpty(ctx)
	if err != nil || !seeded {
		t.Fatalf("seed = %v, %v", seeded, err)
	}
	seeded, err = svc.SeedIfEmpty(ctx)
	if err != nil || seeded {
		t.Fatalf("second seed = %v, %v", seeded, err)
	}

	accounts, err := svc.ListAccounts(ctx)
	if err != nil || len(accounts) != len(demoAccounts) {
		t.Fatalf("accounts = %d, %v", len(accounts), err)
	}
	txs, err := svc.ListTransactions(ctx)
	if err != nil || len(txs) != demoMonths*demoTxPerMonth {
		t.Fatalf("transactions = %d, %v", len(txs), err)
	}

	starting := map[string]decimal.Decimal{}
	for _, a := range demoAccounts {
		starting[a.Name] = a.Balance
	}
	expected := map[int64]decimal.Decimal{}
	for _, a := range accounts {
		expected[a.ID] = starting[a.Name]
	}
	for _, tx := range txs {
		if !tx.HasAccount() {
			t.Fatalf("seeded transaction %d has no account", tx.ID)
		}
		expected[tx.AccountID] = expected[tx.AccountID].Add(tx.Delta())
	}
	for _, a := range accounts {
		if !a.Balance.Equal(expected[a.ID]) {
			t.Fatalf("%s balance = %s, want %s", a.Name, a.Balance, expected[a.ID])
		}
	}

	report, err := svc.MonthlyReport(ctx, svc.CurrentMonth())
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if report.Income.IsZero() || report.Expense.IsZero() || !report.ExpenseChange.Valid {
		t.Fatalf("seeded report looks empty: %+v", report)
	}
}

func TestDemoTransactionsNotInFuture(t *testing.T) {
	for _, now := range []time.Time{
		time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC),
		time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC),
	} {
		for i, in := range demoTransactions(now) {
			if in.CreatedAt.After(now) {
				t.Fatalf("now %s: item %d dated %s", now, i, in.CreatedAt)
			}
		}
	}
}

func TestLedgerServiceSeedPublishesEvents(t *testing.T) {
	pub := &fakePublisher{}
	svc := newTestService(t, pub)

	if seeded, err := svc.SeedIfEmpty(context.Background()); err != nil || !seeded {
		t.Fatalf("seed = %v, %v", seeded, err)
	}
	counts := map[core.EventKind]int{}
	for _, k := range pub.kinds() {
		counts[k]++
	}
	if counts[core.EventAccountCreated] != len(demoAccounts) {
		t.Fatalf("account events = %d, want %d", counts[core.EventAccountCreated], len(demoAccounts))
	}
	if counts[core.EventTransactionCreated] != demoMonths*demoTxPerMonth {
		t.Fatalf("transaction events = %d, want %d", counts[core.EventTransactionCreated], demoMonths*demoTxPerMonth)
	}
}

func TestLedgerServiceSummary(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, core.AccountInput{Name: "Bank", Type: core.AccountBank, Balance: dec("100")}); err != nil {
		t.Fatalf("create account: %v", err)
	}
	if _, err := svc.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("30"), Account: core.AccountRef{Name: "Bank", Type: core.AccountBank},
		CreatedAt: testNow.Add(-time.Hour),
	}); err != nil {
		t.Fatalf("create transaction: %v", err)
	}

	s, err := svc.Summary(ctx, 5)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !s.TotalBalance.Equal(dec("70")) || !s.Expense.Equal(dec("30")) || len(s.Recent) != 1 {
		t.Fatalf("summary = %+v", s)
	}
	if got := svc.MonthOptions(6); len(got) != 6 || got[5] != core.NewMonth(2026, time.March) {
		t.Fatalf("month options = %v", got)
	}
}
