package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fiscus/internal/analysis"
	"fiscus/internal/cache"
	"fiscus/internal/core"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// LedgerStore is the persistence the service drives. Every mutating call is
// atomic on its own.
type LedgerStore interface {
	CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error)
	UpdateAccount(ctx context.Context, id int64, in core.AccountInput) (core.Account, error)
	GetAccount(ctx context.Context, id int64) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	DeleteAccount(ctx context.Context, id int64) (core.DeleteAccountResult, error)

	CreateTransaction(ctx context.Context, in core.TransactionInput) (core.CreateResult, error)
	UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.UpdateResult, error)
	DeleteTransaction(ctx context.Context, id int64) (*core.Account, bool, error)
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)

	SeedIfEmpty(ctx context.Context, accounts []core.AccountInput, txs []core.TransactionInput) (core.SeedResult, bool, error)

	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	Ping(ctx context.Context) error
	Close() error
}

// EventPublisher forwards committed mutations to the remote mirror.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error
}

// NopPublisher drops events. It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishLedgerEvent(ctx context.Context, ev core.LedgerEvent) error {
	slog.DebugContext(ctx, "Mirror disabled, dropping ledger event", "kind", ev.Kind, "event_id", ev.ID)
	return nil
}

// ImportResult reports the outcome of one pending item.
type ImportResult struct {
	Index  int
	Result core.CreateResult
	Err    error
}

// LedgerService orchestrates ledger operations, report caching and the
// best-effort mirror.
type LedgerService struct {
	store     LedgerStore
	publisher EventPublisher
	reports   cache.Cache[analysis.MonthlyReport]
	loc       *time.Location
	now       func() time.Time

	group singleflight.Group
}

func NewLedgerService(store LedgerStore, publisher EventPublisher, reports cache.Cache[analysis.MonthlyReport], loc *time.Location) *LedgerService {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LedgerService{
		store:     store,
		publisher: publisher,
		reports:   reports,
		loc:       loc,
		now:       time.Now,
	}
}

// Location is the zone reports bucket days in.
func (s *LedgerService) Location() *time.Location {
	return s.loc
}

func (s *LedgerService) CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	a, err := s.store.CreateAccount(ctx, in)
	if err != nil {
		return core.Account{}, fmt.Errorf("create account: %w", err)
	}
	s.committed(ctx, core.LedgerEvent{Kind: core.EventAccountCreated, Accounts: []core.Account{a}})
	return a, nil
}

func (s *LedgerService) UpdateAccount(ctx context.Context, id int64, in core.AccountInput) (core.Account, error) {
	a, err := s.store.UpdateAccount(ctx, id, in)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	s.committed(ctx, core.LedgerEvent{Kind: core.EventAccountUpdated, Accounts: []core.Account{a}})
	return a, nil
}

func (s *LedgerService) DeleteAccount(ctx context.Context, id int64) (core.DeleteAccountResult, error) {
	res, err := s.store.DeleteAccount(ctx, id)
	if err != nil {
		return core.DeleteAccountResult{}, fmt.Errorf("delete account: %w", err)
	}
	s.committed(ctx, core.LedgerEvent{
		Kind:                  core.EventAccountDeleted,
		DeletedAccountID:      res.AccountID,
		DeletedTransactionIDs: res.TransactionIDs,
	})
	return res, nil
}

func (s *LedgerService) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return s.store.GetAccount(ctx, id)
}

func (s *LedgerService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *LedgerService) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.CreateResult, error) {
	res, err := s.store.CreateTransaction(ctx, in)
	if err != nil {
		return core.CreateResult{}, fmt.Errorf("create transaction: %w", err)
	}
	ev := core.LedgerEvent{Kind: core.EventTransactionCreated, Transaction: &res.Transaction}
	if res.Account != nil {
		ev.Accounts = []core.Account{*res.Account}
	}
	s.committed(ctx, ev)
	return res, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.UpdateResult, error) {
	res, err := s.store.UpdateTransaction(ctx, id, in)
	if err != nil {
		return core.UpdateResult{}, fmt.Errorf("update transaction: %w", err)
	}
	s.committed(ctx, core.LedgerEvent{
		Kind:        core.EventTransactionUpdated,
		Transaction: &res.Transaction,
		Accounts:    res.Accounts,
	})
	return res, nil
}

// DeleteTransaction returns the account whose balance was restored, or nil.
// Unknown ids are not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (*core.Account, error) {
	acct, deleted, err := s.store.DeleteTransaction(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete transaction: %w", err)
	}
	if !deleted {
		return nil, nil
	}
	ev := core.LedgerEvent{Kind: core.EventTransactionDeleted, DeletedTransactionIDs: []int64{id}}
	if acct != nil {
		ev.Accounts = []core.Account{*acct}
	}
	s.committed(ctx, ev)
	return acct, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx)
}

// ImportPending books transactions captured while offline. Each item is its
// own atomic unit: a failing item is reported and does not undo the others.
func (s *LedgerService) ImportPending(ctx context.Context, items []core.TransactionInput) []ImportResult {
	results := make([]ImportResult, 0, len(items))
	failed := 0
	for i, in := range items {
		res, err := s.CreateTransaction(ctx, in)
		if err != nil {
			failed++
		}
		results = append(results, ImportResult{Index: i, Result: res, Err: err})
	}
	slog.InfoContext(ctx, "Pending transactions imported",
		"total", len(items),
		"failed", failed)
	return results
}

// MonthlyReport analyzes month m. Reports are cached until the next ledger
// mutation; concurrent requests for the same month share one computation.
func (s *LedgerService) MonthlyReport(ctx context.Context, m core.Month) (analysis.MonthlyReport, error) {
	if err := m.Validate(); err != nil {
		return analysis.MonthlyReport{}, err
	}

	key := fmt.Sprintf("report:%s:%s", s.loc.String(), m)
	if s.reports == nil {
		txs, err := s.store.ListTransactions(ctx)
		if err != nil {
			return analysis.MonthlyReport{}, fmt.Errorf("monthly report %s: %w", m, err)
		}
		return analysis.Analyze(txs, m, s.loc), nil
	}

	if r, ok := s.reports.Get(ctx, key); ok {
		return r, nil
	}

	// The version is read before the transactions so a purge that follows
	// a concurrent commit rejects the write below.
	version, cacheable := s.reports.Version(ctx)
	v, err, _ := s.group.Do(fmt.Sprintf("%s:%d:%t", key, version, cacheable), func() (interface{}, error) {
		txs, err := s.store.ListTransactions(ctx)
		if err != nil {
			return nil, err
		}
		report := analysis.Analyze(txs, m, s.loc)
		if cacheable {
			s.reports.SetVersioned(ctx, version, key, report)
		}
		return report, nil
	})
	if err != nil {
		return analysis.MonthlyReport{}, fmt.Errorf("monthly report %s: %w", m, err)
	}
	return v.(analysis.MonthlyReport), nil
}

// Summary returns the home screen overview including up to recent of the
// latest transactions.
func (s *LedgerService) Summary(ctx context.Context, recent int) (analysis.HomeSummary, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return analysis.HomeSummary{}, fmt.Errorf("summary: %w", err)
	}
	txs, err := s.store.ListTransactions(ctx)
	if err != nil {
		return analysis.HomeSummary{}, fmt.Errorf("summary: %w", err)
	}
	return analysis.Summarize(accounts, txs, s.now(), s.loc, recent), nil
}

// CurrentMonth is the month containing now in the service location.
func (s *LedgerService) CurrentMonth() core.Month {
	return core.MonthOf(s.now().In(s.loc))
}

// MonthOptions lists the last n months, oldest first.
func (s *LedgerService) MonthOptions(n int) []core.Month {
	return analysis.MonthOptions(s.now().In(s.loc), n)
}

func (s *LedgerService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.store.GetSetting(ctx, key)
}

func (s *LedgerService) SetSetting(ctx context.Context, key, value string) error {
	if err := s.store.SetSetting(ctx, key, value); err != nil {
		return fmt.Errorf("set setting: %w", err)
	}
	return nil
}

// Ready reports whether the store can serve requests.
func (s *LedgerService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close ledger service: %w", err)
	}
	return nil
}

// committed runs after a successful mutation: cached reports are dropped and
// the event is handed to the mirror. Publish failures are logged only; the
// local ledger stays the source of truth.
func (s *LedgerService) committed(ctx context.Context, ev core.LedgerEvent) {
	if s.reports != nil {
		s.reports.Purge(ctx)
	}

	ev.ID = uuid.NewString()
	ev.OccurredAt = s.now().UTC()
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event_id", ev.ID,
			"kind", ev.Kind,
			"error", err)
	}
}
