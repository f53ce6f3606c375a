package storage

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "fiscus.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	// Deterministic, strictly increasing clock.
	clock := time.Date(2026, time.February, 1, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return repo
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// checkBalances verifies balance = starting + sum of deltas for every account.
func checkBalances(t *testing.T, repo *SQLiteRepository, starting map[int64]decimal.Decimal) {
	t.Helper()
	ctx := context.Background()

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}

	expected := make(map[int64]decimal.Decimal, len(accounts))
	for _, a := range accounts {
		expected[a.ID] = starting[a.ID]
	}
	for _, tx := range txs {
		if tx.HasAccount() {
			expected[tx.AccountID] = expected[tx.AccountID].Add(tx.Delta())
		}
	}
	for _, a := range accounts {
		if !a.Balance.Equal(expected[a.ID]) {
			t.Fatalf("account %d (%s) balance = %s, want %s", a.ID, a.Name, a.Balance, expected[a.ID])
		}
	}
}

func mustCreateAccount(t *testing.T, repo *SQLiteRepository, name string, typ core.AccountType, balance string) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.AccountInput{Name: name, Type: typ, Balance: dec(balance)})
	if err != nil {
		t.Fatalf("create account %s: %v", name, err)
	}
	return a
}

func TestCreateAccountRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created := mustCreateAccount(t, repo, "Sparkasse", core.AccountBank, "1500.20")
	if created.ID == 0 {
		t.Fatalf("expected an id")
	}

	accounts, err := repo.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	got := accounts[0]
	if got.Name != "Sparkasse" || got.Type != core.AccountBank {
		t.Fatalf("unexpected account %+v", got)
	}
	if !got.Balance.Equal(dec("1500.20")) {
		t.Fatalf("balance = %s, want 1500.20", got.Balance)
	}
	if got.Balance.StringFixed(2) != "1500.20" {
		t.Fatalf("balance renders as %s", got.Balance.StringFixed(2))
	}
}

func TestCreateAccountValidation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   core.AccountInput
	}{
		{"empty name", core.AccountInput{Name: " ", Type: core.AccountCash}},
		{"bad type", core.AccountInput{Name: "Coins", Type: "piggybank"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.CreateAccount(ctx, tc.in)
			if !errors.Is(err, core.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	n, err := repo.CountAccounts(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no accounts after rejected inserts, got %d", n)
	}
}

func TestListAccountsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "1")
	b := mustCreateAccount(t, repo, "B", core.AccountCash, "2")

	accounts, err := repo.ListAccounts(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 2 || accounts[0].ID != b.ID || accounts[1].ID != a.ID {
		t.Fatalf("unexpected order: %+v", accounts)
	}
}

func TestResolveOrCreateAccountPrecedence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	rev := mustCreateAccount(t, repo, "Revolut", core.AccountWallet, "800")

	t.Run("by id", func(t *testing.T) {
		got, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{ID: rev.ID, Name: "Other", Type: core.AccountCash})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got == nil || got.ID != rev.ID {
			t.Fatalf("expected account %d, got %+v", rev.ID, got)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{ID: 9999, Name: "Revolut", Type: core.AccountWallet})
		if !errors.Is(err, core.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("name is case insensitive", func(t *testing.T) {
		got, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{Name: "  rEvOlUt ", Type: "WALLET"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got == nil || got.ID != rev.ID {
			t.Fatalf("expected account %d, got %+v", rev.ID, got)
		}
	})

	t.Run("name folds beyond ascii", func(t *testing.T) {
		uber := mustCreateAccount(t, repo, "Über Bank", core.AccountBank, "10")
		got, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{Name: "über bank", Type: core.AccountBank})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got == nil || got.ID != uber.ID {
			t.Fatalf("expected account %d, got %+v", uber.ID, got)
		}
	})

	t.Run("implicit name too long", func(t *testing.T) {
		long := strings.Repeat("x", 101)
		_, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{Name: long, Type: core.AccountCash})
		if !errors.Is(err, core.ErrNameTooLong) {
			t.Fatalf("expected name too long, got %v", err)
		}
	})

	t.Run("type must match", func(t *testing.T) {
		got, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{Name: "Revolut", Type: core.AccountBank})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got == nil || got.ID == rev.ID {
			t.Fatalf("expected a new bank account, got %+v", got)
		}
		if !got.Balance.IsZero() {
			t.Fatalf("implicit account balance = %s, want 0", got.Balance)
		}
	})

	t.Run("none", func(t *testing.T) {
		got, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{Name: "Only a name"})
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got != nil {
			t.Fatalf("expected no account, got %+v", got)
		}
	})
}

func TestCreateTransactionAppliesDelta(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	acct := mustCreateAccount(t, repo, "Sparkasse", core.AccountBank, "100")
	starting := map[int64]decimal.Decimal{acct.ID: dec("100")}

	res, err := repo.CreateTransaction(ctx, core.TransactionInput{
		Type:     core.Expense,
		Amount:   dec("12.34"),
		Note:     "Lidl",
		Category: "Groceries",
		Account:  core.AccountRef{ID: acct.ID},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if res.Account == nil || !res.Account.Balance.Equal(dec("87.66")) {
		t.Fatalf("updated account = %+v", res.Account)
	}
	if res.Transaction.AccountName != "Sparkasse" || res.Transaction.AccountType != core.AccountBank {
		t.Fatalf("transaction not joined with account: %+v", res.Transaction)
	}
	if res.Transaction.CreatedAt.IsZero() {
		t.Fatalf("expected createdAt to default to now")
	}
	checkBalances(t, repo, starting)

	// Income on an implicitly created account.
	res, err = repo.CreateTransaction(ctx, core.TransactionInput{
		Type:    core.Income,
		Amount:  dec("50"),
		Account: core.AccountRef{Name: "Chillar", Type: core.AccountWallet},
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if res.Account == nil || !res.Account.Balance.Equal(dec("50")) {
		t.Fatalf("implicit account = %+v", res.Account)
	}
	starting[res.Account.ID] = decimal.Zero
	checkBalances(t, repo, starting)

	// No account at all.
	res, err = repo.CreateTransaction(ctx, core.TransactionInput{Type: core.Expense, Amount: dec("1")})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	if res.Account != nil || res.Transaction.HasAccount() {
		t.Fatalf("expected no account, got %+v", res)
	}
	checkBalances(t, repo, starting)
}

func TestCreateTransactionRejectsBeforeMutation(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   core.TransactionInput
		want error
	}{
		{"zero amount", core.TransactionInput{Type: core.Expense, Amount: decimal.Zero, Account: core.AccountRef{Name: "New", Type: core.AccountCash}}, core.ErrValidation},
		{"bad type", core.TransactionInput{Type: "gift", Amount: dec("1"), Account: core.AccountRef{Name: "New", Type: core.AccountCash}}, core.ErrValidation},
		{"unknown account id", core.TransactionInput{Type: core.Income, Amount: dec("1"), Account: core.AccountRef{ID: 42}}, core.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := repo.CreateTransaction(ctx, tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	n, err := repo.CountAccounts(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(txs) != 0 || n != 0 {
		t.Fatalf("expected untouched store, got %d transactions and %d accounts", len(txs), n)
	}
}

func TestUpdateTransactionMovesBetweenAccounts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "100")
	b := mustCreateAccount(t, repo, "B", core.AccountWallet, "10")
	starting := map[int64]decimal.Decimal{a.ID: dec("100"), b.ID: dec("10")}

	created, err := repo.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("30"), Account: core.AccountRef{ID: a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := repo.UpdateTransaction(ctx, created.Transaction.ID, core.TransactionInput{
		Type: core.Expense, Amount: dec("30"), Account: core.AccountRef{ID: b.ID},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(res.Accounts) != 2 {
		t.Fatalf("expected 2 changed accounts, got %+v", res.Accounts)
	}
	if res.Accounts[0].ID != a.ID || !res.Accounts[0].Balance.Equal(dec("100")) {
		t.Fatalf("account A = %+v, want restored to 100", res.Accounts[0])
	}
	if res.Accounts[1].ID != b.ID || !res.Accounts[1].Balance.Equal(dec("-20")) {
		t.Fatalf("account B = %+v, want -20", res.Accounts[1])
	}
	if res.Transaction.AccountID != b.ID || res.Transaction.AccountName != "B" {
		t.Fatalf("transaction not moved: %+v", res.Transaction)
	}
	checkBalances(t, repo, starting)
}

func TestUpdateTransactionSameAccountAdjustsOnce(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountCash, "100")
	starting := map[int64]decimal.Decimal{a.ID: dec("100")}

	created, err := repo.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("30"), Account: core.AccountRef{ID: a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// expense 30 -> income 45: 70 - (-30) + 45 = 145
	res, err := repo.UpdateTransaction(ctx, created.Transaction.ID, core.TransactionInput{
		Type: core.Income, Amount: dec("45"), Account: core.AccountRef{Name: "a", Type: core.AccountCash},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(res.Accounts) != 1 {
		t.Fatalf("expected 1 changed account, got %+v", res.Accounts)
	}
	if !res.Accounts[0].Balance.Equal(dec("145")) {
		t.Fatalf("balance = %s, want 145", res.Accounts[0].Balance)
	}
	if !res.Transaction.CreatedAt.Equal(created.Transaction.CreatedAt) {
		t.Fatalf("createdAt changed without being given: %s -> %s", created.Transaction.CreatedAt, res.Transaction.CreatedAt)
	}
	checkBalances(t, repo, starting)
}

func TestUpdateTransactionDetachAndAttach(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "0")
	starting := map[int64]decimal.Decimal{a.ID: decimal.Zero}

	created, err := repo.CreateTransaction(ctx, core.TransactionInput{Type: core.Income, Amount: dec("5")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	at := time.Date(2025, time.December, 24, 18, 30, 0, 0, time.UTC)
	res, err := repo.UpdateTransaction(ctx, created.Transaction.ID, core.TransactionInput{
		Type: core.Income, Amount: dec("5"), Account: core.AccountRef{ID: a.ID}, CreatedAt: at,
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(res.Accounts) != 1 || !res.Accounts[0].Balance.Equal(dec("5")) {
		t.Fatalf("attach accounts = %+v", res.Accounts)
	}
	if !res.Transaction.CreatedAt.Equal(at) {
		t.Fatalf("createdAt = %s, want %s", res.Transaction.CreatedAt, at)
	}
	checkBalances(t, repo, starting)

	res, err = repo.UpdateTransaction(ctx, created.Transaction.ID, core.TransactionInput{Type: core.Income, Amount: dec("5")})
	if err != nil {
		t.Fatalf("detach: %v", err)
	}
	if len(res.Accounts) != 1 || !res.Accounts[0].Balance.IsZero() {
		t.Fatalf("detach accounts = %+v", res.Accounts)
	}
	checkBalances(t, repo, starting)
}

func TestUpdateTransactionErrors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "10")

	_, err := repo.UpdateTransaction(ctx, 12345, core.TransactionInput{Type: core.Income, Amount: dec("1")})
	if !errors.Is(err, core.ErrTransactionNotFound) {
		t.Fatalf("expected transaction not found, got %v", err)
	}

	created, err := repo.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("3"), Account: core.AccountRef{ID: a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = repo.UpdateTransaction(ctx, created.Transaction.ID, core.TransactionInput{
		Type: core.Expense, Amount: dec("3"), Account: core.AccountRef{ID: 777},
	})
	if !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected account not found, got %v", err)
	}

	// The failed update must not have touched the stored state.
	got, err := repo.GetAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(dec("7")) {
		t.Fatalf("balance = %s, want 7", got.Balance)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "10")
	starting := map[int64]decimal.Decimal{a.ID: dec("10")}

	created, err := repo.CreateTransaction(ctx, core.TransactionInput{
		Type: core.Expense, Amount: dec("4.5"), Account: core.AccountRef{ID: a.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	acct, deleted, err := repo.DeleteTransaction(ctx, created.Transaction.ID)
	if err != nil || !deleted {
		t.Fatalf("delete: %v (deleted=%v)", err, deleted)
	}
	if acct == nil || !acct.Balance.Equal(dec("10")) {
		t.Fatalf("account after delete = %+v", acct)
	}
	checkBalances(t, repo, starting)

	if _, err := repo.GetTransaction(ctx, created.Transaction.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected deleted transaction to be gone, got %v", err)
	}

	acct, deleted, err = repo.DeleteTransaction(ctx, created.Transaction.ID)
	if err != nil || acct != nil || deleted {
		t.Fatalf("deleting unknown id should be a no-op, got %+v, %v", acct, err)
	}
}

func TestDeleteAccountCascades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "10")
	b := mustCreateAccount(t, repo, "B", core.AccountCash, "0")

	var want []int64
	for i, ref := range []core.AccountRef{{ID: a.ID}, {ID: b.ID}, {ID: a.ID}, {}, {ID: a.ID}} {
		res, err := repo.CreateTransaction(ctx, core.TransactionInput{
			Type: core.Income, Amount: decimal.NewFromInt(int64(i + 1)), Account: ref,
		})
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if ref.ID == a.ID {
			want = append(want, res.Transaction.ID)
		}
	}

	res, err := repo.DeleteAccount(ctx, a.ID)
	if err != nil {
		t.Fatalf("delete account: %v", err)
	}
	if res.AccountID != a.ID || len(res.TransactionIDs) != len(want) {
		t.Fatalf("result = %+v, want ids %v", res, want)
	}
	for i := range want {
		if res.TransactionIDs[i] != want[i] {
			t.Fatalf("ids = %v, want %v", res.TransactionIDs, want)
		}
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("expected 2 remaining transactions, got %d", len(txs))
	}
	for _, tx := range txs {
		if tx.AccountID == a.ID {
			t.Fatalf("transaction %d still references deleted account", tx.ID)
		}
	}
	checkBalances(t, repo, map[int64]decimal.Decimal{b.ID: decimal.Zero})

	if _, err := repo.DeleteAccount(ctx, a.ID); !errors.Is(err, core.ErrAccountNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "Sparkasse", core.AccountBank, "1")

	got, err := repo.UpdateAccount(ctx, a.ID, core.AccountInput{Name: "N26", Type: core.AccountBank, Balance: dec("99.99")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "N26" || !got.Balance.Equal(dec("99.99")) || !got.CreatedAt.Equal(a.CreatedAt) {
		t.Fatalf("unexpected account %+v", got)
	}

	if _, err := repo.UpdateAccount(ctx, 404, core.AccountInput{Name: "x", Type: core.AccountCash}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.UpdateAccount(ctx, a.ID, core.AccountInput{Name: "", Type: core.AccountCash}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBalancesAcrossOperationSequence(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	a := mustCreateAccount(t, repo, "A", core.AccountBank, "1500.20")
	b := mustCreateAccount(t, repo, "B", core.AccountWallet, "800")
	starting := map[int64]decimal.Decimal{a.ID: dec("1500.20"), b.ID: dec("800")}

	var ids []int64
	steps := []func() error{
		func() error {
			res, err := repo.CreateTransaction(ctx, core.TransactionInput{Type: core.Expense, Amount: dec("19.99"), Account: core.AccountRef{ID: a.ID}})
			ids = append(ids, res.Transaction.ID)
			return err
		},
		func() error {
			res, err := repo.CreateTransaction(ctx, core.TransactionInput{Type: core.Income, Amount: dec("2500"), Account: core.AccountRef{ID: b.ID}})
			ids = append(ids, res.Transaction.ID)
			return err
		},
		func() error {
			res, err := repo.CreateTransaction(ctx, core.TransactionInput{Type: core.Expense, Amount: dec("0.01"), Account: core.AccountRef{Name: "a", Type: core.AccountBank}})
			ids = append(ids, res.Transaction.ID)
			return err
		},
		func() error {
			_, err := repo.UpdateTransaction(ctx, ids[0], core.TransactionInput{Type: core.Income, Amount: dec("20"), Account: core.AccountRef{ID: b.ID}})
			return err
		},
		func() error {
			_, err := repo.UpdateTransaction(ctx, ids[1], core.TransactionInput{Type: core.Income, Amount: dec("2400.5"), Account: core.AccountRef{ID: b.ID}})
			return err
		},
		func() error {
			_, _, err := repo.DeleteTransaction(ctx, ids[2])
			return err
		},
		func() error {
			_, err := repo.UpdateTransaction(ctx, ids[1], core.TransactionInput{Type: core.Expense, Amount: dec("3"), Account: core.AccountRef{ID: a.ID}})
			return err
		},
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		checkBalances(t, repo, starting)
	}
}

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "currency"); !errors.Is(err, core.ErrSettingNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.SetSetting(ctx, "currency", "EUR"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := repo.SetSetting(ctx, "currency", "INR"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := repo.GetSetting(ctx, "currency")
	if err != nil || v != "INR" {
		t.Fatalf("get = %q, %v", v, err)
	}
	if err := repo.SetSetting(ctx, " ", "x"); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	all, err := repo.ListSettings(ctx)
	if err != nil || len(all) != 1 || all["currency"] != "INR" {
		t.Fatalf("list = %v, %v", all, err)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fiscus.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.CreateAccount(context.Background(), core.AccountInput{Name: "Cash", Type: core.AccountCash, Balance: dec("0.10")}); err != nil {
		t.Fatalf("create: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	accounts, err := repo.ListAccounts(context.Background())
	if err != nil || len(accounts) != 1 || !accounts[0].Balance.Equal(dec("0.1")) {
		t.Fatalf("accounts after reopen = %+v, %v", accounts, err)
	}
}

func TestSeedIfEmptyIsAtomic(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	accounts := []core.AccountInput{
		{Name: "Sparkasse", Type: core.AccountBank, Balance: dec("100")},
		{Name: "Cash", Type: core.AccountCash, Balance: dec("20")},
	}
	good := []core.TransactionInput{
		{Type: core.Expense, Amount: dec("30"), Account: core.AccountRef{Name: "sparkasse", Type: core.AccountBank}},
		{Type: core.Income, Amount: dec("5"), Account: core.AccountRef{Name: "Cash", Type: core.AccountCash}},
	}
	broken := append(slices.Clone(good), core.TransactionInput{
		Type: core.Expense, Amount: dec("1"), Account: core.AccountRef{ID: 999},
	})

	if _, seeded, err := repo.SeedIfEmpty(ctx, accounts, broken); !errors.Is(err, core.ErrNotFound) || seeded {
		t.Fatalf("seed with unknown account = %v, %v", seeded, err)
	}
	if n, err := repo.CountAccounts(ctx); err != nil || n != 0 {
		t.Fatalf("accounts after failed seed = %d, %v", n, err)
	}

	res, seeded, err := repo.SeedIfEmpty(ctx, accounts, good)
	if err != nil || !seeded {
		t.Fatalf("retry = %v, %v", seeded, err)
	}
	if len(res.Accounts) != 2 || len(res.Transactions) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if !res.Accounts[0].Balance.Equal(dec("70")) || !res.Accounts[1].Balance.Equal(dec("25")) {
		t.Fatalf("balances = %s, %s", res.Accounts[0].Balance, res.Accounts[1].Balance)
	}

	if _, seeded, err := repo.SeedIfEmpty(ctx, accounts, good); err != nil || seeded {
		t.Fatalf("second seed = %v, %v", seeded, err)
	}
	txs, err := repo.ListTransactions(ctx)
	if err != nil || len(txs) != 2 {
		t.Fatalf("transactions = %d, %v", len(txs), err)
	}
}

func TestReopenRefreshesNameKeys(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "fiscus.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	a, err := repo.CreateAccount(ctx, core.AccountInput{Name: "Über Bank", Type: core.AccountBank})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// What the schema migration leaves behind: only ASCII letters folded.
	if err := repo.queries.SetAccountNameKey(ctx, SetAccountNameKeyParams{NameKey: "Über bank", ID: a.ID}); err != nil {
		t.Fatalf("set key: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got, err := repo.ResolveOrCreateAccount(ctx, core.AccountRef{Name: "ÜBER BANK", Type: core.AccountBank})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got == nil || got.ID != a.ID {
		t.Fatalf("expected account %d, got %+v", a.ID, got)
	}
}

func TestListTransactionsNewestFirst(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	same := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	later := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.FixedZone("EST", -5*3600))   // 13:00 UTC
	earlier := time.Date(2026, time.March, 1, 20, 0, 0, 0, time.FixedZone("JST", 9*3600)) // 11:00 UTC

	var ids []int64
	for _, at := range []time.Time{same, same, same, later, earlier} {
		res, err := repo.CreateTransaction(ctx, core.TransactionInput{Type: core.Expense, Amount: dec("1"), CreatedAt: at})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, res.Transaction.ID)
	}

	txs, err := repo.ListTransactions(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{ids[3], ids[2], ids[1], ids[0], ids[4]}
	if len(txs) != len(want) {
		t.Fatalf("got %d transactions, want %d", len(txs), len(want))
	}
	for i, tx := range txs {
		if tx.ID != want[i] {
			t.Fatalf("position %d: id %d, want %d (order %v)", i, tx.ID, want[i], want)
		}
	}
	if !txs[0].CreatedAt.Equal(later) {
		t.Fatalf("createdAt = %s, want %s", txs[0].CreatedAt, later)
	}
}

func TestParseTimeFormats(t *testing.T) {
	want := time.Date(2026, time.February, 15, 8, 30, 0, 0, time.UTC)
	for _, s := range []string{formatTime(want), "2026-02-15T08:30:00Z", "2026-02-15 08:30:00"} {
		got, err := parseTime(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		if !got.Equal(want) {
			t.Fatalf("parse %q = %s, want %s", s, got, want)
		}
	}
	if _, err := parseTime("yesterday"); err == nil {
		t.Fatalf("expected error")
	}
}
