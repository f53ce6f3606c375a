package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

func (r *SQLiteRepository) CreateAccount(ctx context.Context, in core.AccountInput) (core.Account, error) {
	in = normalizeAccountInput(in)
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}

	var out core.Account
	err := r.withTx(ctx, "create account", func(q *Queries) error {
		var err error
		out, err = r.insertAccount(ctx, q, in)
		return err
	})
	if err != nil {
		return core.Account{}, err
	}

	slog.InfoContext(ctx, "Account created",
		"account_id", out.ID,
		"name", out.Name,
		"type", out.Type,
		"balance", out.Balance.String())
	return out, nil
}

func normalizeAccountInput(in core.AccountInput) core.AccountInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Type = core.AccountType(strings.ToLower(strings.TrimSpace(string(in.Type))))
	return in
}

func (r *SQLiteRepository) insertAccount(ctx context.Context, q *Queries, in core.AccountInput) (core.Account, error) {
	row, err := q.CreateAccount(ctx, CreateAccountParams{
		Name:      in.Name,
		NameKey:   core.NameKey(in.Name),
		Type:      string(in.Type),
		Balance:   in.Balance.String(),
		CreatedAt: formatTime(r.now()),
	})
	if err != nil {
		return core.Account{}, core.NewStorageError("insert account", err)
	}
	a, err := toCoreAccount(row)
	if err != nil {
		return core.Account{}, core.NewStorageError("decode account", err)
	}
	return a, nil
}

// UpdateAccount is a full edit. The balance is set directly and is not
// reconciled against the account's transactions.
func (r *SQLiteRepository) UpdateAccount(ctx context.Context, id int64, in core.AccountInput) (core.Account, error) {
	in = normalizeAccountInput(in)
	if err := in.Validate(); err != nil {
		return core.Account{}, err
	}

	var out core.Account
	err := r.withTx(ctx, "update account", func(q *Queries) error {
		row, err := q.UpdateAccount(ctx, UpdateAccountParams{
			Name:    in.Name,
			NameKey: core.NameKey(in.Name),
			Type:    string(in.Type),
			Balance: in.Balance.String(),
			ID:      id,
		})
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("account %d: %w", id, core.ErrAccountNotFound)
		}
		if err != nil {
			return core.NewStorageError("update account", err)
		}
		out, err = toCoreAccount(row)
		if err != nil {
			return core.NewStorageError("decode account", err)
		}
		return nil
	})
	return out, err
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	return loadAccount(ctx, r.queries, id)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, core.NewStorageError("list accounts", err)
	}
	out := make([]core.Account, 0, len(rows))
	for _, row := range rows {
		a, err := toCoreAccount(row)
		if err != nil {
			return nil, core.NewStorageError("decode account", err)
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *SQLiteRepository) CountAccounts(ctx context.Context) (int64, error) {
	n, err := r.queries.CountAccounts(ctx)
	if err != nil {
		return 0, core.NewStorageError("count accounts", err)
	}
	return n, nil
}

// ResolveOrCreateAccount finds the account ref points at, creating it with a
// zero balance when a name and type are given but no such account exists.
// It returns nil when ref names no account.
//
// Precedence: id, then case-folded name with exact type, then create.
// An id that matches no account is an error, never a fallback to the name.
func (r *SQLiteRepository) ResolveOrCreateAccount(ctx context.Context, ref core.AccountRef) (*core.Account, error) {
	ref = ref.Normalize()
	if err := ref.Validate(); err != nil {
		return nil, err
	}

	var out *core.Account
	err := r.withTx(ctx, "resolve account", func(q *Queries) error {
		var err error
		out, err = r.resolveAccount(ctx, q, ref)
		return err
	})
	return out, err
}

func (r *SQLiteRepository) resolveAccount(ctx context.Context, q *Queries, ref core.AccountRef) (*core.Account, error) {
	if ref.ID != 0 {
		a, err := loadAccount(ctx, q, ref.ID)
		if err != nil {
			return nil, err
		}
		return &a, nil
	}
	if ref.IsZero() {
		return nil, nil
	}

	row, err := q.FindAccountByNameType(ctx, FindAccountByNameTypeParams{
		NameKey: core.NameKey(ref.Name),
		Type:    string(ref.Type),
	})
	switch {
	case err == nil:
	case errors.Is(err, sql.ErrNoRows):
		if err := ref.Validate(); err != nil {
			return nil, err
		}
		row, err = q.CreateAccount(ctx, CreateAccountParams{
			Name:      ref.Name,
			NameKey:   core.NameKey(ref.Name),
			Type:      string(ref.Type),
			Balance:   decimal.Zero.String(),
			CreatedAt: formatTime(r.now()),
		})
		if err != nil {
			return nil, core.NewStorageError("insert account", err)
		}
		slog.InfoContext(ctx, "Account created implicitly",
			"account_id", row.ID,
			"name", row.Name,
			"type", row.Type)
	default:
		return nil, core.NewStorageError("find account", err)
	}

	a, err := toCoreAccount(row)
	if err != nil {
		return nil, core.NewStorageError("decode account", err)
	}
	return &a, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, in core.TransactionInput) (core.CreateResult, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.CreateResult{}, err
	}

	var out core.CreateResult
	err := r.withTx(ctx, "create transaction", func(q *Queries) error {
		var err error
		out, err = r.insertTransaction(ctx, q, in)
		return err
	})
	if err != nil {
		return core.CreateResult{}, err
	}

	slog.InfoContext(ctx, "Transaction created",
		"transaction_id", out.Transaction.ID,
		"type", out.Transaction.Type,
		"amount", out.Transaction.Amount.String(),
		"account_id", out.Transaction.AccountID)
	return out, nil
}

// insertTransaction books a validated input: the account is resolved, the
// row inserted and the delta applied.
func (r *SQLiteRepository) insertTransaction(ctx context.Context, q *Queries, in core.TransactionInput) (core.CreateResult, error) {
	createdAt := in.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	var out core.CreateResult
	acct, err := r.resolveAccount(ctx, q, in.Account)
	if err != nil {
		return out, err
	}

	id, err := q.CreateTransaction(ctx, CreateTransactionParams{
		Type:      string(in.Type),
		Amount:    in.Amount.String(),
		Note:      in.Note,
		AccountID: nullAccountID(acct),
		Category:  in.Category,
		CreatedAt: formatTime(createdAt),
	})
	if err != nil {
		return out, core.NewStorageError("insert transaction", err)
	}

	if acct != nil {
		updated, err := adjustBalance(ctx, q, *acct, core.Delta(in.Type, in.Amount))
		if err != nil {
			return out, err
		}
		out.Account = &updated
	}

	out.Transaction, err = loadTransaction(ctx, q, id)
	return out, err
}

// SeedIfEmpty writes accounts and then txs in a single SQL transaction, and
// only when the ledger has no account yet. seeded is false when it did
// nothing. A failure leaves the ledger empty so a later call can retry.
func (r *SQLiteRepository) SeedIfEmpty(ctx context.Context, accounts []core.AccountInput, txs []core.TransactionInput) (res core.SeedResult, seeded bool, err error) {
	accounts = slices.Clone(accounts)
	txs = slices.Clone(txs)
	for i := range accounts {
		accounts[i] = normalizeAccountInput(accounts[i])
		if err := accounts[i].Validate(); err != nil {
			return core.SeedResult{}, false, fmt.Errorf("seed account %d: %w", i, err)
		}
	}
	for i := range txs {
		txs[i] = txs[i].Normalize()
		if err := txs[i].Validate(); err != nil {
			return core.SeedResult{}, false, fmt.Errorf("seed transaction %d: %w", i, err)
		}
	}

	err = r.withTx(ctx, "seed ledger", func(q *Queries) error {
		n, err := q.CountAccounts(ctx)
		if err != nil {
			return core.NewStorageError("count accounts", err)
		}
		if n > 0 {
			return nil
		}

		ids := make([]int64, 0, len(accounts))
		for _, in := range accounts {
			a, err := r.insertAccount(ctx, q, in)
			if err != nil {
				return err
			}
			ids = append(ids, a.ID)
		}
		for _, in := range txs {
			created, err := r.insertTransaction(ctx, q, in)
			if err != nil {
				return err
			}
			res.Transactions = append(res.Transactions, created.Transaction)
		}
		// Balances after every transaction was applied.
		for _, id := range ids {
			a, err := loadAccount(ctx, q, id)
			if err != nil {
				return err
			}
			res.Accounts = append(res.Accounts, a)
		}
		seeded = true
		return nil
	})
	if err != nil {
		return core.SeedResult{}, false, err
	}
	return res, seeded, nil
}

// UpdateTransaction rewrites transaction id and moves its balance effect.
// The old account comes from the stored row, the new one from in.Account.
// When both are the same account its balance is adjusted once with the
// combined delta; otherwise the old delta is reversed on the old account and
// the new delta applied to the new one.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, id int64, in core.TransactionInput) (core.UpdateResult, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return core.UpdateResult{}, err
	}

	var out core.UpdateResult
	err := r.withTx(ctx, "update transaction", func(q *Queries) error {
		existing, err := loadTransaction(ctx, q, id)
		if err != nil {
			return err
		}

		newAcct, err := r.resolveAccount(ctx, q, in.Account)
		if err != nil {
			return err
		}

		oldDelta := existing.Delta()
		newDelta := core.Delta(in.Type, in.Amount)

		if existing.HasAccount() && newAcct != nil && existing.AccountID == newAcct.ID {
			updated, err := adjustBalance(ctx, q, *newAcct, newDelta.Sub(oldDelta))
			if err != nil {
				return err
			}
			out.Accounts = append(out.Accounts, updated)
		} else {
			if existing.HasAccount() {
				old, err := loadAccount(ctx, q, existing.AccountID)
				switch {
				case err == nil:
					updated, err := adjustBalance(ctx, q, old, oldDelta.Neg())
					if err != nil {
						return err
					}
					out.Accounts = append(out.Accounts, updated)
				case errors.Is(err, core.ErrNotFound):
					// Dangling reference, nothing to reverse.
				default:
					return err
				}
			}
			if newAcct != nil {
				updated, err := adjustBalance(ctx, q, *newAcct, newDelta)
				if err != nil {
					return err
				}
				out.Accounts = append(out.Accounts, updated)
			}
		}

		createdAt := existing.CreatedAt
		if !in.CreatedAt.IsZero() {
			createdAt = in.CreatedAt
		}
		err = q.UpdateTransaction(ctx, UpdateTransactionParams{
			Type:      string(in.Type),
			Amount:    in.Amount.String(),
			Note:      in.Note,
			AccountID: nullAccountID(newAcct),
			Category:  in.Category,
			CreatedAt: formatTime(createdAt),
			ID:        id,
		})
		if err != nil {
			return core.NewStorageError("update transaction", err)
		}

		out.Transaction, err = loadTransaction(ctx, q, id)
		return err
	})
	if err != nil {
		return core.UpdateResult{}, err
	}

	slog.InfoContext(ctx, "Transaction updated",
		"transaction_id", id,
		"accounts_changed", len(out.Accounts))
	return out, nil
}

// DeleteTransaction removes transaction id and reverses its delta. Deleting
// an unknown id is a no-op reported with deleted == false and no error. The
// returned account is nil when the transaction had none.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (*core.Account, bool, error) {
	var (
		out     *core.Account
		deleted bool
	)
	err := r.withTx(ctx, "delete transaction", func(q *Queries) error {
		existing, err := loadTransaction(ctx, q, id)
		if errors.Is(err, core.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if existing.HasAccount() {
			a, err := loadAccount(ctx, q, existing.AccountID)
			switch {
			case err == nil:
				updated, err := adjustBalance(ctx, q, a, existing.Delta().Neg())
				if err != nil {
					return err
				}
				out = &updated
			case errors.Is(err, core.ErrNotFound):
			default:
				return err
			}
		}

		if err := q.DeleteTransaction(ctx, id); err != nil {
			return core.NewStorageError("delete transaction", err)
		}
		deleted = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if deleted {
		slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	}
	return out, deleted, nil
}

// DeleteAccount removes the account and every transaction referencing it.
// The returned ids are the deleted transactions in ascending order.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) (core.DeleteAccountResult, error) {
	out := core.DeleteAccountResult{AccountID: id}
	err := r.withTx(ctx, "delete account", func(q *Queries) error {
		if _, err := loadAccount(ctx, q, id); err != nil {
			return err
		}

		ids, err := q.ListTransactionIDsByAccount(ctx, id)
		if err != nil {
			return core.NewStorageError("list account transactions", err)
		}
		if err := q.DeleteTransactionsByAccount(ctx, id); err != nil {
			return core.NewStorageError("delete account transactions", err)
		}
		if err := q.DeleteAccount(ctx, id); err != nil {
			return core.NewStorageError("delete account", err)
		}
		out.TransactionIDs = ids
		return nil
	})
	if err != nil {
		return core.DeleteAccountResult{}, err
	}
	if out.TransactionIDs == nil {
		out.TransactionIDs = []int64{}
	}

	slog.InfoContext(ctx, "Account deleted",
		"account_id", id,
		"transactions_deleted", len(out.TransactionIDs))
	return out, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return loadTransaction(ctx, r.queries, id)
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactions(ctx)
	if err != nil {
		return nil, core.NewStorageError("list transactions", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := toCoreTransaction(row)
		if err != nil {
			return nil, core.NewStorageError("decode transaction", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func loadAccount(ctx context.Context, q *Queries, id int64) (core.Account, error) {
	row, err := q.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %d: %w", id, core.ErrAccountNotFound)
	}
	if err != nil {
		return core.Account{}, core.NewStorageError("get account", err)
	}
	a, err := toCoreAccount(row)
	if err != nil {
		return core.Account{}, core.NewStorageError("decode account", err)
	}
	return a, nil
}

func loadTransaction(ctx context.Context, q *Queries, id int64) (core.Transaction, error) {
	row, err := q.GetTransaction(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", id, core.ErrTransactionNotFound)
	}
	if err != nil {
		return core.Transaction{}, core.NewStorageError("get transaction", err)
	}
	tx, err := toCoreTransaction(row)
	if err != nil {
		return core.Transaction{}, core.NewStorageError("decode transaction", err)
	}
	return tx, nil
}

// adjustBalance adds delta to the balance of a and returns the stored row.
func adjustBalance(ctx context.Context, q *Queries, a core.Account, delta decimal.Decimal) (core.Account, error) {
	row, err := q.UpdateAccountBalance(ctx, UpdateAccountBalanceParams{
		Balance: a.Balance.Add(delta).String(),
		ID:      a.ID,
	})
	if err != nil {
		return core.Account{}, core.NewStorageError("update balance", err)
	}
	updated, err := toCoreAccount(row)
	if err != nil {
		return core.Account{}, core.NewStorageError("decode account", err)
	}
	return updated, nil
}
