package storage

import (
	"context"
	"database/sql"
)

const createAccount = `
INSERT INTO accounts (name, name_key, type, balance, created_at)
VALUES (?, ?, ?, ?, ?)
RETURNING id, name, type, balance, created_at
`

type CreateAccountParams struct {
	Name      string
	NameKey   string
	Type      string
	Balance   string
	CreatedAt string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, createAccount, arg.Name, arg.NameKey, arg.Type, arg.Balance, arg.CreatedAt)
	var i Account
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.CreatedAt)
	return i, err
}

const getAccount = `
SELECT id, name, type, balance, created_at FROM accounts WHERE id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var i Account
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.CreatedAt)
	return i, err
}

const findAccountByNameType = `
SELECT id, name, type, balance, created_at FROM accounts
WHERE name_key = ? AND type = ?
ORDER BY id
LIMIT 1
`

type FindAccountByNameTypeParams struct {
	NameKey string
	Type    string
}

func (q *Queries) FindAccountByNameType(ctx context.Context, arg FindAccountByNameTypeParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, findAccountByNameType, arg.NameKey, arg.Type)
	var i Account
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.CreatedAt)
	return i, err
}

const updateAccount = `
UPDATE accounts SET name = ?, name_key = ?, type = ?, balance = ?
WHERE id = ?
RETURNING id, name, type, balance, created_at
`

type UpdateAccountParams struct {
	Name    string
	NameKey string
	Type    string
	Balance string
	ID      int64
}

func (q *Queries) UpdateAccount(ctx context.Context, arg UpdateAccountParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, updateAccount, arg.Name, arg.NameKey, arg.Type, arg.Balance, arg.ID)
	var i Account
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.CreatedAt)
	return i, err
}

const updateAccountBalance = `
UPDATE accounts SET balance = ?
WHERE id = ?
RETURNING id, name, type, balance, created_at
`

type UpdateAccountBalanceParams struct {
	Balance string
	ID      int64
}

func (q *Queries) UpdateAccountBalance(ctx context.Context, arg UpdateAccountBalanceParams) (Account, error) {
	row := q.db.QueryRowContext(ctx, updateAccountBalance, arg.Balance, arg.ID)
	var i Account
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.CreatedAt)
	return i, err
}

const deleteAccount = `
DELETE FROM accounts WHERE id = ?
`

func (q *Queries) DeleteAccount(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteAccount, id)
	return err
}

const listAccounts = `
SELECT id, name, type, balance, created_at FROM accounts
ORDER BY created_at DESC, id DESC
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAccountNameKeys = `
SELECT id, name, name_key FROM accounts ORDER BY id
`

type ListAccountNameKeysRow struct {
	ID      int64
	Name    string
	NameKey string
}

func (q *Queries) ListAccountNameKeys(ctx context.Context) ([]ListAccountNameKeysRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccountNameKeys)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListAccountNameKeysRow
	for rows.Next() {
		var i ListAccountNameKeysRow
		if err := rows.Scan(&i.ID, &i.Name, &i.NameKey); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const setAccountNameKey = `
UPDATE accounts SET name_key = ? WHERE id = ?
`

type SetAccountNameKeyParams struct {
	NameKey string
	ID      int64
}

func (q *Queries) SetAccountNameKey(ctx context.Context, arg SetAccountNameKeyParams) error {
	_, err := q.db.ExecContext(ctx, setAccountNameKey, arg.NameKey, arg.ID)
	return err
}

const countAccounts = `
SELECT COUNT(*) FROM accounts
`

func (q *Queries) CountAccounts(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countAccounts)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createTransaction = `
INSERT INTO transactions (type, amount, note, account_id, category, created_at)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id
`

type CreateTransactionParams struct {
	Type      string
	Amount    string
	Note      string
	AccountID sql.NullInt64
	Category  string
	CreatedAt string
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createTransaction,
		arg.Type, arg.Amount, arg.Note, arg.AccountID, arg.Category, arg.CreatedAt)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const selectTransactionRow = `
SELECT t.id, t.type, t.amount, t.note, t.account_id, t.category, t.created_at,
       a.name, a.type
FROM transactions t
LEFT JOIN accounts a ON a.id = t.account_id
`

const getTransaction = selectTransactionRow + `WHERE t.id = ?`

func (q *Queries) GetTransaction(ctx context.Context, id int64) (TransactionRow, error) {
	row := q.db.QueryRowContext(ctx, getTransaction, id)
	var i TransactionRow
	err := row.Scan(&i.ID, &i.Type, &i.Amount, &i.Note, &i.AccountID, &i.Category, &i.CreatedAt,
		&i.AccountName, &i.AccountType)
	return i, err
}

const listTransactions = selectTransactionRow + `ORDER BY t.created_at DESC, t.id DESC`

func (q *Queries) ListTransactions(ctx context.Context) ([]TransactionRow, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []TransactionRow
	for rows.Next() {
		var i TransactionRow
		if err := rows.Scan(&i.ID, &i.Type, &i.Amount, &i.Note, &i.AccountID, &i.Category, &i.CreatedAt,
			&i.AccountName, &i.AccountType); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateTransaction = `
UPDATE transactions
SET type = ?, amount = ?, note = ?, account_id = ?, category = ?, created_at = ?
WHERE id = ?
`

type UpdateTransactionParams struct {
	Type      string
	Amount    string
	Note      string
	AccountID sql.NullInt64
	Category  string
	CreatedAt string
	ID        int64
}

func (q *Queries) UpdateTransaction(ctx context.Context, arg UpdateTransactionParams) error {
	_, err := q.db.ExecContext(ctx, updateTransaction,
		arg.Type, arg.Amount, arg.Note, arg.AccountID, arg.Category, arg.CreatedAt, arg.ID)
	return err
}

const deleteTransaction = `
DELETE FROM transactions WHERE id = ?
`

func (q *Queries) DeleteTransaction(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransaction, id)
	return err
}

const listTransactionIDsByAccount = `
SELECT id FROM transactions WHERE account_id = ? ORDER BY id
`

func (q *Queries) ListTransactionIDsByAccount(ctx context.Context, accountID int64) ([]int64, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionIDsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteTransactionsByAccount = `
DELETE FROM transactions WHERE account_id = ?
`

func (q *Queries) DeleteTransactionsByAccount(ctx context.Context, accountID int64) error {
	_, err := q.db.ExecContext(ctx, deleteTransactionsByAccount, accountID)
	return err
}

const getSetting = `
SELECT key, value, updated_at FROM settings WHERE key = ?
`

func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	row := q.db.QueryRowContext(ctx, getSetting, key)
	var i Setting
	err := row.Scan(&i.Key, &i.Value, &i.UpdatedAt)
	return i, err
}

const upsertSetting = `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`

type UpsertSettingParams struct {
	Key       string
	Value     string
	UpdatedAt string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, upsertSetting, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const listSettings = `
SELECT key, value, updated_at FROM settings ORDER BY key
`

func (q *Queries) ListSettings(ctx context.Context) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Setting
	for rows.Next() {
		var i Setting
		if err := rows.Scan(&i.Key, &i.Value, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
