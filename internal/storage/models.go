package storage

import "database/sql"

type Account struct {
	ID        int64
	Name      string
	Type      string
	Balance   string
	CreatedAt string
}

// TransactionRow is a transactions row joined with its account.
type TransactionRow struct {
	ID          int64
	Type        string
	Amount      string
	Note        string
	AccountID   sql.NullInt64
	Category    string
	CreatedAt   string
	AccountName sql.NullString
	AccountType sql.NullString
}

type Setting struct {
	Key       string
	Value     string
	UpdatedAt string
}
