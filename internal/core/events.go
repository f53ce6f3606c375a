package core

import "time"

const (
	EventAccountCreated     EventKind = "account.created"
	EventAccountUpdated     EventKind = "account.updated"
	EventAccountDeleted     EventKind = "account.deleted"
	EventTransactionCreated EventKind = "transaction.created"
	EventTransactionUpdated EventKind = "transaction.updated"
	EventTransactionDeleted EventKind = "transaction.deleted"
)

type EventKind string

// LedgerEvent describes one committed ledger mutation. It is what the
// remote mirror receives; Accounts carries the post-mutation state of every
// account the mutation touched.
type LedgerEvent struct {
	ID                    string
	Kind                  EventKind
	Transaction           *Transaction
	Accounts              []Account
	DeletedAccountID      int64
	DeletedTransactionIDs []int64
	OccurredAt            time.Time
}
