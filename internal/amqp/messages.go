package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

// LedgerEventMessage is the wire form of a core.LedgerEvent. It carries the
// full post-mutation state so the mirror never reads the ledger database.
type LedgerEventMessage struct {
	ID                    string              `json:"id"`
	Kind                  string              `json:"kind"`
	Transaction           *TransactionPayload `json:"transaction,omitempty"`
	Accounts              []AccountPayload    `json:"accounts,omitempty"`
	DeletedAccountID      int64               `json:"deletedAccountId,omitempty"`
	DeletedTransactionIDs []int64             `json:"deletedTransactionIds,omitempty"`
	OccurredAt            time.Time           `json:"occurredAt"`
}

type AccountPayload struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
}

type TransactionPayload struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Note        string          `json:"note,omitempty"`
	Category    string          `json:"category,omitempty"`
	AccountID   int64           `json:"accountId,omitempty"`
	AccountName string          `json:"accountName,omitempty"`
	AccountType string          `json:"accountType,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func NewLedgerEventMessage(ev core.LedgerEvent) *LedgerEventMessage {
	msg := &LedgerEventMessage{
		ID:                    ev.ID,
		Kind:                  string(ev.Kind),
		DeletedAccountID:      ev.DeletedAccountID,
		DeletedTransactionIDs: ev.DeletedTransactionIDs,
		OccurredAt:            ev.OccurredAt,
	}
	if ev.Transaction != nil {
		t := ev.Transaction
		msg.Transaction = &TransactionPayload{
			ID:          t.ID,
			Type:        string(t.Type),
			Amount:      t.Amount,
			Note:        t.Note,
			Category:    t.Category,
			AccountID:   t.AccountID,
			AccountName: t.AccountName,
			AccountType: string(t.AccountType),
			CreatedAt:   t.CreatedAt,
		}
	}
	for _, a := range ev.Accounts {
		msg.Accounts = append(msg.Accounts, AccountPayload{
			ID:        a.ID,
			Name:      a.Name,
			Type:      string(a.Type),
			Balance:   a.Balance,
			CreatedAt: a.CreatedAt,
		})
	}
	return msg
}

// ToEvent converts the message back into a ledger event.
func (m *LedgerEventMessage) ToEvent() core.LedgerEvent {
	ev := core.LedgerEvent{
		ID:                    m.ID,
		Kind:                  core.EventKind(m.Kind),
		DeletedAccountID:      m.DeletedAccountID,
		DeletedTransactionIDs: m.DeletedTransactionIDs,
		OccurredAt:            m.OccurredAt,
	}
	if p := m.Transaction; p != nil {
		ev.Transaction = &core.Transaction{
			ID:          p.ID,
			Type:        core.TransactionType(p.Type),
			Amount:      p.Amount,
			Note:        p.Note,
			Category:    p.Category,
			AccountID:   p.AccountID,
			AccountName: p.AccountName,
			AccountType: core.AccountType(p.AccountType),
			CreatedAt:   p.CreatedAt,
		}
	}
	for _, a := range m.Accounts {
		ev.Accounts = append(ev.Accounts, core.Account{
			ID:        a.ID,
			Name:      a.Name,
			Type:      core.AccountType(a.Type),
			Balance:   a.Balance,
			CreatedAt: a.CreatedAt,
		})
	}
	return ev
}

func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON decodes and sanity-checks a message body.
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("message without id")
	}
	switch core.EventKind(msg.Kind) {
	case core.EventAccountCreated, core.EventAccountUpdated, core.EventAccountDeleted,
		core.EventTransactionCreated, core.EventTransactionUpdated, core.EventTransactionDeleted:
	default:
		return nil, fmt.Errorf("unknown event kind %q", msg.Kind)
	}
	return &msg, nil
}
