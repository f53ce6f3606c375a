package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

const (
	maxNameLength = 100
	maxNoteLength = 500
)

const (
	AccountBank   AccountType = "bank"
	AccountCash   AccountType = "cash"
	AccountWallet AccountType = "wallet"

	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	AccountType string

	TransactionType string

	Account struct {
		ID        int64
		Name      string
		Type      AccountType
		Balance   decimal.Decimal
		CreatedAt time.Time
	}

	Transaction struct {
		ID          int64
		Type        TransactionType
		Amount      decimal.Decimal // always positive
		Note        string
		CreatedAt   time.Time
		AccountID   int64 // 0 when the transaction has no account
		AccountName string
		AccountType AccountType
		Category    string
	}

	// AccountRef identifies the account a transaction should be booked on.
	// ID wins over Name+Type; both Name and Type are needed for the fallback.
	AccountRef struct {
		ID   int64
		Name string
		Type AccountType
	}

	AccountInput struct {
		Name    string
		Type    AccountType
		Balance decimal.Decimal
	}

	TransactionInput struct {
		Type      TransactionType
		Amount    decimal.Decimal
		Note      string
		Account   AccountRef
		Category  string
		CreatedAt time.Time // zero means "now" on create and "unchanged" on update
	}

	// CreateResult is returned by a transaction insert. Account is nil when
	// the transaction was booked without an account.
	CreateResult struct {
		Transaction Transaction
		Account     *Account
	}

	// UpdateResult lists every account whose balance moved (0, 1 or 2 entries).
	UpdateResult struct {
		Transaction Transaction
		Accounts    []Account
	}

	DeleteAccountResult struct {
		AccountID      int64
		TransactionIDs []int64
	}

	// SeedResult lists what a seed wrote. Account balances include the
	// seeded transactions.
	SeedResult struct {
		Accounts     []Account
		Transactions []Transaction
	}
)

func (t AccountType) Valid() bool {
	switch t {
	case AccountBank, AccountCash, AccountWallet:
		return true
	default:
		return false
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Delta returns the signed balance change of an amount booked with type t.
func Delta(t TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == Income {
		return amount
	}
	return amount.Neg()
}

// Delta returns the signed balance change this transaction contributes.
func (t Transaction) Delta() decimal.Decimal {
	return Delta(t.Type, t.Amount)
}

// HasAccount reports whether the transaction references an account.
func (t Transaction) HasAccount() bool {
	return t.AccountID != 0
}

// IsZero reports whether the reference names no account at all.
func (r AccountRef) IsZero() bool {
	return r.ID == 0 && (strings.TrimSpace(r.Name) == "" || r.Type == "")
}

// Normalize trims the free-text parts of the reference.
func (r AccountRef) Normalize() AccountRef {
	r.Name = strings.TrimSpace(r.Name)
	r.Type = AccountType(strings.ToLower(strings.TrimSpace(string(r.Type))))
	return r
}

// NameKey is the form account names are matched on: trimmed and Unicode
// case folded, so "Über Bank" and "über bank" name the same account.
func NameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func (in AccountInput) Validate() error {
	if err := validateName(in.Name); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return ErrInvalidAccountType
	}
	return nil
}

func (in TransactionInput) Validate() error {
	if !in.Type.Valid() {
		return ErrInvalidTransactionType
	}
	if !in.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if utf8.RuneCountInString(in.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	return in.Account.Validate()
}

// Validate checks the name and type a reference would create an account
// with. References by id are checked against the store instead.
func (r AccountRef) Validate() error {
	if r.ID < 0 {
		return ErrInvalidAccountRef
	}
	if r.ID != 0 {
		return nil
	}
	if r.Type != "" && !r.Type.Valid() {
		return ErrInvalidAccountType
	}
	if r.IsZero() {
		return nil
	}
	return validateName(r.Name)
}

// Normalize trims text fields so stored rows never carry stray whitespace.
func (in TransactionInput) Normalize() TransactionInput {
	in.Note = strings.TrimSpace(in.Note)
	in.Category = strings.TrimSpace(in.Category)
	in.Account = in.Account.Normalize()
	return in
}
