package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

var demoAccounts = []core.AccountInput{
	{Name: "Sparkasse", Type: core.AccountBank, Balance: decimal.RequireFromString("1500.20")},
	{Name: "Revolut", Type: core.AccountWallet, Balance: decimal.RequireFromString("800")},
	{Name: "Chillar", Type: core.AccountWallet, Balance: decimal.RequireFromString("120.30")},
}

var (
	demoExpenseCategories = []string{"Groceries", "Bills", "Shopping", "Travel"}
	demoIncomeCategories  = []string{"Salary", "Bonus"}
	demoNotes             = []string{
		"Lidl Groceries",
		"Metro Transport",
		"Zara Clothing",
		"Internet Bill",
		"Coffee Shop",
		"Weekend Trip",
		"Project Bonus",
		"Salary",
	}
)

const (
	demoMonths     = 3
	demoTxPerMonth = 12
)

// SeedIfEmpty fills an empty ledger with demo accounts and three months of
// transactions ending today. It does nothing when any account exists. The
// whole set is written atomically, so a failed seed can be retried.
func (s *LedgerService) SeedIfEmpty(ctx context.Context) (bool, error) {
	now := s.now().In(s.loc)
	res, seeded, err := s.store.SeedIfEmpty(ctx, demoAccounts, demoTransactions(now))
	if err != nil {
		return false, fmt.Errorf("seed demo data: %w", err)
	}
	if !seeded {
		return false, nil
	}

	for _, a := range res.Accounts {
		s.committed(ctx, core.LedgerEvent{Kind: core.EventAccountCreated, Accounts: []core.Account{a}})
	}
	for i := range res.Transactions {
		s.committed(ctx, core.LedgerEvent{Kind: core.EventTransactionCreated, Transaction: &res.Transactions[i]})
	}

	slog.InfoContext(ctx, "Demo data seeded",
		"accounts", len(res.Accounts),
		"transactions", len(res.Transactions))
	return true, nil
}

// demoTransactions builds the demo set. Amounts are derived from the
// position in the set so repeated seeds produce the same ledger. Rows of the
// current month never fall after now.
func demoTransactions(now time.Time) []core.TransactionInput {
	out := make([]core.TransactionInput, 0, demoMonths*demoTxPerMonth)
	current := core.MonthOf(now)
	for offset := 0; offset < demoMonths; offset++ {
		m := core.MonthFromIndex(current.Index() - offset)
		for i := 0; i < demoTxPerMonth; i++ {
			day := 1 + (i*2)%27
			if offset == 0 && day > now.Day() {
				day = now.Day()
			}
			at := time.Date(m.Year, m.Month, day, now.Hour(), now.Minute(), 0, 0, now.Location())

			typ := core.Expense
			amount := int64(10 + (i*29+offset*17)%140)
			category := demoExpenseCategories[i%len(demoExpenseCategories)]
			if i%5 == 0 {
				typ = core.Income
				amount = int64(200 + (i*37+offset*53)%600)
				category = demoIncomeCategories[i%len(demoIncomeCategories)]
			}

			acct := demoAccounts[(i+offset)%len(demoAccounts)]
			out = append(out, core.TransactionInput{
				Type:      typ,
				Amount:    decimal.NewFromInt(amount),
				Note:      demoNotes[i%len(demoNotes)],
				Account:   core.AccountRef{Name: acct.Name, Type: acct.Type},
				Category:  category,
				CreatedAt: at,
			})
		}
	}
	return out
}
