package analysis

import (
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

// HomeSummary is the overview shown on the home screen.
type HomeSummary struct {
	TotalBalance decimal.Decimal
	Month        core.Month
	Income       decimal.Decimal
	Expense      decimal.Decimal
	Net          decimal.Decimal
	Recent       []core.Transaction
}

// Summarize totals the account balances and the month containing now, and
// returns up to recent transactions in the order given. txs is expected to be
// newest first, as the ledger lists them.
func Summarize(accounts []core.Account, txs []core.Transaction, now time.Time, loc *time.Location, recent int) HomeSummary {
	if loc == nil {
		loc = time.UTC
	}
	month := core.MonthOf(now.In(loc))

	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}

	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		if core.MonthOf(tx.CreatedAt.In(loc)) != month {
			continue
		}
		if tx.Type == core.Income {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}

	if recent < 0 {
		recent = 0
	}
	if recent > len(txs) {
		recent = len(txs)
	}
	latest := make([]core.Transaction, recent)
	copy(latest, txs[:recent])

	return HomeSummary{
		TotalBalance: total,
		Month:        month,
		Income:       income,
		Expense:      expense,
		Net:          income.Sub(expense),
		Recent:       latest,
	}
}

// MonthOptions returns the n months ending with the month containing now,
// oldest first.
func MonthOptions(now time.Time, n int) []core.Month {
	if n <= 0 {
		return nil
	}
	last := core.MonthOf(now).Index()
	out := make([]core.Month, 0, n)
	for idx := last - n + 1; idx <= last; idx++ {
		out = append(out, core.MonthFromIndex(idx))
	}
	return out
}
