// Package analysis aggregates transactions into monthly reports. Everything
// here is a pure function of its inputs.
package analysis

import (
	"sort"
	"strings"
	"time"

	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

const otherLabel = "Other"

// LabelTotal is one row of a breakdown list.
type LabelTotal struct {
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
}

// DayBucket holds the totals booked on one calendar day.
type DayBucket struct {
	Day     int             `json:"day"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// MonthlyReport is the analysis of one calendar month compared to the month
// before it.
type MonthlyReport struct {
	Year            int                 `json:"year"`
	Month           int                 `json:"month"`
	Income          decimal.Decimal     `json:"income"`
	Expense         decimal.Decimal     `json:"expense"`
	PreviousIncome  decimal.Decimal     `json:"previousIncome"`
	PreviousExpense decimal.Decimal     `json:"previousExpense"`
	Net             decimal.Decimal     `json:"net"`
	PreviousNet     decimal.Decimal     `json:"previousNet"`
	ExpenseChange   decimal.NullDecimal `json:"expenseChangePct"`
	NetChange       decimal.NullDecimal `json:"netChangePct"`
	ExpenseByCat    []LabelTotal        `json:"expenseByCategory"`
	IncomeBySource  []LabelTotal        `json:"incomeBySource"`
	DailySeries     []DayBucket         `json:"dailySeries"`
	MaxDaily        decimal.Decimal     `json:"maxDaily"`
}

// Analyze builds the report for target from txs. Timestamps are converted to
// loc before bucketing; a nil loc means UTC. txs is not modified.
func Analyze(txs []core.Transaction, target core.Month, loc *time.Location) MonthlyReport {
	if loc == nil {
		loc = time.UTC
	}

	days := target.Days()
	series := make([]DayBucket, days)
	for i := range series {
		series[i] = DayBucket{Day: i + 1, Income: decimal.Zero, Expense: decimal.Zero}
	}

	cur := target.Index()
	prev := cur - 1

	var (
		income, expense         = decimal.Zero, decimal.Zero
		prevIncome, prevExpense = decimal.Zero, decimal.Zero
		byCategory              = newBreakdown()
		bySource                = newBreakdown()
	)

	for _, tx := range txs {
		at := tx.CreatedAt.In(loc)
		idx := core.MonthOf(at).Index()

		switch idx {
		case cur:
			bucket := &series[at.Day()-1]
			if tx.Type == core.Income {
				income = income.Add(tx.Amount)
				bucket.Income = bucket.Income.Add(tx.Amount)
				bySource.add(incomeLabel(tx), tx.Amount)
			} else {
				expense = expense.Add(tx.Amount)
				bucket.Expense = bucket.Expense.Add(tx.Amount)
				byCategory.add(expenseLabel(tx), tx.Amount)
			}
		case prev:
			if tx.Type == core.Income {
				prevIncome = prevIncome.Add(tx.Amount)
			} else {
				prevExpense = prevExpense.Add(tx.Amount)
			}
		}
	}

	net := income.Sub(expense)
	prevNet := prevIncome.Sub(prevExpense)

	report := MonthlyReport{
		Year:            target.Year,
		Month:           int(target.Month),
		Income:          income,
		Expense:         expense,
		PreviousIncome:  prevIncome,
		PreviousExpense: prevExpense,
		Net:             net,
		PreviousNet:     prevNet,
		ExpenseByCat:    byCategory.sorted(),
		IncomeBySource:  bySource.sorted(),
		DailySeries:     series,
		MaxDaily:        maxDaily(series),
	}
	if prevExpense.IsPositive() {
		report.ExpenseChange = decimal.NewNullDecimal(expense.Sub(prevExpense).Div(prevExpense))
	}
	if !prevNet.IsZero() {
		report.NetChange = decimal.NewNullDecimal(net.Sub(prevNet).Div(prevNet.Abs()))
	}
	return report
}

func expenseLabel(tx core.Transaction) string {
	if c := strings.TrimSpace(tx.Category); c != "" {
		return c
	}
	return otherLabel
}

func incomeLabel(tx core.Transaction) string {
	for _, s := range []string{tx.Category, tx.Note, tx.AccountName} {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return otherLabel
}

func maxDaily(series []DayBucket) decimal.Decimal {
	max := decimal.NewFromInt(1)
	for _, b := range series {
		max = decimal.Max(max, b.Income, b.Expense)
	}
	return max
}

// breakdown accumulates totals per label, remembering first-seen order so
// that equal totals keep a stable position after sorting.
type breakdown struct {
	order  []string
	totals map[string]decimal.Decimal
}

func newBreakdown() *breakdown {
	return &breakdown{totals: make(map[string]decimal.Decimal)}
}

func (b *breakdown) add(label string, amount decimal.Decimal) {
	cur, ok := b.totals[label]
	if !ok {
		b.order = append(b.order, label)
		cur = decimal.Zero
	}
	b.totals[label] = cur.Add(amount)
}

// sorted returns the rows ascending by total.
func (b *breakdown) sorted() []LabelTotal {
	out := make([]LabelTotal, 0, len(b.order))
	for _, label := range b.order {
		out = append(out, LabelTotal{Label: label, Total: b.totals[label]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.LessThan(out[j].Total)
	})
	return out
}
