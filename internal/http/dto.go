package http

import (
	"strconv"
	"time"

	"fiscus/internal/analysis"
	"fiscus/internal/core"

	"github.com/shopspring/decimal"
)

// amount renders a decimal as a JSON number. decimal.Decimal on its own
// marshals to a quoted string.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

// nullAmount is an amount that may be null.
type nullAmount decimal.NullDecimal

func (a nullAmount) MarshalJSON() ([]byte, error) {
	if !a.Valid {
		return []byte("null"), nil
	}
	return amount(a.Decimal).MarshalJSON()
}

type accountResponse struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Type      core.AccountType `json:"type"`
	Balance   amount           `json:"balance"`
	CreatedAt time.Time        `json:"createdAt"`
}

type transactionResponse struct {
	ID          string               `json:"id"`
	Type        core.TransactionType `json:"type"`
	Amount      amount               `json:"amount"`
	Note        string               `json:"note"`
	CreatedAt   time.Time            `json:"createdAt"`
	AccountID   string               `json:"accountId,omitempty"`
	AccountName string               `json:"accountName,omitempty"`
	AccountType core.AccountType     `json:"accountType,omitempty"`
	Category    string               `json:"category,omitempty"`
}

type createTransactionResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Account     *accountResponse    `json:"account"`
}

type updateTransactionResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Accounts    []accountResponse   `json:"accounts"`
}

type deleteTransactionResponse struct {
	Account *accountResponse `json:"account"`
}

type deleteAccountResponse struct {
	AccountID      string   `json:"accountId"`
	TransactionIDs []string `json:"transactionIds"`
}

type importItemResponse struct {
	Index       int                  `json:"index"`
	Transaction *transactionResponse `json:"transaction,omitempty"`
	Account     *accountResponse     `json:"account,omitempty"`
	Error       string               `json:"error,omitempty"`
}

type importResponse struct {
	Imported int                  `json:"imported"`
	Failed   int                  `json:"failed"`
	Results  []importItemResponse `json:"results"`
}

type summaryResponse struct {
	TotalBalance amount                `json:"totalBalance"`
	Year         int                   `json:"year"`
	Month        int                   `json:"month"`
	Income       amount                `json:"income"`
	Expense      amount                `json:"expense"`
	Net          amount                `json:"net"`
	Recent       []transactionResponse `json:"recent"`
}

type labelTotalResponse struct {
	Label string `json:"label"`
	Total amount `json:"total"`
}

type dayBucketResponse struct {
	Day     int    `json:"day"`
	Income  amount `json:"income"`
	Expense amount `json:"expense"`
}

type reportResponse struct {
	Year              int                  `json:"year"`
	Month             int                  `json:"month"`
	Income            amount               `json:"income"`
	Expense           amount               `json:"expense"`
	PreviousIncome    amount               `json:"previousIncome"`
	PreviousExpense   amount               `json:"previousExpense"`
	Net               amount               `json:"net"`
	PreviousNet       amount               `json:"previousNet"`
	ExpenseChangePct  nullAmount           `json:"expenseChangePct"`
	NetChangePct      nullAmount           `json:"netChangePct"`
	ExpenseByCategory []labelTotalResponse `json:"expenseByCategory"`
	IncomeBySource    []labelTotalResponse `json:"incomeBySource"`
	DailySeries       []dayBucketResponse  `json:"dailySeries"`
	MaxDaily          amount               `json:"maxDaily"`
}

type monthOption struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func toAccountResponse(a core.Account) accountResponse {
	return accountResponse{
		ID:        formatID(a.ID),
		Name:      a.Name,
		Type:      a.Type,
		Balance:   amount(a.Balance),
		CreatedAt: a.CreatedAt,
	}
}

func toAccountResponsePtr(a *core.Account) *accountResponse {
	if a == nil {
		return nil
	}
	resp := toAccountResponse(*a)
	return &resp
}

func toAccountResponses(accounts []core.Account) []accountResponse {
	out := make([]accountResponse, len(accounts))
	for i, a := range accounts {
		out[i] = toAccountResponse(a)
	}
	return out
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:        formatID(t.ID),
		Type:      t.Type,
		Amount:    amount(t.Amount),
		Note:      t.Note,
		CreatedAt: t.CreatedAt,
		Category:  t.Category,
	}
	if t.HasAccount() {
		resp.AccountID = formatID(t.AccountID)
		resp.AccountName = t.AccountName
		resp.AccountType = t.AccountType
	}
	return resp
}

func toTransactionResponses(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, len(txs))
	for i, t := range txs {
		out[i] = toTransactionResponse(t)
	}
	return out
}

func toSummaryResponse(s analysis.HomeSummary) summaryResponse {
	return summaryResponse{
		TotalBalance: amount(s.TotalBalance),
		Year:         s.Month.Year,
		Month:        int(s.Month.Month),
		Income:       amount(s.Income),
		Expense:      amount(s.Expense),
		Net:          amount(s.Net),
		Recent:       toTransactionResponses(s.Recent),
	}
}

func toLabelTotals(in []analysis.LabelTotal) []labelTotalResponse {
	out := make([]labelTotalResponse, len(in))
	for i, lt := range in {
		out[i] = labelTotalResponse{Label: lt.Label, Total: amount(lt.Total)}
	}
	return out
}

func toReportResponse(r analysis.MonthlyReport) reportResponse {
	series := make([]dayBucketResponse, len(r.DailySeries))
	for i, b := range r.DailySeries {
		series[i] = dayBucketResponse{Day: b.Day, Income: amount(b.Income), Expense: amount(b.Expense)}
	}
	return reportResponse{
		Year:              r.Year,
		Month:             r.Month,
		Income:            amount(r.Income),
		Expense:           amount(r.Expense),
		PreviousIncome:    amount(r.PreviousIncome),
		PreviousExpense:   amount(r.PreviousExpense),
		Net:               amount(r.Net),
		PreviousNet:       amount(r.PreviousNet),
		ExpenseChangePct:  nullAmount(r.ExpenseChange),
		NetChangePct:      nullAmount(r.NetChange),
		ExpenseByCategory: toLabelTotals(r.ExpenseByCat),
		IncomeBySource:    toLabelTotals(r.IncomeBySource),
		DailySeries:       series,
		MaxDaily:          amount(r.MaxDaily),
	}
}

func toMonthOptions(months []core.Month) []monthOption {
	out := make([]monthOption, len(months))
	for i, m := range months {
		out[i] = monthOption{Year: m.Year, Month: int(m.Month), Label: m.String()}
	}
	return out
}
