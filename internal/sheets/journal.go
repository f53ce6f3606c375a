package sheets

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"fiscus/internal/core"
)

// JournalHeader names the columns produced by JournalRow.
var JournalHeader = []string{
	"Occurred At",
	"Event ID",
	"Kind",
	"Transaction",
	"Type",
	"Amount",
	"Category",
	"Note",
	"Account",
	"Balances",
	"Deleted",
}

// JournalRow flattens ev into one spreadsheet row. Amounts and balances are
// written as decimal strings so no precision is lost on the way.
func JournalRow(ev core.LedgerEvent) []string {
	row := make([]string, len(JournalHeader))
	row[0] = ev.OccurredAt.UTC().Format(time.RFC3339)
	row[1] = ev.ID
	row[2] = string(ev.Kind)

	if t := ev.Transaction; t != nil {
		row[3] = strconv.FormatInt(t.ID, 10)
		row[4] = string(t.Type)
		row[5] = t.Amount.String()
		row[6] = t.Category
		row[7] = t.Note
		if t.HasAccount() {
			row[8] = fmt.Sprintf("%s (%s)", t.AccountName, t.AccountType)
		}
	}

	balances := make([]string, 0, len(ev.Accounts))
	for _, a := range ev.Accounts {
		balances = append(balances, fmt.Sprintf("%s=%s", a.Name, a.Balance.String()))
	}
	row[9] = strings.Join(balances, "; ")

	var deleted []string
	if ev.DeletedAccountID != 0 {
		deleted = append(deleted, "account "+strconv.FormatInt(ev.DeletedAccountID, 10))
	}
	if len(ev.DeletedTransactionIDs) > 0 {
		ids := make([]string, len(ev.DeletedTransactionIDs))
		for i, id := range ev.DeletedTransactionIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		deleted = append(deleted, "transactions "+strings.Join(ids, ","))
	}
	row[10] = strings.Join(deleted, "; ")

	return row
}
