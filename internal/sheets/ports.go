package sheets

import (
	"context"

	"fiscus/internal/core"
)

// Ports for outbound adapters.
type (
	// JournalWriter appends one row per ledger event to an external journal.
	JournalWriter interface {
		Append(ctx context.Context, ev core.LedgerEvent) (rowRef string, err error)
	}
)
