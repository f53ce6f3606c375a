package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"fiscus/internal/core"
	"fiscus/internal/sheets"
)

// MirrorWorker copies ledger events consumed from the broker into a journal.
type MirrorWorker struct {
	journal sheets.JournalWriter

	processed atomic.Int64
	failed    atomic.Int64
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Processed int64
	Failed    int64
}

func NewMirrorWorker(journal sheets.JournalWriter) *MirrorWorker {
	return &MirrorWorker{journal: journal}
}

// HandleEvent journals one event. An error makes the consumer requeue the
// message.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev core.LedgerEvent) error {
	ref, err := w.journal.Append(ctx, ev)
	if err != nil {
		w.failed.Add(1)
		return fmt.Errorf("journal event %s: %w", ev.ID, err)
	}
	w.processed.Add(1)

	slog.InfoContext(ctx, "Ledger event mirrored",
		"component", "worker",
		"event_id", ev.ID,
		"kind", ev.Kind,
		"ref", ref)
	return nil
}

func (w *MirrorWorker) Stats() Stats {
	return Stats{
		Processed: w.processed.Load(),
		Failed:    w.failed.Load(),
	}
}

// ReportStats logs the counters every interval until ctx is done.
func (w *MirrorWorker) ReportStats(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := w.Stats()
			if s == last {
				continue
			}
			slog.InfoContext(ctx, "Mirror progress",
				"component", "worker",
				"processed", s.Processed,
				"failed", s.Failed,
				"processed_since_last", s.Processed-last.Processed)
			last = s
		}
	}
}
