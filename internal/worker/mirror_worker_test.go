package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fiscus/internal/core"
	"fiscus/internal/sheets/memory"
)

type failingJournal struct{}

func (failingJournal) Append(context.Context, core.LedgerEvent) (string, error) {
	return "", errors.New("quota exceeded")
}

func TestMirrorWorkerHandleEvent(t *testing.T) {
	journal := memory.New()
	w := NewMirrorWorker(journal)
	ctx := context.Background()

	events := []core.LedgerEvent{
		{ID: "1", Kind: core.EventAccountCreated, OccurredAt: time.Now()},
		{ID: "2", Kind: core.EventTransactionCreated, OccurredAt: time.Now()},
	}
	for _, ev := range events {
		if err := w.HandleEvent(ctx, ev); err != nil {
			t.Fatalf("handle %s: %v", ev.ID, err)
		}
	}

	if journal.Len() != 2 {
		t.Fatalf("journal has %d rows, want 2", journal.Len())
	}
	if s := w.Stats(); s.Processed != 2 || s.Failed != 0 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestMirrorWorkerJournalFailure(t *testing.T) {
	w := NewMirrorWorker(failingJournal{})

	err := w.HandleEvent(context.Background(), core.LedgerEvent{ID: "x", Kind: core.EventAccountDeleted})
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if s := w.Stats(); s.Processed != 0 || s.Failed != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestMirrorWorkerReportStatsStops(t *testing.T) {
	w := NewMirrorWorker(memory.New())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.ReportStats(ctx, time.Millisecond)
		close(done)
	}()
	_ = w.HandleEvent(ctx, core.LedgerEvent{ID: "1", Kind: core.EventAccountCreated})
	time.Sleep(5 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("ReportStats did not return after cancel")
	}
}
