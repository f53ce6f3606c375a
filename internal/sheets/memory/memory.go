package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"fiscus/internal/core"
	ports "fiscus/internal/sheets"
)

// Store is an in-process journal used when no spreadsheet is configured.
// Appending an event id that was already journaled returns the original
// reference, so redelivered messages do not produce duplicate rows.
type Store struct {
	mu     sync.Mutex
	rows   [][]string
	byID   map[string]int
	counts map[core.EventKind]int
}

var _ ports.JournalWriter = (*Store)(nil)

func New() *Store {
	return &Store{
		byID:   make(map[string]int),
		counts: make(map[core.EventKind]int),
	}
}

// Append stores the journal row for ev and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, ev core.LedgerEvent) (string, error) {
	if ev.ID == "" {
		return "", errors.New("ledger event without id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.byID[ev.ID]; ok {
		return ref(n), nil
	}
	s.rows = append(s.rows, ports.JournalRow(ev))
	n := len(s.rows)
	s.byID[ev.ID] = n
	s.counts[ev.Kind]++
	return ref(n), nil
}

// Rows returns a copy of the journal.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]string, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Counts returns how many events of each kind were journaled.
func (s *Store) Counts() map[core.EventKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.EventKind]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func ref(n int) string {
	return fmt.Sprintf("mem:%d", n)
}
