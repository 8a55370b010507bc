package memory

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	maxSummaryQueries = 2
	maxQueryRunes     = 40
)

// Manager owns the in-process session memory and mirrors it into the
// long-term store on a fixed interval. Load and parse failures are
// tolerated: the manager starts empty and keeps serving.
type Manager struct {
	mu      sync.Mutex
	store   Store
	records map[string]*Record
	dirty   bool
	onFlush func(error)
}

func NewManager(ctx context.Context, store Store) *Manager {
	m := &Manager{store: store, records: make(map[string]*Record)}
	if store == nil {
		return m
	}
	records, err := store.Load(ctx)
	if err != nil {
		log.Printf("long-term memory load failed, starting empty: %v", err)
		return m
	}
	m.records = records
	return m
}

// SetFlushHook registers a callback invoked after every flush attempt.
func (m *Manager) SetFlushHook(hook func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFlush = hook
}

// Observe folds one user message into the session's record and returns a
// copy of the updated record. A session unseen since startup is seeded
// from whatever the long-term store held for it.
func (m *Manager) Observe(sessionID, message string) Record {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.records[sessionID]
	if !ok {
		r = newRecord(now)
		m.records[sessionID] = r
	}
	r.LastSeen = now
	r.FrequentQueries[NormalizeQuery(message)]++
	extractInto(r, message)
	m.dirty = true
	return r.clone()
}

// Peek returns the current record for a session without mutating it.
func (m *Manager) Peek(sessionID string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[sessionID]
	if !ok {
		return Record{}, false
	}
	return r.clone(), true
}

// Summarize renders a short Spanish synopsis of the session's
// accumulated signal. It returns the empty string when there is nothing
// worth telling the model.
func (m *Manager) Summarize(sessionID string) string {
	m.mu.Lock()
	r, ok := m.records[sessionID]
	if !ok {
		m.mu.Unlock()
		return ""
	}
	snapshot := r.clone()
	m.mu.Unlock()

	return summarize(snapshot)
}

func summarize(r Record) string {
	var parts []string
	if len(r.Topics) > 0 {
		parts = append(parts, "Temas consultados: "+strings.Join(r.Topics, ", ")+".")
	}
	if len(r.MentionedProducts) > 0 {
		parts = append(parts, "Productos mencionados: "+strings.Join(r.MentionedProducts, ", ")+".")
	}
	if len(r.Interests) > 0 {
		phrases := make([]string, 0, len(r.Interests))
		for _, in := range r.Interests {
			if p, ok := interestPhrases[in]; ok {
				phrases = append(phrases, p)
			}
		}
		if len(phrases) > 0 {
			parts = append(parts, "Perfil de la clienta: "+strings.Join(phrases, "; ")+".")
		}
	}
	if repeated := repeatedQueries(r.FrequentQueries); len(repeated) > 0 {
		quoted := make([]string, len(repeated))
		for i, q := range repeated {
			quoted[i] = fmt.Sprintf("%q", q)
		}
		parts = append(parts, "Consultas repetidas: "+strings.Join(quoted, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// repeatedQueries picks up to two queries seen more than once, most
// frequent first, each truncated for prompt economy.
func repeatedQueries(counts map[string]int) []string {
	var queries []string
	for q, n := range counts {
		if n > 1 {
			queries = append(queries, q)
		}
	}
	sort.Slice(queries, func(i, j int) bool {
		if counts[queries[i]] != counts[queries[j]] {
			return counts[queries[i]] > counts[queries[j]]
		}
		return queries[i] < queries[j]
	})
	if len(queries) > maxSummaryQueries {
		queries = queries[:maxSummaryQueries]
	}
	for i, q := range queries {
		queries[i] = truncateRunes(q, maxQueryRunes)
	}
	return queries
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

// StartFlusher writes the memory document on a fixed interval until the
// context is cancelled. The data-loss window on crash is bounded by the
// interval; call Flush on shutdown to close it.
func (m *Manager) StartFlusher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := m.Flush(context.Background()); err != nil {
					log.Printf("long-term memory flush failed: %v", err)
				}
			}
		}
	}()
}

// Flush snapshots the records under the lock and writes the snapshot
// outside it, so an in-flight mutation can never interleave with a
// partial write. A clean state is a no-op.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	if !m.dirty || m.store == nil {
		m.mu.Unlock()
		return nil
	}
	snapshot := make(map[string]*Record, len(m.records))
	for id, r := range m.records {
		c := r.clone()
		snapshot[id] = &c
	}
	m.dirty = false
	hook := m.onFlush
	m.mu.Unlock()

	err := m.store.Save(ctx, snapshot)
	if err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
	}
	if hook != nil {
		hook(err)
	}
	return err
}
