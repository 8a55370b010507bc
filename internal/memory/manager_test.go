package memory

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObserveExtractsSignal(t *testing.T) {
	m := NewManager(context.Background(), nil)

	r := m.Observe("s1", "Hola, ¿cuánto cuesta el tinte para cejas?")

	if !contains(r.Topics, "cejas") {
		t.Fatalf("Topics = %v, want to include cejas", r.Topics)
	}
	if !contains(r.Interests, "compra") {
		t.Fatalf("Interests = %v, want to include compra", r.Interests)
	}
	if !contains(r.MentionedProducts, "tinte") {
		t.Fatalf("MentionedProducts = %v, want to include tinte", r.MentionedProducts)
	}
	if r.FrequentQueries["hola, ¿cuánto cuesta el tinte para cejas?"] != 1 {
		t.Fatalf("FrequentQueries = %v, want normalized query counted once", r.FrequentQueries)
	}
}

func TestObserveIsMonotonic(t *testing.T) {
	m := NewManager(context.Background(), nil)

	messages := []string{
		"busco un tinte para cejas",
		"hola",
		"y limas para uñas?",
		"tienen cursos de laminación?",
	}

	var prev Record
	for i, msg := range messages {
		r := m.Observe("s1", msg)
		if len(r.Topics) < len(prev.Topics) {
			t.Fatalf("turn %d shrank Topics: %v -> %v", i, prev.Topics, r.Topics)
		}
		if len(r.Interests) < len(prev.Interests) {
			t.Fatalf("turn %d shrank Interests: %v -> %v", i, prev.Interests, r.Interests)
		}
		if len(r.MentionedProducts) < len(prev.MentionedProducts) {
			t.Fatalf("turn %d shrank MentionedProducts: %v -> %v", i, prev.MentionedProducts, r.MentionedProducts)
		}
		prev = r
	}

	if !contains(prev.Topics, "cejas") || !contains(prev.Topics, "uñas") || !contains(prev.Topics, "formación") {
		t.Fatalf("Topics = %v, want cejas, uñas and formación accumulated", prev.Topics)
	}
}

func TestObserveDoesNotDuplicateDetections(t *testing.T) {
	m := NewManager(context.Background(), nil)

	m.Observe("s1", "quiero un tinte de cejas")
	r := m.Observe("s1", "sí, el tinte de cejas que te dije")

	count := 0
	for _, p := range r.MentionedProducts {
		if p == "tinte" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("MentionedProducts = %v, tinte recorded %d times", r.MentionedProducts, count)
	}
}

func TestSummarizeEmptyWithoutSignal(t *testing.T) {
	m := NewManager(context.Background(), nil)

	if got := m.Summarize("unknown"); got != "" {
		t.Fatalf("Summarize(unknown) = %q, want empty", got)
	}

	m.Observe("s1", "hola")
	if got := m.Summarize("s1"); got != "" {
		t.Fatalf("Summarize() = %q, want empty for a signal-less session", got)
	}
}

func TestSummarizeRendersSignal(t *testing.T) {
	m := NewManager(context.Background(), nil)

	m.Observe("s1", "precio del kit de laminación de cejas")
	m.Observe("s1", "precio del kit de laminación de cejas")

	got := m.Summarize("s1")
	if !strings.Contains(got, "cejas") {
		t.Fatalf("Summarize() = %q, want topic cejas", got)
	}
	if !strings.Contains(got, "con intención de compra") {
		t.Fatalf("Summarize() = %q, want interest phrase", got)
	}
	if !strings.Contains(got, "Consultas repetidas") {
		t.Fatalf("Summarize() = %q, want repeated query section", got)
	}
}

func TestSummarizeTruncatesRepeatedQueries(t *testing.T) {
	long := "necesito una recomendación de esmalte para uñas muy resistente por favor"
	m := NewManager(context.Background(), nil)
	m.Observe("s1", long)
	m.Observe("s1", long)

	got := m.Summarize("s1")
	if strings.Contains(got, long) {
		t.Fatalf("Summarize() = %q, repeated query should be truncated", got)
	}
	if !strings.Contains(got, "…") {
		t.Fatalf("Summarize() = %q, want truncation marker", got)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	store := NewFileStore(path)
	ctx := context.Background()

	m := NewManager(ctx, store)
	m.Observe("s1", "quiero un tinte refectocil")
	if err := m.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	reloaded := NewManager(ctx, store)
	r, ok := reloaded.Peek("s1")
	if !ok {
		t.Fatalf("Peek() should find the persisted session")
	}
	if !contains(r.Topics, "cejas") {
		t.Fatalf("persisted Topics = %v, want cejas", r.Topics)
	}
	if !contains(r.MentionedProducts, "tinte") {
		t.Fatalf("persisted MentionedProducts = %v, want tinte", r.MentionedProducts)
	}
}

func TestFileStoreMissingFileStartsEmpty(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	records, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want tolerance for a missing file", err)
	}
	if len(records) != 0 {
		t.Fatalf("Load() = %d records, want none", len(records))
	}
}

func TestManagerToleratesCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	m := NewManager(context.Background(), NewFileStore(path))
	r := m.Observe("s1", "hola")
	if r.SessionStarted.IsZero() {
		t.Fatalf("manager should keep working after a corrupt load")
	}
}

func TestFlusherWritesPeriodically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	store := NewFileStore(path)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManager(ctx, store)
	flushed := make(chan error, 4)
	m.SetFlushHook(func(err error) { flushed <- err })
	m.Observe("s1", "tienes limas?")
	m.StartFlusher(ctx, 10*time.Millisecond)

	select {
	case err := <-flushed:
		if err != nil {
			t.Fatalf("flush error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("flusher never ran")
	}

	reloaded := NewManager(context.Background(), store)
	if _, ok := reloaded.Peek("s1"); !ok {
		t.Fatalf("flushed record should be readable after reload")
	}
}
