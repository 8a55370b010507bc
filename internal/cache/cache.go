package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// fuzzyMinScore is the number of shared long tokens required for an
// approximate match.
const fuzzyMinScore = 2

// fuzzyMinTokenLen excludes short filler words from fuzzy scoring.
const fuzzyMinTokenLen = 3

// Cache is a bounded message->reply store with least-recently-used
// eviction. Recency is tracked with a monotonic sequence counter instead
// of wall-clock timestamps so that rapid inserts still order
// deterministically.
type Cache struct {
	mu      sync.Mutex
	maxSize int
	entries map[string]*entry
	seq     uint64
}

type entry struct {
	reply    string
	seq      uint64
	storedAt time.Time
}

func New(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &Cache{
		maxSize: maxSize,
		entries: make(map[string]*entry, maxSize),
	}
}

// Key builds the canonical cache key for a message: lowercased, trimmed,
// with a trailing slot reserved for a session-context discriminator. The
// discriminator is always empty today; the separator stays in the key so
// the format does not change if context scoping is ever enabled.
func Key(message string) string {
	return strings.ToLower(strings.TrimSpace(message)) + "|"
}

// Lookup returns the cached reply for a message and refreshes its
// recency. A miss has no side effect.
func (c *Cache) Lookup(message string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[Key(message)]
	if !ok {
		return "", false
	}
	c.seq++
	e.seq = c.seq
	return e.reply, true
}

// Store inserts or overwrites the reply for a message. When the cache is
// at capacity and the key is new, exactly one entry is evicted: the one
// with the oldest recency.
func (c *Cache) Store(message, reply string) {
	key := Key(message)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}
	c.seq++
	c.entries[key] = &entry{reply: reply, seq: c.seq, storedAt: time.Now().UTC()}
}

// FuzzyLookup scans cached keys for an approximate match: a key qualifies
// when at least two message tokens longer than three runes appear as
// substrings of it. Keys are scanned most-recently-used first and the
// first qualifying key wins, so the freshest near-duplicate reply
// surfaces. Recency is not refreshed.
func (c *Cache) FuzzyLookup(message string) (string, bool) {
	tokens := longTokens(message)
	if len(tokens) < fuzzyMinScore {
		return "", false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].seq > c.entries[keys[j]].seq
	})

	for _, key := range keys {
		score := 0
		for _, tok := range tokens {
			if strings.Contains(key, tok) {
				score++
				if score >= fuzzyMinScore {
					return c.entries[key].reply, true
				}
			}
		}
	}
	return "", false
}

// Len reports the current number of entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) evictOldest() {
	var victim string
	var oldest uint64
	first := true
	for k, e := range c.entries {
		if first || e.seq < oldest {
			victim = k
			oldest = e.seq
			first = false
		}
	}
	if !first {
		delete(c.entries, victim)
	}
}

func longTokens(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > fuzzyMinTokenLen {
			out = append(out, f)
		}
	}
	return out
}
