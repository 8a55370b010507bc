package memory

import "time"

// Record accumulates structured signal for one session. Sets grow
// monotonically and query counts only increase; nothing is removed while
// the session lives.
type Record struct {
	MentionedProducts []string       `json:"mentioned_products"`
	Topics            []string       `json:"topics"`
	Interests         []string       `json:"interests"`
	FrequentQueries   map[string]int `json:"frequent_queries"`
	LastSeen          time.Time      `json:"last_seen"`
	SessionStarted    time.Time      `json:"session_started"`
}

func newRecord(now time.Time) *Record {
	return &Record{
		FrequentQueries: make(map[string]int),
		SessionStarted:  now,
		LastSeen:        now,
	}
}

// HasSignal reports whether any extraction pass has recorded anything.
func (r *Record) HasSignal() bool {
	if r == nil {
		return false
	}
	return len(r.Topics) > 0 || len(r.Interests) > 0 || len(r.MentionedProducts) > 0
}

func (r *Record) clone() Record {
	out := Record{
		MentionedProducts: append([]string(nil), r.MentionedProducts...),
		Topics:            append([]string(nil), r.Topics...),
		Interests:         append([]string(nil), r.Interests...),
		FrequentQueries:   make(map[string]int, len(r.FrequentQueries)),
		LastSeen:          r.LastSeen,
		SessionStarted:    r.SessionStarted,
	}
	for q, n := range r.FrequentQueries {
		out.FrequentQueries[q] = n
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
