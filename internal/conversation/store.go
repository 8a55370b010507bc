package conversation

import (
	"strings"
	"sync"
)

const (
	RoleSystem    = "system"
	RoleAssistant = "assistant"
	RoleUser      = "user"
)

const contextHeader = "[Contexto de la clienta]"

// Turn is one entry of a conversation log. Context carries the session
// summary as a discrete field; it is folded into text only when the turn
// is rendered for the upstream model, which keeps repeated injections
// from ever duplicating inside Content.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Context string `json:"-"`
}

// Render produces the upstream-facing text of a turn.
func (t Turn) Render() string {
	if t.Context == "" {
		return t.Content
	}
	if t.Content == "" {
		return contextHeader + "\n" + t.Context
	}
	return t.Content + "\n\n" + contextHeader + "\n" + t.Context
}

type logState struct {
	turns        []Turn
	systemPrompt string
}

// Store keeps the per-session ordered message logs. Logs are created
// lazily and never deleted; only the window sent upstream is bounded.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*logState
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*logState)}
}

// Ensure creates the session log on first contact, seeded with the
// system prompt and the fixed greeting. A non-empty priorSummary (signal
// persisted from an earlier run) is added as one extra system turn so a
// returning session "remembers" without replaying its history. Returns
// true when the log was created by this call.
func (s *Store) Ensure(sessionID, systemPrompt, greeting, priorSummary string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return false
	}
	state := &logState{systemPrompt: systemPrompt}
	state.turns = append(state.turns,
		Turn{Role: RoleSystem, Content: systemPrompt},
		Turn{Role: RoleAssistant, Content: greeting},
	)
	if priorSummary != "" {
		state.turns = append(state.turns, Turn{
			Role:    RoleSystem,
			Content: "La clienta ya ha conversado contigo antes. " + priorSummary,
		})
	}
	s.sessions[sessionID] = state
	return true
}

// Append adds a turn to the end of the session log.
func (s *Store) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		state = &logState{}
		s.sessions[sessionID] = state
	}
	state.turns = append(state.turns, Turn{Role: role, Content: content})
}

// Window returns the last size turns of the log. When the suffix slice
// has truncated out the system turn, a synthetic one carrying the stored
// prompt is prepended: a request must never reach the model without its
// system head.
func (s *Store) Window(sessionID string, size int) []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	turns := state.turns
	if size > 0 && len(turns) > size {
		turns = turns[len(turns)-size:]
	}
	out := make([]Turn, len(turns))
	copy(out, turns)

	if !hasSystemTurn(out) {
		out = append([]Turn{{Role: RoleSystem, Content: state.systemPrompt}}, out...)
	}
	return out
}

// Has reports whether a session already owns a log.
func (s *Store) Has(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[sessionID]
	return ok
}

// Len reports the number of turns in a session log.
func (s *Store) Len(sessionID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	return len(state.turns)
}

// Sessions reports how many session logs exist.
func (s *Store) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// InjectContext sets the summary on the window's first system turn,
// replacing whatever context it carried. Windows without a system turn
// get a minimal one prepended holding just the context.
func InjectContext(window []Turn, summary string) []Turn {
	if summary == "" {
		return window
	}
	for i := range window {
		if window[i].Role == RoleSystem {
			window[i].Context = summary
			return window
		}
	}
	return append([]Turn{{Role: RoleSystem, Context: summary}}, window...)
}

var comparisonKeywords = []string{"diferencia", "comparar", "compara", "versus", " vs ", "mejor"}

// HasComparisonIntent reports whether a message looks like a request to
// compare products.
func HasComparisonIntent(message string) bool {
	lower := " " + strings.ToLower(message) + " "
	for _, kw := range comparisonKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// ClarifyComparison builds the one-shot system turn that asks the model
// to compare the most recently mentioned products. It applies only when
// the message has comparison intent and at least two products are on
// record; at most the three most recent are named. The turn is meant for
// the outbound window only, never for the persisted log.
func ClarifyComparison(message string, mentionedProducts []string) (Turn, bool) {
	if !HasComparisonIntent(message) || len(mentionedProducts) < 2 {
		return Turn{}, false
	}
	recent := mentionedProducts
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	// Most recently mentioned first.
	ordered := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		ordered = append(ordered, recent[i])
	}
	return Turn{
		Role: RoleSystem,
		Content: "La clienta quiere comparar productos. Compara brevemente: " +
			strings.Join(ordered, ", ") +
			". Incluye el enlace completo de cada uno.",
	}, true
}

func hasSystemTurn(turns []Turn) bool {
	for _, t := range turns {
		if t.Role == RoleSystem {
			return true
		}
	}
	return false
}
