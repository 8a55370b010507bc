package conversation

import (
	"fmt"
	"strings"
	"testing"
)

func TestEnsureSeedsSystemAndGreeting(t *testing.T) {
	s := NewStore()
	if created := s.Ensure("s1", "prompt", "hola", ""); !created {
		t.Fatalf("Ensure() should create the log on first call")
	}
	if created := s.Ensure("s1", "prompt", "hola", ""); created {
		t.Fatalf("Ensure() should be a no-op on an existing log")
	}

	w := s.Window("s1", 10)
	if len(w) != 2 {
		t.Fatalf("Window() = %d turns, want 2", len(w))
	}
	if w[0].Role != RoleSystem || w[0].Content != "prompt" {
		t.Fatalf("first turn = %+v, want the system prompt", w[0])
	}
	if w[1].Role != RoleAssistant || w[1].Content != "hola" {
		t.Fatalf("second turn = %+v, want the greeting", w[1])
	}
}

func TestEnsureAddsReturningSessionSummary(t *testing.T) {
	s := NewStore()
	s.Ensure("s1", "prompt", "hola", "Productos mencionados: tinte.")

	w := s.Window("s1", 10)
	if len(w) != 3 {
		t.Fatalf("Window() = %d turns, want 3 with the memory turn", len(w))
	}
	last := w[2]
	if last.Role != RoleSystem || !strings.Contains(last.Content, "tinte") {
		t.Fatalf("memory turn = %+v, want prior summary", last)
	}
}

func TestWindowKeepsSuffix(t *testing.T) {
	s := NewStore()
	s.Ensure("s1", "prompt", "hola", "")
	for i := 0; i < 4; i++ {
		s.Append("s1", RoleUser, fmt.Sprintf("pregunta %d", i))
		s.Append("s1", RoleAssistant, fmt.Sprintf("respuesta %d", i))
	}

	w := s.Window("s1", 4)
	if got := w[len(w)-1].Content; got != "respuesta 3" {
		t.Fatalf("last turn = %q, want the newest turn", got)
	}
}

func TestWindowReinjectsSystemTurn(t *testing.T) {
	s := NewStore()
	s.Ensure("s1", "prompt", "hola", "")
	for i := 0; i < 20; i++ {
		s.Append("s1", RoleUser, fmt.Sprintf("pregunta %d", i))
		s.Append("s1", RoleAssistant, fmt.Sprintf("respuesta %d", i))
	}

	w := s.Window("s1", 10)
	count := 0
	for _, turn := range w {
		if turn.Role == RoleSystem {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("window holds %d system turns, want exactly 1", count)
	}
	if w[0].Role != RoleSystem || w[0].Content != "prompt" {
		t.Fatalf("head = %+v, want re-injected system prompt", w[0])
	}
}

func TestWindowInjectContextKeepsSingleSystemTurn(t *testing.T) {
	s := NewStore()
	s.Ensure("s1", "prompt", "hola", "")
	for i := 0; i < 30; i++ {
		s.Append("s1", RoleUser, fmt.Sprintf("pregunta %d", i))
	}

	w := InjectContext(s.Window("s1", 10), "Temas consultados: cejas.")
	count := 0
	for _, turn := range w {
		if turn.Role == RoleSystem {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("window holds %d system turns after inject, want exactly 1", count)
	}
	if w[0].Context != "Temas consultados: cejas." {
		t.Fatalf("system turn context = %q, want injected summary", w[0].Context)
	}
}

func TestInjectContextReplacesPreviousBlock(t *testing.T) {
	w := []Turn{{Role: RoleSystem, Content: "prompt", Context: "viejo"}}
	w = InjectContext(w, "nuevo")
	if w[0].Context != "nuevo" {
		t.Fatalf("Context = %q, want replaced value", w[0].Context)
	}
	rendered := w[0].Render()
	if strings.Contains(rendered, "viejo") {
		t.Fatalf("Render() = %q, previous context must not survive", rendered)
	}
	if strings.Count(rendered, "[Contexto de la clienta]") != 1 {
		t.Fatalf("Render() = %q, want exactly one context block", rendered)
	}
}

func TestInjectContextWithoutSystemTurn(t *testing.T) {
	w := []Turn{{Role: RoleUser, Content: "hola"}}
	w = InjectContext(w, "resumen")
	if w[0].Role != RoleSystem || w[0].Context != "resumen" {
		t.Fatalf("head = %+v, want minimal system turn carrying the context", w[0])
	}
}

func TestRenderWithoutContextIsPlain(t *testing.T) {
	turn := Turn{Role: RoleSystem, Content: "prompt"}
	if got := turn.Render(); got != "prompt" {
		t.Fatalf("Render() = %q, want bare content", got)
	}
}

func TestClarifyComparison(t *testing.T) {
	turn, ok := ClarifyComparison("cuál es mejor?", []string{"tinte", "lima", "gel", "esmalte"})
	if !ok {
		t.Fatalf("ClarifyComparison() should trigger with intent and 2+ products")
	}
	if turn.Role != RoleSystem {
		t.Fatalf("turn role = %q, want system", turn.Role)
	}
	if strings.Contains(turn.Content, "tinte") {
		t.Fatalf("Content = %q, only the three most recent products belong", turn.Content)
	}
	for _, p := range []string{"esmalte", "gel", "lima"} {
		if !strings.Contains(turn.Content, p) {
			t.Fatalf("Content = %q, want product %q", turn.Content, p)
		}
	}
}

func TestClarifyComparisonRequiresTwoProducts(t *testing.T) {
	if _, ok := ClarifyComparison("cuál es mejor?", []string{"tinte"}); ok {
		t.Fatalf("ClarifyComparison() must not trigger with a single product")
	}
}

func TestClarifyComparisonRequiresIntent(t *testing.T) {
	if _, ok := ClarifyComparison("hola", []string{"tinte", "lima"}); ok {
		t.Fatalf("ClarifyComparison() must not trigger without comparison intent")
	}
}

func TestHasComparisonIntent(t *testing.T) {
	if !HasComparisonIntent("qué diferencia hay entre estos tintes") {
		t.Fatalf("diferencia should signal comparison intent")
	}
	if !HasComparisonIntent("ardell vs apres") {
		t.Fatalf("vs should signal comparison intent")
	}
	if HasComparisonIntent("tienes limas?") {
		t.Fatalf("plain question should not signal comparison intent")
	}
}
