package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCompleteReturnsAssistantText(t *testing.T) {
	var gotAuth string
	var gotBody completionRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"¡Hola! Claro que sí."}}]}`))
	}))
	defer ts.Close()

	c := NewClient(Config{URL: ts.URL, APIKey: "test-key", Model: "gemma2-9b-it", Temperature: 0.7})
	reply, err := c.Complete(context.Background(), []Message{
		{Role: "system", Content: "prompt"},
		{Role: "user", Content: "tienes limas?"},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if reply != "¡Hola! Claro que sí." {
		t.Fatalf("Complete() = %q", reply)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("Authorization = %q, want bearer credential", gotAuth)
	}
	if gotBody.Model != "gemma2-9b-it" || gotBody.Temperature != 0.7 {
		t.Fatalf("request payload = %+v", gotBody)
	}
	if len(gotBody.Messages) != 2 || gotBody.Messages[1].Content != "tienes limas?" {
		t.Fatalf("request messages = %+v", gotBody.Messages)
	}
}

func TestCompleteClassifiesRateLimit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	c := NewClient(Config{URL: ts.URL, APIKey: "k"})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hola"}})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("Complete() error = %v, want ErrRateLimited", err)
	}
}

func TestCompleteSurfacesServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(Config{URL: ts.URL, APIKey: "k"})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hola"}})
	if err == nil || errors.Is(err, ErrRateLimited) {
		t.Fatalf("Complete() error = %v, want generic upstream failure", err)
	}
}

func TestCompleteWithoutKeyFailsFast(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := NewClient(Config{URL: ts.URL})
	_, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hola"}})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("Complete() error = %v, want ErrMissingAPIKey", err)
	}
	if called {
		t.Fatalf("no request should be sent without a credential")
	}
}

func TestCompleteRejectsEmptyChoices(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer ts.Close()

	c := NewClient(Config{URL: ts.URL, APIKey: "k"})
	if _, err := c.Complete(context.Background(), []Message{{Role: "user", Content: "hola"}}); err == nil {
		t.Fatalf("Complete() should fail on empty choices")
	}
}
