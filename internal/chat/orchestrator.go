package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lacopro/lacobot/internal/cache"
	"github.com/lacopro/lacobot/internal/conversation"
	"github.com/lacopro/lacobot/internal/groq"
	"github.com/lacopro/lacobot/internal/memory"
	"github.com/lacopro/lacobot/internal/observability"
)

// ErrInvalidRequest is returned before any state mutation when the
// session id or message is missing.
var ErrInvalidRequest = errors.New("sessionId and message are required")

// Completer is the upstream completion collaborator.
type Completer interface {
	Complete(ctx context.Context, messages []groq.Message) (string, error)
}

// PromptSource supplies the active system prompt.
type PromptSource interface {
	System() string
}

// Orchestrator composes memory, conversation log, cache and the upstream
// model for each incoming message.
type Orchestrator struct {
	prompts       PromptSource
	greeting      string
	fallbackReply string
	conversations *conversation.Store
	memory        *memory.Manager
	cache         *cache.Cache
	upstream      Completer
	metrics       *observability.Metrics
	window        int
}

func NewOrchestrator(
	prompts PromptSource,
	greeting string,
	fallbackReply string,
	conversations *conversation.Store,
	mem *memory.Manager,
	responseCache *cache.Cache,
	upstream Completer,
	metrics *observability.Metrics,
	window int,
) *Orchestrator {
	if window < 2 {
		window = 10
	}
	return &Orchestrator{
		prompts:       prompts,
		greeting:      greeting,
		fallbackReply: fallbackReply,
		conversations: conversations,
		memory:        mem,
		cache:         responseCache,
		upstream:      upstream,
		metrics:       metrics,
		window:        window,
	}
}

// Handle runs one message through the pipeline: memory extraction, log
// append, cache check, upstream call, recording. Rate-limiting upstream
// is absorbed into a degraded success (fuzzy cache match or a fixed
// apology); any other upstream failure is returned to the caller with
// the earlier memory/log mutations left in place.
func (o *Orchestrator) Handle(ctx context.Context, sessionID, message string) (string, error) {
	if strings.TrimSpace(sessionID) == "" || strings.TrimSpace(message) == "" {
		o.metrics.ChatRequests.WithLabelValues("invalid").Inc()
		return "", ErrInvalidRequest
	}

	reqID := uuid.NewString()
	log.Printf("chat %s session=%s message=%q", reqID, sessionID, truncate(message, 60))

	if !o.conversations.Has(sessionID) {
		// A fresh log with persisted signal means the session returns
		// from before a restart; give the model its memory up front.
		prior := o.memory.Summarize(sessionID)
		o.conversations.Ensure(sessionID, o.prompts.System(), o.greeting, prior)
		o.metrics.ActiveSessions.Set(float64(o.conversations.Sessions()))
	}

	record := o.memory.Observe(sessionID, message)
	o.conversations.Append(sessionID, conversation.RoleUser, message)

	if reply, ok := o.cache.Lookup(message); ok {
		log.Printf("chat %s cache hit", reqID)
		o.conversations.Append(sessionID, conversation.RoleAssistant, reply)
		o.metrics.ChatRequests.WithLabelValues("cache_hit").Inc()
		return reply, nil
	}

	window := o.conversations.Window(sessionID, o.window)
	window = conversation.InjectContext(window, o.memory.Summarize(sessionID))
	if clarify, ok := conversation.ClarifyComparison(message, record.MentionedProducts); ok {
		window = append(window, clarify)
	}

	start := time.Now()
	reply, err := o.upstream.Complete(ctx, renderMessages(window))
	o.metrics.ObserveUpstreamLatency(time.Since(start))

	switch {
	case err == nil:
		o.cache.Store(message, reply)
		o.metrics.CacheEntries.Set(float64(o.cache.Len()))
		o.conversations.Append(sessionID, conversation.RoleAssistant, reply)
		o.metrics.ChatRequests.WithLabelValues("upstream").Inc()
		return reply, nil

	case errors.Is(err, groq.ErrRateLimited):
		if approx, ok := o.cache.FuzzyLookup(message); ok {
			log.Printf("chat %s rate limited, serving fuzzy cache match", reqID)
			o.conversations.Append(sessionID, conversation.RoleAssistant, approx)
			o.metrics.ChatRequests.WithLabelValues("fuzzy").Inc()
			return approx, nil
		}
		log.Printf("chat %s rate limited, serving fallback reply", reqID)
		o.metrics.ChatRequests.WithLabelValues("fallback").Inc()
		return o.fallbackReply, nil

	default:
		log.Printf("chat %s upstream failure: %v", reqID, err)
		o.metrics.ChatRequests.WithLabelValues("error").Inc()
		return "", err
	}
}

func renderMessages(window []conversation.Turn) []groq.Message {
	out := make([]groq.Message, len(window))
	for i, t := range window {
		out[i] = groq.Message{Role: t.Role, Content: t.Render()}
	}
	return out
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
