package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lacopro/lacobot/internal/catalog"
	"github.com/lacopro/lacobot/internal/chat"
	"github.com/lacopro/lacobot/internal/config"
	"github.com/lacopro/lacobot/internal/observability"
	"github.com/lacopro/lacobot/internal/prompt"
)

// ChatHandler runs one chat message through the orchestration pipeline.
type ChatHandler interface {
	Handle(ctx context.Context, sessionID, message string) (string, error)
}

type Server struct {
	cfg          config.Config
	orchestrator ChatHandler
	catalog      *catalog.Catalog
	prompts      *prompt.Builder
	metrics      *observability.Metrics
	static       http.Handler
}

func New(cfg config.Config, orchestrator ChatHandler, cat *catalog.Catalog, prompts *prompt.Builder, metrics *observability.Metrics) *Server {
	return &Server{
		cfg:          cfg,
		orchestrator: orchestrator,
		catalog:      cat,
		prompts:      prompts,
		metrics:      metrics,
		static:       newStaticHandler(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/chat", s.handleChat)
	r.Get("/chat/ws", s.handleChatWS)
	r.Post("/update-products", s.handleUpdateProducts)
	r.Get("/keep-alive", s.handleKeepAlive)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		s.static.ServeHTTP(w, r)
	})
	r.Handle("/*", s.static)

	return r
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]string{
			"error": "sessionId and message are required",
		})
		return
	}

	reply, err := s.orchestrator.Handle(r.Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidRequest) {
			respondJSON(w, http.StatusBadRequest, map[string]string{
				"error": "sessionId and message are required",
			})
			return
		}
		respondJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to get response from AI",
			"details": err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{Reply: reply})
}

func (s *Server) handleUpdateProducts(w http.ResponseWriter, r *http.Request) {
	count, err := s.catalog.Reload(r.Context())
	if err != nil || count == 0 {
		respondJSON(w, http.StatusOK, map[string]any{
			"success": false,
			"message": "Failed to load products from the catalog source or no products found",
		})
		return
	}

	s.prompts.Rebuild(s.catalog.Products())
	s.metrics.CatalogProducts.Set(float64(count))
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Products loaded successfully",
		"count":   count,
	})
}

func (s *Server) handleKeepAlive(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("I'm alive!"))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"catalog_products": s.catalog.Len(),
	})
}

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// originAllowed implements the same-origin policy for browser websocket
// connections. Non-browser clients without an Origin header pass.
func originAllowed(r *http.Request, allowAny bool) bool {
	if allowAny {
		return true
	}
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
