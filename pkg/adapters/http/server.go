package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/deckwright/internal/logging"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/deckwright/pkg/settings"
	"github.com/go-chi/chi/v5"
)

// maxRelayBody bounds request bodies forwarded to the orchestrator.
const maxRelayBody = 8 << 20

// relayHeaders are forwarded from the caller to the orchestrator.
var relayHeaders = []string{"Accept", "Authorization", "X-Request-Id"}

// Relay forwards raw calls to the orchestrator. *orchestrator.Client satisfies it.
type Relay interface {
	Relay(ctx context.Context, method, path string, body []byte, header http.Header) (*orchestrator.Response, error)
}

// Watcher streams remote updates of a presentation. *persistence.Adapter satisfies it.
type Watcher interface {
	// Current returns the latest stored value of id without creating it.
	// Returns domain.ErrNotFound when id does not exist.
	Current(ctx context.Context, id string) (*domain.Presentation, error)
	Watch(ctx context.Context, id string, fn func(*domain.Presentation)) error
}

// UsageReader exposes ledger totals. *usage.Ledger satisfies it.
type UsageReader interface {
	Totals() domain.UsageTotals
	Pricing() domain.Pricing
}

// CookieOptions shapes the agent-model cookie.
type CookieOptions struct {
	Name   string
	MaxAge time.Duration
	Secure bool
}

// DefaultCookieOptions returns a 30 day, http-only, lax cookie.
func DefaultCookieOptions() CookieOptions {
	return CookieOptions{Name: "deckwright_agent_models", MaxAge: 30 * 24 * time.Hour}
}

//go:generate go tool oapi-codegen -package http -generate types,chi-server,spec -o api.gen.go ../../../api/openapi.yaml

// Server serves the settings mirror, the orchestrator relay and presentation
// update streams. It implements the generated ServerInterface.
type Server struct {
	relay   Relay
	usage   UsageReader
	cookie  CookieOptions
	metrics http.Handler
	version string
	logger  *slog.Logger
	Streams *StreamManager
}

var _ ServerInterface = (*Server)(nil)

// Option configures the Server.
type Option func(*Server)

// WithRelay enables /api/agent/*, forwarding each call to r.
func WithRelay(r Relay) Option {
	return func(s *Server) { s.relay = r }
}

// WithWatcher enables GET /api/presentations/{id}/events.
func WithWatcher(w Watcher) Option {
	return func(s *Server) { s.Streams.watcher = w }
}

// WithUsage enables GET /api/usage.
func WithUsage(u UsageReader) Option {
	return func(s *Server) { s.usage = u }
}

// WithCookie overrides DefaultCookieOptions for the agent-model cookie.
func WithCookie(c CookieOptions) Option {
	return func(s *Server) { s.cookie = c }
}

// WithMetricsHandler mounts h on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithVersion sets the version reported by GET /info. Defaults to "dev".
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// WithLogger sets the logger for requests and streams.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
		s.Streams.logger = logger
	}
}

// NewHandler creates the HTTP handler. Routes described by api/openapi.yaml
// come from the generated router; the relay and /metrics are mounted beside them.
func NewHandler(opts ...Option) http.Handler {
	s := &Server{
		cookie:  DefaultCookieOptions(),
		version: "dev",
		logger:  logging.NewNop(),
		Streams: NewStreamManager(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			http.Error(w, "Failed to load spec", http.StatusInternalServerError)
			s.logger.Error("Failed to load OpenAPI spec", "err", err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(spec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}
	if s.relay != nil {
		r.HandleFunc("/api/agent/*", s.RelayAgent)
	}

	handler := HandlerFromMux(s, r)
	return enableCORS(handler)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-Id")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Health{Status: "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Info{
		App:     "deckwright-http",
		Version: strings.TrimSpace(s.version),
	})
}

// GetAgentModels returns the bindings carried by the request cookie, or the
// defaults when there is none or it is malformed.
func (s *Server) GetAgentModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mapAgentModels(s.cookieModels(r)))
}

// PostAgentModels merges a partial object over the cookie bindings and sets
// the cookie. Unknown keys are dropped.
func (s *Server) PostAgentModels(w http.ResponseWriter, r *http.Request) {
	var patch PostAgentModelsJSONRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&patch); err != nil || patch == nil {
		http.Error(w, "Invalid request body: expected a JSON object", http.StatusBadRequest)
		s.logger.Warn("PostAgentModels: invalid request body", "err", err)
		return
	}

	merged := settings.Merge(s.cookieModels(r), map[string]any(patch))

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookie.Name,
		Value:    settings.EncodeCookie(merged),
		Path:     "/",
		MaxAge:   int(s.cookie.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, mapAgentModels(merged))
}

func (s *Server) cookieModels(r *http.Request) domain.AgentModels {
	c, err := r.Cookie(s.cookie.Name)
	if err != nil {
		return domain.DefaultAgentModels()
	}
	return settings.DecodeCookie(c.Value)
}

// GetUsage returns ledger totals and pricing.
func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	if s.usage == nil {
		writeJSON(w, http.StatusNotFound, Error{Error: "usage ledger not configured"})
		return
	}
	writeJSON(w, http.StatusOK, mapUsage(s.usage.Totals(), s.usage.Pricing()))
}

// RelayAgent forwards /api/agent/<path> to the orchestrator and writes its
// status and body back verbatim.
func (s *Server) RelayAgent(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	if r.URL.RawQuery != "" {
		path += "?" + r.URL.RawQuery
	}

	var body []byte
	if r.Body != nil && r.Method != http.MethodGet {
		var err error
		if body, err = io.ReadAll(io.LimitReader(r.Body, maxRelayBody)); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	header := http.Header{}
	for _, k := range relayHeaders {
		if v := r.Header.Get(k); v != "" {
			header.Set(k, v)
		}
	}

	resp, err := s.relay.Relay(r.Context(), r.Method, path, body, header)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn("Relay failed", "path", path, "err", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "orchestrator unreachable"})
		return
	}

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}

// SubscribeEvents handles GET /api/presentations/{id}/events (SSE). The
// current presentation is sent as a snapshot event, later changes as diff events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, id string) {
	if s.Streams.watcher == nil {
		writeJSON(w, http.StatusNotFound, Error{Error: "presentation streams not configured"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: streaming not supported")
		return
	}

	ch, cancel, err := s.Streams.Subscribe(r.Context(), id)
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusServiceUnavailable)
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()
	s.logger.Info("SSE: subscribed", "presentation_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "presentation_id", id)
			return
		case ev, ok := <-ch:
			if !ok {
				s.logger.Warn("SSE: client too slow, stream closed", "presentation_id", id)
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}

func mapAgentModels(m domain.AgentModels) AgentModels {
	return AgentModels{
		Clarifier:     m.Clarifier,
		Critic:        m.Critic,
		Design:        m.Design,
		NotesPolisher: m.NotesPolisher,
		Outline:       m.Outline,
		Research:      m.Research,
		ScriptWriter:  m.ScriptWriter,
		SlideWriter:   m.SlideWriter,
	}
}

func mapUsage(t domain.UsageTotals, p domain.Pricing) UsageReport {
	return UsageReport{
		Totals: UsageTotals{
			CostEstimate:     t.CostEstimate,
			ImageCalls:       t.ImageCalls,
			TokensCompletion: t.TokensCompletion,
			TokensPrompt:     t.TokensPrompt,
		},
		Pricing: Pricing{
			PriceCompletion: p.PriceCompletion,
			PriceImageCall:  p.PriceImageCall,
			PricePrompt:     p.PricePrompt,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
