package http

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/deckwright/pkg/adapters/memory"
	"github.com/aretw0/deckwright/pkg/domain"
	"github.com/aretw0/deckwright/pkg/orchestrator"
	"github.com/aretw0/deckwright/pkg/persistence"
	"github.com/aretw0/deckwright/pkg/retry"
	"github.com/aretw0/deckwright/pkg/settings"
	"github.com/aretw0/deckwright/pkg/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthAndInfo(t *testing.T) {
	h := NewHandler(WithVersion("1.2.3"))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/info", nil))
	assert.JSONEq(t, `{"app":"deckwright-http","version":"1.2.3"}`, w.Body.String())
}

func TestAgentModels_DefaultsWithoutCookie(t *testing.T) {
	h := NewHandler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/settings/agent-models", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got domain.AgentModels
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, domain.DefaultAgentModels(), got)
}

func TestAgentModels_MalformedCookie(t *testing.T) {
	h := NewHandler()
	for _, value := range []string{"!!!", base64.StdEncoding.EncodeToString([]byte(`[1,2]`))} {
		req := httptest.NewRequest(http.MethodGet, "/api/settings/agent-models", nil)
		req.AddCookie(&http.Cookie{Name: "deckwright_agent_models", Value: value})
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		var got domain.AgentModels
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, domain.DefaultAgentModels(), got)
	}
}

func TestAgentModels_PostSetsCookie(t *testing.T) {
	h := NewHandler()

	body := `{"critic":"c-1","unknown":"x","design":42}`
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/settings/agent-models", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "deckwright_agent_models", c.Name)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, 30*24*60*60, c.MaxAge)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	want := domain.DefaultAgentModels()
	want.Critic = "c-1"
	assert.Equal(t, want, settings.DecodeCookie(c.Value))

	// A later partial update keeps earlier values.
	req := httptest.NewRequest(http.MethodPost, "/api/settings/agent-models", strings.NewReader(`{"outline":"o-1"}`))
	req.AddCookie(c)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	want.Outline = "o-1"
	assert.Equal(t, want, settings.DecodeCookie(w.Result().Cookies()[0].Value))
}

func TestAgentModels_PostRejectsNonObject(t *testing.T) {
	h := NewHandler()
	for _, body := range []string{`[1]`, `nope`, `null`} {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/settings/agent-models", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Empty(t, w.Result().Cookies())
	}
}

func TestSettingsMirrorAgainstServer(t *testing.T) {
	srv := httptest.NewServer(NewHandler())
	defer srv.Close()

	mirror := settings.NewHTTPMirror(srv.URL)
	store := settings.New(settings.WithMirror(mirror))
	store.Update(context.Background(), map[string]string{"research": "r-9"})
	store.Wait()

	// The mirror's client carries the cookie set by the server.
	fetched, err := mirror.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "r-9", fetched.Research)

	fresh, err := settings.NewHTTPMirror(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", fresh.Research)
}

func TestRelay_VerbatimStatusAndBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/slide/critique", r.URL.Path)
		assert.Equal(t, "x=1", r.URL.RawQuery)
		assert.Equal(t, "req-7", r.Header.Get("X-Request-Id"))
		w.Header().Set("Content-Type", "application/problem+json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"bad slide"}`))
	}))
	defer upstream.Close()

	client := orchestrator.NewClient(
		orchestrator.WithCandidates(upstream.URL),
		orchestrator.WithRetryPolicy(retry.Policy{Attempts: 1, Backoff: retry.Linear(0)}),
	)
	h := NewHandler(WithRelay(client))

	req := httptest.NewRequest(http.MethodPost, "/api/agent/v1/slide/critique?x=1", strings.NewReader(`{}`))
	req.Header.Set("X-Request-Id", "req-7")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"detail":"bad slide"}`, w.Body.String())
}

func TestRelay_Unreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	client := orchestrator.NewClient(
		orchestrator.WithCandidates(deadURL),
		orchestrator.WithRetryPolicy(retry.Policy{Attempts: 1, Backoff: retry.Linear(0)}),
	)
	h := NewHandler(WithRelay(client))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/agent/v1/search/cache/config", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUsageEndpoint(t *testing.T) {
	ledger := usage.NewLedger()
	ledger.Record(context.Background(), domain.UsageEntry{Kind: domain.UsageCompletion, Tokens: 2_000_000})
	h := NewHandler(WithUsage(ledger))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/usage", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Totals  domain.UsageTotals `json:"totals"`
		Pricing domain.Pricing     `json:"pricing"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(2_000_000), got.Totals.TokensCompletion)
	assert.InDelta(t, 1.2, got.Totals.CostEstimate, 1e-9)
}

func TestSubscribeEvents_StreamsRemoteUpdates(t *testing.T) {
	ctx := context.Background()
	remote := memory.NewDocumentStore()
	adapter := persistence.New(memory.NewSnapshotStore(), persistence.WithRemote(remote))
	_, err := adapter.Load(ctx, "deck-sse")
	require.NoError(t, err)

	srv := httptest.NewServer(NewHandler(WithWatcher(adapter)))
	defer srv.Close()

	reqCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, srv.URL+"/api/presentations/deck-sse/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var name string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			if v, ok := strings.CutPrefix(line, "event: "); ok {
				name = strings.TrimSpace(v)
			}
			if v, ok := strings.CutPrefix(line, "data: "); ok {
				return name, strings.TrimSpace(v)
			}
		}
	}
	name, data := readEvent()
	assert.Equal(t, "ping", name)
	assert.Equal(t, "connected", data)

	name, data = readEvent()
	require.Equal(t, "snapshot", name)
	var got domain.Presentation
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, "deck-sse", got.ID)

	p := got.Clone()
	p.ClarifiedGoals = "streamed"
	doc, err := persistence.Encode(p)
	require.NoError(t, err)
	require.NoError(t, remote.Merge(ctx, "deck-sse", doc))

	name, data = readEvent()
	require.Equal(t, "diff", name)
	var diff map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "streamed", diff["clarifiedGoals"])

	p.Outline = []string{"One"}
	doc, err = persistence.Encode(p)
	require.NoError(t, err)
	require.NoError(t, remote.Merge(ctx, "deck-sse", doc))

	name, data = readEvent()
	require.Equal(t, "diff", name)
	diff = nil
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "deck-sse", diff["id"])
	assert.Equal(t, []any{"One"}, diff["outline"])
	assert.NotContains(t, diff, "clarifiedGoals")
}

func TestSubscribeEvents_NotConfigured(t *testing.T) {
	w := httptest.NewRecorder()
	NewHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/presentations/a/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamManager_FirstSubscriberGetsExistingPresentation(t *testing.T) {
	existing := domain.NewPresentation("a")
	existing.ClarifiedGoals = "already there"
	sm := NewStreamManager()
	sm.watcher = &countingWatcher{current: existing}

	ch, cancel, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancel()

	ev := <-ch
	assert.Equal(t, "snapshot", ev.Name)
	assert.Contains(t, ev.Data, `"clarifiedGoals":"already there"`)

	next := existing.Clone()
	next.Outline = []string{"One"}
	sm.Publish("a", next)
	assert.Equal(t, "diff", (<-ch).Name)
}

func TestStreamManager_MissingPresentationWaitsForFirstUpdate(t *testing.T) {
	sm := NewStreamManager()
	sm.watcher = &countingWatcher{}

	ch, cancel, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancel()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event before any update: %+v", ev)
	default:
	}

	sm.Publish("a", domain.NewPresentation("a"))
	assert.Equal(t, "snapshot", (<-ch).Name)
}

func TestStreamManager_LateSubscriberGetsSnapshot(t *testing.T) {
	sm := NewStreamManager()

	early, cancelEarly, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancelEarly()

	p := domain.NewPresentation("a")
	sm.Publish("a", p)
	assert.Equal(t, "snapshot", (<-early).Name)

	sm.Publish("a", p.Clone())
	select {
	case ev := <-early:
		t.Fatalf("unchanged version broadcast: %+v", ev)
	default:
	}

	late, cancelLate, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancelLate()
	ev := <-late
	assert.Equal(t, "snapshot", ev.Name)
	assert.Contains(t, ev.Data, `"id":"a"`)
}

func TestStreamManager_SlowSubscriberIsClosed(t *testing.T) {
	sm := NewStreamManager()
	slow, cancelSlow, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancelSlow()

	p := domain.NewPresentation("a")
	for i := 0; i <= subscriberBuffer; i++ {
		p = p.Clone()
		p.ClarifiedGoals = fmt.Sprintf("v%d", i)
		sm.Publish("a", p)
	}

	var received int
	for range slow {
		received++
	}
	assert.Equal(t, subscriberBuffer, received)

	fresh, cancelFresh, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancelFresh()
	ev := <-fresh
	assert.Equal(t, "snapshot", ev.Name)
	assert.Contains(t, ev.Data, fmt.Sprintf(`"clarifiedGoals":"v%d"`, subscriberBuffer))
}

func TestStreamManager_ConcurrentPublishKeepsOrder(t *testing.T) {
	sm := NewStreamManager()
	ch, cancel, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	defer cancel()

	base := domain.NewPresentation("a")
	sm.Publish("a", base)
	<-ch

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := base.Clone()
			p.ClarifiedGoals = fmt.Sprintf("writer %d", i)
			sm.Publish("a", p)
		}(i)
	}
	wg.Wait()

	var last string
	for len(ch) > 0 {
		ev := <-ch
		require.Equal(t, "diff", ev.Name)
		var d map[string]any
		require.NoError(t, json.Unmarshal([]byte(ev.Data), &d))
		last, _ = d["clarifiedGoals"].(string)
	}

	sm.mu.Lock()
	final := sm.last["a"].ClarifiedGoals
	sm.mu.Unlock()
	assert.Equal(t, final, last)
}

func TestStreamManager_StopsWatchAfterLastSubscriber(t *testing.T) {
	w := &countingWatcher{}
	sm := NewStreamManager()
	sm.watcher = w

	_, cancel1, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	_, cancel2, err := sm.Subscribe(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, 1, w.started)

	cancel1()
	assert.NoError(t, w.ctx.Err())
	cancel2()
	assert.Error(t, w.ctx.Err())
}

func TestOpenAPISpec(t *testing.T) {
	swagger, err := GetSwagger()
	require.NoError(t, err)
	require.NoError(t, swagger.Validate(context.Background()))
	assert.NotNil(t, swagger.Paths.Find("/api/presentations/{id}/events"))

	w := httptest.NewRecorder()
	NewHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Deckwright API")
}

type countingWatcher struct {
	started int
	ctx     context.Context
	current *domain.Presentation
}

func (c *countingWatcher) Current(ctx context.Context, id string) (*domain.Presentation, error) {
	if c.current == nil {
		return nil, domain.ErrNotFound
	}
	return c.current.Clone(), nil
}

func (c *countingWatcher) Watch(ctx context.Context, id string, fn func(*domain.Presentation)) error {
	c.started++
	c.ctx = ctx
	return nil
}
