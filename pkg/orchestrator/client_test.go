package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/deckwright/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{Attempts: attempts, Backoff: retry.Linear(time.Millisecond)}
}

// deadURL returns the address of a server that has already been shut down.
func deadURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.NotFoundHandler())
	u := srv.URL
	srv.Close()
	return u
}

func TestCandidates(t *testing.T) {
	got := Candidates(" http://a:1/ ", "", []string{"http://a:1", "http://b:2", "", "http://b:2/"})
	assert.Equal(t, []string{"http://a:1", "http://b:2"}, got)

	assert.Equal(t, DefaultFallbacks, Candidates("", "", DefaultFallbacks))
}

func TestWriteSlide_Success(t *testing.T) {
	var got WriteSlideRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/slide/write", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Intro","content":["a","b"],"speaker_notes":"hi","image_prompt":"sun","usage":{"prompt_tokens":10,"completion_tokens":20}}`))
	}))
	defer srv.Close()

	var outcomes []string
	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(1)), WithObserver(func(op, outcome string) {
		outcomes = append(outcomes, op+":"+outcome)
	}))

	resp, err := c.WriteSlide(context.Background(), WriteSlideRequest{Model: "m", Title: "Intro", Index: 0})
	require.NoError(t, err)
	assert.Equal(t, "Intro", resp.Title)
	assert.Equal(t, []string{"a", "b"}, resp.Content)
	require.NotNil(t, resp.Usage)
	assert.Equal(t, int64(20), resp.Usage.CompletionTokens)
	assert.Equal(t, "m", got.Model)
	assert.Equal(t, []string{"write_slide:ok"}, outcomes)
}

func TestFirstCompletedResponseWins(t *testing.T) {
	var hitsB, hitsC atomic.Int32
	b := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsB.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("boom"))
	}))
	defer b.Close()
	cSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hitsC.Add(1)
		_, _ = w.Write([]byte(`{"outline":["x"]}`))
	}))
	defer cSrv.Close()

	var outcomes []string
	client := NewClient(
		WithCandidates(deadURL(t), b.URL, cSrv.URL),
		WithRetryPolicy(fastPolicy(3)),
		WithObserver(func(op, outcome string) { outcomes = append(outcomes, outcome) }),
	)

	_, err := client.Outline(context.Background(), OutlineRequest{ClarifiedGoals: "g"})
	require.Error(t, err)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusInternalServerError, svcErr.StatusCode)
	assert.Equal(t, b.URL, svcErr.BaseURL)
	assert.Equal(t, "boom", string(svcErr.Body))
	assert.False(t, IsTransport(err))

	assert.Equal(t, int32(1), hitsB.Load(), "service errors are not retried")
	assert.Equal(t, int32(0), hitsC.Load(), "later candidates are not consulted")
	assert.Equal(t, []string{OutcomeServiceError}, outcomes)
}

func TestAllCandidatesUnreachable(t *testing.T) {
	a, b := deadURL(t), deadURL(t)

	var outcomes []string
	client := NewClient(
		WithCandidates(a, b),
		WithRetryPolicy(fastPolicy(2)),
		WithObserver(func(op, outcome string) { outcomes = append(outcomes, outcome) }),
	)

	_, err := client.Clarify(context.Background(), ClarifyRequest{Message: "hi"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))

	var netErr *NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Equal(t, "clarify", netErr.Op)
	require.Len(t, netErr.Stages, 4)
	assert.Equal(t, a, netErr.Stages[0].BaseURL)
	assert.Equal(t, b, netErr.Stages[1].BaseURL)
	assert.Equal(t, 1, netErr.Stages[1].Attempt)
	assert.Equal(t, 2, netErr.Stages[3].Attempt)
	assert.Contains(t, err.Error(), a)
	assert.Equal(t, []string{OutcomeNetworkError}, outcomes)
}

func TestTransportFailureIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			// Drop the connection without a response.
			conn, _, err := w.(http.Hijacker).Hijack()
			require.NoError(t, err)
			_ = conn.Close()
			return
		}
		_, _ = w.Write([]byte(`{"reply":"ok","finished":true,"refined_goals":"g"}`))
	}))
	defer srv.Close()

	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(3)))
	resp, err := c.Clarify(context.Background(), ClarifyRequest{Message: "hi"})
	require.NoError(t, err)
	assert.True(t, resp.Finished)
	assert.Equal(t, "g", resp.RefinedGoals)
	assert.Equal(t, int32(2), hits.Load())
}

func TestContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(3)))
	_, err := c.Research(ctx, ResearchRequest{Query: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, IsTransport(err))
}

func TestRelay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "/v1/script", r.URL.Path)
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace"))
		w.Header().Set("X-Upstream", "yes")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(1)))
	resp, err := c.Relay(context.Background(), http.MethodPost, "/v1/script", []byte(`{"a":1}`), http.Header{"X-Trace": {"trace-1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.False(t, resp.OK())
	assert.Equal(t, `{"a":1}`, string(resp.Body))
	assert.Equal(t, "yes", resp.Header.Get("X-Upstream"))
	assert.Equal(t, srv.URL, resp.BaseURL)
}

func TestListReviews_EscapesID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/arango/presentations/p%201/slides/2/reviews", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"reviews":[{"id":"r1","score":0.8,"feedback":"good"}]}`))
	}))
	defer srv.Close()

	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(1)))
	resp, err := c.ListReviews(context.Background(), "p 1", 2)
	require.NoError(t, err)
	require.Len(t, resp.Reviews, 1)
	assert.Equal(t, "r1", resp.Reviews[0].ID)
}

func TestDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	var outcomes []string
	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(1)),
		WithObserver(func(op, outcome string) { outcomes = append(outcomes, outcome) }))
	_, err := c.CacheConfig(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{OutcomeDecodeError}, outcomes)
}

func TestOperations_RequestAndDecode(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		reply  string
		call   func(c *Client) (any, error)
		body   map[string]any
		check  func(t *testing.T, resp any)
	}{
		{
			name:   "design",
			method: http.MethodPost,
			path:   "/v1/slide/design",
			reply:  `{"image_url":"https://img/1.png","layout":"split","usage":{"prompt_tokens":3,"completion_tokens":4}}`,
			call: func(c *Client) (any, error) {
				return c.Design(context.Background(), DesignRequest{Model: "m", ImagePrompt: "sunrise"})
			},
			body: map[string]any{"model": "m", "image_prompt": "sunrise"},
			check: func(t *testing.T, resp any) {
				r := resp.(*DesignResponse)
				assert.Equal(t, "https://img/1.png", r.ImageURL)
				assert.Equal(t, "split", r.Layout)
				require.NotNil(t, r.Usage)
				assert.Equal(t, int64(4), r.Usage.CompletionTokens)
			},
		},
		{
			name:   "script",
			method: http.MethodPost,
			path:   "/v1/script",
			reply:  `{"script":"Good morning."}`,
			call: func(c *Client) (any, error) {
				return c.Script(context.Background(), ScriptRequest{Model: "m", Tone: "warm"})
			},
			body: map[string]any{"model": "m", "tone": "warm"},
			check: func(t *testing.T, resp any) {
				assert.Equal(t, "Good morning.", resp.(*ScriptResponse).Script)
			},
		},
		{
			name:   "vision analyze",
			method: http.MethodPost,
			path:   "/v1/vision/analyze",
			reply:  `{"description":"a chart","tags":["bar","sales"]}`,
			call: func(c *Client) (any, error) {
				return c.VisionAnalyze(context.Background(), VisionAnalyzeRequest{Model: "v", ImageURL: "https://img/2.png"})
			},
			body: map[string]any{"model": "v", "image_url": "https://img/2.png"},
			check: func(t *testing.T, resp any) {
				r := resp.(*VisionAnalyzeResponse)
				assert.Equal(t, "a chart", r.Description)
				assert.Equal(t, []string{"bar", "sales"}, r.Tags)
			},
		},
		{
			name:   "set cache config",
			method: http.MethodPost,
			path:   "/v1/search/cache/config",
			reply:  `{"enabled":true,"ttl_seconds":600,"max_entries":50}`,
			call: func(c *Client) (any, error) {
				return c.SetCacheConfig(context.Background(), CacheConfig{Enabled: true, TTLSeconds: 600, MaxEntries: 50})
			},
			body: map[string]any{"enabled": true, "ttl_seconds": float64(600), "max_entries": float64(50)},
			check: func(t *testing.T, resp any) {
				assert.Equal(t, &CacheConfig{Enabled: true, TTLSeconds: 600, MaxEntries: 50}, resp)
			},
		},
		{
			name:   "cache clear",
			method: http.MethodPost,
			path:   "/v1/search/cache/clear",
			reply:  `{"cleared":12}`,
			call: func(c *Client) (any, error) {
				return c.CacheClear(context.Background())
			},
			body: map[string]any{},
			check: func(t *testing.T, resp any) {
				assert.Equal(t, 12, resp.(*CacheClearResponse).Cleared)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body map[string]any
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.method, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.reply))
			}))
			defer srv.Close()

			resp, err := tt.call(NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(1))))
			require.NoError(t, err)
			for k, v := range tt.body {
				assert.Equal(t, v, body[k], k)
			}
			tt.check(t, resp)
		})
	}
}

func TestOperations_NonSuccessIsServiceError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	var outcomes []string
	c := NewClient(WithCandidates(srv.URL), WithRetryPolicy(fastPolicy(3)),
		WithObserver(func(op, outcome string) { outcomes = append(outcomes, op+":"+outcome) }))

	ops := map[string]func() error{
		"design": func() error { _, err := c.Design(context.Background(), DesignRequest{}); return err },
		"script": func() error { _, err := c.Script(context.Background(), ScriptRequest{}); return err },
		"vision_analyze": func() error {
			_, err := c.VisionAnalyze(context.Background(), VisionAnalyzeRequest{})
			return err
		},
		"cache_config": func() error { _, err := c.SetCacheConfig(context.Background(), CacheConfig{}); return err },
		"cache_clear":  func() error { _, err := c.CacheClear(context.Background()); return err },
	}
	for op, fn := range ops {
		outcomes = nil
		err := fn()

		var se *ServiceError
		require.ErrorAs(t, err, &se, op)
		assert.Equal(t, op, se.Op)
		assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
		assert.Contains(t, string(se.Body), "model unavailable")
		assert.Equal(t, []string{op + ":" + OutcomeServiceError}, outcomes)
	}
	assert.EqualValues(t, len(ops), calls.Load(), "service errors are not retried")
}
