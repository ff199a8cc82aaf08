package pinger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// statusServer answers /<code> with that status code.
func statusServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/see-other", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok", http.StatusSeeOther)
	})
	mux.HandleFunc("/moved", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/missing", http.StatusMovedPermanently)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newPinger(concurrency int) *Pinger {
	return New(nil, 2*time.Second, concurrency, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Result
// ---------------------------------------------------------------------------

func Test_Result_Cases(t *testing.T) {
	tests := []struct {
		name   string
		r      Result
		ok     bool
		format string
	}{
		{name: "200", r: Result{URL: "https://a", Status: 200, Reason: "OK"}, ok: true, format: "Result: (https://a, 200 - OK)"},
		{name: "303", r: Result{URL: "https://a", Status: 303, Reason: "See Other"}, ok: true, format: "Result: (https://a, 303 - See Other)"},
		{name: "204 is not healthy", r: Result{URL: "https://a", Status: 204, Reason: "No Content"}, ok: false, format: "Result: (https://a, 204 - No Content)"},
		{name: "transport error", r: Result{URL: "https://a", Err: "dial tcp: refused"}, ok: false, format: "Result: (https://a, error - dial tcp: refused)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.r.OK())
			assert.Equal(t, tt.format, tt.r.String())
		})
	}
}

// ---------------------------------------------------------------------------
// Pinger
// ---------------------------------------------------------------------------

func Test_Pinger_Ping(t *testing.T) {
	srv := statusServer(t)

	lines := newPinger(2).Ping(context.Background(), []string{
		srv.URL + "/ok",
		srv.URL + "/missing",
		srv.URL + "/see-other",
		srv.URL + "/broken",
		srv.URL + "/moved",
	})

	assert.Equal(t, []string{
		"Result: (" + srv.URL + "/missing, 404 - Not Found)",
		"Result: (" + srv.URL + "/broken, 503 - Service Unavailable)",
		"Result: (" + srv.URL + "/moved, 404 - Not Found)",
	}, lines)
}

func Test_Pinger_AllHealthy(t *testing.T) {
	srv := statusServer(t)
	assert.Empty(t, newPinger(0).Ping(context.Background(), []string{srv.URL + "/ok", srv.URL + "/see-other"}))
}

func Test_Pinger_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	results := newPinger(1).Check(context.Background(), []string{url, "::not a url"})
	require.Len(t, results, 2)
	for _, r := range results {
		assert.False(t, r.OK())
		assert.NotEmpty(t, r.Err)
		assert.True(t, strings.HasPrefix(r.String(), "Result: ("+r.URL+", error - "))
	}
}

func Test_Pinger_BoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = srv.URL
	}
	results := newPinger(2).Check(context.Background(), urls)

	require.Len(t, results, 8)
	for _, r := range results {
		assert.True(t, r.OK(), r.String())
	}
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func Test_Message(t *testing.T) {
	msg := Message([]string{"Result: (x, 500 - Internal Server Error)"})
	assert.Equal(t, Subject, msg.Subject)
	assert.Equal(t, Heading, msg.Heading)
	assert.Len(t, msg.Lines, 1)
	assert.True(t, Message(nil).Empty())
}

// ---------------------------------------------------------------------------
// website_ping tool
// ---------------------------------------------------------------------------

func Test_WebsitePingTool(t *testing.T) {
	srv := statusServer(t)
	reg := PingTools(newPinger(2), []string{srv.URL + "/ok", srv.URL + "/broken"}, nil)[0]
	assert.Equal(t, "website_ping", reg.Tool.Name)

	call := func(args map[string]any) (*mcp.CallToolResult, string) {
		req := mcp.CallToolRequest{}
		req.Params.Arguments = args
		res, err := reg.Handler(context.Background(), req)
		require.NoError(t, err)
		tc, ok := mcp.AsTextContent(res.Content[0])
		require.True(t, ok)
		return res, tc.Text
	}

	t.Run("configured websites by default", func(t *testing.T) {
		_, text := call(nil)
		var results []Result
		require.NoError(t, json.Unmarshal([]byte(text), &results))
		require.Len(t, results, 2)
		assert.True(t, results[0].OK())
		assert.Equal(t, 503, results[1].Status)
	})

	t.Run("explicit urls", func(t *testing.T) {
		_, text := call(map[string]any{"urls": srv.URL + "/missing , "})
		var results []Result
		require.NoError(t, json.Unmarshal([]byte(text), &results))
		require.Len(t, results, 1)
		assert.Equal(t, 404, results[0].Status)
	})

	t.Run("nothing to ping", func(t *testing.T) {
		empty := PingTools(newPinger(1), nil, nil)[0]
		res, err := empty.Handler(context.Background(), mcp.CallToolRequest{})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}
