package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/id8-org/id8/internal/config"
	"github.com/id8-org/id8/internal/idea"
)

// runCommand executes the command tree against a config and returns the
// combined output plus the exit code RunWithConfig would report.
func runCommand(t *testing.T, cfg *config.Config, args ...string) (string, int) {
	t.Helper()

	root := NewRootCommand(NewApp(cfg))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return out.String(), 0
	}
	if code, ok := IsExitError(err); ok {
		return out.String(), code
	}
	return out.String() + err.Error(), 1
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.API.BaseURL = baseURL
	cfg.Poll.Interval = time.Millisecond
	cfg.Poll.MaxAttempts = 3
	cfg.Notifications.Enabled = false
	cfg.Shortlist.Path = t.TempDir() + "/shortlist.yaml"
	return cfg
}

func TestPlanCommand(t *testing.T) {
	cfg := testConfig(t, "http://localhost:0")

	t.Run("forward transition lists jobs in order", func(t *testing.T) {
		out, code := runCommand(t, cfg, "plan", "suggested", "iterating")
		assert.Equal(t, 0, code)
		assert.Contains(t, out, "1. deep_dive")
		assert.Contains(t, out, "2. iterating")
		assert.NotContains(t, out, "considering")
	})

	t.Run("backward transition needs no jobs", func(t *testing.T) {
		out, code := runCommand(t, cfg, "plan", "considering", "suggested")
		assert.Equal(t, 0, code)
		assert.Contains(t, out, "no analysis jobs required")
	})

	t.Run("unknown stage is rejected", func(t *testing.T) {
		out, code := runCommand(t, cfg, "plan", "brainstorm", "closed")
		assert.Equal(t, 1, code)
		assert.Contains(t, out, "unknown stage")
	})
}

func TestAdvanceRejectsInvalidStage(t *testing.T) {
	cfg := testConfig(t, "http://localhost:0")

	out, code := runCommand(t, cfg, "advance", "idea-1", "launched")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "invalid stage")
	assert.Contains(t, out, "suggested")
}

// ideaBackend is a minimal in-memory id8 API for command tests.
type ideaBackend struct {
	mu           sync.Mutex
	idea         idea.Idea
	statusPuts   []idea.Stage
	jobPosts     []string
	failDeepDive bool
}

func (b *ideaBackend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ideas/{id}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		json.NewEncoder(w).Encode(b.idea)
	})
	mux.HandleFunc("PUT /ideas/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		var body struct {
			Status        idea.Stage `json:"status"`
			ClosureReason string     `json:"closure_reason"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		b.statusPuts = append(b.statusPuts, body.Status)
		b.idea.Status = body.Status
		if body.ClosureReason != "" {
			b.idea.ClosureReason = body.ClosureReason
		}
		json.NewEncoder(w).Encode(b.idea)
	})
	mux.HandleFunc("POST /ideas/{id}/{job}", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		job := r.PathValue("job")
		b.jobPosts = append(b.jobPosts, job)
		if job == "deepdive" && b.failDeepDive {
			http.Error(w, "worker pool exhausted", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	return mux
}

func TestAdvanceHappyPath(t *testing.T) {
	backend := &ideaBackend{idea: idea.Idea{
		ID:       "idea-1",
		Title:    "robot barista",
		Status:   idea.StageSuggested,
		DeepDive: json.RawMessage(`{"summary":"strong demand"}`),
	}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	out, code := runCommand(t, testConfig(t, srv.URL), "advance", "idea-1", "deep_dive")

	require.Equal(t, 0, code, "output: %s", out)
	assert.Contains(t, out, "moved to deep_dive")
	assert.Contains(t, out, "1 of 1")
	assert.Equal(t, []idea.Stage{idea.StageDeepDive}, backend.statusPuts)
	assert.Equal(t, []string{"deepdive"}, backend.jobPosts)
}

func TestAdvanceRollsBackOnJobFailure(t *testing.T) {
	backend := &ideaBackend{
		idea:         idea.Idea{ID: "idea-1", Title: "robot barista", Status: idea.StageSuggested},
		failDeepDive: true,
	}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	out, code := runCommand(t, testConfig(t, srv.URL), "advance", "idea-1", "iterating")

	assert.Equal(t, 2, code, "output: %s", out)
	assert.Contains(t, out, "deep_dive")
	assert.Contains(t, out, "0 of 2")
	// Optimistic move to iterating, then the rollback restores suggested.
	assert.Equal(t, []idea.Stage{idea.StageIterating, idea.StageSuggested}, backend.statusPuts)
	assert.Equal(t, idea.StageSuggested, backend.idea.Status)
}

func TestAdvanceClosureRequiresReason(t *testing.T) {
	backend := &ideaBackend{idea: idea.Idea{ID: "idea-1", Title: "robot barista", Status: idea.StageConsidering}}
	srv := httptest.NewServer(backend.handler())
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	out, code := runCommand(t, cfg, "advance", "idea-1", "closed")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "--reason")
	assert.Empty(t, backend.statusPuts, "a declined closure must not touch the backend")

	out, code = runCommand(t, cfg, "advance", "idea-1", "closed", "--reason", "market too small")
	require.Equal(t, 0, code, "output: %s", out)
	assert.Contains(t, out, "moved to closed")
	assert.Equal(t, "market too small", backend.idea.ClosureReason)
}

func TestAdvanceVanishedIdea(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	out, code := runCommand(t, testConfig(t, srv.URL), "advance", "ghost", "deep_dive", "--from", "suggested")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "no longer exists")
}

func TestAdvanceHonorsConfiguredTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		json.NewEncoder(w).Encode(idea.Idea{ID: "idea-1", Status: idea.StageSuggested})
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	cfg.API.Timeout = 50 * time.Millisecond

	// With the default 30s timeout the stalled fetch would simply take
	// 300ms and succeed; the configured timeout must fail it instead.
	out, code := runCommand(t, cfg, "advance", "idea-1", "deep_dive")
	assert.Equal(t, 1, code, "output: %s", out)
	assert.Contains(t, out, "Client.Timeout")
}

func TestShortlistCommands(t *testing.T) {
	cfg := testConfig(t, "http://localhost:0")

	out, code := runCommand(t, cfg, "shortlist", "add", "idea-1")
	require.Equal(t, 0, code, "output: %s", out)

	out, code = runCommand(t, cfg, "shortlist", "list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "idea-1")

	out, code = runCommand(t, cfg, "shortlist", "remove", "idea-1")
	require.Equal(t, 0, code, "output: %s", out)

	out, code = runCommand(t, cfg, "shortlist", "list")
	require.Equal(t, 0, code)
	assert.NotContains(t, out, "idea-1")
}
