package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/rs/zerolog"

	"github.com/matheuskafuri/newsfeeds/internal/config"
	"github.com/matheuskafuri/newsfeeds/internal/envelope"
	"github.com/matheuskafuri/newsfeeds/internal/newsapi"
	"github.com/matheuskafuri/newsfeeds/internal/params"
	"github.com/matheuskafuri/newsfeeds/internal/render"
)

type fixedClock time.Time

func (c fixedClock) Now() time.Time { return time.Time(c) }

var runTime = time.Date(2026, time.October, 17, 14, 5, 9, 0, time.UTC)

// fakeNewsAPI serves total articles in pages of the requested size.
type fakeNewsAPI struct {
	total    int
	status   string
	body     string
	requests []*http.Request
}

func (f *fakeNewsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.requests = append(f.requests, r)
	w.Header().Set("Content-Type", "application/json")
	if f.body != "" {
		w.Write([]byte(f.body))
		return
	}
	if f.status != "" && f.status != "ok" {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"status":%q,"code":"parameterInvalid","message":"bad query"}`, f.status)
		return
	}

	if strings.HasSuffix(r.URL.Path, "/sources") {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"sources": []map[string]any{
				{"id": "bbc-news", "name": "BBC News", "url": "https://bbc.example", "category": "general", "language": "en", "country": "gb"},
				{"id": "wired", "name": "Wired", "url": "https://wired.example", "category": "technology", "language": "en", "country": "us"},
			},
		})
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		page, _ = strconv.Atoi(p)
	}
	var articles []map[string]any
	for i := (page - 1) * size; i < page*size && i < f.total; i++ {
		articles = append(articles, map[string]any{
			"source":      map[string]any{"id": nil, "name": "Wire"},
			"title":       fmt.Sprintf("Story %d", i+1),
			"url":         fmt.Sprintf("https://news.example/%d", i+1),
			"publishedAt": "2026-10-16T12:00:00Z",
		})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"totalResults": f.total,
		"articles":     articles,
	})
}

func newRunner(t *testing.T, api *fakeNewsAPI, pageSize int) (*Runner, *config.Config) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	home := t.TempDir()
	results := filepath.Join(home, "Results")
	if err := os.Mkdir(results, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		APIKey:         "test-key",
		ResultsDirName: "Results",
		ResultsDir:     results,
		DataDir:        filepath.Join(home, config.DataDirName),
		PageSize:       pageSize,
		BaseURL:        srv.URL + "/v2",
		RequestTimeout: 5 * time.Second,
	}
	runner, err := New(Options{Config: cfg, Clock: fixedClock(runTime), Logger: zerolog.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return runner, cfg
}

func techQuery() params.Params {
	return params.Params{
		{Key: "query_name", Value: "tech"},
		{Key: "category", Value: "technology"},
	}
}

func TestRunSinglePage(t *testing.T) {
	api := &fakeNewsAPI{total: 5}
	runner, cfg := newRunner(t, api, 100)

	res, err := runner.Run(context.Background(), newsapi.TopHeadlines, techQuery(), RunOptions{Persist: true})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(api.requests))

	name := "tech-10_17_2026-14_05_09"
	assert.Equal(t, name, res.Name)
	assert.Equal(t, filepath.Join(cfg.DataDir, name+".json"), res.JSONPath)
	assert.Equal(t, filepath.Join(cfg.ResultsDir, name+".html"), res.HTMLPath)

	env, err := envelope.Load(res.JSONPath)
	assert.Equal(t, nil, err)
	assert.Equal(t, 5, len(env.Articles))
	date, _ := env.Query.Get("Date")
	assert.Equal(t, "10-17-2026", date)
	assert.Equal(t, envelope.Status{Status: "ok", TotalResults: 5}, env.Status)

	page, err := os.ReadFile(res.HTMLPath)
	assert.Equal(t, nil, err)
	assert.Equal(t, 5, strings.Count(string(page), "<tr>"))

	_, err = os.Stat(filepath.Join(cfg.ResultsDir, render.StyleFile))
	assert.Equal(t, nil, err)
}

func TestRunPaginates(t *testing.T) {
	api := &fakeNewsAPI{total: 250}
	runner, _ := newRunner(t, api, 100)

	res, err := runner.Run(context.Background(), newsapi.Everything, params.Params{
		{Key: "query_name", Value: "rust"},
		{Key: "q", Value: "rust"},
	}, RunOptions{})
	assert.Equal(t, nil, err)
	assert.Equal(t, 3, len(api.requests))
	assert.Equal(t, 250, len(res.Envelope.Articles))
	assert.Equal(t, "Story 250", res.Envelope.Articles[249].Title)
	assert.Equal(t, "", res.JSONPath)

	for i, req := range api.requests {
		assert.Equal(t, "/v2/everything", req.URL.Path)
		assert.Equal(t, "100", req.URL.Query().Get("pageSize"))
		assert.Equal(t, "test-key", req.Header.Get("X-Api-Key"))
		if i > 0 {
			assert.Equal(t, strconv.Itoa(i+1), req.URL.Query().Get("page"))
		}
	}
	if res.Envelope.Query.Has("pageSize") {
		t.Errorf("page size leaked into the echo: %v", res.Envelope.Query)
	}
}

func TestRunSources(t *testing.T) {
	api := &fakeNewsAPI{}
	runner, _ := newRunner(t, api, 10)

	res, err := runner.Run(context.Background(), newsapi.Sources, params.Params{
		{Key: "query_name", Value: "catalog"},
		{Key: "language", Value: "en"},
	}, RunOptions{Persist: true})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(api.requests))
	assert.Equal(t, "", api.requests[0].URL.Query().Get("pageSize"))
	assert.Equal(t, 2, len(res.Envelope.Sources))
	assert.Equal(t, 2, res.Envelope.Status.TotalResults)

	page, err := os.ReadFile(res.HTMLPath)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, strings.Contains(string(page), `<a href="https://wired.example">Wired</a>`))
}

func TestRunFailuresWriteNothing(t *testing.T) {
	tests := []struct {
		name    string
		api     *fakeNewsAPI
		query   params.Params
		wantErr error
	}{
		{
			name: "conflicting filters",
			api:  &fakeNewsAPI{total: 5},
			query: params.Params{
				{Key: "query_name", Value: "tech"},
				{Key: "category", Value: "technology"},
				{Key: "sources", Value: "bbc-news"},
			},
			wantErr: params.ErrConflictingFilters,
		},
		{
			name:    "missing query name",
			api:     &fakeNewsAPI{total: 5},
			query:   params.Params{{Key: "category", Value: "technology"}},
			wantErr: params.ErrMissingQueryName,
		},
		{
			name:    "empty response",
			api:     &fakeNewsAPI{body: "null"},
			query:   techQuery(),
			wantErr: newsapi.ErrEmptyResponse,
		},
		{
			name:    "remote error",
			api:     &fakeNewsAPI{status: "error"},
			query:   techQuery(),
			wantErr: newsapi.ErrRemoteStatus,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner, cfg := newRunner(t, tt.api, 100)
			res, err := runner.Run(context.Background(), newsapi.TopHeadlines, tt.query, RunOptions{Persist: true})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if res != nil {
				t.Errorf("expected no result, got %+v", res)
			}
			entries, _ := os.ReadDir(cfg.ResultsDir)
			if len(entries) != 0 {
				t.Errorf("results dir should be empty, has %d entries", len(entries))
			}
			if _, err := os.Stat(cfg.DataDir); !os.IsNotExist(err) {
				t.Errorf("data dir should not exist: %v", err)
			}
		})
	}
}

func TestRunConflictNeverCallsRemote(t *testing.T) {
	api := &fakeNewsAPI{total: 5}
	runner, _ := newRunner(t, api, 100)
	_, err := runner.Run(context.Background(), newsapi.TopHeadlines, params.Params{
		{Key: "query_name", Value: "tech"},
		{Key: "country", Value: "us"},
		{Key: "sources", Value: "bbc-news"},
	}, RunOptions{})
	assert.Equal(t, true, errors.Is(err, params.ErrConflictingFilters))
	assert.Equal(t, 0, len(api.requests))
}

func TestRunRenderError(t *testing.T) {
	srv := httptest.NewServer(&fakeNewsAPI{total: 2})
	t.Cleanup(srv.Close)
	home := t.TempDir()
	cfg := &config.Config{
		APIKey:         "k",
		ResultsDir:     home,
		DataDir:        filepath.Join(home, config.DataDirName),
		PageSize:       100,
		BaseURL:        srv.URL,
		RequestTimeout: time.Second,
	}
	runner, err := New(Options{Config: cfg, Templates: fstest.MapFS{}, Clock: fixedClock(runTime), Logger: zerolog.Nop()})
	assert.Equal(t, nil, err)

	res, err := runner.Run(context.Background(), newsapi.TopHeadlines, techQuery(), RunOptions{Persist: true})
	var renderErr *render.RenderError
	assert.Equal(t, true, errors.As(err, &renderErr))
	assert.NotEqual(t, nil, res)
	assert.Equal(t, 2, res.Envelope.Len())
	assert.NotEqual(t, "", res.JSONPath)
	assert.Equal(t, "", res.HTMLPath)
}

func TestNewRequiresResultsDir(t *testing.T) {
	cfg := &config.Config{APIKey: "k", ResultsDir: filepath.Join(t.TempDir(), "missing"), PageSize: 100}
	_, err := New(Options{Config: cfg, Logger: zerolog.Nop()})
	assert.Equal(t, true, errors.Is(err, config.ErrDirectoryNotFound))
}

func TestRerender(t *testing.T) {
	api := &fakeNewsAPI{total: 3}
	runner, _ := newRunner(t, api, 100)

	res, err := runner.Run(context.Background(), newsapi.TopHeadlines, techQuery(), RunOptions{Persist: true})
	assert.Equal(t, nil, err)
	assert.Equal(t, nil, os.Remove(res.HTMLPath))

	again, err := runner.Rerender(res.JSONPath)
	assert.Equal(t, nil, err)
	assert.Equal(t, res.HTMLPath, again.HTMLPath)
	assert.Equal(t, 3, again.Envelope.Len())

	page, err := os.ReadFile(again.HTMLPath)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, strings.Contains(string(page), "query_name: tech-10_17_2026-14_05_09<br>"))
	assert.Equal(t, 1, len(api.requests))
}
