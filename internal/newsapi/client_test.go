package newsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]*http.Request) {
	t.Helper()
	var requests []*http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewClient("test-key", 5*time.Second, WithBaseURL(srv.URL+"/v2/")), &requests
}

func TestClientCallSuccess(t *testing.T) {
	payload := map[string]any{
		"status":       "ok",
		"totalResults": 2,
		"articles": []map[string]any{
			{
				"source":      map[string]any{"id": nil, "name": "Example"},
				"author":      nil,
				"title":       "First",
				"url":         "https://example.com/1",
				"publishedAt": "2026-10-16T08:00:00Z",
			},
			{"title": "Second", "url": "https://example.com/2"},
		},
	}
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payload)
	})

	resp, err := client.Call(context.Background(), TopHeadlines, url.Values{"category": {"technology"}})
	assert.Equal(t, nil, err)
	assert.Equal(t, 2, resp.TotalResults)
	assert.Equal(t, 2, len(resp.Articles))
	assert.Equal(t, "Example", resp.Articles[0].Source.Name)
	assert.Equal(t, "", resp.Articles[0].Author)

	req := (*requests)[0]
	assert.Equal(t, "/v2/top-headlines", req.URL.Path)
	assert.Equal(t, "test-key", req.Header.Get("X-Api-Key"))
	assert.Equal(t, "technology", req.URL.Query().Get("category"))
	assert.Equal(t, "en", req.URL.Query().Get("language"))
}

func TestClientKeepsRequestedLanguage(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok","sources":[{"id":"le-monde"}]}`))
	})

	resp, err := client.Call(context.Background(), Sources, url.Values{"language": {"fr"}})
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(resp.Sources))
	assert.Equal(t, "/v2/top-headlines/sources", (*requests)[0].URL.Path)
	assert.Equal(t, "fr", (*requests)[0].URL.Query().Get("language"))
}

func TestClientEmptyResponse(t *testing.T) {
	bodies := []string{"", "null", "{}", "  \n"}
	for _, body := range bodies {
		client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
		_, err := client.Call(context.Background(), Everything, url.Values{})
		if !errors.Is(err, ErrEmptyResponse) {
			t.Errorf("body %q: expected ErrEmptyResponse, got %v", body, err)
		}
	}
}

func TestClientRemoteStatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"status":"error","code":"apiKeyInvalid","message":"Your API key is invalid."}`))
	})

	_, err := client.Call(context.Background(), TopHeadlines, url.Values{})
	assert.Equal(t, true, errors.Is(err, ErrRemoteStatus))

	var statusErr *RemoteStatusError
	assert.Equal(t, true, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.HTTPStatus)
	assert.Equal(t, "apiKeyInvalid", statusErr.Code)
	assert.Equal(t, TopHeadlines, statusErr.Operation)
}

func TestClientNotOKStatusWithHTTP200(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","code":"parametersMissing"}`))
	})
	_, err := client.Call(context.Background(), Everything, url.Values{})
	assert.Equal(t, true, errors.Is(err, ErrRemoteStatus))
}

func TestClientServerErrorWithoutJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	})
	_, err := client.Call(context.Background(), Everything, url.Values{})

	var statusErr *RemoteStatusError
	assert.Equal(t, true, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadGateway, statusErr.HTTPStatus)
}

func TestClientDoesNotRetry(t *testing.T) {
	client, requests := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"status":"error","code":"rateLimited"}`))
	})
	_, err := client.Call(context.Background(), TopHeadlines, url.Values{})
	assert.NotEqual(t, nil, err)
	assert.Equal(t, 1, len(*requests))
}

func TestValidate(t *testing.T) {
	assert.Equal(t, true, errors.Is(Validate(Sources, nil), ErrEmptyResponse))
	assert.Equal(t, true, errors.Is(Validate(Sources, &Response{Status: "error"}), ErrRemoteStatus))
	assert.Equal(t, nil, Validate(Sources, &Response{Status: StatusOK}))
}

func TestRemoteStatusErrorMessage(t *testing.T) {
	err := &RemoteStatusError{Operation: Everything, HTTPStatus: 426, Status: "error", Code: "parameterInvalid", Message: "too far back"}
	want := `not ok status from News API: News API everything returned status "error" (HTTP 426): parameterInvalid - too far back`
	assert.Equal(t, want, err.Error())
}

func TestParseOperation(t *testing.T) {
	for _, op := range AllOperations() {
		got, err := ParseOperation(op.String())
		assert.Equal(t, nil, err)
		assert.Equal(t, op, got)
	}
	_, err := ParseOperation("headlines")
	assert.NotEqual(t, nil, err)
	assert.Equal(t, false, Sources.Paginated())
	assert.Equal(t, "sources", Sources.ItemsKey())
	assert.Equal(t, "articles", Everything.ItemsKey())
}
