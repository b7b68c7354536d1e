package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookkinder/internal/client/session"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   string
}

// recordingServer answers every request with status and body and keeps what it saw.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		seen = append(seen, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   string(data),
		})
		if body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &seen
}

func withToken(t *testing.T, token string) *session.Store {
	t.Helper()
	store := session.NewStore(nil)
	require.NoError(t, store.SetToken(&token))
	return store
}

func TestRequest_Headers(t *testing.T) {
	tests := []struct {
		name        string
		store       *session.Store
		opts        RequestOptions
		wantAuth    string
		wantContent string
	}{
		{
			name:  "anonymous get",
			store: session.NewStore(nil),
			opts:  RequestOptions{Method: http.MethodGet},
		},
		{
			name:     "token attached",
			store:    withToken(t, "abc"),
			opts:     RequestOptions{Method: http.MethodGet},
			wantAuth: "Bearer abc",
		},
		{
			name:        "body sets content type",
			store:       session.NewStore(nil),
			opts:        RequestOptions{Method: http.MethodPost, Body: map[string]string{"a": "b"}},
			wantContent: "application/json",
		},
		{
			name:     "caller headers win",
			store:    withToken(t, "abc"),
			opts:     RequestOptions{Method: http.MethodGet, Headers: map[string]string{"Authorization": "Bearer override"}},
			wantAuth: "Bearer override",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, seen := recordingServer(t, http.StatusOK, `{}`)
			c := New(server.URL, tt.store, WithHTTPClient(server.Client()))

			require.NoError(t, c.Request(context.Background(), "/books", tt.opts, nil))
			require.Len(t, *seen, 1)

			h := (*seen)[0].Header
			assert.Equal(t, "application/json", h.Get("Accept"))
			assert.Equal(t, tt.wantAuth, h.Get("Authorization"))
			assert.Equal(t, tt.wantContent, h.Get("Content-Type"))
		})
	}
}

func TestRequest_URLAndParams(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `[]`)
	c := New(server.URL+"/api/", nil, WithHTTPClient(server.Client()))

	params := url.Values{"search[title]": {"dune"}}
	require.NoError(t, c.Get(context.Background(), "books", params, nil))

	got := (*seen)[0]
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/books", got.Path)
	assert.Equal(t, "dune", got.Query.Get("search[title]"))
}

func TestRequest_DecodesBody(t *testing.T) {
	server, seen := recordingServer(t, http.StatusCreated, `{"id":3,"title":"Dune"}`)
	c := New(server.URL, nil, WithHTTPClient(server.Client()))

	var out struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}
	require.NoError(t, c.Post(context.Background(), "/books/store", map[string]string{"title": "Dune"}, &out))

	assert.Equal(t, uint(3), out.ID)
	assert.Equal(t, "Dune", out.Title)

	var sent map[string]string
	require.NoError(t, json.Unmarshal([]byte((*seen)[0].Body), &sent))
	assert.Equal(t, "Dune", sent["title"])
}

func TestRequest_NoContent(t *testing.T) {
	server, _ := recordingServer(t, http.StatusNoContent, "")
	c := New(server.URL, nil, WithHTTPClient(server.Client()))

	out := map[string]any{"untouched": true}
	require.NoError(t, c.Request(context.Background(), "/books/delete/1", RequestOptions{Method: http.MethodDelete}, &out))
	assert.Equal(t, true, out["untouched"])
}

func TestRequest_HTTPErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantMsg string
	}{
		{"json error body", http.StatusUnauthorized, `{"error":"invalid credentials"}`, "invalid credentials"},
		{"plain body", http.StatusBadGateway, "upstream down", "upstream down"},
		{"empty body", http.StatusNotFound, "", "Not Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := recordingServer(t, tt.status, tt.body)
			c := New(server.URL, nil, WithHTTPClient(server.Client()))

			err := c.Get(context.Background(), "/x", nil, nil)
			require.Error(t, err)

			var httpErr *HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
			assert.True(t, IsStatus(err, tt.status))
		})
	}
}

func TestRequest_TransportError(t *testing.T) {
	server, _ := recordingServer(t, http.StatusOK, "")
	base := server.URL
	server.Close()

	c := New(base, nil)
	err := c.Get(context.Background(), "/books", nil, nil)
	require.Error(t, err)
	assert.False(t, IsStatus(err, http.StatusInternalServerError))
}

func TestRequest_ContextCanceled(t *testing.T) {
	server, seen := recordingServer(t, http.StatusOK, `{}`)
	c := New(server.URL, nil, WithHTTPClient(server.Client()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Get(ctx, "/books", nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, *seen)
}

func TestListParams_Values(t *testing.T) {
	p := ListParams{
		Search:    map[string]string{"title": "dune", "author": ""},
		SortField: "price",
		SortOrder: "desc",
		PerPage:   10,
		Page:      2,
	}

	raw := p.values(true)
	assert.Equal(t, "dune", raw.Get("search[title]"))
	assert.False(t, raw.Has("search[author]"))
	assert.Equal(t, "price", raw.Get("sort[field]"))
	assert.Equal(t, "desc", raw.Get("sort[order]"))
	assert.Equal(t, "true", raw.Get("raw"))
	assert.False(t, raw.Has("per_page"))

	paged := p.values(false)
	assert.Equal(t, "false", paged.Get("raw"))
	assert.Equal(t, "10", paged.Get("per_page"))
	assert.Equal(t, "2", paged.Get("page"))
}
