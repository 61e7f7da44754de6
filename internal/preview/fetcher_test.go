package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chathub/internal/config"
)

func testFetcher(t *testing.T, allowPrivate bool) *HTTPFetcher {
	t.Helper()
	f := NewHTTPFetcher(&config.Config{
		Preview: config.PreviewConfig{TimeoutSeconds: 5, MaxBodyBytes: 1 << 20},
	})
	f.allowPrivate = allowPrivate
	return f
}

func TestHTTPFetcher_ParsesOpenGraphPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
			<meta property="og:title" content="Hello">
			<meta property="og:description" content="World">
		</head></html>`))
	}))
	defer srv.Close()

	f := testFetcher(t, true)
	p := f.Fetch(context.Background(), srv.URL)
	require.NotNil(t, p)
	assert.Equal(t, srv.URL, p.URL)
	assert.Equal(t, "Hello", p.Title)
	assert.Equal(t, "World", p.Description)
}

func TestHTTPFetcher_BlocksInternalAddresses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request to a loopback address must never reach the handler")
	}))
	defer srv.Close()

	f := testFetcher(t, false)
	assert.Nil(t, f.Fetch(context.Background(), srv.URL))
}

func TestHTTPFetcher_RejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title": "nope"}`))
	}))
	defer srv.Close()

	f := testFetcher(t, true)
	assert.Nil(t, f.Fetch(context.Background(), srv.URL))
}

func TestHTTPFetcher_RejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := testFetcher(t, true)
	assert.Nil(t, f.Fetch(context.Background(), srv.URL))
}

func TestHTTPFetcher_RejectsBadSchemes(t *testing.T) {
	f := testFetcher(t, true)
	assert.Nil(t, f.Fetch(context.Background(), "ftp://example.com/file"))
	assert.Nil(t, f.Fetch(context.Background(), "not a url"))
}
