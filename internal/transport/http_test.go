package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStatusServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Agent", r.Header.Get("User-Agent"))
		w.Header().Set("X-Token", r.Header.Get("X-Token"))
		_, _ = w.Write([]byte("tiledata"))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestExistsClassification(t *testing.T) {
	ast := assert.New(t)
	srv := newStatusServer(t)
	s := NewHTTP(Config{})
	ctx := context.Background()

	ast.NoError(s.Exists(ctx, srv.URL+"/ok"))

	err := s.Exists(ctx, srv.URL+"/missing")
	ast.True(IsBoundary(err))
	ast.True(errors.Is(err, ErrBoundary))

	err = s.Exists(ctx, srv.URL+"/forbidden")
	ast.True(IsBoundary(err))

	err = s.Exists(ctx, srv.URL+"/broken")
	ast.False(IsBoundary(err))
	ast.True(errors.Is(err, ErrServer))
	var terr *Error
	require.True(t, errors.As(err, &terr))
	ast.Equal(http.StatusInternalServerError, terr.Status)
}

func TestExistsUnreachable(t *testing.T) {
	ast := assert.New(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	s := NewHTTP(Config{})
	err := s.Exists(context.Background(), url+"/ok")
	ast.True(errors.Is(err, ErrTransport))
	ast.False(IsBoundary(err))
}

func TestFetch(t *testing.T) {
	ast := assert.New(t)
	srv := newStatusServer(t)
	s := NewHTTP(Config{Headers: map[string]string{"X-Token": "secret"}, MaxConnsPerHost: 4})
	ctx := context.Background()

	data, err := s.Fetch(ctx, srv.URL+"/ok")
	ast.NoError(err)
	ast.Equal("tiledata", string(data))

	_, err = s.Fetch(ctx, srv.URL+"/broken")
	ast.True(errors.Is(err, ErrServer))

	_, err = s.Fetch(ctx, srv.URL+"/missing")
	ast.True(errors.Is(err, ErrNotFound))
	ast.False(IsBoundary(err))
}

func TestHeaders(t *testing.T) {
	ast := assert.New(t)
	srv := newStatusServer(t)
	s := NewHTTP(Config{UserAgent: "ripper/1", Headers: map[string]string{"X-Token": "secret"}})

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/ok", nil)
	require.NoError(t, err)
	s.setHeaders(req)
	resp, err := s.cl.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	ast.Equal("ripper/1", resp.Header.Get("X-Agent"))
	ast.Equal("secret", resp.Header.Get("X-Token"))
}

func TestFactory(t *testing.T) {
	ast := assert.New(t)
	f := NewFactory(Config{})
	s, err := f.For("https://lh5.ggpht.com/abc")
	ast.NoError(err)
	ast.Same(f.HTTP(), s)
	ast.NoError(f.Close())
}

func TestErrorMessage(t *testing.T) {
	ast := assert.New(t)
	err := &Error{Kind: ErrServer, Op: "GET", Addr: "http://x/a", Status: 502}
	ast.Contains(err.Error(), "GET http://x/a")
	ast.Contains(err.Error(), "status 502")
}
