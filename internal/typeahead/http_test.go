package typeahead

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSearcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/search", r.URL.Path)
		assert.Equal(t, "go lang", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"posts":[{"id":"1","slug":"a","title":"A","metadata":{}}],"total":1}`))
	}))
	defer srv.Close()

	resp, err := NewHTTPSearcher(srv.URL+"/").Search(context.Background(), "go lang")
	require.NoError(t, err)
	require.Len(t, resp.Posts, 1)
	assert.Equal(t, "a", resp.Posts[0].Slug)
	assert.Equal(t, 1, resp.Total)
}

func TestHTTPSearcherRejectsNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPSearcher(srv.URL).Search(context.Background(), "go")
	assert.ErrorContains(t, err, "502")
}
