package search

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/cosmic-blog/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiBody struct {
	Posts []struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	} `json:"posts"`
	Total int     `json:"total"`
	Error *string `json:"error"`
}

func serveAPI(t *testing.T, h *Handler, target string) (*httptest.ResponseRecorder, apiBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.API(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body apiBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec, body
}

func TestAPISearch(t *testing.T) {
	h := NewHandler(NewService(&fakeSource{posts: corpus()}, Options{}))
	rec, body := serveAPI(t, h, "/api/search?q=golang")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Len(t, body.Posts, 2)
	assert.Equal(t, "post2", body.Posts[0].ID)
	assert.Equal(t, 2, body.Total)
	assert.Nil(t, body.Error)
}

func TestAPIShortQuery(t *testing.T) {
	src := &fakeSource{posts: corpus()}
	h := NewHandler(NewService(src, Options{}))
	rec, body := serveAPI(t, h, "/api/search?q=g")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, body.Posts)
	assert.Empty(t, body.Posts)
	assert.Equal(t, 0, src.calls)

	_, body = serveAPI(t, h, "/api/search")
	assert.Empty(t, body.Posts)
}

func TestAPISoftError(t *testing.T) {
	h := NewHandler(NewService(&fakeSource{err: apperrors.ErrUpstream}, Options{}))
	rec, body := serveAPI(t, h, "/api/search?q=golang")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body.Posts)
	require.NotNil(t, body.Error)
	assert.Equal(t, "Failed to search posts", *body.Error)
}
