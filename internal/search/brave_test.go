package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalsdr-engine/internal/domain"
)

func TestBraveSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "k123", r.Header.Get("X-Subscription-Token"))
		assert.Equal(t, `"Acme" recall`, r.URL.Query().Get("q"))
		assert.Equal(t, "pw", r.URL.Query().Get("freshness"))
		assert.Equal(t, "3", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"web":{"results":[
			{"title":"Acme issues <strong>recall</strong> &amp; fix","description":"Over 10,000 units   affected.","url":"https://news.example/a"},
			{"title":"no url","description":"x","url":""}
		]}}`))
	}))
	defer srv.Close()

	c := NewBrave(srv.URL, "k123", 3, time.Second)
	res, err := c.Search(context.Background(), `"Acme" recall`, "pw")
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Acme issues recall & fix", res[0].Headline)
	assert.Equal(t, "Over 10,000 units affected.", res[0].Snippet)
	assert.Equal(t, "https://news.example/a", res[0].URL)
}

func TestBraveWithoutKeyIsUnavailable(t *testing.T) {
	c := NewBrave("", "  ", 5, time.Second)
	_, err := c.Search(context.Background(), "q", "pw")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestBraveStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusTooManyRequests, domain.ErrRateLimited},
		{http.StatusUnauthorized, domain.ErrSourceUnavailable},
		{http.StatusInternalServerError, domain.ErrFetchFailure},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))
		_, err := NewBrave(srv.URL, "k", 5, time.Second).Search(context.Background(), "q", "")
		srv.Close()
		assert.ErrorIs(t, err, tc.want, "status %d", tc.status)
	}
}
