package trackapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	eventbus "github.com/hanpama/catstronauts/internal/eventbus"
	events "github.com/hanpama/catstronauts/internal/events"
)

func newTestServer(t *testing.T) (*httptest.Server, *[]*http.Request) {
	t.Helper()
	var mu sync.Mutex
	var seen []*http.Request
	mux := http.NewServeMux()
	mux.HandleFunc("GET /tracks", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"c_0","title":"Splish splash","authorId":"cat-1","thumbnail":"https://img/0.jpg","length":1120,"modulesCount":6},
			{"id":"c_1","title":"Cat-stronomy","authorId":"cat-2"}
		]`))
	})
	mux.HandleFunc("GET /author/{id}", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r)
		mu.Unlock()
		if r.PathValue("id") != "cat-1" {
			http.Error(w, `{"message":"no such author"}`, http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"id":"cat-1","name":"Henri, le Chat Noir","photo":"https://img/henri.jpg"}`))
	})
	mux.HandleFunc("GET /broken/tracks", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &seen
}

func intPtr(n int) *int { return &n }

func TestClientGetTracksForHome(t *testing.T) {
	srv, _ := newTestServer(t)
	c, err := NewClient(srv.URL, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	got, err := c.GetTracksForHome(context.Background())
	require.NoError(t, err)

	want := []*Track{
		{ID: "c_0", Title: "Splish splash", AuthorID: "cat-1", Thumbnail: "https://img/0.jpg", Length: intPtr(1120), ModulesCount: intPtr(6)},
		{ID: "c_1", Title: "Cat-stronomy", AuthorID: "cat-2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("tracks mismatch (-want +got):\n%s", diff)
	}
}

func TestClientGetAuthor(t *testing.T) {
	srv, _ := newTestServer(t)
	c, err := NewClient(srv.URL+"/", WithTimeout(time.Second))
	require.NoError(t, err)

	got, err := c.GetAuthor(context.Background(), "cat-1")
	require.NoError(t, err)
	require.Equal(t, &Author{ID: "cat-1", Name: "Henri, le Chat Noir", Photo: "https://img/henri.jpg"}, got)

	_, err = c.GetAuthor(context.Background(), "cat-9")
	require.ErrorIs(t, err, ErrNotFound)
	var se *StatusError
	require.True(t, errors.As(err, &se))
	require.Equal(t, http.StatusNotFound, se.StatusCode)
	require.Equal(t, srv.URL+"/author/cat-9", se.URL)
	require.Contains(t, se.Body, "no such author")
}

func TestClientNon2xx(t *testing.T) {
	srv, _ := newTestServer(t)
	c, err := NewClient(srv.URL + "/broken")
	require.NoError(t, err)

	_, err = c.GetTracksForHome(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusBadGateway, se.StatusCode)
	require.NotErrorIs(t, err, ErrNotFound)
	require.EqualError(t, err, "trackapi: GET "+srv.URL+"/broken/tracks: unexpected status 502")
}

func TestClientForwardsMetadata(t *testing.T) {
	srv, seen := newTestServer(t)
	c, err := NewClient(srv.URL, WithForwardedMetadata())
	require.NoError(t, err)

	ctx := metadata.NewOutgoingContext(context.Background(), metadata.Pairs(
		"graphql-request-id", "42",
		"authorization", "Bearer token",
	))
	_, err = c.GetAuthor(ctx, "cat-1")
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	require.Equal(t, "42", req.Header.Get("Graphql-Request-Id"))
	require.Equal(t, "Bearer token", req.Header.Get("Authorization"))
}

func TestClientPublishesUpstreamEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	bus := eventbus.New()
	eventbus.Use(bus)
	t.Cleanup(func() { eventbus.Use(nil) })
	var starts []events.UpstreamStart
	var finishes []events.UpstreamFinish
	eventbus.Subscribe(func(_ context.Context, e events.UpstreamStart) { starts = append(starts, e) })
	eventbus.Subscribe(func(_ context.Context, e events.UpstreamFinish) { finishes = append(finishes, e) })

	_, err = c.GetAuthor(context.Background(), "cat-9")
	require.Error(t, err)

	require.Len(t, starts, 1)
	require.Len(t, finishes, 1)
	require.Equal(t, starts[0].ID, finishes[0].ID)
	require.Equal(t, "rest", finishes[0].Backend)
	require.Equal(t, "getAuthor", finishes[0].Operation)
	require.Equal(t, http.StatusNotFound, finishes[0].Status)
	require.ErrorIs(t, finishes[0].Err, ErrNotFound)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com")
	require.Error(t, err)

	c, err := NewClient("")
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, c.baseURL.String())
}
