package linkcollector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkpatrol/internal/storage"
)

func wallBody(posts ...string) string {
	type post struct {
		Body string `json:"body"`
	}
	var data []post
	for _, p := range posts {
		data = append(data, post{Body: p})
	}
	out, _ := json.Marshal(map[string]any{"data": data})
	return string(out)
}

func newTestCollector(t *testing.T, handler http.HandlerFunc) (*Collector, storage.Store) {
	t.Helper()
	store, err := storage.OpenJSON(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(store, "42", "secret-cookie", "example.tld")
	c.baseURL = srv.URL
	return c, store
}

func TestCollect_ExtractsAndDedupes(t *testing.T) {
	var calls atomic.Int32
	c, store := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v2/groups/42/wall/posts", r.URL.Path)
		assert.Equal(t, "Desc", r.URL.Query().Get("sortOrder"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Equal(t, ".ROBLOSECURITY=secret-cookie", r.Header.Get("Cookie"))
		fmt.Fprint(w, wallBody(
			"join here https://example.tld/share/AAA thanks",
			"no links in this one",
			"two at once https://example.tld/share/BBB and https://example.tld/share/AAA",
			"wrong host https://other.tld/share/CCC ignored",
		))
	})

	fresh, err := c.Collect(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.tld/share/AAA",
		"https://example.tld/share/BBB",
	}, fresh)

	// Same feed again: everything already seen
	fresh, err = c.Collect(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, fresh)
	assert.Equal(t, int32(2), calls.Load())

	// Another guild keeps its own seen-set
	fresh, err = c.Collect(context.Background(), "g2")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)

	stored, err := store.SeenLinks("g1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestCollect_SeenSetSurvivesRestart(t *testing.T) {
	store, err := storage.OpenJSON(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.PutSeenLinks("g1", []storage.SeenLink{
		{Link: "https://example.tld/share/AAA", FirstSeen: 100},
	}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, wallBody("https://example.tld/share/AAA and https://example.tld/share/BBB"))
	}))
	defer srv.Close()

	c := New(store, "42", "", "example.tld")
	c.baseURL = srv.URL

	fresh, err := c.Collect(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.tld/share/BBB"}, fresh)
}

func TestCollect_UpstreamFailureDegrades(t *testing.T) {
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	fresh, err := c.Collect(context.Background(), "g1")
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestCollect_EvictsPastHardCap(t *testing.T) {
	var body string
	c, store := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	})

	// Preload just under the hard cap, then push it over in one batch.
	preload := make([]storage.SeenLink, hardCap-5)
	for i := range preload {
		preload[i] = storage.SeenLink{
			Link:      fmt.Sprintf("https://example.tld/share/old%04d", i),
			FirstSeen: int64(i),
		}
	}
	require.NoError(t, store.PutSeenLinks("g1", preload))

	var posts []string
	for i := 0; i < 10; i++ {
		posts = append(posts, fmt.Sprintf("https://example.tld/share/new%02d", i))
	}
	body = wallBody(posts...)

	fresh, err := c.Collect(context.Background(), "g1")
	require.NoError(t, err)
	assert.Len(t, fresh, 10)

	stored, err := store.SeenLinks("g1")
	require.NoError(t, err)
	require.Len(t, stored, softCap)
	// Newest entries survive the eviction
	assert.Equal(t, "https://example.tld/share/new09", stored[len(stored)-1].Link)
}

// flakyStore fails PutSeenLinks a set number of times before delegating.
type flakyStore struct {
	storage.Store
	failures atomic.Int32
}

func (s *flakyStore) PutSeenLinks(guildID string, links []storage.SeenLink) error {
	if s.failures.Load() > 0 {
		s.failures.Add(-1)
		return fmt.Errorf("disk full")
	}
	return s.Store.PutSeenLinks(guildID, links)
}

func TestCollect_PersistFailureKeepsLinksUnseen(t *testing.T) {
	inner, err := storage.OpenJSON(t.TempDir())
	require.NoError(t, err)
	defer inner.Close()

	store := &flakyStore{Store: inner}
	store.failures.Store(1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, wallBody("fresh drop https://example.tld/share/AAA"))
	}))
	defer srv.Close()

	c := New(store, "42", "", "example.tld")
	c.baseURL = srv.URL

	_, err = c.Collect(context.Background(), "g1")
	require.ErrorContains(t, err, "disk full")

	// The failed write must not have marked the link seen.
	fresh, err := c.Collect(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.tld/share/AAA"}, fresh)

	stored, err := inner.SeenLinks("g1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestCleanupOnce_PrunesStaleLinks(t *testing.T) {
	store, err := storage.OpenJSON(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	c := New(store, "42", "", "example.tld")
	base := time.Unix(1700000000, 0)
	c.now = func() time.Time { return base }

	require.NoError(t, store.PutSeenLinks("g1", []storage.SeenLink{
		{Link: "https://example.tld/share/stale", FirstSeen: base.Add(-25 * time.Hour).Unix()},
		{Link: "https://example.tld/share/fresh", FirstSeen: base.Add(-1 * time.Hour).Unix()},
	}))

	c.CleanupOnce()

	stored, err := store.SeenLinks("g1")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "https://example.tld/share/fresh", stored[0].Link)
}
