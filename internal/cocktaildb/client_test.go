package cocktaildb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/homebardev/homebar/internal/drinks"
)

func fastBackoffs(t *testing.T) {
	t.Helper()
	orig := backoffs
	backoffs = []time.Duration{0, time.Millisecond, time.Millisecond}
	t.Cleanup(func() { backoffs = orig })
}

// catalogue serves search.php?f=<letter> from a fixed map; other letters
// return {"drinks": null} as the real API does.
func catalogue(t *testing.T, byLetter map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search.php" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if body, ok := byLetter[r.URL.Query().Get("f")]; ok {
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, `{"drinks": null}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	return NewClient(Options{
		BaseURL:           baseURL,
		Concurrency:       4,
		RequestsPerSecond: 1000,
		Logger:            zaptest.NewLogger(t),
	})
}

func TestSearchByLetter(t *testing.T) {
	srv := catalogue(t, map[string]string{
		"m": `{"drinks": [
			{"idDrink": "11000", "strDrink": "Mojito", "strIngredient1": "Light rum", "strMeasure1": "2-3 oz "},
			{"strDrink": "No id"},
			{"idDrink": "11007", "strDrink": "Margarita", "strIngredient1": "Tequila"}
		]}`,
	})
	c := newTestClient(t, srv.URL)

	entries, err := c.SearchByLetter(context.Background(), "m")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "11000", entries[0].ID)
	assert.Equal(t, "Mojito", entries[0].Drink().Name)
	assert.Equal(t, "11007", entries[1].ID)

	entries, err = c.SearchByLetter(context.Background(), "q")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestFetchAll_OrderAndDedupe(t *testing.T) {
	srv := catalogue(t, map[string]string{
		"a": `{"drinks": [{"idDrink": "1", "strDrink": "Aviation"}]}`,
		"b": `{"drinks": [{"idDrink": "2", "strDrink": "Bramble"}, {"idDrink": "1", "strDrink": "Aviation"}]}`,
		"9": `{"drinks": [{"idDrink": "3", "strDrink": "9 1/2 Weeks"}]}`,
	})
	c := newTestClient(t, srv.URL)

	entries, err := c.FetchAll(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
}

func TestFetchAll_QueriesEveryLetter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, `{"drinks": null}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(len(Letters)), hits.Load())
}

func TestFetchAll_ReportsEachLetter(t *testing.T) {
	srv := catalogue(t, map[string]string{
		"a": `{"drinks": [{"idDrink": "1", "strDrink": "Abbey"}, {"idDrink": "2", "strDrink": "Acapulco"}]}`,
	})

	var calls atomic.Int32
	var fromA atomic.Int32
	c := NewClient(Options{
		BaseURL:           srv.URL,
		Concurrency:       4,
		RequestsPerSecond: 1000,
		Logger:            zaptest.NewLogger(t),
		OnLetter: func(letter string, n int) {
			calls.Add(1)
			if letter == "a" {
				fromA.Store(int32(n))
			}
		},
	})

	_, err := c.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(len(Letters)), calls.Load())
	assert.Equal(t, int32(2), fromA.Load())
}

func TestGet_RetriesTransientErrors(t *testing.T) {
	fastBackoffs(t)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"drinks": [{"idDrink": "1", "strDrink": "Aviation"}]}`)
	}))
	defer srv.Close()

	entries, err := newTestClient(t, srv.URL).SearchByLetter(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, int32(3), calls.Load())
}

func TestGet_GivesUp(t *testing.T) {
	fastBackoffs(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).SearchByLetter(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGet_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).SearchByLetter(context.Background(), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchAll_PropagatesErrors(t *testing.T) {
	srv := catalogue(t, map[string]string{"c": `not json`})
	_, err := newTestClient(t, srv.URL).FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `parse search "c"`)
}

func TestSync_MergesIntoExistingCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cocktail_master.json")
	existing := `{
  "2": {"idDrink": "2", "strDrink": "Bramble (old)", "strength": "Low/None"},
  "custom": {"strDrink": "⭐ [MY] House Sour", "strIngredient1": "Whiskey"}
}`
	require.NoError(t, os.WriteFile(path, []byte(existing), 0644))

	srv := catalogue(t, map[string]string{
		"a": `{"drinks": [{"idDrink": "1", "strDrink": "Aviation", "strIngredient1": "Gin"}]}`,
		"b": `{"drinks": [{"idDrink": "2", "strDrink": "Bramble", "strIngredient1": "Gin"}]}`,
	})

	res, err := newTestClient(t, srv.URL).Sync(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Fetched)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 3, res.Total)

	loaded := drinks.LoadFile(path)
	require.NoError(t, loaded.Err)
	all := loaded.Drinks.All()
	require.Len(t, all, 3)
	assert.Equal(t, "2", all[0].ID)
	assert.Equal(t, "Bramble", all[0].Name)
	assert.Equal(t, drinks.StrengthLow, all[0].Strength)
	assert.Equal(t, "custom", all[1].ID)
	assert.Equal(t, "1", all[2].ID)
}

func TestSync_CreatesMissingCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cocktail_master.json")
	srv := catalogue(t, map[string]string{
		"a": `{"drinks": [{"idDrink": "1", "strDrink": "Aviation"}]}`,
	})

	res, err := newTestClient(t, srv.URL).Sync(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.FileExists(t, path)
}

func TestSync_RefusesToOverwriteCorruptCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cocktail_master.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	srv := catalogue(t, nil)

	_, err := newTestClient(t, srv.URL).Sync(context.Background(), path)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}
