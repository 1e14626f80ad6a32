package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap/zaptest"
)

func sampleColumns() Columns {
	return Columns{
		Favorites:         []string{"Negroni"},
		Inventory:         []string{"Gin", "Campari", "Sweet Vermouth"},
		MasterIngredients: []string{"Gin", "Vodka", "Campari", "Sweet Vermouth", "Lime Juice"},
	}
}

func TestColumnsPad(t *testing.T) {
	tests := []struct {
		name     string
		input    Columns
		expected int
	}{
		{"ragged columns", sampleColumns(), 5},
		{"all empty gets one row", Columns{}, 1},
		{"single column", Columns{Favorites: []string{"a", "b"}}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.input.Pad()
			for _, name := range ColumnNames {
				assert.Len(t, p.Get(name), tt.expected, name)
			}
			assert.Equal(t, tt.input.Compact(), p.Compact())
		})
	}
}

func TestColumnsPad_DoesNotMutate(t *testing.T) {
	c := sampleColumns()
	_ = c.Pad()
	assert.Len(t, c.Favorites, 1)
}

func TestColumnsRows(t *testing.T) {
	rows := sampleColumns().Rows()
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"favorites", "inventory", "master_ingredients"}, rows[0])
	assert.Equal(t, []string{"Negroni", "Gin", "Gin"}, rows[1])
	assert.Equal(t, []string{"", "", "Lime Juice"}, rows[5])
}

func TestFromRows(t *testing.T) {
	t.Run("reordered headers and extra column", func(t *testing.T) {
		rows := [][]string{
			{"notes", "master_ingredients", " favorites ", "inventory"},
			{"x", "Gin", "Negroni", "Gin"},
			{"", "Rum"},
		}
		c, err := FromRows(rows)
		require.NoError(t, err)
		assert.Equal(t, []string{"Negroni"}, c.Favorites)
		assert.Equal(t, []string{"Gin"}, c.Inventory)
		assert.Equal(t, []string{"Gin", "Rum"}, c.MasterIngredients)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := FromRows([][]string{{"favorites", "inventory"}, {"a", "b"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrMissingColumn)
		assert.Contains(t, err.Error(), "master_ingredients")
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := FromRows(nil)
		assert.ErrorIs(t, err, ErrMissingColumn)
	})
}

func TestDecodeColumns(t *testing.T) {
	c, err := DecodeColumns(strings.NewReader(`{"favorites": ["A", ""], "inventory": [""], "master_ingredients": null}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, c.Favorites)
	assert.Empty(t, c.Inventory)
	assert.Empty(t, c.MasterIngredients)

	_, err = DecodeColumns(strings.NewReader(`{"favorites": []}`))
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = DecodeColumns(strings.NewReader(`not json`))
	assert.Error(t, err)
}

// stateServer is a minimal stand-in for the homebar server's state endpoint.
type stateServer struct {
	mu   sync.Mutex
	doc  []byte
	fail bool
	hits int
}

func (s *stateServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits++

	if r.URL.Path != StatePath || s.fail {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if s.doc == nil {
			http.Error(w, "no state", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(s.doc)
	case http.MethodPut:
		c, err := DecodeColumns(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.doc, _ = json.Marshal(c.Pad())
		w.WriteHeader(http.StatusNoContent)
	}
}

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sqlite, err := NewSQLiteStore(context.Background(), filepath.Join(dir, "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	srv := httptest.NewServer(&stateServer{})
	t.Cleanup(srv.Close)

	return map[string]Store{
		"xlsx":   NewXLSXStore(filepath.Join(dir, "state.xlsx"), ""),
		"json":   NewJSONStore(filepath.Join(dir, "nested", "state.json")),
		"sqlite": sqlite,
		"http":   NewHTTPStore(srv.URL, zaptest.NewLogger(t)),
		"cached": NewCachedStore(NewJSONStore(filepath.Join(dir, "cached.json")), time.Minute),
	}
}

func TestStores_RoundTrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			in := sampleColumns()

			require.NoError(t, store.Write(ctx, in))
			out, err := store.Read(ctx)
			require.NoError(t, err)
			assert.Equal(t, in, out)

			// full replace, including shrinking to nothing
			require.NoError(t, store.Write(ctx, Columns{}))
			out, err = store.Read(ctx)
			require.NoError(t, err)
			assert.Empty(t, out.Favorites)
			assert.Empty(t, out.Inventory)
			assert.Empty(t, out.MasterIngredients)
		})
	}
}

func TestStores_ReadBeforeWriteFails(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Read(context.Background())
			assert.Error(t, err)
		})
	}
}

func TestXLSXStore_UsesNamedWorksheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bar.xlsx")
	store := NewXLSXStore(path, "")
	require.NoError(t, store.Write(context.Background(), sampleColumns()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{DefaultWorksheet}, f.GetSheetList())
	v, err := f.GetCellValue(DefaultWorksheet, "C1")
	require.NoError(t, err)
	assert.Equal(t, ColMasterIngredients, v)

	_, err = os.Stat(path + ".tmp.xlsx")
	assert.True(t, os.IsNotExist(err))
}

func TestXLSXStore_MissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", DefaultWorksheet))
	require.NoError(t, f.SetSheetRow(DefaultWorksheet, "A1", &[]interface{}{"favorites", "inventory"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := NewXLSXStore(path, "").Read(context.Background())
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestJSONStore_WritesPaddedDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, NewJSONStore(path).Write(context.Background(), sampleColumns()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string][]string
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, []string{"Negroni", "", "", "", ""}, doc[ColFavorites])
	assert.Len(t, doc[ColMasterIngredients], 5)
}

func TestJSONStore_CorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("invalid json {"), 0644))

	_, err := NewJSONStore(path).Read(context.Background())
	assert.Error(t, err)
}

func TestStores_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	for _, store := range []Store{NewXLSXStore(filepath.Join(dir, "a.xlsx"), ""), NewJSONStore(filepath.Join(dir, "a.json"))} {
		assert.ErrorIs(t, store.Write(ctx, sampleColumns()), context.Canceled)
		_, err := store.Read(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestHTTPStore_BreakerOpensAfterFailures(t *testing.T) {
	backend := &stateServer{fail: true}
	srv := httptest.NewServer(backend)
	defer srv.Close()

	store := NewHTTPStore(srv.URL, zaptest.NewLogger(t))
	for i := 0; i < 3; i++ {
		_, err := store.Read(context.Background())
		require.Error(t, err)
		assert.False(t, errors.Is(err, ErrUnavailable))
	}

	_, err := store.Read(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, backend.hits)
}

type countingStore struct {
	reads, writes int
	cols          Columns
	err           error
}

func (s *countingStore) Read(context.Context) (Columns, error) {
	s.reads++
	return s.cols, s.err
}

func (s *countingStore) Write(_ context.Context, cols Columns) error {
	s.writes++
	s.cols = cols.Compact()
	return s.err
}

func TestCachedStore(t *testing.T) {
	inner := &countingStore{cols: sampleColumns()}
	store := NewCachedStore(inner, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	_, err := store.Read(ctx)
	require.NoError(t, err)
	c, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.reads)

	c.Favorites[0] = "mutated"
	c, _ = store.Read(ctx)
	assert.Equal(t, "Negroni", c.Favorites[0], "cached copy must not alias callers")

	now = now.Add(2 * time.Minute)
	_, _ = store.Read(ctx)
	assert.Equal(t, 2, inner.reads)

	require.NoError(t, store.Write(ctx, Columns{Favorites: []string{"Daiquiri"}}))
	c, _ = store.Read(ctx)
	assert.Equal(t, 3, inner.reads)
	assert.Equal(t, []string{"Daiquiri"}, c.Favorites)

	store.Invalidate()
	_, _ = store.Read(ctx)
	assert.Equal(t, 4, inner.reads)
}

func TestCachedStore_DoesNotCacheErrors(t *testing.T) {
	inner := &countingStore{err: errors.New("offline")}
	store := NewCachedStore(inner, time.Minute)

	_, err := store.Read(context.Background())
	require.Error(t, err)
	_, err = store.Read(context.Background())
	require.Error(t, err)
	assert.Equal(t, 2, inner.reads)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name    string
		opts    Options
		want    interface{}
		wantErr bool
	}{
		{"default is xlsx", Options{Path: filepath.Join(dir, "a.xlsx")}, &XLSXStore{}, false},
		{"json", Options{Backend: BackendJSON, Path: filepath.Join(dir, "a.json")}, &JSONStore{}, false},
		{"sqlite", Options{Backend: BackendSQLite, Path: filepath.Join(dir, "a.db")}, &SQLiteStore{}, false},
		{"http", Options{Backend: BackendHTTP, URL: "http://localhost:1"}, &HTTPStore{}, false},
		{"http without url", Options{Backend: BackendHTTP}, nil, true},
		{"cached", Options{Backend: BackendJSON, Path: filepath.Join(dir, "b.json"), CacheTTL: time.Second}, &CachedStore{}, false},
		{"unknown", Options{Backend: "gsheets"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := Open(ctx, tt.opts, logger)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, store)
			assert.NoError(t, Close(store))
		})
	}
}
