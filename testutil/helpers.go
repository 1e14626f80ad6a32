package testutil

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/sheet"
)

// SampleCache is a small drink cache in the on-disk format.
const SampleCache = `{
  "11001": {
    "idDrink": "11001",
    "strDrink": "Gin Fizz",
    "strDrinkThumb": "https://example.com/gin-fizz.jpg",
    "strIngredient1": "Gin",
    "strMeasure1": "2 oz ",
    "strIngredient2": "Lemon Juice",
    "strMeasure2": "1 oz ",
    "strIngredient3": "Soda Water",
    "strInstructions": "Shake gin and lemon, top with soda."
  },
  "11002": {
    "idDrink": "11002",
    "strDrink": "Negroni",
    "strIngredient1": "Gin",
    "strMeasure1": "1 oz",
    "strIngredient2": "Campari",
    "strMeasure2": "1 oz",
    "strIngredient3": "Sweet Vermouth",
    "strMeasure3": "1 oz",
    "strInstructions": "Stir over ice."
  },
  "custom-1": {
    "strDrink": "⭐ [MY] House Sour",
    "strIngredient1": "Whiskey",
    "strIngredient2": "Lemon Juice",
    "strength": "Low/None"
  },
  "11003": {
    "idDrink": "11003",
    "strDrink": "Mojito",
    "strIngredient1": "Light rum",
    "strIngredient2": "Mint",
    "strIngredient3": "Lime"
  }
}`

// WriteDrinkCache writes SampleCache into dir and returns its path.
func WriteDrinkCache(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cocktail_master.json")
	if err := os.WriteFile(path, []byte(SampleCache), 0600); err != nil {
		t.Fatalf("failed to write drink cache: %v", err)
	}
	return path
}

// SampleDrinks decodes SampleCache.
func SampleDrinks(t *testing.T) *drinks.Collection {
	t.Helper()
	entries, err := drinks.DecodeEntries([]byte(SampleCache))
	if err != nil {
		t.Fatalf("failed to decode sample cache: %v", err)
	}
	return drinks.FromEntries(entries)
}

// MemStore is an in-memory sheet.Store. The first FailWrites writes fail.
type MemStore struct {
	mu         sync.Mutex
	cols       *sheet.Columns
	FailWrites int
	Writes     int
}

func NewMemStore(cols *sheet.Columns) *MemStore {
	return &MemStore{cols: cols}
}

func (m *MemStore) Read(context.Context) (sheet.Columns, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cols == nil {
		return sheet.Columns{}, sheet.ErrMissingColumn
	}
	return m.cols.Compact(), nil
}

func (m *MemStore) Write(_ context.Context, cols sheet.Columns) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Writes++
	if m.FailWrites > 0 {
		m.FailWrites--
		return errors.New("store unavailable")
	}
	c := cols.Compact()
	m.cols = &c
	return nil
}

func (m *MemStore) WriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Writes
}

// Columns returns the last written columns.
func (m *MemStore) Columns() (sheet.Columns, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cols == nil {
		return sheet.Columns{}, false
	}
	return m.cols.Compact(), true
}

func BuildTestBinary(t *testing.T) string {
	binaryPath := filepath.Join(t.TempDir(), "homebar")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/homebar")
	cmd.Dir = findProjectRoot(t)

	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("failed to build test binary: %v\n%s", err, out)
	}
	return binaryPath
}

func findProjectRoot(t *testing.T) string {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(wd, "go.mod")); err == nil {
			return wd
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			t.Fatalf("could not find project root (go.mod)")
		}
		wd = parent
	}
}
