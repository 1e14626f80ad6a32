package sheet

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const (
	BackendXLSX   = "xlsx"
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
	BackendHTTP   = "http"
)

// Backends lists the accepted backend names.
var Backends = []string{BackendXLSX, BackendJSON, BackendSQLite, BackendHTTP}

// Options selects and configures a backing store.
type Options struct {
	Backend   string
	Path      string
	Worksheet string
	URL       string
	CacheTTL  time.Duration
}

// Open builds the configured store, wrapped in a CachedStore when CacheTTL is
// positive. Callers release it with Close.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, error) {
	var store Store
	switch opts.Backend {
	case BackendXLSX, "":
		store = NewXLSXStore(opts.Path, opts.Worksheet)
	case BackendJSON:
		store = NewJSONStore(opts.Path)
	case BackendSQLite:
		s, err := NewSQLiteStore(ctx, opts.Path)
		if err != nil {
			return nil, err
		}
		store = s
	case BackendHTTP:
		if opts.URL == "" {
			return nil, fmt.Errorf("http backend requires a url")
		}
		store = NewHTTPStore(opts.URL, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q (valid: xlsx, json, sqlite, http)", opts.Backend)
	}

	if opts.CacheTTL > 0 {
		return NewCachedStore(store, opts.CacheTTL), nil
	}
	return store, nil
}
