package sheet

import (
	"context"
	"sync"
	"time"
)

// CachedStore serves Read from memory for a fixed TTL. Every Write, and every
// explicit Invalidate, drops the cached copy.
type CachedStore struct {
	inner Store
	ttl   time.Duration
	now   func() time.Time

	mu       sync.Mutex
	cached   Columns
	cachedAt time.Time
	valid    bool
}

var _ Store = (*CachedStore)(nil)

func NewCachedStore(inner Store, ttl time.Duration) *CachedStore {
	return &CachedStore{inner: inner, ttl: ttl, now: time.Now}
}

func (s *CachedStore) Read(ctx context.Context) (Columns, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.valid && s.now().Sub(s.cachedAt) < s.ttl {
		return s.cached.clone(), nil
	}

	cols, err := s.inner.Read(ctx)
	if err != nil {
		s.valid = false
		return Columns{}, err
	}
	s.cached = cols.clone()
	s.cachedAt = s.now()
	s.valid = true
	return cols, nil
}

func (s *CachedStore) Write(ctx context.Context, cols Columns) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.valid = false
	return s.inner.Write(ctx, cols)
}

// Invalidate forces the next Read through to the wrapped store.
func (s *CachedStore) Invalidate() {
	s.mu.Lock()
	s.valid = false
	s.mu.Unlock()
}

// Close closes the wrapped store.
func (s *CachedStore) Close() error {
	return Close(s.inner)
}

func (c Columns) clone() Columns {
	var out Columns
	for _, name := range ColumnNames {
		out.set(name, append([]string(nil), c.Get(name)...))
	}
	return out
}
