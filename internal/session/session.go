// Package session owns the per-user working set: the drink collection, the
// user state and the backing store it persists to. The presentation layers
// share one Session; its mutex serializes every read and write of the state.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/sheet"
	"github.com/homebardev/homebar/internal/state"
)

// ErrSaveFailed wraps the last store error once every write attempt failed.
// The in-memory change that triggered the save is kept.
var ErrSaveFailed = errors.New("failed to save user state")

// Policy selects which mutations are written back immediately. Anything not
// persisted stays in memory until Save is called.
type Policy struct {
	PersistFavorites   bool
	PersistInventory   bool
	PersistIngredients bool
}

func DefaultPolicy() Policy {
	return Policy{PersistFavorites: true}
}

type Options struct {
	DrinksPath   string
	Store        sheet.Store
	Policy       Policy
	WriteRetries int
	RetryBackoff time.Duration
	Logger       *zap.Logger
}

type Session struct {
	mu sync.Mutex

	drinks       *drinks.Collection
	drinksStatus drinks.Status
	drinksErr    error

	state       *state.UserState
	stateStatus drinks.Status
	stateErr    error
	dirty       bool

	store   sheet.Store
	policy  Policy
	retries int
	backoff time.Duration
	logger  *zap.Logger
}

// Open loads the drink cache and the user state. It never fails: either
// source falling back to defaults is reported through DrinksStatus and
// StateStatus.
func Open(ctx context.Context, opts Options) *Session {
	s := newSession(opts)

	dr := drinks.LoadFile(opts.DrinksPath)
	s.drinks, s.drinksStatus, s.drinksErr = dr.Drinks, dr.Status, dr.Err
	if dr.Err != nil {
		s.logger.Warn("drink cache unavailable, starting empty",
			zap.String("path", opts.DrinksPath), zap.Error(dr.Err))
	} else {
		s.logger.Info("drink cache loaded", zap.Int("drinks", dr.Drinks.Len()))
	}

	s.loadState(ctx)
	return s
}

// New builds a session from already loaded parts.
func New(coll *drinks.Collection, st *state.UserState, opts Options) *Session {
	s := newSession(opts)
	if coll == nil {
		coll = drinks.NewCollection(nil)
	}
	if st == nil {
		st = state.Default()
	}
	s.drinks = coll
	s.state = st.Clone()
	return s
}

func newSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	backoff := opts.RetryBackoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	retries := opts.WriteRetries
	if retries < 0 {
		retries = 0
	}
	return &Session{
		store:   opts.Store,
		policy:  opts.Policy,
		retries: retries,
		backoff: backoff,
		logger:  logger,
	}
}

func (s *Session) loadState(ctx context.Context) {
	if s.store == nil {
		s.state, s.stateStatus, s.stateErr = state.Default(), drinks.StatusDefaulted, errors.New("no backing store configured")
		return
	}
	res := state.Load(ctx, s.store)
	s.state, s.stateStatus, s.stateErr = res.State, res.Status, res.Err
	s.dirty = false
	if res.Err != nil {
		s.logger.Warn("backing store unavailable, using defaults", zap.Error(res.Err))
		return
	}
	s.logger.Info("user state loaded",
		zap.Int("favorites", len(res.State.Favorites)),
		zap.Int("inventory", len(res.State.Inventory)),
		zap.Int("master_ingredients", len(res.State.MasterIngredients)))
}

// Reload discards unsaved changes and reads the state from the store again,
// bypassing any cached copy.
func (s *Session) Reload(ctx context.Context) (drinks.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.store.(*sheet.CachedStore); ok {
		c.Invalidate()
	}
	s.loadState(ctx)
	return s.stateStatus, s.stateErr
}

func (s *Session) Drinks() *drinks.Collection {
	return s.drinks
}

func (s *Session) DrinksStatus() (drinks.Status, error) {
	return s.drinksStatus, s.drinksErr
}

func (s *Session) StateStatus() (drinks.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateStatus, s.stateErr
}

// State returns a copy of the current user state.
func (s *Session) State() *state.UserState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Dirty reports whether there are changes not yet written to the store.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Rank runs the ranking pipeline against the current inventory and favorites.
func (s *Session) Rank(f match.Filter) []match.Result {
	s.mu.Lock()
	inv := append([]string(nil), s.state.Inventory...)
	favs := append([]string(nil), s.state.Favorites...)
	s.mu.Unlock()

	return match.Rank(s.drinks.All(), inv, favs, f)
}

// Favorites returns the favorited drinks in collection order.
func (s *Session) Favorites() []drinks.Drink {
	s.mu.Lock()
	favs := append([]string(nil), s.state.Favorites...)
	s.mu.Unlock()

	return s.drinks.WithCleanNames(favs)
}

func (s *Session) IsFavorite(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsFavorite(name)
}

// Suggest returns master-list candidates from the ingredient names in the
// drink cache that fuzzily match query and are not listed yet.
func (s *Session) Suggest(query string, limit int) []string {
	s.mu.Lock()
	master := append([]string(nil), s.state.MasterIngredients...)
	s.mu.Unlock()

	known := make(map[string]bool, len(master))
	for _, name := range master {
		known[strings.ToLower(name)] = true
	}
	var candidates []string
	for _, name := range s.drinks.IngredientNames() {
		if !known[strings.ToLower(name)] {
			candidates = append(candidates, name)
		}
	}
	return drinks.Suggest(query, candidates, limit)
}

// ToggleFavorite flips the favorite flag of a drink and reports the new
// value. With PersistFavorites the whole state is written back; a write
// failure is returned wrapped in ErrSaveFailed with the toggle still applied.
func (s *Session) ToggleFavorite(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fav := s.state.ToggleFavorite(name)
	s.dirty = true
	s.logger.Debug("favorite toggled", zap.String("drink", drinks.CleanName(name)), zap.Bool("favorite", fav))
	return fav, s.persist(ctx, s.policy.PersistFavorites)
}

func (s *Session) ToggleInventory(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	owned, err := s.state.ToggleInventory(name)
	if err != nil {
		return false, err
	}
	s.dirty = true
	s.logger.Debug("inventory toggled", zap.String("ingredient", name), zap.Bool("owned", owned))
	return owned, s.persist(ctx, s.policy.PersistInventory)
}

// AddIngredient appends a name to the master list. It reports false without
// touching the store when the name is already listed.
func (s *Session) AddIngredient(ctx context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added, err := s.state.AddIngredient(name)
	if err != nil || !added {
		return added, err
	}
	s.dirty = true
	s.logger.Debug("ingredient added", zap.String("ingredient", name))
	return true, s.persist(ctx, s.policy.PersistIngredients)
}

// Replace swaps in a whole new state and writes it, as a full-replace write
// of the backing document does.
func (s *Session) Replace(ctx context.Context, st *state.UserState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = st.Clone()
	s.dirty = true
	return s.persist(ctx, true)
}

// Save writes the current state regardless of policy.
func (s *Session) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, true)
}

// persist writes the state when enabled, retrying with doubling backoff.
// Callers hold s.mu.
func (s *Session) persist(ctx context.Context, enabled bool) error {
	if !enabled {
		return nil
	}
	if s.store == nil {
		return fmt.Errorf("%w: no backing store configured", ErrSaveFailed)
	}

	attempts := s.retries + 1
	wait := s.backoff
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return fmt.Errorf("%w: %w", ErrSaveFailed, ctx.Err())
			case <-timer.C:
			}
			wait *= 2
		}

		lastErr = state.Save(ctx, s.store, s.state)
		if lastErr == nil {
			s.dirty = false
			if i > 0 {
				s.logger.Info("user state saved after retry", zap.Int("attempt", i+1))
			}
			return nil
		}
		s.logger.Warn("user state write failed", zap.Int("attempt", i+1), zap.Error(lastErr))
	}

	s.logger.Error("giving up on user state write", zap.Int("attempts", attempts), zap.Error(lastErr))
	return fmt.Errorf("%w after %d attempts: %w", ErrSaveFailed, attempts, lastErr)
}
