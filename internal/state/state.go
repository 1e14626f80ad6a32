// Package state holds the user's favorites, inventory and master ingredient
// list, and loads and saves them through a sheet.Store.
package state

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/sheet"
)

// Spirits are the base spirits listed first on the inventory tiles.
var Spirits = []string{"Gin", "Vodka", "Rum", "Tequila", "Whiskey"}

// DefaultMasterIngredients is the master list used when the store has none.
func DefaultMasterIngredients() []string {
	return append(append([]string(nil), Spirits...),
		"Brandy", "Lemon Juice", "Lime Juice", "Sugar Syrup", "Tonic Water", "Soda Water", "Mint")
}

var ErrEmptyName = errors.New("ingredient name is empty")

// UserState is the persisted per-user state. All three lists keep insertion
// order and hold no duplicates.
type UserState struct {
	Favorites         []string `json:"favorites"`
	Inventory         []string `json:"inventory"`
	MasterIngredients []string `json:"master_ingredients"`
}

// Default returns the state used when nothing could be loaded.
func Default() *UserState {
	return &UserState{
		Favorites:         []string{},
		Inventory:         []string{},
		MasterIngredients: DefaultMasterIngredients(),
	}
}

func (s *UserState) Clone() *UserState {
	return &UserState{
		Favorites:         append([]string{}, s.Favorites...),
		Inventory:         append([]string{}, s.Inventory...),
		MasterIngredients: append([]string{}, s.MasterIngredients...),
	}
}

// IsFavorite compares by clean name, so a decorated custom recipe name and
// its plain form are the same favorite.
func (s *UserState) IsFavorite(name string) bool {
	return indexOf(s.Favorites, drinks.CleanName(name)) >= 0
}

// ToggleFavorite removes the clean name when it is a favorite and appends it
// otherwise. It reports whether the drink is a favorite afterwards.
func (s *UserState) ToggleFavorite(name string) bool {
	clean := drinks.CleanName(name)
	if i := indexOf(s.Favorites, clean); i >= 0 {
		s.Favorites = removeAt(s.Favorites, i)
		return false
	}
	s.Favorites = append(s.Favorites, clean)
	return true
}

func (s *UserState) HasInventory(name string) bool {
	return indexFold(s.Inventory, name) >= 0
}

// ToggleInventory flips ownership of an ingredient and reports whether it is
// owned afterwards. Names are matched without regard to case.
func (s *UserState) ToggleInventory(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}
	if i := indexFold(s.Inventory, name); i >= 0 {
		s.Inventory = removeAt(s.Inventory, i)
		return false, nil
	}
	s.Inventory = append(s.Inventory, name)
	return true, nil
}

// AddIngredient appends a new name to the master list. It reports false when
// an equal name (ignoring case) is already listed.
func (s *UserState) AddIngredient(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyName
	}
	if indexFold(s.MasterIngredients, name) >= 0 {
		return false, nil
	}
	s.MasterIngredients = append(s.MasterIngredients, name)
	return true, nil
}

// SortedMasterIngredients returns the master list with base spirits first,
// each group in plain string order.
func (s *UserState) SortedMasterIngredients() []string {
	out := append([]string(nil), s.MasterIngredients...)
	sort.SliceStable(out, func(i, j int) bool {
		si, sj := IsSpirit(out[i]), IsSpirit(out[j])
		if si != sj {
			return si
		}
		return out[i] < out[j]
	})
	return out
}

func IsSpirit(name string) bool {
	return indexFold(Spirits, name) >= 0
}

func (s *UserState) ToColumns() sheet.Columns {
	return sheet.Columns{
		Favorites:         append([]string(nil), s.Favorites...),
		Inventory:         append([]string(nil), s.Inventory...),
		MasterIngredients: append([]string(nil), s.MasterIngredients...),
	}
}

// FromColumns rebuilds a state from store columns, dropping duplicates. An
// empty master column falls back to the default list.
func FromColumns(c sheet.Columns) *UserState {
	st := &UserState{
		Favorites:         dedupe(c.Favorites, false),
		Inventory:         dedupe(c.Inventory, true),
		MasterIngredients: dedupe(c.MasterIngredients, true),
	}
	if len(st.MasterIngredients) == 0 {
		st.MasterIngredients = DefaultMasterIngredients()
	}
	return st
}

type Status = drinks.Status

// LoadResult reports how the state was obtained. A failed read is not an
// error to the caller: the state falls back to defaults and Err keeps the
// cause.
type LoadResult struct {
	State  *UserState
	Status Status
	Err    error
}

func Load(ctx context.Context, store sheet.Store) LoadResult {
	cols, err := store.Read(ctx)
	if err != nil {
		return LoadResult{
			State:  Default(),
			Status: drinks.StatusDefaulted,
			Err:    fmt.Errorf("failed to read user state: %w", err),
		}
	}
	return LoadResult{State: FromColumns(cols), Status: drinks.StatusLoaded}
}

// Save writes all three lists, padded to a common length.
func Save(ctx context.Context, store sheet.Store, st *UserState) error {
	if err := store.Write(ctx, st.ToColumns().Pad()); err != nil {
		return fmt.Errorf("failed to write user state: %w", err)
	}
	return nil
}

func indexOf(list []string, v string) int {
	for i, item := range list {
		if item == v {
			return i
		}
	}
	return -1
}

func indexFold(list []string, v string) int {
	v = strings.TrimSpace(v)
	for i, item := range list {
		if strings.EqualFold(item, v) {
			return i
		}
	}
	return -1
}

func removeAt(list []string, i int) []string {
	out := make([]string, 0, len(list)-1)
	out = append(out, list[:i]...)
	return append(out, list[i+1:]...)
}

func dedupe(list []string, fold bool) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v == "" {
			continue
		}
		if fold && indexFold(out, v) >= 0 || !fold && indexOf(out, v) >= 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}
