package ui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/session"
	"github.com/homebardev/homebar/internal/state"
	"github.com/homebardev/homebar/testutil"
)

func newTestBrowser(t *testing.T, store *testutil.MemStore, inventory ...string) BrowserModel {
	t.Helper()
	st := state.Default()
	st.Inventory = inventory
	sess := session.New(testutil.SampleDrinks(t), st, session.Options{
		Store:        store,
		Policy:       session.DefaultPolicy(),
		WriteRetries: 0,
		RetryBackoff: time.Millisecond,
		Logger:       zaptest.NewLogger(t),
	})
	return NewBrowser(context.Background(), sess)
}

func press(t *testing.T, m BrowserModel, keys ...string) BrowserModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "shift+tab":
			msg = tea.KeyMsg{Type: tea.KeyShiftTab}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(BrowserModel)
	}
	return m
}

// run sends one key and feeds the resulting command's message back, as the
// program loop would.
func run(t *testing.T, m BrowserModel, msg tea.KeyMsg) BrowserModel {
	t.Helper()
	updated, cmd := m.Update(msg)
	m = updated.(BrowserModel)
	require.NotNil(t, cmd)
	updated, _ = m.Update(cmd())
	return updated.(BrowserModel)
}

func resultNames(m BrowserModel) []string {
	var names []string
	for _, r := range m.results {
		names = append(names, r.Drink.DisplayName())
	}
	return names
}

func TestBrowser_InitialResults(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin", "Lemon")

	assert.Equal(t, tabSearch, m.activeTab)
	assert.Equal(t, []string{"Gin Fizz", "Negroni", "House Sour"}, resultNames(m))
	assert.Equal(t, 2, m.results[0].Score)
}

func TestBrowser_EmptyInventoryShowsHint(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil))

	assert.Empty(t, m.results)
	assert.Contains(t, m.View(), "Your bar is empty")
}

func TestBrowser_TabSwitching(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")

	m = press(t, m, "tab")
	assert.Equal(t, tabFavorites, m.activeTab)

	m = press(t, m, "tab", "tab")
	assert.Equal(t, tabSearch, m.activeTab)

	m = press(t, m, "shift+tab")
	assert.Equal(t, tabInventory, m.activeTab)

	m = press(t, m, "l")
	assert.Equal(t, tabSearch, m.activeTab)
}

func TestBrowser_Navigation(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin", "Lemon")

	m = press(t, m, "j", "j", "j", "j")
	assert.Equal(t, 2, m.cursor, "cursor stops at the last row")

	m = press(t, m, "k", "k", "k")
	assert.Equal(t, 0, m.cursor)
}

func TestBrowser_SearchMode(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin", "Lemon")

	m = press(t, m, "/", "N", "e", "g")
	assert.True(t, m.searchMode)
	assert.Equal(t, "Neg", m.filter.Query)
	assert.Equal(t, []string{"Negroni"}, resultNames(m))
	assert.Contains(t, m.View(), "Search: Neg▌")

	m = press(t, m, "backspace", "backspace", "backspace", "q")
	assert.True(t, m.searchMode, "q is typed, not quit, while searching")
	assert.Empty(t, m.results)

	m = press(t, m, "esc")
	assert.False(t, m.searchMode)
	assert.Empty(t, m.filter.Query)
	assert.Len(t, m.results, 3)
}

func TestBrowser_SearchEnterKeepsQuery(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")

	m = press(t, m, "/", "f", "i", "z", "z", "enter")
	assert.False(t, m.searchMode)
	assert.Equal(t, "fizz", m.filter.Query)
	assert.Equal(t, []string{"Gin Fizz"}, resultNames(m))
}

func TestBrowser_StrengthCycle(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin", "Lemon")

	m = press(t, m, "s")
	assert.Equal(t, match.LevelLow, m.filter.Strength)
	assert.Equal(t, []string{"House Sour"}, resultNames(m))

	m = press(t, m, "s")
	assert.Equal(t, match.LevelMedium, m.filter.Strength)
	assert.Equal(t, []string{"Gin Fizz"}, resultNames(m))

	m = press(t, m, "s")
	assert.Equal(t, []string{"Negroni"}, resultNames(m))

	m = press(t, m, "s")
	assert.Equal(t, match.LevelAll, m.filter.Strength)
	assert.Len(t, m.results, 3)
}

func TestBrowser_ToggleFavoritePersists(t *testing.T) {
	store := testutil.NewMemStore(nil)
	m := newTestBrowser(t, store, "Gin", "Lemon")

	m = press(t, m, "j")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})

	require.Len(t, m.favorites, 1)
	assert.Equal(t, "Negroni", m.favorites[0].Name)
	assert.Contains(t, m.toastMessage, "Negroni")
	assert.Equal(t, 1, store.WriteCount())

	cols, ok := store.Columns()
	require.True(t, ok)
	assert.Equal(t, []string{"Negroni"}, cols.Favorites)

	assert.True(t, m.results[1].Favorite)
}

func TestBrowser_FavoriteCustomRecipeUsesCleanName(t *testing.T) {
	store := testutil.NewMemStore(nil)
	m := newTestBrowser(t, store, "Whiskey")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})

	cols, _ := store.Columns()
	assert.Equal(t, []string{"House Sour"}, cols.Favorites)
	assert.Contains(t, m.toastMessage, "House Sour")
}

func TestBrowser_DetailView(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin", "Lemon")

	m = press(t, m, "enter")
	require.NotNil(t, m.detail)
	assert.Equal(t, "Gin Fizz", m.detail.Name)

	view := m.View()
	assert.Contains(t, view, "Soda Water")
	assert.Contains(t, view, "Shake gin and lemon")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	require.NotNil(t, m.detail)
	assert.True(t, m.detail.Favorite)

	m = press(t, m, "esc")
	assert.Nil(t, m.detail)
}

func TestBrowser_InventoryToggleKeepsInMemory(t *testing.T) {
	store := testutil.NewMemStore(nil)
	m := newTestBrowser(t, store, "Gin", "Lemon")

	m = press(t, m, "tab", "tab")
	require.Equal(t, tabInventory, m.activeTab)
	assert.Equal(t, "Gin", m.ingredients[0])

	m = run(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	assert.Equal(t, []string{"Lemon"}, m.inventory)
	assert.Equal(t, 0, store.WriteCount())
	assert.Contains(t, m.View(), "unsaved changes")

	assert.Equal(t, []string{"Gin Fizz", "House Sour"}, resultNames(m))
}

func TestBrowser_AddIngredientWithSuggestion(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")

	m = press(t, m, "+", "C", "a", "m", "p")
	require.True(t, m.addMode)
	assert.Equal(t, []string{"Campari"}, m.suggestions)

	m = press(t, m, "tab")
	assert.Equal(t, 0, m.suggestionIdx)

	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.addMode)
	assert.Contains(t, m.ingredients, "Campari")
	assert.Contains(t, m.toastMessage, "Added Campari")
}

func TestBrowser_AddExistingIngredient(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")

	m = press(t, m, "+", "m", "i", "n", "t")
	m = run(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Contains(t, m.toastMessage, "already listed")
}

func TestBrowser_AddModeEscCancels(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")

	m = press(t, m, "+", "x", "esc")
	assert.False(t, m.addMode)
	assert.Empty(t, m.addInput)
	assert.Len(t, m.ingredients, len(state.DefaultMasterIngredients()))
}

func TestBrowser_SaveFailureKeepsChanges(t *testing.T) {
	store := testutil.NewMemStore(nil)
	store.FailWrites = 5
	m := newTestBrowser(t, store, "Gin")

	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("f")})
	assert.Contains(t, m.toastMessage, "Could not save")
	assert.Len(t, m.favorites, 1)

	store.FailWrites = 0
	m = run(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("w")})
	assert.Equal(t, "✓ Saved", m.toastMessage)
	assert.NotContains(t, m.View(), "unsaved changes")
}

func TestBrowser_ToastClears(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")
	m.toastMessage = "hello"

	updated, _ := m.Update(toastClearMsg{})
	assert.Empty(t, updated.(BrowserModel).toastMessage)
}

func TestBrowser_Quit(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestBrowser_VisibleItems(t *testing.T) {
	m := newTestBrowser(t, testutil.NewMemStore(nil), "Gin")
	assert.Equal(t, 15, m.getVisibleItems())

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 10})
	assert.Equal(t, 5, updated.(BrowserModel).getVisibleItems())

	updated, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	assert.Equal(t, 20, updated.(BrowserModel).getVisibleItems())
}
