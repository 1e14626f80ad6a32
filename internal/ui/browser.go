package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/session"
)

const (
	tabSearch = iota
	tabFavorites
	tabInventory
)

var browserTabs = []struct {
	name string
	icon string
}{
	{"Search", "🍸"},
	{"Favorites", "❤️"},
	{"Inventory", "🧴"},
}

const (
	toastDuration  = 1500 * time.Millisecond
	maxSuggestions = 5
)

type toastClearMsg struct{}

// mutationMsg reports the outcome of a session call run off the UI loop.
type mutationMsg struct {
	toast string
	err   error
}

func toastClearCmd() tea.Cmd {
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{}
	})
}

type BrowserModel struct {
	sess *session.Session
	ctx  context.Context

	activeTab    int
	cursor       int
	scrollOffset int
	width        int
	height       int

	filter      match.Filter
	results     []match.Result
	favorites   []drinks.Drink
	ingredients []string
	inventory   []string

	searchMode bool

	addMode       bool
	addInput      string
	suggestions   []string
	suggestionIdx int

	detail *session.Detail

	toastMessage string
}

func NewBrowser(ctx context.Context, sess *session.Session) BrowserModel {
	m := BrowserModel{
		sess:          sess,
		ctx:           ctx,
		filter:        match.Filter{Strength: match.LevelAll},
		suggestionIdx: -1,
	}
	return m.refreshed()
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// refreshed reloads every tab's rows from the session and clamps the cursor.
func (m BrowserModel) refreshed() BrowserModel {
	st := m.sess.State()
	m.results = m.sess.Rank(m.filter)
	m.favorites = m.sess.Favorites()
	m.ingredients = st.SortedMasterIngredients()
	m.inventory = st.Inventory

	if n := m.rowCount(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.scrollOffset > m.cursor {
		m.scrollOffset = m.cursor
	}
	return m
}

func (m BrowserModel) rowCount() int {
	switch m.activeTab {
	case tabSearch:
		return len(m.results)
	case tabFavorites:
		return len(m.favorites)
	default:
		return len(m.ingredients)
	}
}

func (m BrowserModel) currentDrink() (drinks.Drink, bool) {
	switch m.activeTab {
	case tabSearch:
		if m.cursor < len(m.results) {
			return m.results[m.cursor].Drink, true
		}
	case tabFavorites:
		if m.cursor < len(m.favorites) {
			return m.favorites[m.cursor], true
		}
	}
	return drinks.Drink{}, false
}

func (m BrowserModel) currentIngredient() (string, bool) {
	if m.activeTab == tabInventory && m.cursor < len(m.ingredients) {
		return m.ingredients[m.cursor], true
	}
	return "", false
}

func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case mutationMsg:
		m = m.refreshed()
		if m.detail != nil {
			if d, ok := m.sess.Detail(m.detail.ID); ok {
				m.detail = &d
			}
		}
		m.toastMessage = msg.toast
		if msg.err != nil {
			m.toastMessage = toastForError(msg.err)
		}
		if m.toastMessage == "" {
			return m, nil
		}
		return m, toastClearCmd()

	case toastClearMsg:
		m.toastMessage = ""
		return m, nil

	case tea.KeyMsg:
		if m.addMode {
			return m.updateAddMode(msg)
		}
		if m.searchMode {
			return m.updateSearch(msg)
		}
		if m.detail != nil {
			return m.updateDetail(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m BrowserModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Tab), key.Matches(msg, keys.Right):
		m.activeTab = (m.activeTab + 1) % len(browserTabs)
		m.cursor = 0
		m.scrollOffset = 0

	case key.Matches(msg, keys.ShiftTab), key.Matches(msg, keys.Left):
		m.activeTab = (m.activeTab - 1 + len(browserTabs)) % len(browserTabs)
		m.cursor = 0
		m.scrollOffset = 0

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
			if m.cursor < m.scrollOffset {
				m.scrollOffset = m.cursor
			}
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < m.rowCount()-1 {
			m.cursor++
			visibleItems := m.getVisibleItems()
			if m.cursor >= m.scrollOffset+visibleItems {
				m.scrollOffset = m.cursor - visibleItems + 1
			}
		}

	case key.Matches(msg, keys.Search):
		m.activeTab = tabSearch
		m.searchMode = true
		m.cursor = 0
		m.scrollOffset = 0

	case key.Matches(msg, keys.Strength):
		m.filter.Strength = m.filter.Strength.Next()
		m.activeTab = tabSearch
		m.cursor = 0
		m.scrollOffset = 0
		m = m.refreshed()

	case key.Matches(msg, keys.Enter):
		if d, ok := m.currentDrink(); ok {
			if detail, ok := m.sess.Detail(d.ID); ok {
				m.detail = &detail
			}
			return m, nil
		}
		if name, ok := m.currentIngredient(); ok {
			return m, m.toggleInventoryCmd(name)
		}

	case key.Matches(msg, keys.Space):
		if name, ok := m.currentIngredient(); ok {
			return m, m.toggleInventoryCmd(name)
		}

	case key.Matches(msg, keys.Favorite):
		if d, ok := m.currentDrink(); ok {
			return m, m.toggleFavoriteCmd(d.Name)
		}

	case key.Matches(msg, keys.Add):
		m.addMode = true
		m.addInput = ""
		m.suggestions = nil
		m.suggestionIdx = -1

	case key.Matches(msg, keys.Save):
		return m, m.saveCmd()
	}

	return m, nil
}

func (m BrowserModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Enter):
		m.detail = nil
	case key.Matches(msg, keys.Favorite):
		return m, m.toggleFavoriteCmd(m.detail.Name)
	case key.Matches(msg, keys.Save):
		return m, m.saveCmd()
	}
	return m, nil
}

func (m BrowserModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searchMode = false
		m.filter.Query = ""
	case "enter":
		m.searchMode = false
		return m, nil
	case "backspace":
		if len(m.filter.Query) > 0 {
			r := []rune(m.filter.Query)
			m.filter.Query = string(r[:len(r)-1])
		}
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.results)-1 {
			m.cursor++
		}
		return m, nil
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.filter.Query += string(msg.Runes)
		case tea.KeySpace:
			m.filter.Query += " "
		default:
			return m, nil
		}
	}
	m.cursor = 0
	m.scrollOffset = 0
	return m.refreshed(), nil
}

func (m BrowserModel) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.addMode = false
		m.addInput = ""
		m.suggestions = nil
		m.suggestionIdx = -1
		return m, nil
	case "tab":
		if len(m.suggestions) > 0 {
			m.suggestionIdx = (m.suggestionIdx + 1) % len(m.suggestions)
		}
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.addInput)
		if m.suggestionIdx >= 0 && m.suggestionIdx < len(m.suggestions) {
			name = m.suggestions[m.suggestionIdx]
		}
		m.addMode = false
		m.addInput = ""
		m.suggestions = nil
		m.suggestionIdx = -1
		if name == "" {
			return m, nil
		}
		return m, m.addIngredientCmd(name)
	case "backspace":
		if len(m.addInput) > 0 {
			r := []rune(m.addInput)
			m.addInput = string(r[:len(r)-1])
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.addInput += string(msg.Runes)
		case tea.KeySpace:
			m.addInput += " "
		default:
			return m, nil
		}
	}
	m.suggestions = m.sess.Suggest(m.addInput, maxSuggestions)
	m.suggestionIdx = -1
	return m, nil
}

func (m BrowserModel) toggleFavoriteCmd(name string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		fav, err := sess.ToggleFavorite(ctx, name)
		clean := drinks.CleanName(name)
		if fav {
			return mutationMsg{toast: fmt.Sprintf("❤️ Added %s to favorites", clean), err: err}
		}
		return mutationMsg{toast: fmt.Sprintf("Removed %s from favorites", clean), err: err}
	}
}

func (m BrowserModel) toggleInventoryCmd(name string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		owned, err := sess.ToggleInventory(ctx, name)
		if owned {
			return mutationMsg{toast: fmt.Sprintf("✓ %s in stock", name), err: err}
		}
		return mutationMsg{toast: fmt.Sprintf("%s out of stock", name), err: err}
	}
}

func (m BrowserModel) addIngredientCmd(name string) tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		added, err := sess.AddIngredient(ctx, name)
		if err == nil && !added {
			return mutationMsg{toast: fmt.Sprintf("%s is already listed", name)}
		}
		return mutationMsg{toast: fmt.Sprintf("+ Added %s", name), err: err}
	}
}

func (m BrowserModel) saveCmd() tea.Cmd {
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		return mutationMsg{toast: "✓ Saved", err: sess.Save(ctx)}
	}
}

func toastForError(err error) string {
	if errors.Is(err, session.ErrSaveFailed) {
		return "✗ Could not save, changes kept in memory (w to retry)"
	}
	return "✗ " + err.Error()
}

func (m BrowserModel) getVisibleItems() int {
	if m.height == 0 {
		return 15
	}
	available := m.height - 13
	if available < 5 {
		available = 5
	}
	if available > 20 {
		available = 20
	}
	return available
}

func (m BrowserModel) View() string {
	if m.detail != nil {
		return m.viewDetail()
	}

	var lines []string

	if m.addMode {
		lines = append(lines, "")
		lines = append(lines, activeTabStyle.Render(fmt.Sprintf("Add ingredient: %s▌", m.addInput)))
		for i, s := range m.suggestions {
			if i == m.suggestionIdx {
				lines = append(lines, selectedStyle.Render("  > "+s))
			} else {
				lines = append(lines, descStyle.Render("    "+s))
			}
		}
		lines = append(lines, descStyle.Render("  Enter to add, Tab to pick a suggestion, Esc to cancel"))
		lines = append(lines, "")
	}

	lines = append(lines, "")
	lines = append(lines, activeTabStyle.Render("🍹 Home Bar: what can I make tonight?"))
	lines = append(lines, "")

	counts := []int{len(m.results), len(m.favorites), len(m.inventory)}
	var tabs []string
	for i, tab := range browserTabs {
		label := fmt.Sprintf("%s %s (%d)", tab.icon, tab.name, counts[i])
		if i == m.activeTab {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, tabs...))

	if m.activeTab == tabSearch {
		search := fmt.Sprintf("Search: %s", m.filter.Query)
		if m.searchMode {
			search = activeTabStyle.Render(search + "▌")
		} else {
			search = descStyle.Render(search)
		}
		lines = append(lines, fmt.Sprintf("%s  %s", search, countStyle.Render("Strength: "+string(m.filter.Strength))))
	} else {
		lines = append(lines, "")
	}

	rows := m.renderRows()
	visibleItems := m.getVisibleItems()

	if len(rows) == 0 {
		lines = append(lines, descStyle.Render("  "+m.emptyMessage()))
	} else {
		scrollOffset := m.scrollOffset
		if scrollOffset > len(rows)-visibleItems {
			scrollOffset = len(rows) - visibleItems
		}
		if scrollOffset < 0 {
			scrollOffset = 0
		}
		endIdx := scrollOffset + visibleItems
		if endIdx > len(rows) {
			endIdx = len(rows)
		}
		for i := scrollOffset; i < endIdx; i++ {
			cursor := "  "
			if i == m.cursor {
				cursor = "> "
			}
			lines = append(lines, truncateLine(cursor+rows[i], m.width))
		}
	}

	clearWidth := 80
	if m.width > 0 && m.width < 80 {
		clearWidth = m.width
	}
	clearLine := strings.Repeat(" ", clearWidth)
	for len(lines) < visibleItems+5 {
		lines = append(lines, clearLine)
	}

	if m.toastMessage != "" {
		lines = append(lines, "")
		lines = append(lines, selectedStyle.Render(m.toastMessage))
	}

	status := fmt.Sprintf("Inventory: %d • Favorites: %d", len(m.inventory), len(m.favorites))
	if m.sess.Dirty() {
		status += " • unsaved changes"
	}
	lines = append(lines, "")
	lines = append(lines, countStyle.Render(status))

	lines = append(lines, "")
	lines = append(lines, helpStyle.Render(m.helpLine()))

	return strings.Join(lines, "\n")
}

func (m BrowserModel) renderRows() []string {
	var rows []string
	switch m.activeTab {
	case tabSearch:
		for _, r := range m.results {
			rows = append(rows, RenderCard(r, m.inventory))
		}
	case tabFavorites:
		for _, d := range m.favorites {
			rows = append(rows, RenderDrinkCard(d, m.inventory, true))
		}
	default:
		owned := make(map[string]bool, len(m.inventory))
		for _, name := range m.inventory {
			owned[strings.ToLower(name)] = true
		}
		for _, name := range m.ingredients {
			if owned[strings.ToLower(name)] {
				rows = append(rows, fmt.Sprintf("[✓] %s", selectedStyle.Render(name)))
			} else {
				rows = append(rows, fmt.Sprintf("[ ] %s", itemStyle.Render(name)))
			}
		}
	}
	return rows
}

func (m BrowserModel) emptyMessage() string {
	switch m.activeTab {
	case tabSearch:
		if len(m.inventory) == 0 {
			return "Your bar is empty. Stock some ingredients on the Inventory tab."
		}
		return "No drinks match your bar and filters"
	case tabFavorites:
		return "No favorites yet (f to add one)"
	default:
		return "No ingredients listed (+ to add one)"
	}
}

func (m BrowserModel) helpLine() string {
	switch m.activeTab {
	case tabInventory:
		return "Space/Enter: toggle • +: add ingredient • w: save • Tab/←→: switch • q: quit"
	default:
		return "/: search • s: strength • Enter: details • f: favorite • +: add ingredient • w: save • Tab/←→: switch • q: quit"
	}
}

func (m BrowserModel) viewDetail() string {
	var lines []string
	lines = append(lines, "")
	lines = append(lines, RenderDetail(*m.detail, m.width))
	if m.toastMessage != "" {
		lines = append(lines, "")
		lines = append(lines, selectedStyle.Render(m.toastMessage))
	}
	lines = append(lines, "")
	lines = append(lines, helpStyle.Render("f: favorite • w: save • Esc: back • q: quit"))
	return strings.Join(lines, "\n")
}

// RunBrowser runs the interactive browser until the user quits.
func RunBrowser(ctx context.Context, sess *session.Session) error {
	p := tea.NewProgram(NewBrowser(ctx, sess), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
