package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/match"
	"github.com/homebardev/homebar/internal/session"
)

// CardSlots is how many slots a card previews.
const CardSlots = 5

var (
	ownedStyle = lipgloss.NewStyle().
			Foreground(danger).
			Bold(true)

	cardNameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fff")).
			Bold(true)

	scoreStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	strengthStyles = map[drinks.Strength]lipgloss.Style{
		drinks.StrengthLow:    lipgloss.NewStyle().Foreground(info),
		drinks.StrengthMedium: lipgloss.NewStyle().Foreground(warning),
		drinks.StrengthHigh:   lipgloss.NewStyle().Foreground(danger),
	}
)

func renderStrength(s drinks.Strength) string {
	style, ok := strengthStyles[s]
	if !ok {
		style = mutedStyle
	}
	return style.Render("[" + string(s) + "]")
}

func favoriteMark(fav bool) string {
	if fav {
		return " ❤️"
	}
	return ""
}

// RenderCard is the one-line summary of a ranked drink: score, name,
// strength and the first slots with owned ingredients highlighted.
func RenderCard(r match.Result, inventory []string) string {
	var ings []string
	for _, ing := range r.Drink.CardIngredients(CardSlots) {
		if match.IngredientIsOwned(ing.Name, inventory) {
			ings = append(ings, ownedStyle.Render(ing.Name))
		} else {
			ings = append(ings, mutedStyle.Render(ing.Name))
		}
	}
	return fmt.Sprintf("%s %s%s %s  %s",
		scoreStyle.Render(fmt.Sprintf("%2d", r.Score)),
		cardNameStyle.Render(r.Drink.DisplayName()),
		favoriteMark(r.Favorite),
		renderStrength(r.Strength),
		strings.Join(ings, mutedStyle.Render(" · ")))
}

// RenderDrinkCard renders a drink outside a ranking, as on the favorites
// list.
func RenderDrinkCard(d drinks.Drink, inventory []string, favorite bool) string {
	return RenderCard(match.Result{
		Drink:    d,
		Score:    match.MatchScore(d, inventory),
		Favorite: favorite,
		Strength: match.EstimateStrength(d),
	}, inventory)
}

// RenderDetail lists every populated slot with its measure, owned ones
// highlighted, followed by the instructions wrapped to width.
func RenderDetail(d session.Detail, width int) string {
	if width <= 0 || width > 100 {
		width = 100
	}

	var lines []string
	lines = append(lines, titleStyle.Render(d.Name+favoriteMark(d.Favorite)))
	lines = append(lines, fmt.Sprintf("%s  %s", renderStrength(d.Strength), mutedStyle.Render(d.Image)))
	lines = append(lines, "")

	for _, s := range d.Slots {
		txt := fmt.Sprintf("・ %s (%s)", s.Name, s.Measure)
		if s.Owned {
			lines = append(lines, ownedStyle.Render(txt))
		} else {
			lines = append(lines, txt)
		}
	}
	lines = append(lines, "")
	lines = append(lines, blueStyle.Render(ansi.Wordwrap(d.Instructions, width-2, "")))

	return strings.Join(lines, "\n")
}

func truncateLine(s string, maxWidth int) string {
	if maxWidth <= 0 || ansi.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth < 10 {
		return ansi.Truncate(s, maxWidth, "")
	}
	return ansi.Truncate(s, maxWidth, "...")
}
