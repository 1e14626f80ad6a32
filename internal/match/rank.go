package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/homebardev/homebar/internal/drinks"
)

// MaxResults caps the ranked list.
const MaxResults = 24

// Level is a strength filter: All or one of the drink strengths.
type Level string

const (
	LevelAll    Level = "All"
	LevelLow    Level = Level(drinks.StrengthLow)
	LevelMedium Level = Level(drinks.StrengthMedium)
	LevelHigh   Level = Level(drinks.StrengthHigh)
)

// Levels lists the selector values in display order.
var Levels = []Level{LevelAll, LevelLow, LevelMedium, LevelHigh}

// ParseLevel accepts the four labels in any case plus a few short aliases.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return LevelAll, nil
	case "low/none", "low", "none":
		return LevelLow, nil
	case "medium", "med":
		return LevelMedium, nil
	case "high":
		return LevelHigh, nil
	}
	return "", fmt.Errorf("unknown strength %q (valid: All, Low/None, Medium, High)", s)
}

// Next returns the following level in selector order, wrapping around.
func (l Level) Next() Level {
	for i, v := range Levels {
		if v == l {
			return Levels[(i+1)%len(Levels)]
		}
	}
	return LevelAll
}

// Filter holds the per-render search settings.
type Filter struct {
	Query    string `json:"query"`
	Strength Level  `json:"strength"`
}

func (f Filter) keep(d drinks.Drink, strength drinks.Strength) bool {
	if f.Query != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(f.Query)) {
		return false
	}
	if f.Strength != "" && f.Strength != LevelAll && Level(strength) != f.Strength {
		return false
	}
	return true
}

// Result is a ranked drink with the values it was ranked by.
type Result struct {
	Drink    drinks.Drink    `json:"drink"`
	Score    int             `json:"score"`
	Favorite bool            `json:"favorite"`
	Strength drinks.Strength `json:"strength"`
}

// Rank selects the drinks sharing at least one ingredient with the inventory,
// applies the name and strength filters, orders them by descending score with
// favorites first among equal scores, and returns at most MaxResults. The sort
// is stable, so ties keep the order of all. An empty inventory returns nothing.
func Rank(all []drinks.Drink, inventory, favorites []string, f Filter) []Result {
	if len(inventory) == 0 {
		return []Result{}
	}

	invLower := lowerAll(inventory)
	favSet := make(map[string]bool, len(favorites))
	for _, name := range favorites {
		favSet[name] = true
	}

	results := make([]Result, 0, len(all))
	for _, d := range all {
		s := score(d, invLower)
		if s == 0 {
			continue
		}
		strength := EstimateStrength(d)
		if !f.keep(d, strength) {
			continue
		}
		results = append(results, Result{
			Drink:    d,
			Score:    s,
			Favorite: favSet[d.DisplayName()],
			Strength: strength,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Favorite && !results[j].Favorite
	})

	if len(results) > MaxResults {
		results = results[:MaxResults]
	}
	return results
}
