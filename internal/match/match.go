// Package match scores drinks against an ingredient inventory and ranks them
// for display.
//
// Ownership is decided by case-insensitive substring containment, not
// equality: an inventory item "Lime" owns the slot "Fresh Lime Juice", and
// "Gin" also owns "Ginger Ale".
package match

import (
	"strings"

	"github.com/homebardev/homebar/internal/drinks"
)

// strongKeywords mark a drink as High when it has no explicit strength tag.
var strongKeywords = []string{"martini", "negroni", "shot", "old fashioned"}

// IngredientIsOwned reports whether any inventory item is a substring of the
// ingredient text, ignoring case.
func IngredientIsOwned(ingredient string, inventory []string) bool {
	return owned(strings.ToLower(ingredient), lowerAll(inventory))
}

// MatchScore counts the drink's populated slots owned by the inventory.
func MatchScore(d drinks.Drink, inventory []string) int {
	return score(d, lowerAll(inventory))
}

// EstimateStrength returns the explicit tag when present, otherwise High for
// names containing a strong keyword and Medium for everything else. The
// fallback never yields Low/None.
func EstimateStrength(d drinks.Drink) drinks.Strength {
	if d.Strength != "" {
		return d.Strength
	}
	name := strings.ToLower(d.Name)
	for _, k := range strongKeywords {
		if strings.Contains(name, k) {
			return drinks.StrengthHigh
		}
	}
	return drinks.StrengthMedium
}

func score(d drinks.Drink, invLower []string) int {
	if len(invLower) == 0 {
		return 0
	}
	n := 0
	for _, ing := range d.Ingredients {
		if ing.Name != "" && owned(strings.ToLower(ing.Name), invLower) {
			n++
		}
	}
	return n
}

func owned(ingLower string, invLower []string) bool {
	for _, item := range invLower {
		if strings.Contains(ingLower, item) {
			return true
		}
	}
	return false
}

func lowerAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = strings.ToLower(s)
	}
	return out
}
