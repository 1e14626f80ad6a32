package drinks

import (
	"strings"
)

const (
	// MaxSlots is the number of ingredient slots in the flat source schema.
	MaxSlots = 15

	PlaceholderImage    = "https://via.placeholder.com/150?text=No+Image"
	DefaultMeasure      = "to taste"
	DefaultInstructions = "no instructions"

	// CustomRecipePrefix decorates the names of user-made recipes in the cache.
	CustomRecipePrefix = "⭐ [MY] "
)

// Strength is the coarse alcohol-intensity class of a drink.
type Strength string

const (
	StrengthLow    Strength = "Low/None"
	StrengthMedium Strength = "Medium"
	StrengthHigh   Strength = "High"
)

// Ingredient is one populated slot of a drink. Slot is the 1-based position
// in the source document.
type Ingredient struct {
	Slot    int    `json:"slot"`
	Name    string `json:"name"`
	Measure string `json:"measure,omitempty"`
}

// DisplayMeasure returns the measure, or "to taste" when the source had none.
func (i Ingredient) DisplayMeasure() string {
	m := strings.TrimSpace(i.Measure)
	if m == "" {
		return DefaultMeasure
	}
	return m
}

// Drink is an immutable cocktail record.
type Drink struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Thumb        string       `json:"thumb,omitempty"`
	Ingredients  []Ingredient `json:"ingredients"`
	Instructions string       `json:"instructions,omitempty"`
	// Strength is empty when the record carries no explicit tag.
	Strength Strength `json:"strength,omitempty"`
}

// Image returns the thumbnail URL or the placeholder when it is absent.
func (d Drink) Image() string {
	if d.Thumb == "" || d.Thumb == "None" {
		return PlaceholderImage
	}
	return d.Thumb
}

func (d Drink) InstructionsText() string {
	if d.Instructions == "" {
		return DefaultInstructions
	}
	return d.Instructions
}

func (d Drink) DisplayName() string {
	return CleanName(d.Name)
}

// CardIngredients returns the populated slots among the first n slot
// positions, the subset shown on a summary card.
func (d Drink) CardIngredients(n int) []Ingredient {
	var out []Ingredient
	for _, ing := range d.Ingredients {
		if ing.Slot <= n {
			out = append(out, ing)
		}
	}
	return out
}

// CleanName strips the custom recipe marker from a drink name.
func CleanName(name string) string {
	return strings.TrimPrefix(name, CustomRecipePrefix)
}
