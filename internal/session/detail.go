package session

import (
	"github.com/homebardev/homebar/internal/drinks"
	"github.com/homebardev/homebar/internal/match"
)

// Slot is one populated ingredient slot with its ownership flag.
type Slot struct {
	Slot    int    `json:"slot"`
	Name    string `json:"name"`
	Measure string `json:"measure"`
	Owned   bool   `json:"owned"`
}

// Detail is everything the detail view shows for one drink.
type Detail struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	DisplayName  string          `json:"display_name"`
	Image        string          `json:"image"`
	Strength     drinks.Strength `json:"strength"`
	Score        int             `json:"score"`
	Favorite     bool            `json:"favorite"`
	Slots        []Slot          `json:"ingredients"`
	Instructions string          `json:"instructions"`
}

// Detail looks a drink up by id or name and annotates each slot with
// whether the current inventory owns it.
func (s *Session) Detail(idOrName string) (Detail, bool) {
	d, ok := s.drinks.Lookup(idOrName)
	if !ok {
		return Detail{}, false
	}

	s.mu.Lock()
	inv := append([]string(nil), s.state.Inventory...)
	fav := s.state.IsFavorite(d.Name)
	s.mu.Unlock()

	return BuildDetail(d, inv, fav), true
}

// BuildDetail annotates d against an inventory.
func BuildDetail(d drinks.Drink, inventory []string, favorite bool) Detail {
	slots := make([]Slot, 0, len(d.Ingredients))
	for _, ing := range d.Ingredients {
		slots = append(slots, Slot{
			Slot:    ing.Slot,
			Name:    ing.Name,
			Measure: ing.DisplayMeasure(),
			Owned:   match.IngredientIsOwned(ing.Name, inventory),
		})
	}
	return Detail{
		ID:           d.ID,
		Name:         d.Name,
		DisplayName:  d.DisplayName(),
		Image:        d.Image(),
		Strength:     match.EstimateStrength(d),
		Score:        match.MatchScore(d, inventory),
		Favorite:     favorite,
		Slots:        slots,
		Instructions: d.InstructionsText(),
	}
}
