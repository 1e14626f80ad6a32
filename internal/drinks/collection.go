package drinks

import (
	"sort"
	"strings"
)

// Collection is the read-only, ordered set of drinks for a session.
type Collection struct {
	drinks []Drink
	index  map[string]int
}

func NewCollection(drinks []Drink) *Collection {
	c := &Collection{
		drinks: make([]Drink, 0, len(drinks)),
		index:  make(map[string]int, len(drinks)),
	}
	for _, d := range drinks {
		if i, ok := c.index[d.ID]; ok {
			c.drinks[i] = d
			continue
		}
		c.index[d.ID] = len(c.drinks)
		c.drinks = append(c.drinks, d)
	}
	return c
}

func FromEntries(entries []Entry) *Collection {
	drinks := make([]Drink, 0, len(entries))
	for _, e := range entries {
		drinks = append(drinks, e.Drink())
	}
	return NewCollection(drinks)
}

// All returns the drinks in document order. The slice is a copy.
func (c *Collection) All() []Drink {
	out := make([]Drink, len(c.drinks))
	copy(out, c.drinks)
	return out
}

func (c *Collection) Len() int {
	return len(c.drinks)
}

func (c *Collection) Get(id string) (Drink, bool) {
	i, ok := c.index[id]
	if !ok {
		return Drink{}, false
	}
	return c.drinks[i], true
}

// FindByName looks a drink up by its clean name, ignoring case.
func (c *Collection) FindByName(name string) (Drink, bool) {
	want := CleanName(strings.TrimSpace(name))
	for _, d := range c.drinks {
		if strings.EqualFold(d.DisplayName(), want) {
			return d, true
		}
	}
	return Drink{}, false
}

// Lookup resolves an identifier first, then a name.
func (c *Collection) Lookup(idOrName string) (Drink, bool) {
	if d, ok := c.Get(idOrName); ok {
		return d, true
	}
	return c.FindByName(idOrName)
}

// WithCleanNames returns the drinks whose clean name is in names, in
// collection order.
func (c *Collection) WithCleanNames(names []string) []Drink {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	var out []Drink
	for _, d := range c.drinks {
		if set[d.DisplayName()] {
			out = append(out, d)
		}
	}
	return out
}

// IngredientNames returns every distinct ingredient name in the collection,
// sorted. Names differing only in case collapse to the first spelling seen.
func (c *Collection) IngredientNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range c.drinks {
		for _, ing := range d.Ingredients {
			key := strings.ToLower(strings.TrimSpace(ing.Name))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			names = append(names, strings.TrimSpace(ing.Name))
		}
	}
	sort.Strings(names)
	return names
}
