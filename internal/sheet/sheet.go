// Package sheet implements the column-oriented backing stores that hold the
// user's favorites, inventory and master ingredient list.
//
// Every store exposes the same three named columns. Writes replace the whole
// document; columns are padded with empty strings to a common length, and
// readers drop empty entries again.
package sheet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	ColFavorites         = "favorites"
	ColInventory         = "inventory"
	ColMasterIngredients = "master_ingredients"
)

// ColumnNames lists the columns in header order.
var ColumnNames = []string{ColFavorites, ColInventory, ColMasterIngredients}

// ErrMissingColumn is returned by Read when the document lacks one of the
// three columns.
var ErrMissingColumn = errors.New("missing column")

// Store is the backing-store contract.
type Store interface {
	Read(ctx context.Context) (Columns, error)
	Write(ctx context.Context, cols Columns) error
}

// Columns holds the three parallel columns of the backing document.
type Columns struct {
	Favorites         []string `json:"favorites"`
	Inventory         []string `json:"inventory"`
	MasterIngredients []string `json:"master_ingredients"`
}

// Get returns the column with the given header name.
func (c Columns) Get(name string) []string {
	switch name {
	case ColFavorites:
		return c.Favorites
	case ColInventory:
		return c.Inventory
	case ColMasterIngredients:
		return c.MasterIngredients
	}
	return nil
}

func (c *Columns) set(name string, values []string) {
	switch name {
	case ColFavorites:
		c.Favorites = values
	case ColInventory:
		c.Inventory = values
	case ColMasterIngredients:
		c.MasterIngredients = values
	}
}

// Len returns the length of the longest column.
func (c Columns) Len() int {
	n := 0
	for _, name := range ColumnNames {
		if l := len(c.Get(name)); l > n {
			n = l
		}
	}
	return n
}

// Pad returns a copy with every column extended by empty strings to the
// length of the longest one, and at least one row.
func (c Columns) Pad() Columns {
	n := c.Len()
	if n < 1 {
		n = 1
	}
	var out Columns
	for _, name := range ColumnNames {
		col := make([]string, n)
		copy(col, c.Get(name))
		out.set(name, col)
	}
	return out
}

// Compact returns a copy without empty entries.
func (c Columns) Compact() Columns {
	var out Columns
	for _, name := range ColumnNames {
		out.set(name, compact(c.Get(name)))
	}
	return out
}

// Rows returns the padded columns as a header row followed by value rows.
func (c Columns) Rows() [][]string {
	p := c.Pad()
	rows := make([][]string, 0, p.Len()+1)
	rows = append(rows, append([]string(nil), ColumnNames...))
	for i := 0; i < p.Len(); i++ {
		row := make([]string, len(ColumnNames))
		for j, name := range ColumnNames {
			row[j] = p.Get(name)[i]
		}
		rows = append(rows, row)
	}
	return rows
}

// FromRows parses a header row followed by value rows. Columns are located by
// header name, so extra columns and reordering are tolerated; rows may be
// ragged.
func FromRows(rows [][]string) (Columns, error) {
	if len(rows) == 0 {
		return Columns{}, fmt.Errorf("%w: empty document", ErrMissingColumn)
	}

	index := make(map[string]int, len(ColumnNames))
	for i, h := range rows[0] {
		h = strings.TrimSpace(h)
		if _, seen := index[h]; !seen {
			index[h] = i
		}
	}

	var c Columns
	for _, name := range ColumnNames {
		pos, ok := index[name]
		if !ok {
			return Columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		var values []string
		for _, row := range rows[1:] {
			if pos < len(row) {
				values = append(values, row[pos])
			}
		}
		c.set(name, compact(values))
	}
	return c, nil
}

// DecodeColumns reads the JSON form of the document. All three keys must be
// present; empty entries are dropped.
func DecodeColumns(r io.Reader) (Columns, error) {
	var doc map[string][]string
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Columns{}, fmt.Errorf("failed to parse columns: %w", err)
	}

	var c Columns
	for _, name := range ColumnNames {
		values, ok := doc[name]
		if !ok {
			return Columns{}, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		c.set(name, compact(values))
	}
	return c, nil
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Close releases the store's resources when it holds any.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
