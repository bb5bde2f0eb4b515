package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/muurk/deckplane/internal/page"
)

// ParseGrid decodes the JSON grid argument of DefinePage into cell
// directives. Cell values map as:
//
//	null      -> Inherit
//	""        -> Clear
//	"KeyName" -> Explicit(KeyName)
//
// The protocol fixes the grid at 5x3. A source grid with more rows or
// columns is truncated; missing cells are padded with Clear so a short
// grid stays definable without a base page.
func ParseGrid(raw string) ([page.Rows][page.Cols]page.CellDirective, error) {
	var grid [page.Rows][page.Cols]page.CellDirective

	var cells [][]*string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return grid, fmt.Errorf("invalid grid JSON: %w", err)
	}

	for row := 0; row < page.Rows; row++ {
		for col := 0; col < page.Cols; col++ {
			if row >= len(cells) || col >= len(cells[row]) {
				grid[row][col] = page.Clear()
				continue
			}

			cell := cells[row][col]
			switch {
			case cell == nil:
				grid[row][col] = page.Inherit()
			case *cell == "":
				grid[row][col] = page.Clear()
			default:
				grid[row][col] = page.Explicit(*cell)
			}
		}
	}

	return grid, nil
}
