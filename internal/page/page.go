package page

import (
	"sync"

	"github.com/muurk/deckplane/internal/keys"
)

// Grid dimensions fixed by the control protocol. The device exposes a
// 5-row by 3-column grid of software-labelled keys.
const (
	Rows = 5
	Cols = 3
)

// DirectiveKind selects how one grid cell of a page definition is filled.
type DirectiveKind int

const (
	// DirectiveInherit copies the base page's resolved binding at the
	// same coordinate. Only legal when the definition names a base page.
	DirectiveInherit DirectiveKind = iota

	// DirectiveClear leaves the cell empty, regardless of base.
	DirectiveClear

	// DirectiveExplicit binds the cell to a named key definition.
	DirectiveExplicit
)

// String returns a human-readable name for the directive kind
func (k DirectiveKind) String() string {
	switch k {
	case DirectiveInherit:
		return "inherit"
	case DirectiveClear:
		return "clear"
	case DirectiveExplicit:
		return "explicit"
	default:
		return "unknown"
	}
}

// CellDirective is the raw instruction for one grid cell in a page
// definition.
type CellDirective struct {
	Kind DirectiveKind

	// KeyName is the referenced key definition name. Only meaningful
	// when Kind is DirectiveExplicit.
	KeyName string
}

// Inherit returns a cell directive that copies the base page's binding.
func Inherit() CellDirective { return CellDirective{Kind: DirectiveInherit} }

// Clear returns a cell directive that leaves the cell empty.
func Clear() CellDirective { return CellDirective{Kind: DirectiveClear} }

// Explicit returns a cell directive binding the cell to a named key.
func Explicit(name string) CellDirective {
	return CellDirective{Kind: DirectiveExplicit, KeyName: name}
}

// Definition is a page as submitted by the controlling client, before
// inheritance resolution.
type Definition struct {
	// Name uniquely identifies the page.
	Name string

	// BaseName is the optional page this definition inherits from. The
	// base must already be registered; inheritance is a one-time
	// snapshot merge, never a live link.
	BaseName string

	// Grid holds one directive per cell.
	Grid [Rows][Cols]CellDirective
}

// Position addresses one cell of the grid.
type Position struct {
	Row int
	Col int
}

// Resolved is the final, concrete form of a page: every cell is either
// empty (nil) or carries a snapshot of a key definition.
//
// A published Resolved is read by the session goroutine (visuals
// updates), the controller's event handlers (press decoding), and the
// tick's action executions (grid materialization), so cell access is
// guarded by an internal lock. Bound key definitions are never mutated
// in place: an update swaps the cell's pointer, so a reader holding an
// old pointer still sees a consistent snapshot.
type Resolved struct {
	// Name is the page name this grid was registered under.
	Name string

	mu sync.RWMutex

	// cells holds the merged grid. nil means the cell is empty.
	cells [Rows][Cols]*keys.Definition

	// index maps a bound key name to its grid position. Maintained so
	// the visuals-update path can find a key without scanning.
	index map[string]Position
}

// FindKey returns the grid position the named key is bound at.
func (r *Resolved) FindKey(name string) (Position, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pos, ok := r.index[name]
	return pos, ok
}

// Binding returns the key bound at pos, or nil if the cell is empty.
func (r *Resolved) Binding(pos Position) *keys.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cells[pos.Row][pos.Col]
}

// UpdateKey replaces the binding for the named key, keeping the
// name→position index consistent. Used by the visuals-update path; the
// change affects only this page.
func (r *Resolved) UpdateKey(name, title, iconSpec string) (Position, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	pos, ok := r.index[name]
	if !ok {
		return Position{}, false
	}
	r.cells[pos.Row][pos.Col] = &keys.Definition{
		Name:     name,
		Title:    title,
		IconSpec: iconSpec,
	}
	return pos, true
}

// rebuildIndex recomputes the name→position index from the cells. Later
// rows never shadow earlier ones: the first occurrence wins. Called at
// construction, before the page is published.
func (r *Resolved) rebuildIndex() {
	r.index = make(map[string]Position)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			def := r.cells[row][col]
			if def == nil {
				continue
			}
			if _, exists := r.index[def.Name]; !exists {
				r.index[def.Name] = Position{Row: row, Col: col}
			}
		}
	}
}
