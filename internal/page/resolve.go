package page

import (
	"fmt"
	"strings"

	"github.com/muurk/deckplane/internal/keys"
)

// MissingKey records one explicit cell directive whose key name has no
// definition in the store.
type MissingKey struct {
	Name string
	Row  int
	Col  int
}

// ValidationError reports every problem found while resolving a page
// definition. Resolution is atomic: when this error is returned the
// registry has not been touched.
type ValidationError struct {
	// Page is the name of the definition that failed.
	Page string

	// MissingBase is set when the definition names a base page that is
	// not registered. When set, no per-cell errors are collected.
	MissingBase string

	// MissingKeys lists every explicit directive referencing an
	// undefined key, with coordinates.
	MissingKeys []MissingKey

	// NoBaseCells lists every inherit directive used without a base
	// page, with coordinates.
	NoBaseCells []Position
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.MissingBase != "" {
		return fmt.Sprintf("page %q: base page %q not defined", e.Page, e.MissingBase)
	}

	var parts []string
	for _, m := range e.MissingKeys {
		parts = append(parts, fmt.Sprintf("key %q at (%d,%d) not defined", m.Name, m.Row, m.Col))
	}
	for _, p := range e.NoBaseCells {
		parts = append(parts, fmt.Sprintf("inherit at (%d,%d) with no base page", p.Row, p.Col))
	}
	return fmt.Sprintf("page %q: %s", e.Page, strings.Join(parts, "; "))
}

// Resolve merges a page definition against its base page (if any) and the
// key definition store, producing the concrete grid.
//
// Cell-by-cell:
//   - Explicit(name): the name must exist in the store, otherwise the
//     (name, row, col) tuple is recorded as missing.
//   - Clear: the cell is empty, regardless of base.
//   - Inherit: without a base page this is a structural error at the
//     cell; with a base, the base's resolved binding is copied (which may
//     itself be empty).
//
// A named base that is not registered fails the whole resolution
// immediately. Any collected cell errors fail it atomically with the full
// list reported; the registry is never mutated by this function.
func Resolve(def Definition, store *keys.Store, reg *Registry) (*Resolved, error) {
	var base *Resolved
	if def.BaseName != "" {
		var ok bool
		base, ok = reg.Get(def.BaseName)
		if !ok {
			return nil, &ValidationError{Page: def.Name, MissingBase: def.BaseName}
		}
	}

	resolved := &Resolved{Name: def.Name}
	verr := &ValidationError{Page: def.Name}

	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			directive := def.Grid[row][col]

			switch directive.Kind {
			case DirectiveExplicit:
				keyDef, ok := store.Lookup(directive.KeyName)
				if !ok {
					verr.MissingKeys = append(verr.MissingKeys, MissingKey{
						Name: directive.KeyName,
						Row:  row,
						Col:  col,
					})
					continue
				}
				// Snapshot copy: later store redefinitions must not
				// change an already-resolved page.
				snapshot := keyDef
				resolved.cells[row][col] = &snapshot

			case DirectiveClear:
				resolved.cells[row][col] = nil

			case DirectiveInherit:
				if base == nil {
					verr.NoBaseCells = append(verr.NoBaseCells, Position{Row: row, Col: col})
					continue
				}
				inherited := base.Binding(Position{Row: row, Col: col})
				if inherited != nil {
					snapshot := *inherited
					resolved.cells[row][col] = &snapshot
				}
			}
		}
	}

	if len(verr.MissingKeys) > 0 || len(verr.NoBaseCells) > 0 {
		return nil, verr
	}

	resolved.rebuildIndex()
	return resolved, nil
}
