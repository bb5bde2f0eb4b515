package page

import (
	"testing"

	"github.com/muurk/deckplane/internal/keys"
)

// recordingSink records every page pushed at it.
type recordingSink struct {
	pages []*Resolved
}

func (s *recordingSink) SetPage(p *Resolved) {
	s.pages = append(s.pages, p)
}

func registerPage(t *testing.T, reg *Registry, store *keys.Store, name string) *Resolved {
	t.Helper()

	def := Definition{Name: name}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			def.Grid[row][col] = Clear()
		}
	}

	resolved, err := Resolve(def, store, reg)
	if err != nil {
		t.Fatalf("Resolve(%q) error = %v", name, err)
	}
	reg.Register(resolved)
	return resolved
}

func TestActivateIdempotent(t *testing.T) {
	sink := &recordingSink{}
	store := keys.NewStore()
	reg := NewRegistry(sink)
	registerPage(t, reg, store, "Main")

	reg.Activate("Main")
	depth := reg.Depth()

	reg.Activate("Main")

	if reg.Depth() != depth {
		t.Errorf("repeated Activate changed stack depth: %d -> %d", depth, reg.Depth())
	}
}

func TestActivateUnknownIgnored(t *testing.T) {
	sink := &recordingSink{}
	reg := NewRegistry(sink)

	reg.Activate("Ghost")

	if reg.Depth() != 0 {
		t.Errorf("unknown page should not be pushed, depth = %d", reg.Depth())
	}
	if len(sink.pages) != 0 {
		t.Errorf("unknown page should not reach the sink, got %d pushes", len(sink.pages))
	}
}

func TestReturnActivatesPrevious(t *testing.T) {
	sink := &recordingSink{}
	store := keys.NewStore()
	reg := NewRegistry(sink)
	main := registerPage(t, reg, store, "Main")
	registerPage(t, reg, store, "Sub")

	reg.Activate("Main")
	reg.Activate("Sub")
	reg.Return("Sub")

	if reg.Depth() != 1 {
		t.Fatalf("Depth() = %d, want 1", reg.Depth())
	}
	if got := sink.pages[len(sink.pages)-1]; got != main {
		t.Errorf("Return should re-activate Main, sink got %v", got)
	}
}

func TestReturnLastLeavesNoActivePage(t *testing.T) {
	sink := &recordingSink{}
	store := keys.NewStore()
	reg := NewRegistry(sink)
	registerPage(t, reg, store, "Main")

	reg.Activate("Main")
	reg.Return("")

	if reg.Depth() != 0 {
		t.Errorf("Depth() = %d, want 0", reg.Depth())
	}
	if got := sink.pages[len(sink.pages)-1]; got != nil {
		t.Errorf("popping the last page should push nil to the sink, got %v", got)
	}
	if reg.Active() != nil {
		t.Error("Active() should be nil after popping the last page")
	}
}

func TestReturnEmptyStackIgnored(t *testing.T) {
	sink := &recordingSink{}
	reg := NewRegistry(sink)

	reg.Return("")

	if len(sink.pages) != 0 {
		t.Errorf("Return on empty stack should not reach the sink, got %d pushes", len(sink.pages))
	}
}

func TestRegisterReplacesActivePage(t *testing.T) {
	sink := &recordingSink{}
	store := keys.NewStore()
	reg := NewRegistry(sink)
	registerPage(t, reg, store, "Main")
	reg.Activate("Main")

	pushesBefore := len(sink.pages)
	replacement := registerPage(t, reg, store, "Main")

	got, _ := reg.Get("Main")
	if got != replacement {
		t.Error("Register should replace the prior page of the same name")
	}
	if len(sink.pages) <= pushesBefore {
		t.Error("redefining the active page should trigger a refresh")
	}
}

func TestClearAllSkipsSink(t *testing.T) {
	sink := &recordingSink{}
	store := keys.NewStore()
	reg := NewRegistry(sink)
	registerPage(t, reg, store, "Main")
	reg.Activate("Main")

	pushesBefore := len(sink.pages)
	reg.ClearAll()

	if reg.Depth() != 0 {
		t.Errorf("Depth() after ClearAll = %d, want 0", reg.Depth())
	}
	if _, ok := reg.Get("Main"); ok {
		t.Error("Get after ClearAll should report absent")
	}
	// Teardown must not walk the refresh path
	if len(sink.pages) != pushesBefore {
		t.Errorf("ClearAll must not notify the sink, pushes %d -> %d", pushesBefore, len(sink.pages))
	}
}
