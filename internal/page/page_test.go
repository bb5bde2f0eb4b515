package page

import (
	"fmt"
	"sync"
	"testing"
)

// Visuals updates arrive on the session goroutine while the controller
// decodes presses and materializes cells concurrently; run with -race.
func TestResolvedConcurrentUpdateAndRead(t *testing.T) {
	store := newTestStore("Back")
	reg := NewRegistry(nopSink{})

	def := Definition{Name: "Nav"}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			def.Grid[row][col] = Clear()
		}
	}
	def.Grid[0][0] = Explicit("Back")

	resolved, err := Resolve(def, store, reg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	const iterations = 1000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			if _, ok := resolved.UpdateKey("Back", fmt.Sprintf("title-%d", i), ""); !ok {
				t.Error("UpdateKey should find the bound key")
				return
			}
		}
	}()

	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			binding := resolved.Binding(Position{Row: 0, Col: 0})
			if binding == nil || binding.Name != "Back" {
				t.Errorf("Binding(0,0) = %v, want Back", binding)
				return
			}
			if _, ok := resolved.FindKey("Back"); !ok {
				t.Error("FindKey should find the bound key")
				return
			}
		}
	}()

	wg.Wait()
}

func TestResolvedUpdateKeyVisibleToReaders(t *testing.T) {
	store := newTestStore("Back")
	reg := NewRegistry(nopSink{})

	def := Definition{Name: "Nav"}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			def.Grid[row][col] = Clear()
		}
	}
	def.Grid[1][2] = Explicit("Back")

	resolved, err := Resolve(def, store, reg)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	pos, ok := resolved.UpdateKey("Back", "Go Back", "back2.png")
	if !ok {
		t.Fatal("UpdateKey should find the bound key")
	}
	if pos != (Position{Row: 1, Col: 2}) {
		t.Errorf("UpdateKey position = %+v, want {1 2}", pos)
	}

	binding := resolved.Binding(pos)
	if binding == nil || binding.Title != "Go Back" || binding.IconSpec != "back2.png" {
		t.Errorf("Binding after update = %+v, want updated visuals", binding)
	}

	if _, ok := resolved.UpdateKey("Nope", "x", ""); ok {
		t.Error("UpdateKey of unbound name should report absent")
	}
}
