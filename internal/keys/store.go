package keys

import "sync"

// Definition describes how a named key is displayed on the device.
type Definition struct {
	// Name uniquely identifies the key across pages.
	Name string

	// Title is the text label shown on the key (may be empty).
	Title string

	// IconSpec selects the key image. See the icon package for the
	// supported spec forms. Empty means no image.
	IconSpec string
}

// Store holds all key definitions known to the current session, keyed by
// name. Redefining a name replaces the previous entry entirely.
type Store struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewStore creates an empty key definition store.
func NewStore() *Store {
	return &Store{
		defs: make(map[string]Definition),
	}
}

// Define adds or replaces the definition for name. There is no partial
// merge: the prior entry, if any, is discarded.
func (s *Store) Define(name, title, iconSpec string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[name] = Definition{
		Name:     name,
		Title:    title,
		IconSpec: iconSpec,
	}
}

// Lookup retrieves the definition for name.
func (s *Store) Lookup(name string) (Definition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[name]
	return def, ok
}

// Len returns the number of definitions in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.defs)
}

// Clear removes every definition. Called on session teardown.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs = make(map[string]Definition)
}
