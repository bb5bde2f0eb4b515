package page

import (
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/logging"
)

// Sink receives the currently active resolved page. The reconciliation
// controller implements this; the registry never talks to hardware
// directly.
type Sink interface {
	// SetPage overwrites the desired page. nil means no page is active.
	SetPage(p *Resolved)
}

// Registry owns all resolved pages by name plus the navigation stack of
// currently activated page names.
type Registry struct {
	mu    sync.Mutex
	pages map[string]*Resolved
	stack []string
	sink  Sink
}

// NewRegistry creates an empty page registry reporting activations to sink.
func NewRegistry(sink Sink) *Registry {
	return &Registry{
		pages: make(map[string]*Resolved),
		sink:  sink,
	}
}

// Register stores a resolved page, replacing any prior page of the same
// name in one atomic step. Pages with other names are unaffected;
// inheritance is snapshot-only so descendants are never re-resolved.
//
// Redefining the currently active page is allowed: the new grid is pushed
// to the sink so the hardware converges on it.
func (r *Registry) Register(p *Resolved) {
	r.mu.Lock()

	if _, existed := r.pages[p.Name]; existed {
		logging.Info("Replacing registered page", zap.String("page", p.Name))
	}
	r.pages[p.Name] = p

	active := len(r.stack) > 0 && r.stack[len(r.stack)-1] == p.Name
	r.mu.Unlock()

	if active {
		logging.Info("Active page redefined, refreshing", zap.String("page", p.Name))
		r.sink.SetPage(p)
	}
}

// Get retrieves a resolved page by name.
func (r *Registry) Get(name string) (*Resolved, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pages[name]
	return p, ok
}

// Active returns the resolved page on top of the navigation stack, or nil
// when no page is active.
func (r *Registry) Active() *Resolved {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.stack) == 0 {
		return nil
	}
	return r.pages[r.stack[len(r.stack)-1]]
}

// Depth returns the navigation stack depth.
func (r *Registry) Depth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stack)
}

// Activate pushes name onto the navigation stack (unless it is already on
// top) and triggers a full-grid refresh toward the controller. An unknown
// page name is an operational warning: logged and ignored, no event.
func (r *Registry) Activate(name string) {
	r.mu.Lock()

	p, ok := r.pages[name]
	if !ok {
		r.mu.Unlock()
		logging.Warn("Activate of unknown page ignored", zap.String("page", name))
		return
	}

	if len(r.stack) == 0 || r.stack[len(r.stack)-1] != name {
		r.stack = append(r.stack, name)
	}
	r.mu.Unlock()

	logging.Info("Page activated",
		zap.String("page", name),
		zap.Int("stack_depth", r.Depth()),
	)
	r.sink.SetPage(p)
}

// Return pops the navigation stack, deactivating the popped page, and
// re-activates the new top if any. An empty stack is an operational
// warning. When expected is non-empty and does not match the popped name
// that is a non-fatal diagnostic condition: logged, not fatal.
func (r *Registry) Return(expected string) {
	r.mu.Lock()

	if len(r.stack) == 0 {
		r.mu.Unlock()
		logging.Warn("Return with empty navigation stack ignored")
		return
	}

	popped := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]

	var next *Resolved
	if len(r.stack) > 0 {
		next = r.pages[r.stack[len(r.stack)-1]]
	}
	r.mu.Unlock()

	if expected != "" && expected != popped {
		logging.Warn("Return popped unexpected page",
			zap.String("expected", expected),
			zap.String("popped", popped),
		)
	}

	logging.Info("Page deactivated", zap.String("page", popped))
	r.sink.SetPage(next)
}

// ClearAll empties the registry and the navigation stack atomically.
// Deliberately does not notify the sink: session teardown must not walk
// the per-key refresh path because hardware state is about to be dropped
// wholesale.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages = make(map[string]*Resolved)
	r.stack = nil
}
