package protocol

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/keys"
	"github.com/muurk/deckplane/internal/logging"
	"github.com/muurk/deckplane/internal/page"
)

// ProfileController is the slice of the reconciliation controller the
// engine drives directly. Page activation goes through the registry
// instead, which feeds the controller itself.
type ProfileController interface {
	SwitchToProfile(name string)
	SwitchBack()
	RefreshKey(pos page.Position)
}

// Engine dispatches inbound command lines against the key store, the
// page registry, and the controller, and emits correlated response
// events on the outbound side of the channel.
//
// One engine is built per client session; the session tears it down with
// the connection.
type Engine struct {
	store      *keys.Store
	registry   *page.Registry
	controller ProfileController
	remoteAddr string

	// outMu serializes event lines: presses forwarded from the
	// controller's context must not interleave mid-line with command
	// responses written from the read-loop context.
	outMu sync.Mutex
	out   io.Writer
}

// NewEngine creates an engine writing event lines to out.
func NewEngine(store *keys.Store, registry *page.Registry, controller ProfileController, out io.Writer, remoteAddr string) *Engine {
	return &Engine{
		store:      store,
		registry:   registry,
		controller: controller,
		remoteAddr: remoteAddr,
		out:        out,
	}
}

// HandleLine dispatches one inbound command line. Command names are
// case-insensitive; the remainder of the line is handed to the command
// handler raw. No failure escapes: every handler resolves to a response
// event, a logged warning, or both.
func (e *Engine) HandleLine(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}

	logging.LogProtocolLine(e.remoteAddr, "received", line)

	command, args := splitCommand(line)
	switch strings.ToLower(command) {
	case "definekey":
		e.handleDefineKey(args)
	case "setkeyvisuals":
		e.handleSetKeyVisuals(args)
	case "definepage":
		e.handleDefinePage(args)
	case "switchpage":
		e.handleSwitchPage(args)
	case "returnpage":
		e.handleReturnPage(args)
	case "switchprofile":
		e.handleSwitchProfile(args)
	case "switchprofileback":
		e.controller.SwitchBack()
	default:
		logging.Warn("Unknown command dropped",
			zap.String("remote_addr", e.remoteAddr),
			zap.String("command", command),
		)
	}
}

// parseKeyArgs parses the shared `name [title|null] [iconSpec|null]`
// argument shape of DefineKey and SetKeyVisuals.
func parseKeyArgs(args string) (name, title, iconSpec string, err error) {
	tokens := Tokenize(args)
	if len(tokens) < 1 || len(tokens) > 3 {
		target := "unknown"
		if len(tokens) > 0 && !tokens[0].Null {
			target = tokens[0].Value
		}
		return target, "", "", fmt.Errorf("expected 1-3 arguments, got %d", len(tokens))
	}
	if tokens[0].Null || tokens[0].Value == "" {
		return "unknown", "", "", fmt.Errorf("key name must not be empty")
	}

	name = tokens[0].Value
	if len(tokens) > 1 && !tokens[1].Null {
		title = tokens[1].Value
	}
	if len(tokens) > 2 && !tokens[2].Null {
		iconSpec = tokens[2].Value
	}
	return name, title, iconSpec, nil
}

func (e *Engine) handleDefineKey(args string) {
	name, title, iconSpec, err := parseKeyArgs(args)
	if err != nil {
		e.emitError("KeyDefined", name, err)
		return
	}

	e.store.Define(name, title, iconSpec)
	e.emitOK("KeyDefined", name)
}

// handleSetKeyVisuals replaces the named key's binding within the
// currently active page only. The key store and other pages are
// untouched.
func (e *Engine) handleSetKeyVisuals(args string) {
	name, title, iconSpec, err := parseKeyArgs(args)
	if err != nil {
		e.emitError("KeyVisualsSet", name, err)
		return
	}

	active := e.registry.Active()
	if active == nil {
		e.emitError("KeyVisualsSet", name, fmt.Errorf("no active page"))
		return
	}

	pos, ok := active.UpdateKey(name, title, iconSpec)
	if !ok {
		e.emitError("KeyVisualsSet", name, fmt.Errorf("key %q not bound on active page %q", name, active.Name))
		return
	}

	e.controller.RefreshKey(pos)
	e.emitOK("KeyVisualsSet", name)
}

func (e *Engine) handleDefinePage(args string) {
	nameSpec, gridJSON := splitCommand(args)
	if nameSpec == "" {
		e.emitError("PageDefined", "unknown", fmt.Errorf("missing page name"))
		return
	}

	// name[:baseName]
	name := nameSpec
	baseName := ""
	if idx := strings.IndexByte(nameSpec, ':'); idx >= 0 {
		name = nameSpec[:idx]
		baseName = nameSpec[idx+1:]
	}
	if name == "" {
		e.emitError("PageDefined", "unknown", fmt.Errorf("missing page name"))
		return
	}
	if gridJSON == "" {
		e.emitError("PageDefined", name, fmt.Errorf("missing grid"))
		return
	}

	grid, err := ParseGrid(gridJSON)
	if err != nil {
		e.emitError("PageDefined", name, err)
		return
	}

	def := page.Definition{Name: name, BaseName: baseName, Grid: grid}
	resolved, err := page.Resolve(def, e.store, e.registry)
	if err != nil {
		// Atomic rejection: the registry was not touched.
		e.emitError("PageDefined", name, err)
		return
	}

	e.registry.Register(resolved)
	e.emitOK("PageDefined", name)
}

func (e *Engine) handleSwitchPage(args string) {
	tokens := Tokenize(args)
	if len(tokens) != 1 {
		logging.Warn("SwitchPage needs exactly one page name, dropped",
			zap.String("remote_addr", e.remoteAddr),
		)
		return
	}
	// Unknown pages are logged and ignored by the registry; no event
	// either way.
	e.registry.Activate(tokens[0].Value)
}

// handleReturnPage pops the navigation stack. The optional argument names
// the page the client believes it is leaving; a mismatch is diagnostic
// only.
func (e *Engine) handleReturnPage(args string) {
	tokens := Tokenize(args)
	if len(tokens) > 1 {
		logging.Warn("ReturnPage takes at most one page name, dropped",
			zap.String("remote_addr", e.remoteAddr),
		)
		return
	}
	expected := ""
	if len(tokens) == 1 && !tokens[0].Null {
		expected = tokens[0].Value
	}
	// Empty-stack returns are logged and ignored by the registry; no
	// event either way.
	e.registry.Return(expected)
}

func (e *Engine) handleSwitchProfile(args string) {
	tokens := Tokenize(args)
	if len(tokens) != 1 {
		logging.Warn("SwitchProfile needs exactly one profile name, dropped",
			zap.String("remote_addr", e.remoteAddr),
		)
		return
	}
	e.controller.SwitchToProfile(tokens[0].Value)
}

// OnKeyPress implements the controller's press sink: a decoded hardware
// key press becomes a KeyPress event line.
func (e *Engine) OnKeyPress(name string) {
	e.emit(fmt.Sprintf("KeyPress %s", quoteToken(name)))
}

func (e *Engine) emitOK(event, target string) {
	e.emit(fmt.Sprintf("%s %s OK", event, quoteToken(target)))
}

func (e *Engine) emitError(event, target string, err error) {
	e.emit(fmt.Sprintf("%s %s ERROR %s", event, quoteToken(target), err.Error()))
}

// emit writes one event line. Serialized so concurrent emitters never
// interleave mid-line.
func (e *Engine) emit(line string) {
	e.outMu.Lock()
	defer e.outMu.Unlock()

	if _, err := fmt.Fprintf(e.out, "%s\n", line); err != nil {
		logging.Warn("Failed to write event line",
			zap.String("remote_addr", e.remoteAddr),
			zap.Error(err),
		)
		return
	}
	logging.LogProtocolLine(e.remoteAddr, "sent", line)
}
