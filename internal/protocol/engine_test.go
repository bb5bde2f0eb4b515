package protocol

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/deckplane/internal/keys"
	"github.com/muurk/deckplane/internal/page"
)

// fakeController records controller calls made by the engine.
type fakeController struct {
	switches  []string
	backs     int
	refreshes []page.Position
}

func (f *fakeController) SwitchToProfile(name string) { f.switches = append(f.switches, name) }
func (f *fakeController) SwitchBack()                 { f.backs++ }
func (f *fakeController) RefreshKey(pos page.Position) {
	f.refreshes = append(f.refreshes, pos)
}

// nopSink satisfies page.Sink for registries in engine tests.
type nopSink struct{}

func (nopSink) SetPage(*page.Resolved) {}

type engineFixture struct {
	engine     *Engine
	store      *keys.Store
	registry   *page.Registry
	controller *fakeController
	out        *bytes.Buffer
}

func newFixture() *engineFixture {
	f := &engineFixture{
		store:      keys.NewStore(),
		registry:   page.NewRegistry(nopSink{}),
		controller: &fakeController{},
		out:        &bytes.Buffer{},
	}
	f.engine = NewEngine(f.store, f.registry, f.controller, f.out, "test")
	return f
}

func (f *engineFixture) lines() []string {
	text := strings.TrimSpace(f.out.String())
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func (f *engineFixture) lastLine() string {
	lines := f.lines()
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}

// fullGrid builds a jsonGrid string with the given row 0, remaining rows
// filled with the pad cell.
func fullGrid(row0 string, padCell string) string {
	rows := []string{row0}
	for i := 1; i < page.Rows; i++ {
		rows = append(rows, "["+padCell+","+padCell+","+padCell+"]")
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func TestDefineKeyOK(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine(`DefineKey Back "Back" icon.png`)

	assert.Equal(t, "KeyDefined Back OK", f.lastLine())

	def, ok := f.store.Lookup("Back")
	require.True(t, ok)
	assert.Equal(t, "Back", def.Title)
	assert.Equal(t, "icon.png", def.IconSpec)
}

func TestDefineKeyNullArguments(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("DefineKey Mute null mute.png")

	assert.Equal(t, "KeyDefined Mute OK", f.lastLine())
	def, _ := f.store.Lookup("Mute")
	assert.Empty(t, def.Title, "bare null means absent title")
	assert.Equal(t, "mute.png", def.IconSpec)
}

func TestDefineKeyTooManyArguments(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("DefineKey Back a b c")

	line := f.lastLine()
	assert.True(t, strings.HasPrefix(line, "KeyDefined Back ERROR"), "got %q", line)
	_, ok := f.store.Lookup("Back")
	assert.False(t, ok)
}

func TestDefineKeyNoArguments(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("DefineKey")

	line := f.lastLine()
	assert.True(t, strings.HasPrefix(line, "KeyDefined unknown ERROR"), "got %q", line)
}

func TestCommandNamesCaseInsensitive(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("definekey Back")
	f.engine.HandleLine("DEFINEKEY Next")

	lines := f.lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "KeyDefined Back OK", lines[0])
	assert.Equal(t, "KeyDefined Next OK", lines[1])
}

func TestUnknownCommandDropped(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("Frobnicate all the things")

	assert.Nil(t, f.lines(), "unknown commands produce no response event")
}

func TestDefinePageExplicitOnly(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")

	f.engine.HandleLine(`DefinePage Nav ` + fullGrid(`["Back","",""]`, `""`))

	assert.Equal(t, "PageDefined Nav OK", f.lastLine())
	_, ok := f.registry.Get("Nav")
	assert.True(t, ok)
}

func TestDefinePageInheritWithoutBase(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")

	f.engine.HandleLine(`DefinePage Nav ` + fullGrid(`["Back",null,null]`, `""`))

	line := f.lastLine()
	assert.True(t, strings.HasPrefix(line, "PageDefined Nav ERROR"), "got %q", line)
	assert.Contains(t, line, "no base page")
	_, ok := f.registry.Get("Nav")
	assert.False(t, ok, "failed definition must not touch the registry")
}

func TestDefinePageInheritance(t *testing.T) {
	f := newFixture()
	for _, name := range []string{"Back", "Home", "Next", "Save", "Cancel"} {
		f.engine.HandleLine("DefineKey " + name)
	}

	f.engine.HandleLine(`DefinePage Navigation ` + fullGrid(`["Back","Home","Next"]`, `""`))
	require.Equal(t, "PageDefined Navigation OK", f.lastLine())

	f.engine.HandleLine(`DefinePage Edit:Navigation ` + fullGrid(`["Save","Cancel",null]`, `null`))
	require.Equal(t, "PageDefined Edit OK", f.lastLine())

	edit, ok := f.registry.Get("Edit")
	require.True(t, ok)
	assert.Equal(t, "Save", edit.Binding(page.Position{Row: 0, Col: 0}).Name)
	assert.Equal(t, "Cancel", edit.Binding(page.Position{Row: 0, Col: 1}).Name)
	assert.Equal(t, "Next", edit.Binding(page.Position{Row: 0, Col: 2}).Name, "inherited from Navigation")
}

func TestDefinePageMissingBase(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine(`DefinePage Edit:Navigation ` + fullGrid(`[null,null,null]`, `null`))

	line := f.lastLine()
	assert.Contains(t, line, "ERROR")
	assert.Contains(t, line, "not defined")
}

func TestDefinePageAtomicReplacement(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Good")

	f.engine.HandleLine(`DefinePage P ` + fullGrid(`["Good","",""]`, `""`))
	require.Equal(t, "PageDefined P OK", f.lastLine())
	original, _ := f.registry.Get("P")

	// One invalid reference among valid ones fails the whole definition
	f.engine.HandleLine(`DefinePage P ` + fullGrid(`["Good","Missing","AlsoMissing"]`, `""`))

	line := f.lastLine()
	assert.Contains(t, line, "ERROR")
	assert.Contains(t, line, "Missing")
	assert.Contains(t, line, "AlsoMissing", "every invalid reference is reported")

	current, _ := f.registry.Get("P")
	assert.Same(t, original, current, "prior version must survive a failed redefinition")
}

func TestDefinePageMalformedJSON(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine(`DefinePage Nav [not json`)

	line := f.lastLine()
	assert.True(t, strings.HasPrefix(line, "PageDefined Nav ERROR"), "got %q", line)
}

func TestDefinePageMissingGrid(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("DefinePage Nav")

	assert.Contains(t, f.lastLine(), "PageDefined Nav ERROR")
}

func TestDefinePageShortGridPadded(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")

	// Only one row supplied; the rest pads to Clear
	f.engine.HandleLine(`DefinePage Nav [["Back","",""]]`)

	require.Equal(t, "PageDefined Nav OK", f.lastLine())
	nav, _ := f.registry.Get("Nav")
	assert.Equal(t, "Back", nav.Binding(page.Position{Row: 0, Col: 0}).Name)
	assert.Nil(t, nav.Binding(page.Position{Row: 4, Col: 2}))
}

func TestSwitchPage(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")
	f.engine.HandleLine(`DefinePage Nav ` + fullGrid(`["Back","",""]`, `""`))

	f.engine.HandleLine("SwitchPage Nav")

	assert.Equal(t, 1, f.registry.Depth())
	// SwitchPage has no response event
	assert.Equal(t, "PageDefined Nav OK", f.lastLine())
}

func TestSwitchPageUnknownIgnored(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("SwitchPage Ghost")

	assert.Equal(t, 0, f.registry.Depth())
	assert.Nil(t, f.lines())
}

func TestReturnPage(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")
	f.engine.HandleLine(`DefinePage Nav ` + fullGrid(`["Back","",""]`, `""`))
	f.engine.HandleLine(`DefinePage Edit ` + fullGrid(`["Back","",""]`, `""`))
	f.engine.HandleLine("SwitchPage Nav")
	f.engine.HandleLine("SwitchPage Edit")
	require.Equal(t, 2, f.registry.Depth())

	f.engine.HandleLine("ReturnPage Edit")

	assert.Equal(t, 1, f.registry.Depth())
	assert.Equal(t, "Nav", f.registry.Active().Name)
}

func TestReturnPageEmptyStackIgnored(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("ReturnPage")

	assert.Equal(t, 0, f.registry.Depth())
	assert.Nil(t, f.lines(), "empty-stack return produces no response event")
}

func TestSetKeyVisualsOnActivePage(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")
	f.engine.HandleLine(`DefinePage Nav ` + fullGrid(`["Back","",""]`, `""`))
	f.engine.HandleLine("SwitchPage Nav")

	f.engine.HandleLine(`SetKeyVisuals Back "Go Back" back2.png`)

	assert.Equal(t, "KeyVisualsSet Back OK", f.lastLine())
	require.Equal(t, []page.Position{{Row: 0, Col: 0}}, f.controller.refreshes)

	nav, _ := f.registry.Get("Nav")
	binding := nav.Binding(page.Position{Row: 0, Col: 0})
	assert.Equal(t, "Go Back", binding.Title)
	assert.Equal(t, "back2.png", binding.IconSpec)

	// The store is untouched by a visuals update
	def, _ := f.store.Lookup("Back")
	assert.Empty(t, def.Title)
}

func TestSetKeyVisualsNoActivePage(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")

	f.engine.HandleLine("SetKeyVisuals Back newtitle")

	assert.Contains(t, f.lastLine(), "KeyVisualsSet Back ERROR")
}

func TestSetKeyVisualsUnboundKey(t *testing.T) {
	f := newFixture()
	f.engine.HandleLine("DefineKey Back")
	f.engine.HandleLine("DefineKey Lonely")
	f.engine.HandleLine(`DefinePage Nav ` + fullGrid(`["Back","",""]`, `""`))
	f.engine.HandleLine("SwitchPage Nav")

	f.engine.HandleLine("SetKeyVisuals Lonely newtitle")

	assert.Contains(t, f.lastLine(), "KeyVisualsSet Lonely ERROR")
}

func TestSwitchProfileForwarded(t *testing.T) {
	f := newFixture()

	f.engine.HandleLine("SwitchProfile studio")
	f.engine.HandleLine("SwitchProfileBack")

	assert.Equal(t, []string{"studio"}, f.controller.switches)
	assert.Equal(t, 1, f.controller.backs)
	assert.Nil(t, f.lines(), "profile commands have no response events")
}

func TestOnKeyPressEmitsEvent(t *testing.T) {
	f := newFixture()

	f.engine.OnKeyPress("Back")
	f.engine.OnKeyPress("Go Back")

	lines := f.lines()
	require.Len(t, lines, 2)
	assert.Equal(t, "KeyPress Back", lines[0])
	assert.Equal(t, `KeyPress "Go Back"`, lines[1])
}
