package console

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rwBuffer satisfies io.ReadWriter for console tests; reads return EOF
// immediately so the read loop parks on the done channel.
type rwBuffer struct {
	bytes.Buffer
	reads strings.Reader
}

func (b *rwBuffer) Read(p []byte) (int, error) {
	return b.reads.Read(p)
}

func typeAndSubmit(t *testing.T, m Model, line string) Model {
	t.Helper()
	for _, r := range line {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model)
}

func TestSubmitWritesLine(t *testing.T) {
	buf := &rwBuffer{}
	m := New("127.0.0.1:49327", buf)

	m = typeAndSubmit(t, m, "DefineKey Back")

	assert.Equal(t, "DefineKey Back\n", buf.String())
	require.Len(t, m.history, 1)
	assert.Contains(t, m.history[0], "DefineKey Back")
	assert.Empty(t, m.input.Value(), "input resets after submit")
}

func TestSubmitEmptyLineIgnored(t *testing.T) {
	buf := &rwBuffer{}
	m := New("127.0.0.1:49327", buf)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)

	assert.Empty(t, buf.String())
	assert.Empty(t, m.history)
}

func TestInboundLineAppendsHistory(t *testing.T) {
	buf := &rwBuffer{}
	m := New("127.0.0.1:49327", buf)

	updated, cmd := m.Update(lineMsg("KeyDefined Back OK"))
	m = updated.(Model)

	require.Len(t, m.history, 1)
	assert.Contains(t, m.history[0], "KeyDefined Back OK")
	assert.NotNil(t, cmd, "keeps waiting for the next line")
}

func TestDisconnectStopsSending(t *testing.T) {
	buf := &rwBuffer{}
	m := New("127.0.0.1:49327", buf)

	updated, _ := m.Update(disconnectedMsg{})
	m = updated.(Model)
	m = typeAndSubmit(t, m, "DefineKey Back")

	assert.Empty(t, buf.String(), "no writes after disconnect")
}

func TestHistoryBounded(t *testing.T) {
	buf := &rwBuffer{}
	m := New("127.0.0.1:49327", buf)

	for i := 0; i < maxHistory+50; i++ {
		updated, _ := m.Update(lineMsg("KeyPress Back"))
		m = updated.(Model)
	}

	assert.Len(t, m.history, maxHistory)
}

func TestViewShowsAddrAndPrompt(t *testing.T) {
	buf := &rwBuffer{}
	m := New("127.0.0.1:49327", buf)

	view := m.View()

	assert.Contains(t, view, "Deckplane Console")
	assert.Contains(t, view, "127.0.0.1:49327")
}
