package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/deckplane/internal/gateway"
	"github.com/muurk/deckplane/internal/keys"
	"github.com/muurk/deckplane/internal/page"
	"github.com/muurk/deckplane/internal/reconcile"
)

type stubGateway struct {
	events chan gateway.Event
}

func newStubGateway() *stubGateway {
	return &stubGateway{events: make(chan gateway.Event)}
}

func (g *stubGateway) Connect(ctx context.Context) error { return nil }
func (g *stubGateway) Close() error                      { return nil }
func (g *stubGateway) Events() <-chan gateway.Event      { return g.events }
func (g *stubGateway) SwitchProfile(name string) error   { return nil }
func (g *stubGateway) SetKey(row, col int, title string, image []byte) error {
	return nil
}
func (g *stubGateway) ClearKey(row, col int) error { return nil }

type stubRenderer struct{}

func (stubRenderer) Render(spec string, inverted bool) ([]byte, error) {
	return []byte{0x89}, nil
}

func newTestServer() *Server {
	store := keys.NewStore()
	controller := reconcile.New(newStubGateway(), stubRenderer{}, "deckplane")
	registry := page.NewRegistry(controller)
	return New(&Config{ListenAddr: "127.0.0.1:0"}, store, registry, controller)
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		s.handleSession(server)
		close(done)
	}()

	_, err := client.Write([]byte("DefineKey Back\n"))
	require.NoError(t, err)

	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "KeyDefined Back OK\n", line)

	_ = client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after client close")
	}
}

func TestSessionTeardownClearsState(t *testing.T) {
	s := newTestServer()
	client, server := net.Pipe()

	done := make(chan struct{})
	go func() {
		s.handleSession(server)
		close(done)
	}()

	reader := bufio.NewReader(client)
	for _, line := range []string{
		"DefineKey Back\n",
		`DefinePage Nav [["Back","",""]]` + "\n",
	} {
		_, err := client.Write([]byte(line))
		require.NoError(t, err)
		_, err = reader.ReadString('\n')
		require.NoError(t, err)
	}
	_, err := client.Write([]byte("SwitchPage Nav\n"))
	require.NoError(t, err)

	_ = client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after client close")
	}

	assert.Equal(t, 0, s.store.Len(), "key definitions are session-scoped")
	assert.Equal(t, 0, s.registry.Depth(), "pages are session-scoped")
	assert.Nil(t, s.registry.Active())
}

// Visuals updates run on the session goroutine while presses are decoded
// on the controller goroutine against the same active page; run with
// -race.
func TestConcurrentVisualsAndKeyPress(t *testing.T) {
	gw := newStubGateway()
	store := keys.NewStore()
	controller := reconcile.New(gw, stubRenderer{}, "deckplane")
	registry := page.NewRegistry(controller)
	s := New(&Config{ListenAddr: "127.0.0.1:0"}, store, registry, controller)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go controller.Run(ctx)

	client, server := net.Pipe()
	done := make(chan struct{})
	go func() {
		s.handleSession(server)
		close(done)
	}()
	// Drain all responses and KeyPress events; this test only cares that
	// the two sides touch the page concurrently.
	go func() { _, _ = io.Copy(io.Discard, client) }()

	write := func(line string) {
		_, err := client.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	write("DefineKey Back")
	write(`DefinePage Nav [["Back","",""]]`)
	write("SwitchPage Nav")

	require.Eventually(t, func() bool { return s.registry.Active() != nil },
		2*time.Second, 5*time.Millisecond, "active page should be set")

	gw.events <- gateway.Event{Kind: gateway.EventDeviceAttached, DeviceID: "dev-1"}
	gw.events <- gateway.Event{Kind: gateway.EventProfileChanged, Profile: "deckplane"}

	const rounds = 200
	pressesDone := make(chan struct{})
	go func() {
		defer close(pressesDone)
		for i := 0; i < rounds; i++ {
			gw.events <- gateway.Event{Kind: gateway.EventKeyDown, Row: 0, Col: 0}
		}
	}()
	for i := 0; i < rounds; i++ {
		write(fmt.Sprintf("SetKeyVisuals Back title%d", i))
	}

	select {
	case <-pressesDone:
	case <-time.After(5 * time.Second):
		t.Fatal("press stream stalled")
	}

	_ = client.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session did not end after client close")
	}
}

func TestShutdownWhileIdle(t *testing.T) {
	s := newTestServer()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s.listener = listener

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptSessions()
	}()

	require.NoError(t, s.Shutdown(context.Background()))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("accept loop did not stop after shutdown")
	}
}
