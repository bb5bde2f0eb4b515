package server

import (
	"bufio"
	"net"

	"github.com/muurk/deckplane/internal/logging"
	"github.com/muurk/deckplane/internal/protocol"
)

// maxLineBytes bounds a single command line. DefinePage grids are small,
// but icon specs may carry inline base64 payloads.
const maxLineBytes = 1 << 20

// handleSession runs one client session to completion: builds a protocol
// engine over the connection, hands the plugin side over to it, pumps
// inbound lines, and tears everything down when the client goes away.
//
// Teardown discards all client-owned state. Key definitions and pages
// belong to the session; the next client starts from a blank slate.
func (s *Server) handleSession(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	logging.LogConnection(remoteAddr, "connected")

	engine := protocol.NewEngine(s.store, s.registry, s.controller, conn, remoteAddr)
	s.controller.SetPressSink(engine)
	s.controller.Activate()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		engine.HandleLine(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		logging.LogConnection(remoteAddr, "read error: "+err.Error())
	}

	// Order matters: stop forwarding presses first, then drop the
	// session's state, then release the device profile.
	s.controller.SetPressSink(nil)
	s.store.Clear()
	s.registry.ClearAll()
	s.controller.Deactivate()

	_ = conn.Close()
	logging.LogConnection(remoteAddr, "disconnected")
}
