package server

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/deckplane/internal/keys"
	"github.com/muurk/deckplane/internal/logging"
	"github.com/muurk/deckplane/internal/page"
	"github.com/muurk/deckplane/internal/reconcile"
)

// RelistenDelay is how long the server waits after a session ends before
// accepting the next client.
const RelistenDelay = 2 * time.Second

// Config holds the control-channel server configuration
type Config struct {
	// ListenAddr is the TCP address to listen on
	ListenAddr string
}

// Server owns the control channel: a line-delimited TCP stream serving
// exactly one controlling client at a time. Sessions run sequentially;
// after a disconnect the server tears the session down and re-listens.
type Server struct {
	config     *Config
	store      *keys.Store
	registry   *page.Registry
	controller *reconcile.Controller

	listener net.Listener
	wg       sync.WaitGroup

	mu          sync.Mutex
	currentConn net.Conn
	closed      bool
}

// New creates a Server wiring sessions to the given collaborators.
func New(config *Config, store *keys.Store, registry *page.Registry, controller *reconcile.Controller) *Server {
	return &Server{
		config:     config,
		store:      store,
		registry:   registry,
		controller: controller,
	}
}

// Start starts the server and blocks until shutdown
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	s.listener = listener

	logging.Info("Control channel listening",
		zap.String("addr", s.config.ListenAddr),
	)

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.acceptSessions()
	}()

	select {
	case <-sigChan:
		logging.Info("Shutdown signal received, stopping control channel")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// acceptSessions serves clients one at a time. A second client dialing
// during an active session waits in the accept backlog until the current
// session ends plus the re-listen delay.
func (s *Server) acceptSessions() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() || strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			continue
		}

		s.setCurrentConn(conn)
		s.wg.Add(1)
		s.handleSession(conn)
		s.wg.Done()
		s.setCurrentConn(nil)

		if s.isClosed() {
			return nil
		}

		logging.Info("Session ended, re-listening",
			zap.Duration("delay", RelistenDelay),
		)
		time.Sleep(RelistenDelay)
	}
}

// Shutdown stops accepting, closes the active session, and waits for it
// to finish tearing down.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	conn := s.currentConn
	s.mu.Unlock()

	if s.listener != nil {
		_ = s.listener.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("Control channel stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) setCurrentConn(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentConn = conn
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
