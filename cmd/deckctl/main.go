// Deckctl is an interactive console for the Deckplane daemon.
//
// It connects to the daemon's TCP control channel and speaks the
// line-oriented command protocol: define keys and pages, switch pages
// and profiles, and watch key presses arrive in real time.
//
// Usage:
//
//	deckctl [flags]
//
// On a terminal deckctl runs a full-screen console. With stdin
// redirected it acts as a plain pipe: protocol lines in, event lines
// out.
package main

import (
	"fmt"
	"io"
	"net"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/muurk/deckplane/internal/config"
	"github.com/muurk/deckplane/internal/console"
	"github.com/muurk/deckplane/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var daemonAddr string

var rootCmd = &cobra.Command{
	Use:   "deckctl",
	Short: "Deckplane Control Console",
	Long: `An interactive console for the Deckplane daemon.

Connects to the daemon's control channel and speaks the line protocol:
DefineKey, DefinePage, SwitchPage, SwitchProfile and friends, with key
press events streamed back.

With stdin redirected, deckctl pipes protocol lines straight through,
which makes it usable from scripts:

  deckctl < layout.deck`,
	Version: version.Version,
	RunE:    runConsole,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVar(&daemonAddr, "addr", "", "Control channel address (default: from config file)")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deckctl %s (commit: %s)\n", version.Version, version.Commit)
	},
}

// resolveAddr picks the control channel address: flag first, then the
// daemon's configuration file.
func resolveAddr() (string, error) {
	if daemonAddr != "" {
		return daemonAddr, nil
	}
	settings, err := config.Load()
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	return settings.ListenAddr, nil
}

func runConsole(cmd *cobra.Command, args []string) error {
	addr, err := resolveAddr()
	if err != nil {
		return err
	}

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to daemon at %s: %w", addr, err)
	}
	defer conn.Close()

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runPipe(conn)
	}

	model := console.New(addr, conn)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("console failed: %w", err)
	}
	return nil
}

// runPipe copies stdin to the daemon and event lines back to stdout,
// exiting when both directions are exhausted.
func runPipe(conn net.Conn) error {
	sendDone := make(chan error, 1)
	go func() {
		_, err := io.Copy(conn, os.Stdin)
		// Half-close so the daemon sees EOF once stdin is drained.
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.CloseWrite()
		}
		sendDone <- err
	}()

	if _, err := io.Copy(os.Stdout, conn); err != nil {
		return fmt.Errorf("read from daemon failed: %w", err)
	}
	return <-sendDone
}
