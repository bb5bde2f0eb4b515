// Deckplaned is the control plane daemon for a 5x3 software-labelled
// key-grid device.
//
// It connects to the vendor key-grid gateway service over websocket,
// keeps the device's managed profile reconciled with the state a
// controlling client declares, and serves that client a line-oriented
// command protocol over TCP.
//
// Usage:
//
//	deckplaned run [flags]
//
// See 'deckplaned run --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/deckplane/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "deckplaned",
	Short: "Deckplane Key-Grid Control Plane Daemon",
	Long: `The Deckplane daemon drives a 5x3 software-labelled key-grid device.

It owns one hardware profile, reconciles the device toward the pages and
keys a controlling client declares over the TCP control channel, and
forwards physical key presses back to that client.

Note: for an interactive console speaking the control protocol, use the
separate 'deckctl' utility.`,
	Version: version.Version,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("deckplaned %s (commit: %s)\n", version.Version, version.Commit)
	},
}
