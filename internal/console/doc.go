// Package console implements the interactive terminal UI for deckctl: a
// Bubble Tea model with a command input line over a styled scrollback of
// sent commands and received protocol events.
package console
