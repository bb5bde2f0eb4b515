package console

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette for the console UI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - OK events
	ErrorColor   = lipgloss.Color("#FF5555") // Red - ERROR events
	AccentColor  = lipgloss.Color("#FFA500") // Orange - key presses
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Shared styles for the console UI
var (
	// TitleStyle is for the console header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// AddrStyle is for the connected-endpoint annotation in the header
	AddrStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// SentStyle is for echoed outbound command lines
	SentStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// OKStyle is for OK response events
	OKStyle = lipgloss.NewStyle().
		Foreground(SuccessColor)

	// ErrStyle is for ERROR response events
	ErrStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// PressStyle is for KeyPress events
	PressStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)

	// EventStyle is for any other inbound line
	EventStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// PromptStyle is for the input prompt marker
	PromptStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	// HelpStyle is for the key-binding help footer
	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor)
)
