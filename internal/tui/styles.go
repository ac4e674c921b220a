package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Teal     = lipgloss.Color("#2d9c93")
	Mint     = lipgloss.Color("#3be584")
	OffWhite = lipgloss.Color("#f8f7f4")
	DarkGray = lipgloss.Color("#333333")

	// Styles
	StatusBarStyle = lipgloss.NewStyle().
			Background(Teal).
			Foreground(OffWhite).
			Bold(true).
			Padding(0, 1)

	TranscriptPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Teal).
				Padding(1)

	OptionsPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(Teal).
				Padding(1)

	InputBarStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal).
			Padding(0, 1)

	UserMessageStyle = lipgloss.NewStyle().
				Foreground(OffWhite).
				Bold(true)

	AIMessageStyle = lipgloss.NewStyle().
			Foreground(Teal)

	MediaStyle = lipgloss.NewStyle().
			Foreground(Mint)

	QuestionStyle = lipgloss.NewStyle().
			Foreground(OffWhite).
			Bold(true)

	SelectedOptionStyle = lipgloss.NewStyle().
				Foreground(Mint).
				Bold(true)

	OptionStyle = lipgloss.NewStyle().
			Foreground(OffWhite)

	HintStyle = lipgloss.NewStyle().
			Foreground(DarkGray)
)
