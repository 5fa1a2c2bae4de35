package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles used throughout the TUI.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))

	styleSpeaker = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("228"))

	styleNarrative = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	styleEcho = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("117"))

	styleChoice = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleDisabled = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	styleReward = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("34"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindNarrative lineKind = iota
	kindSpeaker
	kindEcho
	kindChoice
	kindDisabled
	kindReward
	kindSystem
	kindError
)

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindSpeaker:
		return styleSpeaker.Render(line)
	case kindEcho:
		return styleEcho.Render(line)
	case kindChoice:
		return styleChoice.Render(line)
	case kindDisabled:
		return styleDisabled.Render(line)
	case kindReward:
		return styleReward.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	default:
		return styleNarrative.Render(line)
	}
}
