package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// characterDisplayName derives a readable name from a character id.
// "station_keeper" -> "Station Keeper".
func characterDisplayName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// renderStatusBar produces a full-width inverted status line showing
// the current conversation partner, their trust, pattern scores, and
// the turn count.
func (m Model) renderStatusBar() string {
	s := m.engine.State

	g, _, err := m.engine.Registry.Resolve(s.GraphID, s.NodeID)
	character := s.GraphID
	if err == nil {
		character = g.Character
	}

	trust := s.Characters[character].Trust
	left := fmt.Sprintf(" %s | Trust: %d/10", characterDisplayName(character), trust)
	right := fmt.Sprintf("T:%d ", s.Turn)

	if len(s.Patterns) > 0 {
		names := make([]string, 0, len(s.Patterns))
		for p := range s.Patterns {
			names = append(names, p)
		}
		sort.Strings(names)
		var parts []string
		for _, p := range names {
			parts = append(parts, fmt.Sprintf("%s:%d", p, s.Patterns[p]))
		}
		candidate := strings.Join(parts, " ") + fmt.Sprintf(" | T:%d ", s.Turn)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		}
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}
