package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AbdusM/lux-story/cli"
	"github.com/AbdusM/lux-story/engine"
	"github.com/AbdusM/lux-story/engine/save"
	"github.com/AbdusM/lux-story/types"
)

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text    string
	kind    lineKind
	isInput bool // true for echoed player input
}

// Model is the Bubble Tea model for the Lux Story TUI.
type Model struct {
	engine     *engine.Engine
	startGraph string

	viewport viewport.Model
	input    textinput.Model
	history  *History

	rawLines []rawLine               // accumulated narrative lines (unstyled, for re-wrapping)
	choices  []types.EvaluatedChoice // last rendered choice list

	width    int
	height   int
	ready    bool
	quitting bool
	saveDir  string
}

// gameOutputMsg carries rendered output into the Update loop.
type gameOutputMsg struct {
	input string    // echoed player input (empty for the opening beat)
	lines []rawLine // classified output lines
}

// New creates a TUI model wired to the given engine.
func New(eng *engine.Engine, startGraph string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Focus()
	ti.CharLimit = 64
	ti.PromptStyle = styleInputPrompt

	home, _ := os.UserHomeDir()
	return Model{
		engine:     eng,
		startGraph: startGraph,
		input:      ti,
		history:    NewHistory(100),
		saveDir:    filepath.Join(home, ".luxstory", "saves"),
	}
}

// Run starts the Bubble Tea program.
func Run(eng *engine.Engine, startGraph string) error {
	m := New(eng, startGraph)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}

// Init returns the initial command that renders the opening node.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.initialOutput())
}

func (m Model) initialOutput() tea.Cmd {
	return func() tea.Msg {
		p, err := m.engine.Current()
		if err != nil {
			return gameOutputMsg{lines: []rawLine{
				{text: fmt.Sprintf("Something went wrong: %v", err), kind: kindError},
			}}
		}
		return gameOutputMsg{lines: patchLines(p)}
	}
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		m = m.appendOutput(gameOutputMsg{input: input, lines: output})
		if quit {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	choiceID, ok := m.choiceID(input)
	if !ok {
		m = m.appendOutput(gameOutputMsg{input: input, lines: systemLines("Pick a numbered choice, or type /help.")})
		return m, nil
	}

	p, err := m.engine.ResolveChoice(choiceID)
	if err != nil {
		m = m.appendOutput(gameOutputMsg{input: input, lines: []rawLine{
			{text: fmt.Sprintf("Something went wrong, your progress is saved: %v", err), kind: kindError},
		}})
		return m, nil
	}
	m.choices = p.Choices
	m = m.appendOutput(gameOutputMsg{input: input, lines: patchLines(p)})
	return m, nil
}

// choiceID maps player input onto the last rendered choice list.
func (m Model) choiceID(input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(m.choices) {
			return "", false
		}
		return m.choices[n-1].Choice.ID, true
	}
	for _, ec := range m.choices {
		if ec.Choice.ID == input {
			return input, true
		}
	}
	return "", false
}

// patchLines renders a UI patch into classified output lines.
func patchLines(p types.Patch) []rawLine {
	var lines []rawLine

	if p.Speaker != "" {
		label := p.Speaker
		if p.Emotion != "" {
			label += " (" + p.Emotion + ")"
		}
		lines = append(lines, rawLine{text: label + ":", kind: kindSpeaker})
	}
	lines = append(lines, rawLine{text: p.Text, kind: kindNarrative})

	if p.Echo != nil {
		lines = append(lines, rawLine{})
		lines = append(lines, rawLine{text: "* " + p.Echo.Text, kind: kindEcho})
	}
	if p.Gift != nil {
		lines = append(lines, rawLine{})
		lines = append(lines, rawLine{
			text: fmt.Sprintf("A gift from %s: %s", characterDisplayName(p.Gift.Source), p.Gift.Item),
			kind: kindReward,
		})
	}
	if p.Reward != nil {
		lines = append(lines, rawLine{})
		lines = append(lines, rawLine{
			text: fmt.Sprintf("%s (+%d %s)", p.Reward.Title, p.Reward.Bonus, p.Reward.DominantPattern),
			kind: kindReward,
		})
	}

	if len(p.Choices) > 0 {
		lines = append(lines, rawLine{})
		for i, ec := range p.Choices {
			kind := kindChoice
			text := fmt.Sprintf("%d) %s", i+1, ec.Choice.Text)
			if !ec.Enabled {
				kind = kindDisabled
				text += " (unavailable)"
			}
			lines = append(lines, rawLine{text: text, kind: kind})
		}
	}
	return lines
}

func systemLines(texts ...string) []rawLine {
	lines := make([]rawLine, len(texts))
	for i, t := range texts {
		lines[i] = rawLine{text: t, kind: kindSystem}
	}
	return lines
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{text: "> " + msg.input, isInput: true})
	}
	m.rawLines = append(m.rawLines, msg.lines...)

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	// The opening beat arrives before the first resolve; capture its
	// choice list for input mapping.
	if m.choices == nil {
		if p, err := m.engine.Current(); err == nil {
			m.choices = p.Choices
		}
	}

	m.refreshViewport()
	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current
// width and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		wrapped := wordWrap(rl.text, width)

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wrapped))
		default:
			styled = append(styled, renderLineKind(wrapped, rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// wordWrap wraps text to fit within the given width, breaking at word
// boundaries. Preserves existing newlines within the text.
func wordWrap(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wLen
			continue
		}

		if lineLen+1+wLen > width {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wLen
		} else {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wLen
		}
	}

	return result.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}
	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and a
// quit flag.
func (m *Model) handleMeta(input string) ([]rawLine, bool) {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		return systemLines("Goodbye."), true

	case "/save":
		return m.cmdSave(arg), false

	case "/load":
		return m.cmdLoad(arg), false

	case "/reset":
		return m.cmdReset(), false

	case "/help":
		return systemLines(
			"/save [name] — save game",
			"/load [name] — load game",
			"/reset — start over (previous journey is archived)",
			"/quit — exit",
			"Type the number of a choice to take it.",
		), false

	default:
		return systemLines(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)), false
	}
}

func (m *Model) cmdSave(name string) []rawLine {
	if name == "" {
		name = "quicksave"
	}
	data, err := save.Save(m.engine.State, cli.Version)
	if err == nil {
		err = os.MkdirAll(m.saveDir, 0o755)
	}
	if err == nil {
		err = os.WriteFile(filepath.Join(m.saveDir, name+".json"), data, 0o644)
	}
	if err != nil {
		return systemLines(fmt.Sprintf("Save failed: %v", err))
	}
	return systemLines(fmt.Sprintf("Game saved to %s.", name))
}

func (m *Model) cmdLoad(name string) []rawLine {
	if name == "" {
		name = "quicksave"
	}
	data, err := os.ReadFile(filepath.Join(m.saveDir, name+".json"))
	if err != nil {
		return systemLines(fmt.Sprintf("Load failed: %v", err))
	}
	sd, err := save.Load(data)
	if err != nil {
		return systemLines(fmt.Sprintf("Load failed: %v", err))
	}
	m.engine.Restore(sd.State())

	p, err := m.engine.Current()
	if err != nil {
		return systemLines(fmt.Sprintf("Something went wrong: %v", err))
	}
	m.choices = p.Choices
	out := systemLines(fmt.Sprintf("Game loaded from %s (turn %d).", name, sd.Turn))
	return append(out, patchLines(p)...)
}

func (m *Model) cmdReset() []rawLine {
	if err := m.engine.Reset(m.startGraph, m.engine.State.RNGSeed); err != nil {
		return systemLines(fmt.Sprintf("Reset failed: %v", err))
	}
	p, err := m.engine.Current()
	if err != nil {
		return systemLines(fmt.Sprintf("Something went wrong: %v", err))
	}
	m.choices = p.Choices
	out := systemLines("New game started. Your previous journey is archived.")
	return append(out, patchLines(p)...)
}
