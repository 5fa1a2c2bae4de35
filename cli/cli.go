// Package cli provides terminal I/O, patch rendering, and meta-command
// dispatch for the Lux Story engine.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/AbdusM/lux-story/engine"
	"github.com/AbdusM/lux-story/engine/save"
	"github.com/AbdusM/lux-story/types"
)

// Version is stamped into save files.
const Version = "1"

// CLI handles terminal interaction with the player.
type CLI struct {
	Engine    *engine.Engine
	In        io.Reader
	Out       io.Writer
	SaveDir   string
	EchoInput bool // echo each input line after the prompt (for script playback)

	startGraph string
	choices    []types.EvaluatedChoice // last rendered choice list
}

// New creates a CLI wired to the given engine.
func New(eng *engine.Engine, startGraph string) *CLI {
	home, _ := os.UserHomeDir()
	return &CLI{
		Engine:     eng,
		In:         os.Stdin,
		Out:        os.Stdout,
		SaveDir:    filepath.Join(home, ".luxstory", "saves"),
		startGraph: startGraph,
	}
}

// Run starts the game loop: render the current node, then loop
// prompt → choice → resolve → render.
func (c *CLI) Run() {
	p, err := c.Engine.Current()
	if err != nil {
		c.printSystem(fmt.Sprintf("Something went wrong: %v", err))
		return
	}
	c.printPatch(p)

	scanner := bufio.NewScanner(c.In)
	for {
		c.print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				return // /quit
			}
			continue
		}

		choiceID, ok := c.choiceID(input)
		if !ok {
			c.printSystem("Pick a numbered choice, or type /help.")
			continue
		}

		p, err := c.Engine.ResolveChoice(choiceID)
		if err != nil {
			// Content defects never reach the player as a crash;
			// progress is in the snapshot store and the save file.
			c.printSystem(fmt.Sprintf("Something went wrong, your progress is saved: %v", err))
			continue
		}
		c.printPatch(p)

		if len(c.choices) == 0 {
			c.printSystem("The conversation has reached its end.")
			return
		}
	}
}

// choiceID maps player input (a 1-based number or a literal choice id)
// onto the last rendered choice list.
func (c *CLI) choiceID(input string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(c.choices) {
			return "", false
		}
		return c.choices[n-1].Choice.ID, true
	}
	for _, ec := range c.choices {
		if ec.Choice.ID == input {
			return input, true
		}
	}
	return "", false
}

// handleMeta dispatches meta-commands. Returns true if the game
// should exit.
func (c *CLI) handleMeta(input string) bool {
	parts := strings.Fields(input)
	cmd := parts[0]
	var arg string
	if len(parts) > 1 {
		arg = parts[1]
	}

	switch cmd {
	case "/quit", "/exit":
		c.printSystem("Goodbye.")
		return true

	case "/save":
		c.cmdSave(arg)

	case "/load":
		c.cmdLoad(arg)

	case "/state":
		c.cmdState()

	case "/reset":
		c.cmdReset()

	case "/help":
		c.cmdHelp()

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}
	return false
}

func (c *CLI) cmdSave(name string) {
	if name == "" {
		name = "quicksave"
	}
	data, err := save.Save(c.Engine.State, Version)
	if err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	if err := os.MkdirAll(c.SaveDir, 0o755); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	path := filepath.Join(c.SaveDir, name+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		c.printSystem(fmt.Sprintf("Save failed: %v", err))
		return
	}
	c.printSystem(fmt.Sprintf("Game saved to %s.", name))
}

func (c *CLI) cmdLoad(name string) {
	if name == "" {
		name = "quicksave"
	}
	path := filepath.Join(c.SaveDir, name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	sd, err := save.Load(data)
	if err != nil {
		c.printSystem(fmt.Sprintf("Load failed: %v", err))
		return
	}
	c.Engine.Restore(sd.State())
	c.printSystem(fmt.Sprintf("Game loaded from %s (turn %d).", name, sd.Turn))

	p, err := c.Engine.Current()
	if err != nil {
		c.printSystem(fmt.Sprintf("Something went wrong: %v", err))
		return
	}
	c.printPatch(p)
}

func (c *CLI) cmdReset() {
	if err := c.Engine.Reset(c.startGraph, c.Engine.State.RNGSeed); err != nil {
		c.printSystem(fmt.Sprintf("Reset failed: %v", err))
		return
	}
	c.printSystem("New game started. Your previous journey is archived.")
	p, err := c.Engine.Current()
	if err != nil {
		c.printSystem(fmt.Sprintf("Something went wrong: %v", err))
		return
	}
	c.printPatch(p)
}

func (c *CLI) cmdState() {
	s := c.Engine.State
	c.printSystem(fmt.Sprintf("Turn: %d", s.Turn))
	c.printSystem(fmt.Sprintf("Node: %s/%s", s.GraphID, s.NodeID))

	ids := make([]string, 0, len(s.Characters))
	for id := range s.Characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		cs := s.Characters[id]
		c.printSystem(fmt.Sprintf("%s: trust %d, knows %d", id, cs.Trust, len(cs.Knowledge)))
	}
	if len(s.Patterns) > 0 {
		patterns := make([]string, 0, len(s.Patterns))
		for p := range s.Patterns {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		var parts []string
		for _, p := range patterns {
			parts = append(parts, fmt.Sprintf("%s=%d", p, s.Patterns[p]))
		}
		c.printSystem("Patterns: " + strings.Join(parts, " "))
	}
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /save [name]  — Save game (default: quicksave)",
		"  /load [name]  — Load game (default: quicksave)",
		"  /state        — Show trust, patterns, and position",
		"  /reset        — Start over (previous journey is archived)",
		"  /quit         — Exit game",
		"",
		"Play:",
		"  Type the number of a choice to take it.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

// printPatch renders one resolved turn and records the choice list for
// the next input mapping.
func (c *CLI) printPatch(p types.Patch) {
	if p.Speaker != "" {
		label := p.Speaker
		if p.Emotion != "" {
			label += " (" + p.Emotion + ")"
		}
		c.printLine(label + ":")
	}
	c.printLine(p.Text)

	if p.Echo != nil {
		c.printLine("")
		c.printLine("  * " + p.Echo.Text)
	}
	if p.Gift != nil {
		c.printLine("")
		c.printLine(fmt.Sprintf("  [gift] %s from %s", p.Gift.Item, p.Gift.Source))
	}
	if p.Reward != nil {
		c.printLine("")
		c.printLine(fmt.Sprintf("  [arc complete] %s (+%d %s)", p.Reward.Title, p.Reward.Bonus, p.Reward.DominantPattern))
	}

	c.choices = p.Choices
	if len(p.Choices) > 0 {
		c.printLine("")
		for i, ec := range p.Choices {
			line := fmt.Sprintf("%d) %s", i+1, ec.Choice.Text)
			if !ec.Enabled {
				line += " (unavailable)"
			}
			c.printLine(line)
		}
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
