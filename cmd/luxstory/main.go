// Lux Story is a deterministic, choice-driven narrative engine.
// Usage: luxstory [--version] [--plain] [--script <file>] [--seed <n>]
// [--start <graph>] [--world <file>] [--db <file>] [--verbose] <content_directory>
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/AbdusM/lux-story/cli"
	"github.com/AbdusM/lux-story/engine"
	"github.com/AbdusM/lux-story/loader"
	"github.com/AbdusM/lux-story/logging"
	"github.com/AbdusM/lux-story/store"
	"github.com/AbdusM/lux-story/tui"
	"github.com/AbdusM/lux-story/world"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	plain := false
	verbose := false
	startGraph := "start"
	seed := time.Now().UnixNano()
	var contentDir string
	var scriptFile string
	var worldFile string
	var dbFile string

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("luxstory %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--verbose":
			verbose = true
		case "--script":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--script requires a file path\n")
				os.Exit(1)
			}
			i++
			scriptFile = args[i]
		case "--seed":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--seed requires an integer\n")
				os.Exit(1)
			}
			i++
			n, err := strconv.ParseInt(args[i], 10, 64)
			if err != nil {
				fmt.Fprintf(os.Stderr, "--seed requires an integer: %v\n", err)
				os.Exit(1)
			}
			seed = n
		case "--start":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--start requires a graph id\n")
				os.Exit(1)
			}
			i++
			startGraph = args[i]
		case "--world":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--world requires a file path\n")
				os.Exit(1)
			}
			i++
			worldFile = args[i]
		case "--db":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "--db requires a file path\n")
				os.Exit(1)
			}
			i++
			dbFile = args[i]
		default:
			if contentDir == "" {
				contentDir = args[i]
			}
		}
	}

	if contentDir == "" {
		fmt.Fprintf(os.Stderr, "Usage: luxstory [--version] [--plain] [--script <file>] [--seed <n>] [--start <graph>] [--world <file>] [--db <file>] [--verbose] <content_directory>\n")
		os.Exit(1)
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := logging.New(level)

	if worldFile == "" {
		worldFile = filepath.Join(contentDir, "world.yaml")
	}
	w, err := world.Load(worldFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading world: %v\n", err)
		os.Exit(1)
	}

	// Load and compile Lua dialogue content.
	reg, err := loader.Load(contentDir, w)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading content: %v\n", err)
		os.Exit(1)
	}

	// Snapshot store: SQLite when --db is given, otherwise in-memory.
	var st store.Store
	if dbFile != "" {
		sqlSt, err := store.NewSQLiteStore(dbFile, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening snapshot store: %v\n", err)
			os.Exit(1)
		}
		defer sqlSt.Close()
		st = sqlSt
	} else {
		st = store.NewMemoryStore()
	}

	eng, err := engine.New(reg, w, st, startGraph, seed, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting game: %v\n", err)
		os.Exit(1)
	}

	// Script mode: open file, force plain, echo choices.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(eng, startGraph)
		c.In = f
		c.EchoInput = true
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !isTerminal() {
		c := cli.New(eng, startGraph)
		c.Run()
		return
	}

	if err := tui.Run(eng, startGraph); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// isTerminal returns true if stdout is a terminal (not piped/redirected).
func isTerminal() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
