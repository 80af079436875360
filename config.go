package main

import (
	"os"
	"path/filepath"

	"github.com/xyproto/env/v2"
)

// Config holds the settings that can come from the environment. Command
// line flags override them.
type Config struct {
	Verbose   bool
	Base      int    // first address handed out by the symbol table
	MaxErrors int    // stop after this many errors
	Color     string // "auto", "always" or "never"
	History   string // REPL history file
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".vlower_history")
}

// configFromEnv reads VLOWER_* variables. NO_COLOR turns colour off.
func configFromEnv() Config {
	env.Load() // env caches the environment; pick up changes since the last run
	cfg := Config{
		Verbose:   env.Bool("VLOWER_VERBOSE"),
		Base:      env.Int("VLOWER_BASE", 0),
		MaxErrors: env.Int("VLOWER_MAX_ERRORS", 10),
		Color:     env.Str("VLOWER_COLOR", "auto"),
		History:   env.Str("VLOWER_HISTORY", defaultHistoryPath()),
	}
	if env.Has("NO_COLOR") {
		cfg.Color = "never"
	}
	return cfg
}

// useColor decides whether reports written to f get ANSI colours
func (cfg Config) useColor(f *os.File) bool {
	switch cfg.Color {
	case "always":
		return true
	case "never":
		return false
	}
	return isTerminal(int(f.Fd()))
}
