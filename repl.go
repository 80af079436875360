package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

const (
	replBanner = versionString + " - type declarations and assignments, :help for commands"
	replPrompt = "vl> "
)

// cmdRepl runs an interactive session. Declarations persist between lines.
func cmdRepl(ctx *CommandContext) int {
	fmt.Fprintln(ctx.Stdout, replBanner)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if ctx.Config.History != "" {
		if f, err := os.Open(ctx.Config.History); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if err := saveHistory(ln, ctx.Config.History); err != nil {
				reportError(ctx, err)
			}
		}()
	}

	cs := ctx.newState()
	for {
		line, err := ln.Prompt(replPrompt)
		if err == liner.ErrPromptAborted || errors.Is(err, io.EOF) {
			fmt.Fprintln(ctx.Stdout)
			return 0
		}
		if err != nil {
			reportError(ctx, errors.Wrap(err, "reading input"))
			return 2
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)
		if quit := replLine(ctx, cs, line); quit {
			return 0
		}
	}
}

// replLine handles one line of input and reports whether to quit
func replLine(ctx *CommandContext, cs *CompilerState, line string) bool {
	if strings.HasPrefix(line, ":") {
		switch strings.ToLower(line) {
		case ":quit", ":q":
			return true
		case ":symbols":
			printSymbols(ctx.Stdout, cs)
		case ":reset":
			cs.Symbols().Reset()
			fmt.Fprintln(ctx.Stdout, "symbol table cleared")
		case ":help":
			fmt.Fprintln(ctx.Stdout, "  var a[3]        declare a vector (var a[3] @ 100 for a fixed address)")
			fmt.Fprintln(ctx.Stdout, "  a = b + [1,2,3] lower an assignment")
			fmt.Fprintln(ctx.Stdout, "  :symbols        list declarations")
			fmt.Fprintln(ctx.Stdout, "  :reset          forget all declarations")
			fmt.Fprintln(ctx.Stdout, "  :quit           leave")
		default:
			fmt.Fprintf(ctx.Stdout, "unknown command %s. Type :help for a list.\n", line)
		}
		return false
	}

	lowered, err := cs.Compile(line, "<repl>")
	if err != nil {
		fmt.Fprint(ctx.Stderr, cs.Errors().Report(ctx.useColor()))
		return false
	}
	reportWarnings(ctx, cs)
	if err := printProgram(ctx.Stdout, lowered, ctx.ShowTree); err != nil {
		reportError(ctx, err)
	}
	return false
}

func saveHistory(ln *liner.State, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "saving history to %s", path)
	}
	defer f.Close()
	if _, err := ln.WriteHistory(f); err != nil {
		return errors.Wrapf(err, "saving history to %s", path)
	}
	return nil
}
