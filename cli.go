package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/xyproto/vlower/internal/diag"
	"github.com/xyproto/vlower/internal/tree"
)

// cli.go - commands run by main

// CommandContext holds the execution context for a CLI command
type CommandContext struct {
	Config      Config
	Stdout      io.Writer
	Stderr      io.Writer
	ShowSymbols bool
	ShowTree    bool
}

func (ctx *CommandContext) newState() *CompilerState {
	var trace io.Writer
	if ctx.Config.Verbose {
		trace = ctx.Stderr
	}
	return NewCompilerState(CompileOptions{
		base:      ctx.Config.Base,
		maxErrors: ctx.Config.MaxErrors,
		trace:     trace,
		log:       ctx.Stderr,
	})
}

func (ctx *CommandContext) useColor() bool {
	if f, ok := ctx.Stderr.(*os.File); ok {
		return ctx.Config.useColor(f)
	}
	return ctx.Config.Color == "always"
}

// readSource reads a .vl file
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrapf(err, "reading %s", path)
	}
	return string(data), nil
}

// cmdCompileFile lowers a source file
func cmdCompileFile(ctx *CommandContext, path string) int {
	source, err := readSource(path)
	if err != nil {
		fmt.Fprintf(ctx.Stderr, "Error: %v\n", err)
		return 2
	}
	return cmdCompile(ctx, source, path)
}

// cmdCompile lowers source and prints the result
func cmdCompile(ctx *CommandContext, source, filename string) int {
	cs := ctx.newState()
	lowered, err := cs.Compile(source, filename)
	if err != nil {
		fmt.Fprint(ctx.Stderr, cs.Errors().Report(ctx.useColor()))
		return 1
	}
	reportWarnings(ctx, cs)
	if ctx.ShowSymbols {
		printSymbols(ctx.Stdout, cs)
	}
	if err := printProgram(ctx.Stdout, lowered, ctx.ShowTree); err != nil {
		fmt.Fprintf(ctx.Stderr, "Error: %v\n", errors.Wrap(err, "writing output"))
		return 2
	}
	return 0
}

func printSymbols(w io.Writer, cs *CompilerState) {
	for _, sym := range cs.Symbols().Entries() {
		fmt.Fprintf(w, "# %-12s @%-6d size %d\n", sym.Name, sym.Addr, sym.Size)
	}
}

func printProgram(w io.Writer, prog *tree.Block, asTree bool) error {
	if asTree {
		return tree.Dump(w, prog)
	}
	if prog.Len() == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, prog.String())
	return err
}

// reportWarnings prints what a successful compile still had to say
func reportWarnings(ctx *CommandContext, cs *CompilerState) {
	if cs.Errors().WarningCount() > 0 {
		fmt.Fprint(ctx.Stderr, cs.Errors().Report(ctx.useColor()))
	}
}

// reportError prints a single error, formatted if it is a compiler error
func reportError(ctx *CommandContext, err error) {
	if ce, ok := diag.AsCompilerError(err); ok {
		fmt.Fprint(ctx.Stderr, ce.Format(ctx.useColor()))
		return
	}
	fmt.Fprintf(ctx.Stderr, "Error: %v\n", err)
}
