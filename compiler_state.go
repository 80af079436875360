// compiler_state.go - Central state management for compilation
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xyproto/vlower/internal/diag"
	"github.com/xyproto/vlower/internal/expand"
	"github.com/xyproto/vlower/internal/symtab"
	"github.com/xyproto/vlower/internal/tree"
)

// CompilationPhase is a stage of one compile run
type CompilationPhase int

const (
	PhaseInitial CompilationPhase = iota
	PhaseParsing
	PhaseLowering
	PhaseComplete
	PhaseFailed
)

func (p CompilationPhase) String() string {
	switch p {
	case PhaseInitial:
		return "Initialization"
	case PhaseParsing:
		return "Parsing and Name Resolution"
	case PhaseLowering:
		return "Vector Lowering"
	case PhaseComplete:
		return "Compilation Complete"
	case PhaseFailed:
		return "Compilation Failed"
	default:
		return fmt.Sprintf("Unknown Phase %d", int(p))
	}
}

// errCompileFailed is returned when errors were collected; the details are
// in the session's ErrorCollector.
var errCompileFailed = errors.New("compilation failed")

// CompilerState manages one compilation session. The symbol table survives
// between Compile calls, which is what the REPL relies on.
type CompilerState struct {
	symbols *symtab.Table
	errors  *diag.ErrorCollector
	trace   io.Writer
	log     io.Writer // verbose phase messages
	phase   CompilationPhase
}

type CompileOptions struct {
	base      int
	maxErrors int
	trace     io.Writer // lowering trace, nil for none
	log       io.Writer // verbose messages, os.Stderr when nil
}

// NewCompilerState creates a new compiler state with all components initialized
func NewCompilerState(options CompileOptions) *CompilerState {
	log := options.log
	if log == nil {
		log = os.Stderr
	}
	return &CompilerState{
		symbols: symtab.New(options.base),
		errors:  diag.NewErrorCollector(options.maxErrors),
		trace:   options.trace,
		log:     log,
		phase:   PhaseInitial,
	}
}

// TransitionPhase moves to a new compilation phase
func (cs *CompilerState) TransitionPhase(newPhase CompilationPhase) {
	cs.phase = newPhase
	if VerboseMode {
		fmt.Fprintf(cs.log, "=== Phase Transition: %v ===\n", newPhase)
	}
}

func (cs *CompilerState) Symbols() *symtab.Table {
	return cs.symbols
}

func (cs *CompilerState) Errors() *diag.ErrorCollector {
	return cs.errors
}

// Compile parses and lowers source. On failure the returned error is
// errCompileFailed and the report is available from Errors().
func (cs *CompilerState) Compile(source, filename string) (lowered *tree.Block, err error) {
	cs.errors.Clear()
	cs.errors.SetSourceCode(source)

	// internal errors panic; turn them into a report instead of a crash
	defer func() {
		if r := recover(); r != nil {
			ce, ok := r.(diag.CompilerError)
			if !ok {
				panic(r)
			}
			cs.errors.AddError(ce)
			cs.TransitionPhase(PhaseFailed)
			lowered, err = nil, errCompileFailed
		}
	}()

	cs.TransitionPhase(PhaseParsing)
	prog := NewParser(source, filename, cs.symbols, cs.errors).ParseProgram()
	if VerboseMode {
		fmt.Fprintf(cs.log, "DEBUG Compile: parsed %d statement(s), %d symbol(s)\n", prog.Len(), cs.symbols.Len())
	}

	cs.TransitionPhase(PhaseLowering)
	lowered = expand.New(expand.WithTrace(cs.trace)).LowerProgram(prog, cs.errors)

	if cs.errors.HasErrors() {
		cs.TransitionPhase(PhaseFailed)
		cs.logSummary()
		return nil, errCompileFailed
	}
	cs.TransitionPhase(PhaseComplete)
	cs.logSummary()
	return lowered, nil
}

func (cs *CompilerState) logSummary() {
	if VerboseMode {
		fmt.Fprint(cs.log, cs.GetSummary())
	}
}

// GetSummary returns a summary of the current compiler state
func (cs *CompilerState) GetSummary() string {
	return fmt.Sprintf(
		"CompilerState:\n"+
			"  Phase: %v\n"+
			"  Symbols: %d\n"+
			"  Errors: %d\n"+
			"  Warnings: %d\n",
		cs.phase,
		cs.symbols.Len(),
		cs.errors.ErrorCount(),
		cs.errors.WarningCount(),
	)
}
