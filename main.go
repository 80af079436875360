// Completion: 100% - CLI interface complete, all flags working
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
)

// vlower lowers vector assignments to scalar loads and stores

const versionString = "vlower 1.0.0"

// VerboseMode enables debug output on stderr, including the lowering trace
var VerboseMode bool

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses the command line and returns the process exit code:
// 0 on success, 1 on compile errors, 2 on usage or I/O errors.
func run(args []string, stdout, stderr io.Writer) int {
	cfg := configFromEnv()

	fs := flag.NewFlagSet("vlower", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var verbose = fs.Bool("v", cfg.Verbose, "verbose mode (phase messages and lowering trace on stderr)")
	var verboseLong = fs.Bool("verbose", cfg.Verbose, "verbose mode (phase messages and lowering trace on stderr)")
	var versionShort = fs.Bool("V", false, "print version information and exit")
	var version = fs.Bool("version", false, "print version information and exit")
	var symbolsFlag = fs.Bool("symbols", false, "print the symbol table before the lowered program")
	var treeFlag = fs.Bool("tree", false, "print the lowered program as an indented node tree")
	var baseFlag = fs.Int("base", cfg.Base, "first memory address handed out to declarations")
	var maxErrors = fs.Int("max-errors", cfg.MaxErrors, "stop after this many errors")
	var colorFlag = fs.String("color", cfg.Color, "colour errors: auto, always or never")
	var codeFlag = fs.String("c", "", "lower code given on the command line")
	var interactive = fs.Bool("i", false, "start an interactive session")
	var watchFlag = fs.Bool("watch", false, "lower the file again every time it changes")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: vlower [flags] <file.vl>\n       vlower [flags] -c 'code'\n       vlower [flags] -watch <file.vl>\n       vlower -i\n\nflags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}

	if *version || *versionShort {
		fmt.Fprintln(stdout, versionString)
		return 0
	}

	VerboseMode = *verbose || *verboseLong
	if VerboseMode {
		fmt.Fprintf(stderr, "DEBUG main: VerboseMode enabled\n")
	}

	switch *colorFlag {
	case "auto", "always", "never":
		cfg.Color = *colorFlag
	default:
		fmt.Fprintf(stderr, "Error: invalid -color value '%s' (use auto, always or never)\n", *colorFlag)
		return 2
	}
	cfg.Base = *baseFlag
	cfg.MaxErrors = *maxErrors
	cfg.Verbose = VerboseMode

	ctx := &CommandContext{
		Config:      cfg,
		Stdout:      stdout,
		Stderr:      stderr,
		ShowSymbols: *symbolsFlag,
		ShowTree:    *treeFlag,
	}

	switch {
	case *interactive:
		return cmdRepl(ctx)
	case *watchFlag && fs.NArg() == 1:
		return cmdWatch(ctx, fs.Arg(0))
	case *codeFlag != "":
		return cmdCompile(ctx, *codeFlag, "<command-line>")
	case fs.NArg() == 1:
		return cmdCompileFile(ctx, fs.Arg(0))
	}
	fs.Usage()
	return 2
}
