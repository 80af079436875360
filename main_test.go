package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI runs the command line with a clean environment and returns the
// exit code and both outputs
func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("VLOWER_VERBOSE", "")
	t.Setenv("VLOWER_BASE", "")
	t.Setenv("VLOWER_COLOR", "never")
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	VerboseMode = false
	return code, stdout.String(), stderr.String()
}

func TestRunEndToEnd(t *testing.T) {
	source := "var A[3] @ 10\nvar B[3] @ 20\nA = B\n"
	code, stdout, stderr := runCLI(t, "-c", source)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	want := "store(10) = load(20)\nstore(11) = load(21)\nstore(12) = load(22)\n"
	if stdout != want {
		t.Errorf("got\n%s\nwant\n%s", stdout, want)
	}
}

func TestRunFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.vl")
	source := "// scale and offset\nvar in[2]\nvar out[2]\nout = in * [2, 3] + [1, 1]\n"
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, "-symbols", path)
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	for _, want := range []string{
		"# in           @0      size 2\n",
		"# out          @2      size 2\n",
		"store(2) = ((load(0) * 2) + 1)\n",
		"store(3) = ((load(1) * 3) + 1)\n",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("output lacks %q:\n%s", want, stdout)
		}
	}
}

func TestRunBaseFlag(t *testing.T) {
	code, stdout, _ := runCLI(t, "-base", "50", "-c", "var a[2]\nvar b[2]\na = b")
	if code != 0 || stdout != "store(50) = load(52)\nstore(51) = load(53)\n" {
		t.Errorf("exit %d, got\n%s", code, stdout)
	}
}

func TestRunBaseFromEnvironment(t *testing.T) {
	var stdout, stderr bytes.Buffer
	t.Setenv("VLOWER_BASE", "7")
	t.Setenv("VLOWER_COLOR", "never")
	if code := run([]string{"-c", "var x\nx = 1"}, &stdout, &stderr); code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr.String())
	}
	if stdout.String() != "store(7) = 1\n" {
		t.Errorf("got %q", stdout.String())
	}
}

func TestRunReportsSizeMismatch(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-c", "var a[3]\nvar b[2]\na = b\n")
	if code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	if stdout != "" {
		t.Errorf("unexpected output %q", stdout)
	}
	for _, want := range []string{
		"error[size mismatch]: inconsistent size! left size: 3, right size: 2",
		"--> <command-line>:3:3",
		"3 | a = b",
		"1 error(s) found",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("report lacks %q:\n%s", want, stderr)
		}
	}
}

func TestRunWarnsOnRangePastDeclaredSize(t *testing.T) {
	code, stdout, stderr := runCLI(t, "-c", "var a[3]\na[0:5] = [1, 2, 3, 4, 5, 6]")
	if code != 0 {
		t.Fatalf("exit code %d, stderr:\n%s", code, stderr)
	}
	if !strings.HasSuffix(stdout, "store(5) = 6\n") {
		t.Errorf("range was not lowered:\n%s", stdout)
	}
	for _, want := range []string{
		"warning[out of bounds]: range [0:5] is out of bounds for 'a' of size 3",
		"2 | a[0:5] = [1, 2, 3, 4, 5, 6]",
		"1 warning(s) found",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr lacks %q:\n%s", want, stderr)
		}
	}
}

func TestRunReportsUndefinedName(t *testing.T) {
	code, _, stderr := runCLI(t, "-c", "var speed[2]\nsped = [1, 2]")
	if code != 1 || !strings.Contains(stderr, "did you mean 'speed'?") {
		t.Errorf("exit %d, stderr:\n%s", code, stderr)
	}
}

func TestRunReportsDynamicIndex(t *testing.T) {
	code, _, stderr := runCLI(t, "-c", "var a[4]\nvar i\na[i] = 1")
	if code != 1 || !strings.Contains(stderr, "address of 'a' is not known at compile time") {
		t.Errorf("exit %d, stderr:\n%s", code, stderr)
	}
}

func TestRunTreeOutput(t *testing.T) {
	code, stdout, _ := runCLI(t, "-tree", "-c", "var x @ 4\nx = 9")
	want := "Block (1)\n  Block (1)\n    Assignment\n      Store 4\n      Immediate 9\n"
	if code != 0 || stdout != want {
		t.Errorf("exit %d, got\n%s\nwant\n%s", code, stdout, want)
	}
}

func TestRunVerboseTrace(t *testing.T) {
	code, _, stderr := runCLI(t, "-v", "-c", "var a[2]\na = [3, 4]")
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	for _, want := range []string{
		"Phase Transition: Vector Lowering",
		"StaticVector lane=1 -> 4",
		"  Phase: Compilation Complete\n  Symbols: 1\n  Errors: 0\n  Warnings: 0\n",
	} {
		if !strings.Contains(stderr, want) {
			t.Errorf("verbose output lacks %q:\n%s", want, stderr)
		}
	}
}

func TestRunUsageErrors(t *testing.T) {
	if code, _, _ := runCLI(t); code != 2 {
		t.Errorf("no arguments: exit %d, want 2", code)
	}
	if code, _, _ := runCLI(t, "-color", "sometimes", "-c", "var x"); code != 2 {
		t.Errorf("bad -color: exit %d, want 2", code)
	}
	code, _, stderr := runCLI(t, filepath.Join(t.TempDir(), "missing.vl"))
	if code != 2 || !strings.Contains(stderr, "reading ") {
		t.Errorf("missing file: exit %d, stderr %q", code, stderr)
	}
}

func TestRunVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "-version")
	if code != 0 || stdout != versionString+"\n" {
		t.Errorf("exit %d, got %q", code, stdout)
	}
}

func TestReplLine(t *testing.T) {
	var stdout, stderr bytes.Buffer
	ctx := &CommandContext{Config: Config{MaxErrors: 10, Color: "never"}, Stdout: &stdout, Stderr: &stderr}
	cs := ctx.newState()

	for _, line := range []string{"var a[2]", "var b[2] @ 10", "a = b", ":symbols"} {
		if replLine(ctx, cs, line) {
			t.Fatalf("%q asked to quit", line)
		}
	}
	out := stdout.String()
	if !strings.Contains(out, "store(0) = load(10)\nstore(1) = load(11)\n") {
		t.Errorf("missing lowered assignment:\n%s", out)
	}
	if !strings.Contains(out, "# b            @10     size 2") {
		t.Errorf("missing symbol listing:\n%s", out)
	}

	replLine(ctx, cs, "a = [1]")
	if !strings.Contains(stderr.String(), "inconsistent size") {
		t.Errorf("missing error report:\n%s", stderr.String())
	}
	replLine(ctx, cs, ":reset")
	stderr.Reset()
	replLine(ctx, cs, "a = b")
	if !strings.Contains(stderr.String(), "undefined variable 'a'") {
		t.Errorf("declarations survived :reset:\n%s", stderr.String())
	}
	if !replLine(ctx, cs, ":quit") {
		t.Error(":quit did not quit")
	}
}
