package diag

import (
	"fmt"
	"strings"
)

// ErrorCollector gathers the diagnostics of one compile run in the order
// they were reported. The error limit counts errors only; warnings never
// stop a run.
type ErrorCollector struct {
	diags     []CompilerError
	nErrors   int
	maxErrors int
	lines     []string // source, for the context line of each report
}

// NewErrorCollector creates a collector that stops after maxErrors errors
func NewErrorCollector(maxErrors int) *ErrorCollector {
	if maxErrors <= 0 {
		maxErrors = 10
	}
	return &ErrorCollector{maxErrors: maxErrors}
}

// SetSourceCode keeps the source so reports can quote the offending line
func (ec *ErrorCollector) SetSourceCode(source string) {
	ec.lines = nil
	if source != "" {
		ec.lines = strings.Split(source, "\n")
	}
}

func (ec *ErrorCollector) sourceLine(n int) string {
	if n <= 0 || n > len(ec.lines) {
		return ""
	}
	return strings.TrimRight(ec.lines[n-1], "\r")
}

// AddError records err as an error or a warning, according to its level
func (ec *ErrorCollector) AddError(err CompilerError) {
	if err.Context.SourceLine == "" {
		err.Context.SourceLine = ec.sourceLine(err.Location.Line)
	}
	if err.Level != LevelWarning {
		ec.nErrors++
	}
	ec.diags = append(ec.diags, err)
}

// AddWarning records warn as a warning whatever level it was built with
func (ec *ErrorCollector) AddWarning(warn CompilerError) {
	warn.Level = LevelWarning
	ec.AddError(warn)
}

// Add records err, converting plain errors into a generic error entry.
func (ec *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}
	if ce, ok := AsCompilerError(err); ok {
		ec.AddError(ce)
		return
	}
	ec.AddError(CompilerError{
		Level:    LevelError,
		Category: CategoryInternal,
		Kind:     KindInternal,
		Message:  err.Error(),
	})
}

func (ec *ErrorCollector) HasErrors() bool {
	return ec.nErrors > 0
}

// Errors returns the recorded errors, without warnings, in report order
func (ec *ErrorCollector) Errors() []CompilerError {
	return ec.filter(func(d CompilerError) bool { return d.Level != LevelWarning })
}

// Warnings returns the recorded warnings in report order
func (ec *ErrorCollector) Warnings() []CompilerError {
	return ec.filter(func(d CompilerError) bool { return d.Level == LevelWarning })
}

func (ec *ErrorCollector) filter(keep func(CompilerError) bool) []CompilerError {
	var out []CompilerError
	for _, d := range ec.diags {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func (ec *ErrorCollector) ErrorCount() int {
	return ec.nErrors
}

func (ec *ErrorCollector) WarningCount() int {
	return len(ec.diags) - ec.nErrors
}

// ShouldStop returns true once the error limit is reached
func (ec *ErrorCollector) ShouldStop() bool {
	return ec.nErrors >= ec.maxErrors
}

// Report formats every diagnostic in the order it was reported, followed
// by a one-line tally. It is empty when nothing was reported.
func (ec *ErrorCollector) Report(useColor bool) string {
	if len(ec.diags) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range ec.diags {
		sb.WriteString(d.Format(useColor))
		sb.WriteString("\n")
	}

	var tally []string
	if n := ec.ErrorCount(); n > 0 {
		tally = append(tally, fmt.Sprintf("%d error(s)", n))
	}
	if n := ec.WarningCount(); n > 0 {
		tally = append(tally, fmt.Sprintf("%d warning(s)", n))
	}
	summary := strings.Join(tally, ", ") + " found"
	if useColor {
		color := ansiRed
		if !ec.HasErrors() {
			color = ansiAmber
		}
		summary = color + summary + ansiReset
	}
	sb.WriteString(summary + "\n")
	return sb.String()
}

// Clear drops every diagnostic; the source is kept
func (ec *ErrorCollector) Clear() {
	ec.diags = nil
	ec.nErrors = 0
}
