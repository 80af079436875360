// Completion: 100% - Error handling complete, clear and helpful messages
package diag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorLevel indicates the severity of an error
type ErrorLevel int

const (
	LevelWarning ErrorLevel = iota
	LevelError
	LevelFatal
)

func (l ErrorLevel) String() string {
	switch l {
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	case LevelFatal:
		return "fatal error"
	default:
		return "unknown"
	}
}

// ErrorCategory classifies the type of error
type ErrorCategory int

const (
	CategorySyntax ErrorCategory = iota
	CategorySemantic
	CategoryInternal
)

func (c ErrorCategory) String() string {
	switch c {
	case CategorySyntax:
		return "syntax"
	case CategorySemantic:
		return "semantic"
	case CategoryInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// ErrorKind identifies the exact condition, so callers can match on it
// without parsing messages.
type ErrorKind int

const (
	KindSyntax ErrorKind = iota
	KindSizeMismatch
	KindInvalidIndex
	KindUnknownAddress
	KindUndefinedName
	KindRedeclared
	KindOutOfBounds
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindSyntax:
		return "syntax"
	case KindSizeMismatch:
		return "size mismatch"
	case KindInvalidIndex:
		return "invalid index"
	case KindUnknownAddress:
		return "unknown address"
	case KindUndefinedName:
		return "undefined name"
	case KindRedeclared:
		return "redeclared"
	case KindOutOfBounds:
		return "out of bounds"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// SourceLocation represents a position in source code
type SourceLocation struct {
	File   string
	Line   int
	Column int
	Length int // Length of the problematic token/expression
}

func (loc SourceLocation) String() string {
	if loc.File == "" {
		return fmt.Sprintf("%d:%d", loc.Line, loc.Column)
	}
	return fmt.Sprintf("%s:%d:%d", loc.File, loc.Line, loc.Column)
}

// ErrorContext provides additional context for an error
type ErrorContext struct {
	SourceLine string // The actual line of source code
	Suggestion string // "Did you mean 'x'?"
	HelpText   string // Explanatory help text
}

// CompilerError represents a single compilation error
type CompilerError struct {
	Level    ErrorLevel
	Category ErrorCategory
	Kind     ErrorKind
	Message  string
	Location SourceLocation
	Context  ErrorContext
}

// Error implements the error interface
func (e CompilerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Location, e.Message)
}

// Is reports whether target is a CompilerError of the same kind, so that
// errors.Is(err, diag.ErrSizeMismatch) works on wrapped errors.
func (e CompilerError) Is(target error) bool {
	t, ok := target.(CompilerError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is. Only the Kind is compared.
var (
	ErrSizeMismatch   = CompilerError{Kind: KindSizeMismatch}
	ErrInvalidIndex   = CompilerError{Kind: KindInvalidIndex}
	ErrUnknownAddress = CompilerError{Kind: KindUnknownAddress}
	ErrUndefinedName  = CompilerError{Kind: KindUndefinedName}
	ErrRedeclared     = CompilerError{Kind: KindRedeclared}
	ErrSyntax         = CompilerError{Kind: KindSyntax}
	ErrOutOfBounds    = CompilerError{Kind: KindOutOfBounds}
)

// AsCompilerError unwraps err into a CompilerError if it holds one
func AsCompilerError(err error) (CompilerError, bool) {
	var ce CompilerError
	if errors.As(err, &ce) {
		return ce, true
	}
	return CompilerError{}, false
}

const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[1;31m"
	ansiBlue  = "\033[1;34m"
	ansiGreen = "\033[1;32m"
	ansiCyan  = "\033[1;36m"
	ansiAmber = "\033[1;33m"
)

// Format renders the error the way rustc does: a header naming the level
// and kind, the location, the offending source line with a caret run
// under the reported column, then the help and note lines.
func (e CompilerError) Format(useColor bool) string {
	var sb strings.Builder
	paint := func(code, text string) {
		if useColor {
			sb.WriteString(code + text + ansiReset)
			return
		}
		sb.WriteString(text)
	}

	headColor := ansiRed
	if e.Level == LevelWarning {
		headColor = ansiAmber
	}
	paint(headColor, fmt.Sprintf("%s[%s]:", e.Level, e.Kind))
	fmt.Fprintf(&sb, " %s\n", e.Message)

	paint(ansiBlue, "  --> "+e.Location.String())
	sb.WriteString("\n")

	if line := e.Context.SourceLine; line != "" {
		gutter := strconv.Itoa(e.Location.Line)
		blank := strings.Repeat(" ", len(gutter)+1) + "|"
		fmt.Fprintf(&sb, "%s\n%s | %s\n%s ", blank, gutter, line, blank)
		if e.Location.Column > 0 {
			sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			paint(headColor, strings.Repeat("^", max(e.Location.Length, 1)))
		}
		sb.WriteString("\n")
	}

	for _, extra := range []struct{ label, color, text string }{
		{"   help: ", ansiGreen, e.Context.Suggestion},
		{"   note: ", ansiCyan, e.Context.HelpText},
	} {
		if extra.text == "" {
			continue
		}
		paint(extra.color, extra.label)
		sb.WriteString(extra.text + "\n")
	}
	return sb.String()
}

// Helper functions for creating common errors

// SizeMismatchError is raised when folding the sizes of a node's children
// finds two that disagree.
func SizeMismatchError(loc SourceLocation, first, second string) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySemantic,
		Kind:     KindSizeMismatch,
		Message:  fmt.Sprintf("size mismatch between vectors: %s and %s", first, second),
		Location: loc,
	}
}

// InconsistentSizeError is raised by an assignment or a binary operator whose
// two operands have different widths.
func InconsistentSizeError(loc SourceLocation, left, right string) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySemantic,
		Kind:     KindSizeMismatch,
		Message:  fmt.Sprintf("inconsistent size! left size: %s, right size: %s", left, right),
		Location: loc,
		Context: ErrorContext{
			HelpText: "both sides of a vector operation must have the same number of elements",
		},
	}
}

// InvalidIndexError creates an error for a malformed constant index
func InvalidIndexError(message string, loc SourceLocation) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySemantic,
		Kind:     KindInvalidIndex,
		Message:  message,
		Location: loc,
	}
}

// UnknownAddressError creates an error for a memory access whose address is
// only known at run time
func UnknownAddressError(name string, loc SourceLocation) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySemantic,
		Kind:     KindUnknownAddress,
		Message:  fmt.Sprintf("address of '%s' is not known at compile time", name),
		Location: loc,
		Context: ErrorContext{
			HelpText: "vector operations need constant indexes",
		},
	}
}

// UndefinedNameError creates an error for undefined variables
func UndefinedNameError(name string, loc SourceLocation, similar []string) CompilerError {
	err := CompilerError{
		Level:    LevelError,
		Category: CategorySemantic,
		Kind:     KindUndefinedName,
		Message:  fmt.Sprintf("undefined variable '%s'", name),
		Location: loc,
		Context: ErrorContext{
			HelpText: "Variables must be declared with 'var' before use",
		},
	}
	if len(similar) > 0 {
		err.Context.Suggestion = fmt.Sprintf("did you mean '%s'?", strings.Join(similar, "', '"))
	}
	return err
}

// OutOfBoundsWarning flags a constant index that reaches past the declared
// size of name. Lowering still addresses the cells, which belong to
// whatever is declared next.
func OutOfBoundsWarning(name string, lo, hi, size int, loc SourceLocation) CompilerError {
	what := fmt.Sprintf("index [%d]", lo)
	if hi != lo {
		what = fmt.Sprintf("range [%d:%d]", lo, hi)
	}
	return CompilerError{
		Level:    LevelWarning,
		Category: CategorySemantic,
		Kind:     KindOutOfBounds,
		Message:  fmt.Sprintf("%s is out of bounds for '%s' of size %d", what, name, size),
		Location: loc,
		Context: ErrorContext{
			HelpText: fmt.Sprintf("valid indexes of '%s' are 0 to %d", name, size-1),
		},
	}
}

// RedeclaredError creates an error for a name declared twice
func RedeclaredError(name string, loc SourceLocation, previous SourceLocation) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySemantic,
		Kind:     KindRedeclared,
		Message:  fmt.Sprintf("'%s' redeclared", name),
		Location: loc,
		Context: ErrorContext{
			HelpText: fmt.Sprintf("previous declaration at %s", previous),
		},
	}
}

// SyntaxError creates a syntax error
func SyntaxError(message string, loc SourceLocation) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySyntax,
		Kind:     KindSyntax,
		Message:  message,
		Location: loc,
	}
}

// UnexpectedTokenError creates an error for unexpected tokens
func UnexpectedTokenError(expected, got string, loc SourceLocation) CompilerError {
	return CompilerError{
		Level:    LevelError,
		Category: CategorySyntax,
		Kind:     KindSyntax,
		Message:  fmt.Sprintf("expected %s, got %s", expected, got),
		Location: loc,
	}
}

// FatalError creates a fatal internal error
func FatalError(message string, loc SourceLocation) CompilerError {
	return CompilerError{
		Level:    LevelFatal,
		Category: CategoryInternal,
		Kind:     KindInternal,
		Message:  message,
		Location: loc,
		Context: ErrorContext{
			HelpText: "This is an internal compiler error. Please report this bug.",
		},
	}
}

// Internal panics with a fatal internal error. It marks conditions that
// well-formed input can never reach.
func Internal(loc SourceLocation, format string, args ...any) {
	panic(FatalError(fmt.Sprintf(format, args...), loc))
}
