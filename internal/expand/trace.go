package expand

import (
	"fmt"
	"strings"

	"github.com/xyproto/vlower/internal/tree"
)

// tracef writes one line for a finished lowering step. The format is a
// debugging aid and may change.
func (e *Expander) tracef(in tree.Node, lane int, out tree.Node) {
	if e.trace == nil {
		return
	}
	indent := strings.Repeat("  ", max(e.depth, 0))
	result := strings.ReplaceAll(out.String(), "\n", "; ")
	fmt.Fprintf(e.trace, "%s%s lane=%d -> %s\n", indent, in.Kind(), lane, result)
}
