// Completion: 100% - Vector lowering complete for every node variant
package expand

import (
	"io"

	"github.com/xyproto/vlower/internal/diag"
	"github.com/xyproto/vlower/internal/tree"
)

// Expander rewrites vector-level trees into scalar-level trees.
//
// Lowering consumes its input. The replacement is built from the untouched
// input first and the input is released only once the build succeeded, so
// a failed call leaves the caller's subtree as it was.
type Expander struct {
	trace io.Writer
	depth int
}

// Option configures an Expander
type Option func(*Expander)

// WithTrace sends a line per lowering step to w. A nil writer disables
// tracing.
func WithTrace(w io.Writer) Option {
	return func(e *Expander) {
		e.trace = w
	}
}

// New creates an Expander
func New(opts ...Option) *Expander {
	e := &Expander{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Lower lowers n at the given lane with a one-off Expander
func Lower(n tree.Node, lane int, opts ...Option) (tree.Node, error) {
	return New(opts...).Lower(n, lane)
}

// Lower consumes n and returns its scalar-level replacement for lane.
// A Block is lowered in place: the same block is returned with every
// statement replaced.
func (e *Expander) Lower(n tree.Node, lane int) (tree.Node, error) {
	tree.MustLive(n)
	if b, ok := n.(*tree.Block); ok {
		return e.lowerBlockInPlace(b, lane)
	}
	out, err := e.build(n, lane)
	if err != nil {
		return nil, err
	}
	tree.Release(n)
	return out, nil
}

func (e *Expander) lowerBlockInPlace(b *tree.Block, lane int) (tree.Node, error) {
	children := b.Children()
	replacements := make([]tree.Node, len(children))
	for i, child := range children {
		out, err := e.build(child, lane)
		if err != nil {
			return nil, err
		}
		replacements[i] = out
	}
	for i, out := range replacements {
		tree.Release(tree.ReplaceChild(b, i, out))
	}
	e.tracef(b, lane, b)
	return b, nil
}

// build returns a fresh scalar-level tree for n at lane. It never modifies
// n, apart from the write mode of an assignment target, which is restored
// before returning.
func (e *Expander) build(n tree.Node, lane int) (out tree.Node, err error) {
	tree.MustLive(n)
	e.depth++
	defer func() {
		e.depth--
		if err == nil && out != nil {
			e.tracef(n, lane, out)
		}
	}()

	switch v := n.(type) {
	case *tree.Block:
		return e.buildBlock(v, lane)
	case *tree.Assignment:
		return e.buildAssignment(v)
	case *tree.BinaryArithmetic:
		return e.buildBinary(v, lane)
	case *tree.UnaryArithmetic:
		operand, err := e.build(v.Operand(), lane)
		if err != nil {
			return nil, err
		}
		return tree.NewUnary(v.Location(), v.Op, operand), nil
	case *tree.StaticVector:
		if lane < 0 || lane >= len(v.Values) {
			diag.Internal(v.Location(), "lane %d out of range for vector literal of size %d", lane, len(v.Values))
		}
		return tree.NewImmediate(v.Location(), v.Values[lane]), nil
	case *tree.MemoryVector:
		return e.buildMemoryAccess(v, lane)
	case *tree.Immediate:
		return tree.NewImmediate(v.Location(), v.Value), nil
	case *tree.Load:
		return tree.NewLoad(v.Location(), v.Addr), nil
	case *tree.Store:
		return tree.NewStore(v.Location(), v.Addr), nil
	}
	diag.Internal(n.Location(), "cannot lower node %T", n)
	return nil, nil
}

func (e *Expander) buildBlock(b *tree.Block, lane int) (tree.Node, error) {
	out := tree.NewBlock(b.Location())
	for _, stmt := range b.Children() {
		lowered, err := e.build(stmt, lane)
		if err != nil {
			return nil, err
		}
		out.Add(lowered)
	}
	return out, nil
}

// sameSize checks that left and right have the same width and returns it
func sameSize(at tree.Node, left, right tree.Node) (tree.Opt, error) {
	lSize, err := tree.MemorySize(left)
	if err != nil {
		return tree.Unknown, err
	}
	rSize, err := tree.MemorySize(right)
	if err != nil {
		return tree.Unknown, err
	}
	if !lSize.Equal(rSize) {
		return tree.Unknown, diag.InconsistentSizeError(at.Location(), lSize.String(), rSize.String())
	}
	return lSize, nil
}

func (e *Expander) buildAssignment(a *tree.Assignment) (tree.Node, error) {
	target, value := a.Target(), a.Value()
	size, err := sameSize(a, target, value)
	if err != nil {
		return nil, err
	}
	width, ok := size.Get()
	if !ok {
		diag.Internal(a.Location(), "assignment width is not known")
	}

	dest, ok := target.(*tree.MemoryVector)
	if !ok {
		diag.Internal(a.Location(), "assignment target is a %s, not a memory reference", target.Kind())
	}
	wasWrite := dest.IsWrite()
	dest.SetWrite(true)
	defer dest.SetWrite(wasWrite)

	block := tree.NewBlock(a.Location())
	for i := 0; i < width; i++ {
		t, err := e.build(dest, i)
		if err != nil {
			return nil, err
		}
		v, err := e.build(value, i)
		if err != nil {
			return nil, err
		}
		block.Add(tree.NewAssignment(a.Location(), t, v))
	}
	return block, nil
}

func (e *Expander) buildBinary(b *tree.BinaryArithmetic, lane int) (tree.Node, error) {
	if _, err := sameSize(b, b.Left(), b.Right()); err != nil {
		return nil, err
	}
	left, err := e.build(b.Left(), lane)
	if err != nil {
		return nil, err
	}
	right, err := e.build(b.Right(), lane)
	if err != nil {
		return nil, err
	}
	return tree.NewBinary(b.Location(), b.Op, left, right), nil
}

func (e *Expander) buildMemoryAccess(m *tree.MemoryVector, lane int) (tree.Node, error) {
	size, err := tree.MemorySize(m)
	if err != nil {
		return nil, err
	}
	if width, _ := size.Get(); lane < 0 || lane >= width {
		diag.Internal(m.Location(), "lane %d out of range for '%s' of size %s", lane, m.Name, size)
	}
	base, ok := tree.MemoryAddr(m).Get()
	if !ok {
		return nil, diag.UnknownAddressError(m.Name, m.Location())
	}
	if m.IsWrite() {
		return tree.NewStore(m.Location(), base+lane), nil
	}
	return tree.NewLoad(m.Location(), base+lane), nil
}

// LowerProgram lowers every statement of prog on its own, so that one bad
// statement does not hide errors in the others. Failing statements are
// reported to errs and left out of the result. prog is consumed.
func (e *Expander) LowerProgram(prog *tree.Block, errs *diag.ErrorCollector) *tree.Block {
	tree.MustLive(prog)
	out := tree.NewBlock(prog.Location())
	for _, stmt := range prog.Children() {
		if errs.ShouldStop() {
			break
		}
		lowered, err := e.build(stmt, 0)
		if err != nil {
			errs.Add(err)
			continue
		}
		mustBeScalar(lowered)
		out.Add(lowered)
	}
	tree.Release(prog)
	return out
}

// mustBeScalar panics if a vector node is left anywhere under n
func mustBeScalar(n tree.Node) {
	tree.Walk(n, func(c tree.Node) bool {
		switch c.(type) {
		case *tree.MemoryVector, *tree.StaticVector:
			diag.Internal(c.Location(), "%s left in lowered output", c.Kind())
		}
		return true
	})
}
