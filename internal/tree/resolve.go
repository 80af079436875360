package tree

import (
	"fmt"

	"github.com/xyproto/vlower/internal/diag"
)

// resolve.go - compile-time vector width and address inference
//
// Both queries are read-only: they never modify the tree, so they can be
// asked repeatedly while the tree is being lowered.

// MemorySize returns the number of scalar cells n denotes.
//
// Leaves define their own width. Any node with children has the common width
// of its children, and children of different widths are a size mismatch
// attributed to n.
func MemorySize(n Node) (Opt, error) {
	mustLive(n)
	switch v := n.(type) {
	case *StaticVector:
		return Known(len(v.Values)), nil
	case *Immediate, *Load, *Store:
		return Known(1), nil
	case *MemoryVector:
		return memoryVectorSize(v)
	case *Block, *Assignment, *BinaryArithmetic, *UnaryArithmetic:
		return foldChildSizes(n)
	}
	diag.Internal(n.Location(), "memory size of unexpected node %T", n)
	return Unknown, nil
}

func foldChildSizes(n Node) (Opt, error) {
	size := Unknown
	for _, child := range n.Children() {
		childSize, err := MemorySize(child)
		if err != nil {
			return Unknown, err
		}
		if !size.IsKnown() {
			size = childSize
		} else if !size.Equal(childSize) {
			return Unknown, diag.SizeMismatchError(n.Location(), size.String(), childSize.String())
		}
	}
	return size, nil
}

// constantIndex returns the immediate index values of m. ok is false when
// the index is an expression only known at run time.
func constantIndex(m *MemoryVector) (values []int, ok bool) {
	switch idx := m.Index().(type) {
	case nil:
		return nil, true
	case *StaticVector:
		return idx.Values, true
	case *Immediate:
		return []int{idx.Value}, true
	default:
		return nil, false
	}
}

func memoryVectorSize(m *MemoryVector) (Opt, error) {
	if len(m.children) > 1 {
		diag.Internal(m.loc, "memory reference '%s' has %d index children", m.Name, len(m.children))
	}
	if m.Index() == nil {
		// full array access
		return Known(m.ArraySize), nil
	}
	values, ok := constantIndex(m)
	if !ok {
		// random access, one cell
		return Known(1), nil
	}
	switch len(values) {
	case 1:
		return Known(1), nil
	case 2:
		lo, hi := values[0], values[1]
		if hi < lo {
			return Unknown, diag.InvalidIndexError(
				fmt.Sprintf("range [%d:%d] of '%s' ends before it starts", lo, hi, m.Name), m.loc)
		}
		return Known(hi - lo + 1), nil
	default:
		return Unknown, diag.InvalidIndexError(
			fmt.Sprintf("index of '%s' must have one or two values, got %d", m.Name, len(values)), m.loc)
	}
}

// MemoryAddr returns the first scalar address n denotes, when it is known
// at compile time.
func MemoryAddr(n Node) Opt {
	mustLive(n)
	switch v := n.(type) {
	case *MemoryVector:
		values, ok := constantIndex(v)
		if !ok {
			return Unknown
		}
		if v.Index() == nil {
			return Known(v.Base)
		}
		if len(values) == 0 {
			return Unknown
		}
		return Known(v.Base + values[0])
	case *Load:
		return Known(v.Addr)
	case *Store:
		return Known(v.Addr)
	}
	if children := n.Children(); len(children) > 0 {
		return MemoryAddr(children[0])
	}
	return Unknown
}
