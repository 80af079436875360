// Completion: 100% - All node variants implemented
package tree

import (
	"github.com/xyproto/vlower/internal/diag"
)

// Node is an element of the program tree. The set of variants is closed:
// only the types in this package implement it.
type Node interface {
	Location() diag.SourceLocation
	// Children returns the owned children in order. The slice must not be
	// modified directly; use ReplaceChild.
	Children() []Node
	Kind() string
	String() string
	base() *nodeBase
}

type nodeBase struct {
	loc      diag.SourceLocation
	children []Node
	released bool
}

func (b *nodeBase) Location() diag.SourceLocation { return b.loc }
func (b *nodeBase) Children() []Node              { return b.children }
func (b *nodeBase) base() *nodeBase               { return b }

// Block is a sequential statement group
type Block struct {
	nodeBase
}

// Assignment is target := value, vector or scalar
type Assignment struct {
	nodeBase
}

// BinaryArithmetic is an elementwise binary operation over equal-width operands
type BinaryArithmetic struct {
	nodeBase
	Op BinaryOp
}

// UnaryArithmetic is an elementwise unary operation
type UnaryArithmetic struct {
	nodeBase
	Op UnaryOp
}

// StaticVector is a compile-time constant vector
type StaticVector struct {
	nodeBase
	Values []int
}

// MemoryVector references a named memory location, optionally indexed or
// sliced by its single child.
type MemoryVector struct {
	nodeBase
	Name      string
	Base      int // address of the first cell, from the symbol table
	ArraySize int // declared number of cells
	write     bool
}

// Immediate is a scalar literal
type Immediate struct {
	nodeBase
	Value int
}

// Load is a scalar read
type Load struct {
	nodeBase
	Addr int
}

// Store is a scalar write
type Store struct {
	nodeBase
	Addr int
}

func (*Block) Kind() string            { return "Block" }
func (*Assignment) Kind() string       { return "Assignment" }
func (*BinaryArithmetic) Kind() string { return "BinaryArithmetic" }
func (*UnaryArithmetic) Kind() string  { return "UnaryArithmetic" }
func (*StaticVector) Kind() string     { return "StaticVector" }
func (*MemoryVector) Kind() string     { return "MemoryVector" }
func (*Immediate) Kind() string        { return "Immediate" }
func (*Load) Kind() string             { return "Load" }
func (*Store) Kind() string            { return "Store" }

// Constructors

func NewBlock(loc diag.SourceLocation, stmts ...Node) *Block {
	b := &Block{nodeBase{loc: loc}}
	for _, s := range stmts {
		b.Add(s)
	}
	return b
}

// Add appends a statement, taking ownership of it
func (b *Block) Add(stmt Node) {
	mustLive(b)
	if stmt == nil {
		diag.Internal(b.loc, "nil statement added to block")
	}
	b.children = append(b.children, stmt)
}

// Len returns the number of statements in the block
func (b *Block) Len() int {
	return len(b.children)
}

func NewAssignment(loc diag.SourceLocation, target, value Node) *Assignment {
	return &Assignment{nodeBase{loc: loc, children: []Node{target, value}}}
}

func (a *Assignment) Target() Node { return a.children[0] }
func (a *Assignment) Value() Node  { return a.children[1] }

func NewBinary(loc diag.SourceLocation, op BinaryOp, left, right Node) *BinaryArithmetic {
	return &BinaryArithmetic{nodeBase: nodeBase{loc: loc, children: []Node{left, right}}, Op: op}
}

func (b *BinaryArithmetic) Left() Node  { return b.children[0] }
func (b *BinaryArithmetic) Right() Node { return b.children[1] }

func NewUnary(loc diag.SourceLocation, op UnaryOp, operand Node) *UnaryArithmetic {
	return &UnaryArithmetic{nodeBase: nodeBase{loc: loc, children: []Node{operand}}, Op: op}
}

func (u *UnaryArithmetic) Operand() Node { return u.children[0] }

func NewStaticVector(loc diag.SourceLocation, values ...int) *StaticVector {
	return &StaticVector{nodeBase: nodeBase{loc: loc}, Values: values}
}

// NewMemoryVector creates a reference to name, located at base and holding
// size cells. index may be nil for a whole-array access.
func NewMemoryVector(loc diag.SourceLocation, name string, base, size int, index Node) *MemoryVector {
	mv := &MemoryVector{nodeBase: nodeBase{loc: loc}, Name: name, Base: base, ArraySize: size}
	if index != nil {
		mv.children = []Node{index}
	}
	return mv
}

// Index returns the index expression, or nil for a whole-array access
func (m *MemoryVector) Index() Node {
	if len(m.children) == 0 {
		return nil
	}
	return m.children[0]
}

// SetWrite marks the reference as the destination of a store
func (m *MemoryVector) SetWrite(write bool) { m.write = write }

// IsWrite reports whether the reference is lowered to stores
func (m *MemoryVector) IsWrite() bool { return m.write }

func NewImmediate(loc diag.SourceLocation, value int) *Immediate {
	return &Immediate{nodeBase: nodeBase{loc: loc}, Value: value}
}

func NewLoad(loc diag.SourceLocation, addr int) *Load {
	return &Load{nodeBase: nodeBase{loc: loc}, Addr: addr}
}

func NewStore(loc diag.SourceLocation, addr int) *Store {
	return &Store{nodeBase: nodeBase{loc: loc}, Addr: addr}
}

// ReplaceChild installs child at position i of parent and returns the
// previous child, whose ownership passes to the caller.
func ReplaceChild(parent Node, i int, child Node) Node {
	mustLive(parent)
	b := parent.base()
	if i < 0 || i >= len(b.children) {
		diag.Internal(b.loc, "child index %d out of range for %s with %d children", i, parent.Kind(), len(b.children))
	}
	old := b.children[i]
	b.children[i] = child
	return old
}

// Release consumes n: its subtree is detached and every node in it is
// marked released. Any later query or lowering of a released node panics.
func Release(n Node) {
	if n == nil {
		return
	}
	b := n.base()
	for _, c := range b.children {
		Release(c)
	}
	b.children = nil
	b.released = true
}

// Released reports whether n has been consumed
func Released(n Node) bool {
	return n.base().released
}

func mustLive(n Node) {
	if n == nil {
		diag.Internal(diag.SourceLocation{}, "nil node")
	}
	if b := n.base(); b.released {
		diag.Internal(b.loc, "use of %s after it was consumed by lowering", n.Kind())
	}
}

// MustLive panics with an internal error if n was released
func MustLive(n Node) {
	mustLive(n)
}

// Walk calls fn for n and every node below it in pre-order. Returning false
// from fn skips the children of that node.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range n.Children() {
		Walk(c, fn)
	}
}
