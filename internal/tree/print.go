package tree

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

func (b *Block) String() string {
	var out strings.Builder
	for i, stmt := range b.children {
		if i > 0 {
			out.WriteString("\n")
		}
		out.WriteString(stmt.String())
	}
	return out.String()
}

func (a *Assignment) String() string {
	if len(a.children) != 2 {
		return "<released assignment>"
	}
	return a.children[0].String() + " = " + a.children[1].String()
}

func (b *BinaryArithmetic) String() string {
	if len(b.children) != 2 {
		return "<released " + b.Op.String() + ">"
	}
	return "(" + b.children[0].String() + " " + b.Op.String() + " " + b.children[1].String() + ")"
}

func (u *UnaryArithmetic) String() string {
	if len(u.children) != 1 {
		return "<released " + u.Op.String() + ">"
	}
	if u.Op == OpAbs || u.Op == OpNot {
		return u.Op.String() + " " + u.children[0].String()
	}
	return u.Op.String() + u.children[0].String()
}

func (s *StaticVector) String() string {
	parts := make([]string, len(s.Values))
	for i, v := range s.Values {
		parts[i] = strconv.Itoa(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (m *MemoryVector) String() string {
	name := m.Name
	if name == "" {
		name = fmt.Sprintf("mem@%d", m.Base)
	}
	idx := m.Index()
	if idx == nil {
		return name
	}
	if sv, ok := idx.(*StaticVector); ok && len(sv.Values) == 2 {
		return fmt.Sprintf("%s[%d:%d]", name, sv.Values[0], sv.Values[1])
	}
	if sv, ok := idx.(*StaticVector); ok && len(sv.Values) == 1 {
		return fmt.Sprintf("%s[%d]", name, sv.Values[0])
	}
	return name + "[" + idx.String() + "]"
}

func (i *Immediate) String() string { return strconv.Itoa(i.Value) }
func (l *Load) String() string      { return fmt.Sprintf("load(%d)", l.Addr) }
func (s *Store) String() string     { return fmt.Sprintf("store(%d)", s.Addr) }

// Dump writes an indented, one-node-per-line rendering of n to w
func Dump(w io.Writer, n Node) error {
	return dump(w, n, 0)
}

func dump(w io.Writer, n Node, depth int) error {
	indent := strings.Repeat("  ", depth)
	var line string
	switch v := n.(type) {
	case *Block:
		line = fmt.Sprintf("Block (%d)", len(v.children))
	case *Assignment:
		line = "Assignment"
	case *BinaryArithmetic:
		line = "BinaryArithmetic " + v.Op.String()
	case *UnaryArithmetic:
		line = "UnaryArithmetic " + v.Op.String()
	case *StaticVector:
		line = "StaticVector " + v.String()
	case *MemoryVector:
		mode := "read"
		if v.write {
			mode = "write"
		}
		line = fmt.Sprintf("MemoryVector %s @%d size %d %s", v.Name, v.Base, v.ArraySize, mode)
	case *Immediate:
		line = "Immediate " + v.String()
	case *Load:
		line = fmt.Sprintf("Load %d", v.Addr)
	case *Store:
		line = fmt.Sprintf("Store %d", v.Addr)
	}
	if n.base().released {
		line += " (released)"
	}
	if _, err := fmt.Fprintf(w, "%s%s\n", indent, line); err != nil {
		return err
	}
	for _, c := range n.Children() {
		if err := dump(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}
