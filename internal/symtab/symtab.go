// Completion: 100% - Symbol table complete
package symtab

import (
	"sort"

	"github.com/xyproto/vlower/internal/diag"
)

// Symbol is a named memory location in the VM's flat memory
type Symbol struct {
	Name     string
	Addr     int
	Size     int
	Location diag.SourceLocation // where it was declared
}

// End returns the first address past the symbol
func (s *Symbol) End() int {
	return s.Addr + s.Size
}

// Table maps names to memory locations. Cells are handed out from a bump
// pointer unless a declaration gives an explicit address.
type Table struct {
	symbols map[string]*Symbol
	next    int
	base    int
}

// New creates a table that allocates from base upwards
func New(base int) *Table {
	return &Table{
		symbols: make(map[string]*Symbol),
		next:    base,
		base:    base,
	}
}

// Declare allocates size cells for name
func (t *Table) Declare(name string, size int, loc diag.SourceLocation) (*Symbol, error) {
	return t.declare(name, t.next, size, loc, true)
}

// DeclareAt places name at a fixed address. The bump pointer only moves
// forward, past the new symbol if it ends beyond it.
func (t *Table) DeclareAt(name string, addr, size int, loc diag.SourceLocation) (*Symbol, error) {
	return t.declare(name, addr, size, loc, false)
}

func (t *Table) declare(name string, addr, size int, loc diag.SourceLocation, bump bool) (*Symbol, error) {
	if prev, exists := t.symbols[name]; exists {
		return nil, diag.RedeclaredError(name, loc, prev.Location)
	}
	if size <= 0 {
		return nil, diag.InvalidIndexError("array size must be at least 1", loc)
	}
	if addr < 0 {
		return nil, diag.InvalidIndexError("address must not be negative", loc)
	}
	sym := &Symbol{Name: name, Addr: addr, Size: size, Location: loc}
	t.symbols[name] = sym
	if bump || sym.End() > t.next {
		t.next = sym.End()
	}
	return sym, nil
}

// Lookup finds name, suggesting similar declared names when it is missing
func (t *Table) Lookup(name string, loc diag.SourceLocation) (*Symbol, error) {
	if sym, ok := t.symbols[name]; ok {
		return sym, nil
	}
	return nil, diag.UndefinedNameError(name, loc, similarNames(name, t.symbols, 3))
}

// Len returns the number of declared symbols
func (t *Table) Len() int {
	return len(t.symbols)
}

// Entries returns every symbol ordered by address, then name
func (t *Table) Entries() []*Symbol {
	entries := make([]*Symbol, 0, len(t.symbols))
	for _, sym := range t.symbols {
		entries = append(entries, sym)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Addr == entries[j].Addr {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Addr < entries[j].Addr
	})
	return entries
}

// Reset forgets every symbol and restarts allocation at the base address
func (t *Table) Reset() {
	t.symbols = make(map[string]*Symbol)
	t.next = t.base
}
