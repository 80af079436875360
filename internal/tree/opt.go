package tree

import "strconv"

// Opt is a size or address that may not be known at this compile stage.
// The zero value is Unknown.
type Opt struct {
	n     int
	known bool
}

// Unknown is the "not determinable here" value
var Unknown = Opt{}

// Known wraps a concrete size or address
func Known(n int) Opt {
	return Opt{n: n, known: true}
}

// Get returns the value and whether it is known
func (o Opt) Get() (int, bool) {
	return o.n, o.known
}

func (o Opt) IsKnown() bool {
	return o.known
}

// Equal reports whether both values are unknown, or both known and equal
func (o Opt) Equal(other Opt) bool {
	if o.known != other.known {
		return false
	}
	return !o.known || o.n == other.n
}

// Add shifts a known value by delta; Unknown stays Unknown
func (o Opt) Add(delta int) Opt {
	if !o.known {
		return Unknown
	}
	return Known(o.n + delta)
}

func (o Opt) String() string {
	if !o.known {
		return "?"
	}
	return strconv.Itoa(o.n)
}
