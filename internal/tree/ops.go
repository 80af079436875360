package tree

import "fmt"

// BinaryOp is an elementwise binary operator
type BinaryOp int

const (
	OpShiftLeft BinaryOp = iota
	OpShiftRight
	OpAdd
	OpSub
	OpMult
	OpDiv
	OpMod
	OpBitOr
	OpBitXor
	OpBitAnd
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpOr
	OpAnd
)

var binaryOpNames = [...]string{
	OpShiftLeft:    "<<",
	OpShiftRight:   ">>",
	OpAdd:          "+",
	OpSub:          "-",
	OpMult:         "*",
	OpDiv:          "/",
	OpMod:          "%",
	OpBitOr:        "|",
	OpBitXor:       "^",
	OpBitAnd:       "&",
	OpEqual:        "==",
	OpNotEqual:     "!=",
	OpGreater:      ">",
	OpGreaterEqual: ">=",
	OpLess:         "<",
	OpLessEqual:    "<=",
	OpOr:           "or",
	OpAnd:          "and",
}

func (op BinaryOp) String() string {
	if op < 0 || int(op) >= len(binaryOpNames) {
		return fmt.Sprintf("BinaryOp(%d)", int(op))
	}
	return binaryOpNames[op]
}

// UnaryOp is an elementwise unary operator
type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpAbs
	OpBitNot
	OpNot
)

func (op UnaryOp) String() string {
	switch op {
	case OpNeg:
		return "-"
	case OpAbs:
		return "abs"
	case OpBitNot:
		return "~"
	case OpNot:
		return "not"
	default:
		return fmt.Sprintf("UnaryOp(%d)", int(op))
	}
}
