package expand

import (
	"errors"
	"strings"
	"testing"

	"github.com/xyproto/vlower/internal/diag"
	"github.com/xyproto/vlower/internal/tree"
)

var here = diag.SourceLocation{File: "test.vl", Line: 3, Column: 5}

func mem(name string, base, size int) *tree.MemoryVector {
	return tree.NewMemoryVector(here, name, base, size, nil)
}

func memAt(name string, base, size int, index ...int) *tree.MemoryVector {
	return tree.NewMemoryVector(here, name, base, size, tree.NewStaticVector(here, index...))
}

// expectInternalPanic runs fn and fails unless it panics with a fatal
// internal compiler error
func expectInternalPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		ce, ok := r.(diag.CompilerError)
		if !ok || ce.Level != diag.LevelFatal || ce.Category != diag.CategoryInternal {
			t.Errorf("expected internal error panic, got %v", r)
		}
	}()
	fn()
}

func TestLowerFullArrayAssignment(t *testing.T) {
	assign := tree.NewAssignment(here, mem("A", 10, 3), mem("B", 20, 3))

	out, err := Lower(assign, 0)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	block, ok := out.(*tree.Block)
	if !ok {
		t.Fatalf("Lower returned %T, want *tree.Block", out)
	}
	want := []string{"store(10) = load(20)", "store(11) = load(21)", "store(12) = load(22)"}
	if block.Len() != len(want) {
		t.Fatalf("block has %d statements, want %d", block.Len(), len(want))
	}
	for i, stmt := range block.Children() {
		a, ok := stmt.(*tree.Assignment)
		if !ok {
			t.Fatalf("statement %d is %T, want *tree.Assignment", i, stmt)
		}
		if _, ok := a.Target().(*tree.Store); !ok {
			t.Errorf("statement %d target is %T, want *tree.Store", i, a.Target())
		}
		if _, ok := a.Value().(*tree.Load); !ok {
			t.Errorf("statement %d value is %T, want *tree.Load", i, a.Value())
		}
		if a.String() != want[i] {
			t.Errorf("statement %d = %q, want %q", i, a.String(), want[i])
		}
	}
	if !tree.Released(assign) {
		t.Error("original assignment was not consumed")
	}
}

func TestLowerAssignmentCardinality(t *testing.T) {
	for _, n := range []int{1, 2, 5, 16} {
		assign := tree.NewAssignment(here, mem("a", 0, n), mem("b", 100, n))
		out, err := Lower(assign, 0)
		if err != nil {
			t.Fatalf("size %d: %v", n, err)
		}
		block := out.(*tree.Block)
		if block.Len() != n {
			t.Errorf("size %d: got %d assignments", n, block.Len())
		}
		for i, stmt := range block.Children() {
			a := stmt.(*tree.Assignment)
			if a.Target().(*tree.Store).Addr != i || a.Value().(*tree.Load).Addr != 100+i {
				t.Errorf("size %d lane %d: got %s", n, i, a)
			}
		}
	}
}

func TestLowerSlicesAndLiterals(t *testing.T) {
	tests := []struct {
		name  string
		build func() tree.Node
		want  string
	}{
		{
			name: "range to range",
			build: func() tree.Node {
				return tree.NewAssignment(here, memAt("a", 10, 8, 2, 3), memAt("b", 30, 8, 5, 6))
			},
			want: "store(12) = load(35)\nstore(13) = load(36)",
		},
		{
			name: "literal to array",
			build: func() tree.Node {
				return tree.NewAssignment(here, mem("a", 0, 3), tree.NewStaticVector(here, 5, 6, 7))
			},
			want: "store(0) = 5\nstore(1) = 6\nstore(2) = 7",
		},
		{
			name: "single element",
			build: func() tree.Node {
				return tree.NewAssignment(here, memAt("a", 10, 4, 3), memAt("b", 20, 4, 0))
			},
			want: "store(13) = load(20)",
		},
		{
			name: "arithmetic",
			build: func() tree.Node {
				return tree.NewAssignment(here, mem("c", 0, 2),
					tree.NewBinary(here, tree.OpAdd, mem("a", 10, 2),
						tree.NewUnary(here, tree.OpNeg, tree.NewStaticVector(here, 1, 2))))
			},
			want: "store(0) = (load(10) + -1)\nstore(1) = (load(11) + -2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Lower(tt.build(), 0)
			if err != nil {
				t.Fatalf("Lower failed: %v", err)
			}
			if out.String() != tt.want {
				t.Errorf("got\n%s\nwant\n%s", out, tt.want)
			}
		})
	}
}

func TestLowerStaticVectorLane(t *testing.T) {
	out, err := Lower(tree.NewStaticVector(here, 5, 6, 7), 1)
	if err != nil {
		t.Fatal(err)
	}
	imm, ok := out.(*tree.Immediate)
	if !ok || imm.Value != 6 {
		t.Errorf("got %T %v, want Immediate 6", out, out)
	}
}

func TestLowerBinaryAtLane(t *testing.T) {
	sum := tree.NewBinary(here, tree.OpAdd, mem("A", 10, 3), mem("B", 20, 3))
	out, err := Lower(sum, 1)
	if err != nil {
		t.Fatal(err)
	}
	bin, ok := out.(*tree.BinaryArithmetic)
	if !ok {
		t.Fatalf("got %T, want *tree.BinaryArithmetic", out)
	}
	if bin.Op != tree.OpAdd {
		t.Errorf("op = %s, want +", bin.Op)
	}
	left, lok := bin.Left().(*tree.Load)
	right, rok := bin.Right().(*tree.Load)
	if !lok || !rok || left.Addr != 11 || right.Addr != 21 {
		t.Errorf("got %s, want (load(11) + load(21))", bin)
	}
}

func TestLowerUnaryAtLane(t *testing.T) {
	out, err := Lower(tree.NewUnary(here, tree.OpBitNot, mem("a", 4, 2)), 1)
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "~load(5)" {
		t.Errorf("got %s, want ~load(5)", out)
	}
}

func TestLowerRejectsMismatchedSizes(t *testing.T) {
	tests := []struct {
		name string
		node tree.Node
	}{
		{"assignment", tree.NewAssignment(here, mem("a", 0, 3), mem("b", 10, 2))},
		{"binary", tree.NewBinary(here, tree.OpMult, mem("a", 0, 3), tree.NewStaticVector(here, 1, 2))},
		{"nested binary", tree.NewAssignment(here, mem("a", 0, 2),
			tree.NewBinary(here, tree.OpSub, mem("b", 10, 2), mem("c", 20, 3)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := tt.node.String()
			out, err := Lower(tt.node, 0)
			if !errors.Is(err, diag.ErrSizeMismatch) {
				t.Fatalf("expected size mismatch, got %v", err)
			}
			if out != nil {
				t.Errorf("got replacement %v on error", out)
			}
			if tree.Released(tt.node) {
				t.Error("input was consumed although lowering failed")
			}
			if tt.node.String() != before {
				t.Errorf("input changed from %q to %q", before, tt.node.String())
			}
			ce, _ := diag.AsCompilerError(err)
			if ce.Location != here {
				t.Errorf("location = %v, want %v", ce.Location, here)
			}
		})
	}
}

func TestMismatchMessageHasSizes(t *testing.T) {
	_, err := Lower(tree.NewAssignment(here, mem("a", 0, 3), mem("b", 10, 2)), 0)
	if err == nil || !strings.Contains(err.Error(), "3") || !strings.Contains(err.Error(), "2") {
		t.Errorf("error %q does not mention both sizes", err)
	}
	if !strings.HasPrefix(err.Error(), "test.vl:3:5:") {
		t.Errorf("error %q does not start with the location", err)
	}
}

func TestLowerBlockInPlace(t *testing.T) {
	block := tree.NewBlock(here,
		tree.NewAssignment(here, mem("a", 0, 2), tree.NewStaticVector(here, 1, 2)),
		tree.NewAssignment(here, memAt("b", 10, 3, 1), tree.NewStaticVector(here, 9)))
	first := block.Children()[0]

	out, err := Lower(block, 0)
	if err != nil {
		t.Fatal(err)
	}
	if out != tree.Node(block) {
		t.Fatal("block lowering must return the same block")
	}
	if !tree.Released(first) {
		t.Error("replaced statement was not consumed")
	}
	want := "store(0) = 1\nstore(1) = 2\nstore(11) = 9"
	if block.String() != want {
		t.Errorf("got\n%s\nwant\n%s", block, want)
	}
}

func TestLowerBlockIsAtomic(t *testing.T) {
	good := tree.NewAssignment(here, mem("a", 0, 2), tree.NewStaticVector(here, 1, 2))
	bad := tree.NewAssignment(here, mem("b", 10, 3), tree.NewStaticVector(here, 1, 2))
	block := tree.NewBlock(here, good, bad)

	if _, err := Lower(block, 0); err == nil {
		t.Fatal("expected an error")
	}
	if block.Children()[0] != tree.Node(good) || tree.Released(good) {
		t.Error("first statement was replaced although the block failed")
	}
}

func TestWriteModeIsScopedToTarget(t *testing.T) {
	target := mem("a", 0, 2)
	value := mem("b", 10, 2)
	out, err := Lower(tree.NewAssignment(here, target, value), 0)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range out.Children() {
		a := stmt.(*tree.Assignment)
		if _, ok := a.Value().(*tree.Load); !ok {
			t.Errorf("value side lowered to %T, want *tree.Load", a.Value())
		}
	}
	if value.IsWrite() {
		t.Error("value side was marked write")
	}
}

func TestDynamicIndexIsRejected(t *testing.T) {
	dyn := tree.NewMemoryVector(here, "a", 0, 4, tree.NewMemoryVector(here, "i", 9, 1, nil))
	_, err := Lower(tree.NewAssignment(here, dyn, tree.NewStaticVector(here, 1)), 0)
	if !errors.Is(err, diag.ErrUnknownAddress) {
		t.Errorf("expected unknown address error, got %v", err)
	}
}

func TestScalarLeavesPassThrough(t *testing.T) {
	out, err := Lower(tree.NewAssignment(here, mem("x", 7, 1), tree.NewImmediate(here, 42)), 0)
	if err != nil {
		t.Fatal(err)
	}
	if out.String() != "store(7) = 42" {
		t.Errorf("got %s", out)
	}
}

func TestLaneOutOfRangeIsInternal(t *testing.T) {
	expectInternalPanic(t, func() {
		_, _ = Lower(tree.NewStaticVector(here, 1, 2), 2)
	})
	expectInternalPanic(t, func() {
		_, _ = Lower(mem("a", 0, 3), 3)
	})
}

func TestNonMemoryTargetIsInternal(t *testing.T) {
	expectInternalPanic(t, func() {
		_, _ = Lower(tree.NewAssignment(here, tree.NewStaticVector(here, 1), tree.NewStaticVector(here, 2)), 0)
	})
}

func TestLowerConsumedNodeIsInternal(t *testing.T) {
	n := mem("a", 0, 3)
	if _, err := Lower(n, 0); err != nil {
		t.Fatal(err)
	}
	expectInternalPanic(t, func() {
		_, _ = Lower(n, 1)
	})
}

func TestTraceDoesNotChangeResult(t *testing.T) {
	build := func() tree.Node {
		return tree.NewAssignment(here, mem("c", 0, 3),
			tree.NewBinary(here, tree.OpAdd, mem("a", 10, 3), tree.NewStaticVector(here, 1, 2, 3)))
	}
	plain, err := Lower(build(), 0)
	if err != nil {
		t.Fatal(err)
	}
	var trace strings.Builder
	traced, err := Lower(build(), 0, WithTrace(&trace))
	if err != nil {
		t.Fatal(err)
	}
	if plain.String() != traced.String() {
		t.Errorf("trace changed the result:\n%s\nvs\n%s", plain, traced)
	}
	log := trace.String()
	if !strings.Contains(log, "StaticVector lane=2 -> 3") {
		t.Errorf("trace lacks literal step:\n%s", log)
	}
	if !strings.Contains(log, "  MemoryVector lane=1 -> load(11)") {
		t.Errorf("trace lacks indented load step:\n%s", log)
	}
	lines := strings.Split(strings.TrimSpace(log), "\n")
	if last := lines[len(lines)-1]; !strings.HasPrefix(last, "Assignment lane=0 -> ") {
		t.Errorf("last trace line = %q, want the assignment", last)
	}
}

func TestLowerProgramCollectsErrors(t *testing.T) {
	prog := tree.NewBlock(here,
		tree.NewAssignment(here, mem("a", 0, 2), mem("b", 10, 3)),
		tree.NewAssignment(here, mem("a", 0, 2), mem("b", 10, 2)),
		tree.NewAssignment(here, mem("c", 20, 1), mem("b", 10, 2)))
	errs := diag.NewErrorCollector(10)

	out := New().LowerProgram(prog, errs)

	if errs.ErrorCount() != 2 {
		t.Fatalf("got %d errors, want 2", errs.ErrorCount())
	}
	if out.Len() != 1 {
		t.Fatalf("got %d lowered statements, want 1", out.Len())
	}
	if out.String() != "store(0) = load(10)\nstore(1) = load(11)" {
		t.Errorf("got\n%s", out)
	}
	if !tree.Released(prog) {
		t.Error("program was not consumed")
	}
}

func TestLowerProgramStopsAtErrorLimit(t *testing.T) {
	prog := tree.NewBlock(here)
	for i := 0; i < 5; i++ {
		prog.Add(tree.NewAssignment(here, mem("a", 0, 2), mem("b", 10, 3)))
	}
	errs := diag.NewErrorCollector(2)
	New().LowerProgram(prog, errs)
	if errs.ErrorCount() != 2 {
		t.Errorf("got %d errors, want 2", errs.ErrorCount())
	}
}

func TestLowerProgramOutputIsScalar(t *testing.T) {
	prog := tree.NewBlock(here,
		tree.NewAssignment(here, memAt("a", 0, 4, 1, 3),
			tree.NewBinary(here, tree.OpMult, memAt("b", 10, 4, 0, 2), tree.NewStaticVector(here, 2, 3, 4))),
		tree.NewAssignment(here, memAt("c", 20, 2, 1),
			tree.NewUnary(here, tree.OpNeg, tree.NewImmediate(here, 7))))
	errs := diag.NewErrorCollector(10)

	out := New().LowerProgram(prog, errs)
	if errs.HasErrors() {
		t.Fatal(errs.Report(false))
	}

	counts := map[string]int{}
	tree.Walk(out, func(n tree.Node) bool {
		counts[n.Kind()]++
		return true
	})
	if counts["MemoryVector"] != 0 || counts["StaticVector"] != 0 {
		t.Errorf("vector nodes left in output: %v", counts)
	}
	if counts["Store"] != 4 || counts["Load"] != 3 || counts["Immediate"] != 4 {
		t.Errorf("node counts = %v, want 4 stores, 3 loads, 4 immediates", counts)
	}
}

func TestVectorLeftInOutputIsInternal(t *testing.T) {
	for _, leftover := range []tree.Node{mem("a", 0, 1), tree.NewStaticVector(here, 1)} {
		stmt := tree.NewAssignment(here, tree.NewStore(here, 0), leftover)
		expectInternalPanic(t, func() { mustBeScalar(tree.NewBlock(here, stmt)) })
	}
	mustBeScalar(tree.NewBlock(here, tree.NewAssignment(here, tree.NewStore(here, 0), tree.NewLoad(here, 1))))
}
