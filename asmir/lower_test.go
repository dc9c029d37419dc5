package asmir

import (
	"testing"

	"github.com/skx/subc/lexer"
	"github.com/skx/subc/parser"
	"github.com/skx/subc/tacky"
	"github.com/skx/subc/token"
)

func mustLowerToAsm(t *testing.T, input string) *Function {
	t.Helper()
	l := lexer.New(input)
	var toks []token.Token
	for {
		tok := l.NextToken()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			break
		}
	}
	prog, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	tacProg, err := tacky.ConvertToTACKY(prog)
	if err != nil {
		t.Fatalf("tacky error: %v", err)
	}
	asmProg, err := ConvertToAssembly(tacProg)
	if err != nil {
		t.Fatalf("asmir error: %v", err)
	}
	return asmProg.Function
}

// TestReturnConstant confirms a bare constant lowers to the expected
// allocate/move/return instruction sequence.
func TestReturnConstant(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return 2; }")

	want := []Instruction{
		AllocateStack{Bytes: 0},
		Mov{Src: Immediate{Value: 2}, Dst: RegisterOperand{Reg: AX}},
		Ret{},
	}
	assertInstructionsEqual(t, fn.Instructions, want)
}

// TestUnaryChainSpillsBothTemps confirms two chained unary operators
// spill both temporaries to the stack, for a final frame size of 16.
func TestUnaryChainSpillsBothTemps(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return -(~1); }")

	alloc, ok := fn.Instructions[0].(AllocateStack)
	if !ok {
		t.Fatalf("expected AllocateStack first, got %#v", fn.Instructions[0])
	}
	if alloc.Bytes != 16 {
		t.Errorf("expected frame size 16, got %d", alloc.Bytes)
	}
	for _, inst := range fn.Instructions {
		assertNoPseudoregister(t, inst)
	}
}

// TestDivideByImmediateFixup confirms Idiv's operand can never be an
// Immediate after fix-up.
func TestDivideByImmediateFixup(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return 7/2; }")

	found := false
	for _, inst := range fn.Instructions {
		if idiv, ok := inst.(Idiv); ok {
			found = true
			if _, isImm := idiv.Operand.(Immediate); isImm {
				t.Errorf("Idiv still has an Immediate operand after fix-up")
			}
		}
	}
	if !found {
		t.Fatalf("expected an Idiv instruction")
	}
}

// TestComparisonOperandOrder confirms "s1 < s2" is emitted as
// Compare(s2, s1), not Compare(s1, s2), matching AT&T cmpl operand
// order.
func TestComparisonOperandOrder(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return 1<2; }")

	for _, inst := range fn.Instructions {
		if cmp, ok := inst.(Compare); ok {
			a, aok := cmp.A.(Immediate)
			b, bok := cmp.B.(Immediate)
			if aok && bok {
				if a.Value != 2 || b.Value != 1 {
					t.Errorf("expected Compare(2, 1) i.e. Compare(s2, s1), got Compare(%d, %d)", a.Value, b.Value)
				}
				return
			}
		}
	}
	t.Fatalf("expected a Compare instruction with two immediates")
}

// TestNoPseudoregistersAfterReplacement confirms every PseudoRegister
// has been replaced by a Stack operand once lowering completes.
func TestNoPseudoregistersAfterReplacement(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return (1+2) * (3-4) / (5%6) & 7 | 8 ^ 9; }")
	for _, inst := range fn.Instructions {
		assertNoPseudoregister(t, inst)
	}
}

// TestLegalityAfterFixup confirms the fix-up pass leaves no
// instruction in an illegal x86-64 shape: no two-memory-operand Mov or
// ALU op, no immediate Idiv operand, and no memory destination for
// Multiply.
func TestLegalityAfterFixup(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return (1+2) * (3-4) / (5%6) & 7 | 8 ^ 9 << 1 >> 1; }")

	for _, inst := range fn.Instructions {
		switch v := inst.(type) {
		case Mov:
			if isMemory(v.Src) && isMemory(v.Dst) {
				t.Errorf("Mov has two Stack operands: %#v", v)
			}
		case Idiv:
			if _, ok := v.Operand.(Immediate); ok {
				t.Errorf("Idiv has an Immediate operand: %#v", v)
			}
		case BinaryOp:
			if v.Op == Multiply && isMemory(v.Dst) {
				t.Errorf("Multiply has a Stack destination: %#v", v)
			}
			if isMemory(v.Src) && isMemory(v.Dst) {
				t.Errorf("two-operand ALU op has two Stack operands: %#v", v)
			}
		}
	}
}

// TestFrameAlignment confirms AllocateStack's byte count is always a
// multiple of 16 and covers the largest offset used.
func TestFrameAlignment(t *testing.T) {
	fn := mustLowerToAsm(t, "int main(void) { return (1+2) * (3-4) / (5%6); }")
	alloc, ok := fn.Instructions[0].(AllocateStack)
	if !ok {
		t.Fatalf("expected AllocateStack first, got %#v", fn.Instructions[0])
	}
	if alloc.Bytes%16 != 0 {
		t.Errorf("frame size %d is not 16-byte aligned", alloc.Bytes)
	}
	if alloc.Bytes < -fn.Offsets.MinOffset {
		t.Errorf("frame size %d smaller than |min_offset| %d", alloc.Bytes, -fn.Offsets.MinOffset)
	}
}

func assertNoPseudoregister(t *testing.T, inst Instruction) {
	t.Helper()
	check := func(op Operand) {
		if _, ok := op.(PseudoRegister); ok {
			t.Errorf("found PseudoRegister operand after pass B: %#v in %#v", op, inst)
		}
	}
	switch v := inst.(type) {
	case Mov:
		check(v.Src)
		check(v.Dst)
	case Unary:
		check(v.Dst)
	case BinaryOp:
		check(v.Src)
		check(v.Dst)
	case Idiv:
		check(v.Operand)
	case Compare:
		check(v.A)
		check(v.B)
	case SetCC:
		check(v.Dst)
	}
}

func assertInstructionsEqual(t *testing.T, got, want []Instruction) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d: %#v", len(want), len(got), got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("instruction %d: expected %#v, got %#v", i, want[i], got[i])
		}
	}
}
