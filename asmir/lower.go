// Package asmir implements the pseudo-x86-64 assembly intermediate
// representation and the three-pass TAC-to-assembly lowering: emit,
// pseudoregister replacement, and legalisation fix-up.
package asmir

import (
	"fmt"

	"github.com/skx/subc/ast"
	"github.com/skx/subc/cerr"
	"github.com/skx/subc/tacky"
)

// Function is a flat, legalised list of assembly instructions for one
// leaf function, plus the offset map used to build it.
type Function struct {
	Name         string
	Instructions []Instruction
	Offsets      *OffsetAllocator
}

// Program wraps the single function this language supports.
type Program struct {
	Function *Function
}

var aluOps = map[ast.BinaryOpKind]BinaryOpKind{
	ast.Add:        Add,
	ast.Subtract:   Subtract,
	ast.Multiply:   Multiply,
	ast.BitwiseAnd: BitwiseAnd,
	ast.BitwiseOr:  BitwiseOr,
	ast.BitwiseXor: BitwiseXor,
	ast.LShift:     LShift,
	ast.RShift:     RShift,
}

var cmpCodes = map[ast.BinaryOpKind]ConditionCode{
	ast.Equal:          E,
	ast.NotEqual:       NE,
	ast.LessThan:       L,
	ast.LessOrEqual:    LE,
	ast.GreaterThan:    G,
	ast.GreaterOrEqual: GE,
}

// ConvertToAssembly runs all three lowering passes over a TAC program.
func ConvertToAssembly(prog *tacky.Program) (*Program, error) {
	fn, err := emitFunction(prog.Function)
	if err != nil {
		return nil, err
	}

	offsets := NewOffsetAllocator()
	replacePseudoregisters(fn, offsets)
	fn.Offsets = offsets

	fixup(fn)

	return &Program{Function: fn}, nil
}

// --- Pass A: emit -----------------------------------------------------

func emitFunction(tacFn *tacky.Function) (*Function, error) {
	fn := &Function{Name: tacFn.Name}
	for _, inst := range tacFn.Instructions {
		if err := emitInstruction(fn, inst); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

func valueToOperand(v tacky.Value) Operand {
	switch val := v.(type) {
	case tacky.Constant:
		return Immediate{Value: val.Value}
	case tacky.Variable:
		return PseudoRegister{Name: val.Name}
	default:
		return nil
	}
}

func emit1(fn *Function, inst Instruction) {
	fn.Instructions = append(fn.Instructions, inst)
}

func emitInstruction(fn *Function, inst tacky.Instruction) error {
	switch v := inst.(type) {

	case tacky.Return:
		emit1(fn, Mov{Src: valueToOperand(v.Value), Dst: RegisterOperand{Reg: AX}})
		emit1(fn, Ret{})

	case tacky.UnaryOp:
		src := valueToOperand(v.Src)
		dst := PseudoRegister{Name: v.Dst.Name}
		switch v.Op {
		case ast.Complement:
			emit1(fn, Mov{Src: src, Dst: dst})
			emit1(fn, Unary{Op: Complement, Dst: dst})
		case ast.Negation:
			emit1(fn, Mov{Src: src, Dst: dst})
			emit1(fn, Unary{Op: Negation, Dst: dst})
		case ast.Not:
			emit1(fn, Compare{A: Immediate{Value: 0}, B: src})
			emit1(fn, Mov{Src: Immediate{Value: 0}, Dst: dst})
			emit1(fn, SetCC{Code: E, Dst: dst})
		default:
			return &cerr.UnsupportedConstructError{Kind: fmt.Sprintf("tacky.UnaryOp(%v)", v.Op)}
		}

	case tacky.BinaryOp:
		s1 := valueToOperand(v.Src1)
		s2 := valueToOperand(v.Src2)
		dst := PseudoRegister{Name: v.Dst.Name}

		switch v.Op {
		case ast.Divide:
			emit1(fn, Mov{Src: s1, Dst: RegisterOperand{Reg: AX}})
			emit1(fn, Cdq{})
			emit1(fn, Idiv{Operand: s2})
			emit1(fn, Mov{Src: RegisterOperand{Reg: AX}, Dst: dst})
		case ast.Remainder:
			emit1(fn, Mov{Src: s1, Dst: RegisterOperand{Reg: AX}})
			emit1(fn, Cdq{})
			emit1(fn, Idiv{Operand: s2})
			emit1(fn, Mov{Src: RegisterOperand{Reg: DX}, Dst: dst})
		default:
			if op, ok := aluOps[v.Op]; ok {
				emit1(fn, Mov{Src: s1, Dst: dst})
				emit1(fn, BinaryOp{Op: op, Src: s2, Dst: dst})
			} else if cc, ok := cmpCodes[v.Op]; ok {
				// AT&T cmpl reads right-to-left, so comparing s1
				// against s2 ("is s1 < s2") emits Compare{A: s2, B: s1}.
				emit1(fn, Compare{A: s2, B: s1})
				emit1(fn, Mov{Src: Immediate{Value: 0}, Dst: dst})
				emit1(fn, SetCC{Code: cc, Dst: dst})
			} else {
				return &cerr.UnsupportedConstructError{Kind: fmt.Sprintf("tacky.BinaryOp(%v)", v.Op)}
			}
		}

	case tacky.Copy:
		emit1(fn, Mov{Src: valueToOperand(v.Src), Dst: PseudoRegister{Name: v.Dst.Name}})

	case tacky.Jump:
		emit1(fn, Jump{Target: v.Target})

	case tacky.JumpIfZero:
		emit1(fn, Compare{A: Immediate{Value: 0}, B: valueToOperand(v.Condition)})
		emit1(fn, JumpIf{Code: E, Target: v.Target})

	case tacky.JumpIfNotZero:
		emit1(fn, Compare{A: Immediate{Value: 0}, B: valueToOperand(v.Condition)})
		emit1(fn, JumpIf{Code: NE, Target: v.Target})

	case tacky.Label:
		emit1(fn, Label{Name: v.Name})

	default:
		return &cerr.UnsupportedConstructError{Kind: fmt.Sprintf("%T", inst)}
	}
	return nil
}

// --- Pass B: pseudoregister replacement --------------------------------

// stackify replaces a PseudoRegister with its Stack slot, allocating
// one on first encounter. Every other operand kind passes through.
func stackify(op Operand, offsets *OffsetAllocator) Operand {
	pr, ok := op.(PseudoRegister)
	if !ok {
		return op
	}
	return Stack{Offset: offsets.GetOrAllocate(pr.Name)}
}

// replacePseudoregisters rewrites every operand position that may
// hold a PseudoRegister: Mov's two operands, Unary's operand,
// BinaryOp's two operands, Idiv's operand, Compare's two operands and
// SetCC's destination. Register and immediate operands pass through.
func replacePseudoregisters(fn *Function, offsets *OffsetAllocator) {
	for i, inst := range fn.Instructions {
		switch v := inst.(type) {
		case Mov:
			fn.Instructions[i] = Mov{Src: stackify(v.Src, offsets), Dst: stackify(v.Dst, offsets)}
		case Unary:
			if _, ok := v.Dst.(PseudoRegister); ok {
				fn.Instructions[i] = Unary{Op: v.Op, Dst: stackify(v.Dst, offsets)}
			}
		case BinaryOp:
			fn.Instructions[i] = BinaryOp{Op: v.Op, Src: stackify(v.Src, offsets), Dst: stackify(v.Dst, offsets)}
		case Idiv:
			if _, ok := v.Operand.(PseudoRegister); ok {
				fn.Instructions[i] = Idiv{Operand: stackify(v.Operand, offsets)}
			}
		case Compare:
			fn.Instructions[i] = Compare{A: stackify(v.A, offsets), B: stackify(v.B, offsets)}
		case SetCC:
			fn.Instructions[i] = SetCC{Code: v.Code, Dst: stackify(v.Dst, offsets)}
		}
	}
}

// --- Pass C: legalisation fix-up ---------------------------------------

func alignUp16(n int) int {
	return ((n + 15) / 16) * 16
}

// fixup prepends AllocateStack(frame_size) and rewrites instructions
// whose operand combination is illegal on x86-64, using R10 as a load
// scratch and R11 for imul's destination scratch. Only Mov, Idiv and
// BinaryOp are rewritten; Compare passes through unchanged whatever
// its operands.
func fixup(fn *Function) {
	frameSize := alignUp16(-fn.Offsets.MinOffset)

	var out []Instruction
	out = append(out, AllocateStack{Bytes: frameSize})

	for _, inst := range fn.Instructions {
		switch v := inst.(type) {

		case Mov:
			if isMemory(v.Src) && isMemory(v.Dst) {
				out = append(out,
					Mov{Src: v.Src, Dst: RegisterOperand{Reg: R10}},
					Mov{Src: RegisterOperand{Reg: R10}, Dst: v.Dst},
				)
			} else {
				out = append(out, v)
			}

		case Idiv:
			if _, ok := v.Operand.(Immediate); ok {
				out = append(out,
					Mov{Src: v.Operand, Dst: RegisterOperand{Reg: R10}},
					Idiv{Operand: RegisterOperand{Reg: R10}},
				)
			} else {
				out = append(out, v)
			}

		case BinaryOp:
			if v.Op == Multiply && isMemory(v.Dst) {
				out = append(out, Mov{Src: v.Dst, Dst: RegisterOperand{Reg: R11}})
				src := v.Src
				if isMemory(src) {
					out = append(out, Mov{Src: src, Dst: RegisterOperand{Reg: R10}})
					src = RegisterOperand{Reg: R10}
				}
				out = append(out,
					BinaryOp{Op: Multiply, Src: src, Dst: RegisterOperand{Reg: R11}},
					Mov{Src: RegisterOperand{Reg: R11}, Dst: v.Dst},
				)
			} else if isMemory(v.Src) && isMemory(v.Dst) {
				out = append(out,
					Mov{Src: v.Src, Dst: RegisterOperand{Reg: R10}},
					BinaryOp{Op: v.Op, Src: RegisterOperand{Reg: R10}, Dst: v.Dst},
				)
			} else {
				out = append(out, v)
			}

		default:
			out = append(out, v)
		}
	}

	fn.Instructions = out
}
