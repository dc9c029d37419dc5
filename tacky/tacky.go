// Package tacky implements the three-address-code intermediate
// representation and the AST-to-TAC lowering pass, including the
// short-circuit lowering of && and || into conditional jumps.
package tacky

import (
	"fmt"
	"strings"

	"github.com/skx/subc/ast"
	"github.com/skx/subc/cerr"
)

// Value is implemented by Constant and Variable.
type Value interface {
	valueNode()
}

// Constant is a literal integer value.
type Constant struct {
	Value int
}

// Variable names a TAC-level temporary. Names are unique within a
// Context; no two instructions mint the same destination name.
type Variable struct {
	Name string
}

func (Constant) valueNode() {}
func (Variable) valueNode() {}

func valueString(v Value) string {
	switch val := v.(type) {
	case Constant:
		return fmt.Sprintf("%d", val.Value)
	case Variable:
		return val.Name
	default:
		return "?"
	}
}

// Instruction is implemented by every TAC instruction kind.
type Instruction interface {
	instructionNode()
}

// Return returns Value from the function.
type Return struct {
	Value Value
}

// UnaryOp applies a unary operator, writing the result to Dst.
type UnaryOp struct {
	Op  ast.UnaryOpKind
	Src Value
	Dst Variable
}

// BinaryOp applies a binary operator. Op never holds LogicalAnd or
// LogicalOr: those are lowered away by ConvertToTACKY before any
// BinaryOp instruction is emitted.
type BinaryOp struct {
	Op   ast.BinaryOpKind
	Src1 Value
	Src2 Value
	Dst  Variable
}

// Copy assigns Src to Dst without computation.
type Copy struct {
	Src Value
	Dst Variable
}

// Jump transfers control unconditionally to Target.
type Jump struct {
	Target string
}

// JumpIfZero transfers control to Target when Condition is zero.
type JumpIfZero struct {
	Condition Value
	Target    string
}

// JumpIfNotZero transfers control to Target when Condition is non-zero.
type JumpIfNotZero struct {
	Condition Value
	Target    string
}

// Label marks a jump target. Unique within a function.
type Label struct {
	Name string
}

func (Return) instructionNode()        {}
func (UnaryOp) instructionNode()       {}
func (BinaryOp) instructionNode()      {}
func (Copy) instructionNode()          {}
func (Jump) instructionNode()          {}
func (JumpIfZero) instructionNode()    {}
func (JumpIfNotZero) instructionNode() {}
func (Label) instructionNode()         {}

// Function is a flat list of instructions for one leaf function.
type Function struct {
	Name         string
	Instructions []Instruction
}

// Program wraps the single function this language supports.
type Program struct {
	Function *Function
}

// String renders a Function as readable three-address pseudo-code,
// e.g. "tmp_0 = 2 * 3" / "goto sc_end0" / "ifz tmp_0 -> sc_end0".
//
// This has no effect on compilation; it exists so -dump-tacky can
// show something a human can read instead of a Go struct dump.
func (f *Function) String() string {
	var b strings.Builder
	for _, inst := range f.Instructions {
		switch v := inst.(type) {
		case Label:
			fmt.Fprintf(&b, "%s:\n", v.Name)
		case Copy:
			fmt.Fprintf(&b, "%s = %s\n", v.Dst.Name, valueString(v.Src))
		case Jump:
			fmt.Fprintf(&b, "goto %s\n", v.Target)
		case JumpIfZero:
			fmt.Fprintf(&b, "ifz %s -> %s\n", valueString(v.Condition), v.Target)
		case JumpIfNotZero:
			fmt.Fprintf(&b, "ifnz %s -> %s\n", valueString(v.Condition), v.Target)
		case UnaryOp:
			fmt.Fprintf(&b, "%s = %s%s\n", v.Dst.Name, v.Op.String(), valueString(v.Src))
		case BinaryOp:
			fmt.Fprintf(&b, "%s = %s %s %s\n", v.Dst.Name, valueString(v.Src1), v.Op.String(), valueString(v.Src2))
		case Return:
			fmt.Fprintf(&b, "return %s\n", valueString(v.Value))
		}
	}
	return b.String()
}

// Context owns the monotonic temp/label counters for one compilation.
// Counters live on a per-compilation Context rather than a pair of
// package-level globals, so concurrent compilations of distinct
// programs never share mutable state.
type Context struct {
	tempCounter  int
	labelCounter int
}

// NewContext returns a fresh, zeroed lowering context.
func NewContext() *Context {
	return &Context{}
}

// newTemp mints a process-unique (within this Context) temporary name.
func (c *Context) newTemp() Variable {
	name := fmt.Sprintf("tmp_%d", c.tempCounter)
	c.tempCounter++
	return Variable{Name: name}
}

// newLabel mints a unique label name with the given prefix.
func (c *Context) newLabel(prefix string) string {
	name := fmt.Sprintf("%s%d", prefix, c.labelCounter)
	c.labelCounter++
	return name
}

// ConvertToTACKY lowers a parsed program into three-address code.
func ConvertToTACKY(prog *ast.Program) (*Program, error) {
	ctx := NewContext()
	fn, err := convertFunction(ctx, prog.Function)
	if err != nil {
		return nil, err
	}
	return &Program{Function: fn}, nil
}

func convertFunction(ctx *Context, fn *ast.Function) (*Function, error) {
	var instructions []Instruction
	result, err := emit(ctx, fn.Body.Value, &instructions)
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, Return{Value: result})
	return &Function{Name: fn.Name, Instructions: instructions}, nil
}

// emit is emit_TACKY: it appends instructions computing expr and
// returns the Value holding the result.
func emit(ctx *Context, expr ast.Expression, instructions *[]Instruction) (Value, error) {
	switch e := expr.(type) {

	case *ast.Constant:
		return Constant{Value: e.Value}, nil

	case *ast.UnaryOp:
		src, err := emit(ctx, e.Operand, instructions)
		if err != nil {
			return nil, err
		}
		dst := ctx.newTemp()
		*instructions = append(*instructions, UnaryOp{Op: e.Op, Src: src, Dst: dst})
		return dst, nil

	case *ast.BinaryOp:
		switch e.Op {
		case ast.LogicalAnd:
			return emitLogicalAnd(ctx, e, instructions)
		case ast.LogicalOr:
			return emitLogicalOr(ctx, e, instructions)
		default:
			v1, err := emit(ctx, e.Left, instructions)
			if err != nil {
				return nil, err
			}
			v2, err := emit(ctx, e.Right, instructions)
			if err != nil {
				return nil, err
			}
			dst := ctx.newTemp()
			*instructions = append(*instructions, BinaryOp{Op: e.Op, Src1: v1, Src2: v2, Dst: dst})
			return dst, nil
		}

	default:
		return nil, &cerr.UnsupportedConstructError{Kind: fmt.Sprintf("%T", expr)}
	}
}

// emitLogicalAnd lowers "e1 && e2":
//
//	dst = 0
//	v1 = emit(e1); ifz v1 -> end
//	v2 = emit(e2); ifz v2 -> end
//	dst = 1
//	end:
func emitLogicalAnd(ctx *Context, e *ast.BinaryOp, instructions *[]Instruction) (Value, error) {
	dst := ctx.newTemp()
	end := ctx.newLabel("sc_end")

	*instructions = append(*instructions, Copy{Src: Constant{Value: 0}, Dst: dst})

	v1, err := emit(ctx, e.Left, instructions)
	if err != nil {
		return nil, err
	}
	*instructions = append(*instructions, JumpIfZero{Condition: v1, Target: end})

	v2, err := emit(ctx, e.Right, instructions)
	if err != nil {
		return nil, err
	}
	*instructions = append(*instructions, JumpIfZero{Condition: v2, Target: end})

	*instructions = append(*instructions,
		Copy{Src: Constant{Value: 1}, Dst: dst},
		Label{Name: end},
	)
	return dst, nil
}

// emitLogicalOr lowers "e1 || e2":
//
//	dst = 0
//	v1 = emit(e1); ifnz v1 -> set_true
//	v2 = emit(e2); ifnz v2 -> set_true
//	goto end
//	set_true: dst = 1
//	end:
func emitLogicalOr(ctx *Context, e *ast.BinaryOp, instructions *[]Instruction) (Value, error) {
	dst := ctx.newTemp()
	end := ctx.newLabel("sc_end")

	*instructions = append(*instructions, Copy{Src: Constant{Value: 0}, Dst: dst})

	v1, err := emit(ctx, e.Left, instructions)
	if err != nil {
		return nil, err
	}
	setTrue := ctx.newLabel("sc_true")
	*instructions = append(*instructions, JumpIfNotZero{Condition: v1, Target: setTrue})

	v2, err := emit(ctx, e.Right, instructions)
	if err != nil {
		return nil, err
	}
	*instructions = append(*instructions, JumpIfNotZero{Condition: v2, Target: setTrue})

	*instructions = append(*instructions,
		Jump{Target: end},
		Label{Name: setTrue},
		Copy{Src: Constant{Value: 1}, Dst: dst},
		Label{Name: end},
	)
	return dst, nil
}
