// Package emitasm renders an asmir.Program as textual AT&T-syntax
// x86-64 assembly. Emission itself is outside the core lowering
// pipeline, but the driver needs real text to hand to an assembler,
// so this package exists: one pass building a string, instruction by
// instruction.
package emitasm

import (
	"fmt"
	"strings"

	"github.com/skx/subc/asmir"
	"github.com/skx/subc/cerr"
)

// Emit renders prog as a complete, assembler-ready .s file. When debug
// is set, a breakpoint trap is inserted after the prologue (int3
// before the body), to make the compiled output easy to attach a
// debugger to.
func Emit(prog *asmir.Program, debug bool) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, ".globl %s\n", prog.Function.Name)
	fmt.Fprintf(&b, "%s:\n", prog.Function.Name)
	b.WriteString("\tpushq\t%rbp\n")
	b.WriteString("\tmovq\t%rsp, %rbp\n")
	if debug {
		b.WriteString("\t# debug build\n")
		b.WriteString("\tint3\n")
	}

	for _, inst := range prog.Function.Instructions {
		line, err := emitInstruction(inst)
		if err != nil {
			return "", err
		}
		b.WriteString(line)
	}

	b.WriteString(".section .note.GNU-stack,\"\",@progbits\n")
	return b.String(), nil
}

func emitInstruction(inst asmir.Instruction) (string, error) {
	switch v := inst.(type) {

	case asmir.AllocateStack:
		return fmt.Sprintf("\tsubq\t$%d, %%rsp\n", v.Bytes), nil

	case asmir.Mov:
		return fmt.Sprintf("\tmovl\t%s, %s\n", operand(v.Src), operand(v.Dst)), nil

	case asmir.Unary:
		mnemonic, err := unaryMnemonic(v.Op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("\t%s\t%s\n", mnemonic, operand(v.Dst)), nil

	case asmir.BinaryOp:
		mnemonic, err := binaryMnemonic(v.Op)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("\t%s\t%s, %s\n", mnemonic, operand(v.Src), operand(v.Dst)), nil

	case asmir.Idiv:
		return fmt.Sprintf("\tidivl\t%s\n", operand(v.Operand)), nil

	case asmir.Cdq:
		return "\tcdq\n", nil

	case asmir.Compare:
		return fmt.Sprintf("\tcmpl\t%s, %s\n", operand(v.A), operand(v.B)), nil

	case asmir.SetCC:
		return fmt.Sprintf("\tset%s\t%s\n", strings.ToLower(v.Code.String()), byteOperand(v.Dst)), nil

	case asmir.Jump:
		return fmt.Sprintf("\tjmp\t%s\n", v.Target), nil

	case asmir.JumpIf:
		return fmt.Sprintf("\tj%s\t%s\n", strings.ToLower(v.Code.String()), v.Target), nil

	case asmir.Label:
		return fmt.Sprintf("%s:\n", v.Name), nil

	case asmir.Ret:
		return "\tmovq\t%rbp, %rsp\n\tpopq\t%rbp\n\tret\n", nil

	default:
		return "", &cerr.UnsupportedConstructError{Kind: fmt.Sprintf("%T", inst)}
	}
}

func unaryMnemonic(op asmir.UnaryOpKind) (string, error) {
	switch op {
	case asmir.Negation:
		return "negl", nil
	case asmir.Complement:
		return "notl", nil
	default:
		return "", &cerr.UnsupportedConstructError{Kind: "asmir.UnaryOpKind"}
	}
}

func binaryMnemonic(op asmir.BinaryOpKind) (string, error) {
	switch op {
	case asmir.Add:
		return "addl", nil
	case asmir.Subtract:
		return "subl", nil
	case asmir.Multiply:
		return "imull", nil
	case asmir.BitwiseAnd:
		return "andl", nil
	case asmir.BitwiseOr:
		return "orl", nil
	case asmir.BitwiseXor:
		return "xorl", nil
	case asmir.LShift:
		return "sall", nil
	case asmir.RShift:
		return "sarl", nil
	default:
		return "", &cerr.UnsupportedConstructError{Kind: "asmir.BinaryOpKind"}
	}
}

func operand(op asmir.Operand) string {
	switch v := op.(type) {
	case asmir.Immediate:
		return fmt.Sprintf("$%d", v.Value)
	case asmir.RegisterOperand:
		return register32(v.Reg)
	case asmir.Stack:
		return fmt.Sprintf("%d(%%rbp)", v.Offset)
	case asmir.PseudoRegister:
		// Unreachable after pass B; kept only so a debug dump
		// taken before fix-up still prints something readable.
		return "%" + v.Name
	default:
		return "?"
	}
}

// byteOperand renders the 8-bit form of a register destination for
// SetCC, which only ever writes a single byte.
func byteOperand(op asmir.Operand) string {
	if reg, ok := op.(asmir.RegisterOperand); ok {
		return registerByte(reg.Reg)
	}
	return operand(op)
}

func register32(r asmir.Register) string {
	switch r {
	case asmir.AX:
		return "%eax"
	case asmir.DX:
		return "%edx"
	case asmir.R10:
		return "%r10d"
	case asmir.R11:
		return "%r11d"
	default:
		return "?"
	}
}

func registerByte(r asmir.Register) string {
	switch r {
	case asmir.AX:
		return "%al"
	case asmir.DX:
		return "%dl"
	case asmir.R10:
		return "%r10b"
	case asmir.R11:
		return "%r11b"
	default:
		return "?"
	}
}
