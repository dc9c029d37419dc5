// The compiler-package contains the core of our compiler.
//
// In brief we go through a five-step process:
//
//  1.  Use the lexer to tokenize the program.
//
//  2.  Parse the tokens into an AST.
//
//  3.  Lower the AST to three-address code (TACKY), resolving
//      short-circuit && and || into explicit jumps.
//
//  4.  Lower TACKY to pseudo-x86-64 assembly, in three passes: emit,
//      pseudoregister replacement, and legalisation fix-up.
//
//  5.  Render the assembly IR as text.
//
// This is a small, deliberately limited compiler: one function, one
// "return" statement, no variables.  That said, each stage is real
// and independently testable.
package compiler

import (
	"github.com/pkg/errors"

	"github.com/skx/subc/asmir"
	"github.com/skx/subc/ast"
	"github.com/skx/subc/emitasm"
	"github.com/skx/subc/lexer"
	"github.com/skx/subc/parser"
	"github.com/skx/subc/tacky"
	"github.com/skx/subc/token"
)

// Compiler holds our object-state.
type Compiler struct {

	// debug holds a flag to decide if debugging "stuff" is generated
	// in the output assembly.
	debug bool

	// source holds the program text we're compiling.
	source string

	// tokens holds the program, broken down into a series of tokens.
	//
	// The tokens are received from the lexer, and are not modified.
	tokens []token.Token

	// ast holds the parsed program, once Compile has reached that stage.
	ast *ast.Program

	// tacky holds the lowered three-address-code program.
	tacky *tacky.Program

	// asm holds the lowered pseudo-assembly program.
	asm *asmir.Program
}

//
// Our public API consists of the five functions:
//  New
//  SetDebug
//  Compile
//  AST
//  TACKY
//
// The rest of the code is an implementation detail.
//

// New creates a new compiler, given the program source in the constructor.
func New(source string) *Compiler {
	return &Compiler{source: source}
}

// SetDebug changes the debug-flag for our output.
func (c *Compiler) SetDebug(val bool) {
	c.debug = val
}

// AST returns the parsed program, available once Compile has run far
// enough to produce it. Used by the driver's -dump-ast flag.
func (c *Compiler) AST() *ast.Program {
	return c.ast
}

// TACKY returns the lowered three-address-code program, available
// once Compile has run far enough to produce it. Used by the driver's
// -dump-tacky flag.
func (c *Compiler) TACKY() *tacky.Program {
	return c.tacky
}

// Compile converts the input program into x86-64 assembly language.
func (c *Compiler) Compile() (string, error) {

	//
	// Tokenize the program.  At this point there might be errors.
	// If so report them, and terminate.
	//
	err := c.tokenize()
	if err != nil {
		return "", errors.Wrap(err, "tokenizing")
	}

	//
	// Parse the tokens into an AST.
	//
	c.ast, err = parser.Parse(c.tokens)
	if err != nil {
		return "", errors.Wrap(err, "parsing")
	}

	//
	// Lower the AST to three-address code.
	//
	c.tacky, err = tacky.ConvertToTACKY(c.ast)
	if err != nil {
		return "", errors.Wrap(err, "lowering to TACKY")
	}

	//
	// Lower the three-address code to pseudo-assembly.
	//
	c.asm, err = asmir.ConvertToAssembly(c.tacky)
	if err != nil {
		return "", errors.Wrap(err, "lowering to assembly")
	}

	//
	// Render the assembly IR as text.
	//
	out, err := emitasm.Emit(c.asm, c.debug)
	if err != nil {
		return "", errors.Wrap(err, "emitting assembly")
	}

	return out, nil
}

// tokenize populates our internal list of tokens, as a result of
// lexing the program text.
//
// There is some error-handling to ensure that the program looks
// somewhat reasonable.
func (c *Compiler) tokenize() error {

	//
	// Create the lexer, which will scan our program.
	//
	lexed := lexer.New(c.source)

	//
	// First of all populate the token array.
	//
	for {
		tok := lexed.NextToken()

		if tok.Type == token.ERROR {
			return errors.Errorf("unrecognised input: %s", tok.Literal)
		}

		c.tokens = append(c.tokens, tok)

		if tok.Type == token.EOF {
			break
		}
	}

	//
	// If the program is empty that's an error; the parser will also
	// reject it, but this gives a clearer message.
	//
	if len(c.tokens) < 2 {
		return errors.New("the input program was empty")
	}

	return nil
}
