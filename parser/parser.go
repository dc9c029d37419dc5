// Package parser implements a precedence-climbing recursive-descent
// parser that turns a token stream into an ast.Program.
package parser

import (
	"github.com/skx/subc/ast"
	"github.com/skx/subc/cerr"
	"github.com/skx/subc/token"
)

// unaryTable maps a prefix-operator token to its ast.UnaryOpKind.
var unaryTable = map[token.Type]ast.UnaryOpKind{
	token.MINUS: ast.Negation,
	token.TILDE: ast.Complement,
	token.BANG:  ast.Not,
}

// binaryTable maps an infix-operator token to its ast.BinaryOpKind.
var binaryTable = map[token.Type]ast.BinaryOpKind{
	token.ASTERISK: ast.Multiply,
	token.SLASH:    ast.Divide,
	token.PERCENT:  ast.Remainder,
	token.PLUS:     ast.Add,
	token.MINUS:    ast.Subtract,
	token.LSHIFT:   ast.LShift,
	token.RSHIFT:   ast.RShift,
	token.AMPERSAND: ast.BitwiseAnd,
	token.CARET:    ast.BitwiseXor,
	token.LT:       ast.LessThan,
	token.LE:       ast.LessOrEqual,
	token.GT:       ast.GreaterThan,
	token.GE:       ast.GreaterOrEqual,
	token.PIPE:     ast.BitwiseOr,
	token.EQ_EQ:    ast.Equal,
	token.BANG_EQ:  ast.NotEqual,
	token.AND_AND:  ast.LogicalAnd,
	token.OR_OR:    ast.LogicalOr,
}

// precedence is the table from spec: higher binds tighter. This
// layout is unconventional (notably ^, | and the comparisons) and
// must be reproduced exactly to preserve observable parse trees.
var precedence = map[token.Type]int{
	token.ASTERISK: 70,
	token.SLASH:    70,
	token.PERCENT:  70,

	token.PLUS:  60,
	token.MINUS: 60,

	token.LSHIFT: 55,
	token.RSHIFT: 55,

	token.AMPERSAND: 40,

	token.CARET: 35,
	token.LT:    35,
	token.LE:    35,
	token.GT:    35,
	token.GE:    35,

	token.PIPE:    30,
	token.EQ_EQ:   30,
	token.BANG_EQ: 30,

	token.AND_AND: 10,

	token.OR_OR: 5,
}

// Parser holds an indexed cursor over a token slice, per the source's
// own recommendation of preferring an index over a popped queue.
type Parser struct {
	tokens []token.Token
	pos    int
}

// New builds a Parser over a complete token stream (EOF included).
func New(tokens []token.Token) *Parser {
	return &Parser{tokens: tokens}
}

// Parse runs parse_program and returns the resulting AST, or a
// *cerr.SyntaxError.
func Parse(tokens []token.Token) (*ast.Program, error) {
	p := New(tokens)
	return p.parseProgram()
}

func (p *Parser) peek() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Type: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() token.Token {
	tok := p.peek()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

// expect consumes the next token if it has the given type, otherwise
// fails with a SyntaxError naming what was wanted.
func (p *Parser) expect(want token.Type) (token.Token, error) {
	tok := p.peek()
	if tok.Type != want {
		return tok, &cerr.SyntaxError{Got: literalOf(tok), Want: string(want)}
	}
	return p.advance(), nil
}

func literalOf(tok token.Token) string {
	if tok.Type == token.EOF {
		return ""
	}
	return tok.Literal
}

// parseProgram := function EOF
func (p *Parser) parseProgram() (*ast.Program, error) {
	fn, err := p.parseFunction()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != token.EOF {
		return nil, &cerr.SyntaxError{Got: literalOf(p.peek()), Want: "end of input"}
	}
	return &ast.Program{Function: fn}, nil
}

// parseFunction := "int" IDENT "(" "void" ")" "{" statement "}"
func (p *Parser) parseFunction() (*ast.Function, error) {
	if _, err := p.expect(token.INT); err != nil {
		return nil, err
	}
	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.VOID); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	body, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.RBRACE); err != nil {
		return nil, err
	}
	return &ast.Function{Name: name.Literal, Body: body}, nil
}

// parseStatement := "return" expression ";"
func (p *Parser) parseStatement() (*ast.Return, error) {
	if _, err := p.expect(token.RETURN); err != nil {
		return nil, err
	}
	value, err := p.parseExpression(0)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &ast.Return{Value: value}, nil
}

// parseExpression implements precedence climbing: parse a factor,
// then while the lookahead is a binary operator at or above
// minPrecedence, consume it and recurse at precedence(op)+1 for the
// right-hand side. All operators are left-associative.
func (p *Parser) parseExpression(minPrecedence int) (ast.Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	for {
		tok := p.peek()
		prec, isBinop := precedence[tok.Type]
		if !isBinop || prec < minPrecedence {
			break
		}

		opKind, ok := binaryTable[tok.Type]
		if !ok {
			return nil, &cerr.SyntaxError{Got: literalOf(tok), Want: "binary operator"}
		}
		p.advance()

		right, err := p.parseExpression(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryOp{Op: opKind, Left: left, Right: right}
	}

	return left, nil
}

// parseFactor := CONSTANT | uop factor | "(" expression ")"
func (p *Parser) parseFactor() (ast.Expression, error) {
	tok := p.peek()

	switch tok.Type {
	case token.CONSTANT:
		p.advance()
		return parseConstant(tok)

	case token.MINUS, token.TILDE, token.BANG:
		opKind := unaryTable[tok.Type]
		p.advance()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: opKind, Operand: operand}, nil

	case token.LPAREN:
		p.advance()
		inner, err := p.parseExpression(0)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil

	default:
		return nil, &cerr.SyntaxError{Got: literalOf(tok), Want: "an expression"}
	}
}

func parseConstant(tok token.Token) (ast.Expression, error) {
	value := 0
	for _, r := range tok.Literal {
		if r < '0' || r > '9' {
			return nil, &cerr.SyntaxError{Got: tok.Literal, Want: "a numeric constant"}
		}
		value = value*10 + int(r-'0')
	}
	return &ast.Constant{Value: value}, nil
}
