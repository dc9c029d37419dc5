// Package lexer implements a hand-written scanner that turns program
// source text into a stream of tokens for the parser.
package lexer

import (
	"github.com/skx/subc/token"
)

// Lexer holds our object-state.
type Lexer struct {
	position     int    //current character position
	readPosition int    //next character position
	ch           rune   //current character
	characters   []rune //rune slice of input string
}

// New creates a Lexer instance from string input.
func New(input string) *Lexer {
	l := &Lexer{characters: []rune(input)}
	l.readChar()
	return l
}

// read one forward character
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.characters) {
		l.ch = rune(0)
	} else {
		l.ch = l.characters[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// NextToken reads the next token, skipping leading white space.
//
// Two-character operators are recognised via a single character of
// lookahead; this mirrors the longest-match behaviour of a regex-table
// lexer without needing a table.
func (l *Lexer) NextToken() token.Token {
	var tok token.Token
	l.skipWhitespace()

	switch l.ch {
	case rune('('):
		tok = newToken(token.LPAREN, l.ch)
	case rune(')'):
		tok = newToken(token.RPAREN, l.ch)
	case rune('{'):
		tok = newToken(token.LBRACE, l.ch)
	case rune('}'):
		tok = newToken(token.RBRACE, l.ch)
	case rune(';'):
		tok = newToken(token.SEMICOLON, l.ch)
	case rune('~'):
		tok = newToken(token.TILDE, l.ch)
	case rune('+'):
		tok = newToken(token.PLUS, l.ch)
	case rune('-'):
		tok = newToken(token.MINUS, l.ch)
	case rune('*'):
		tok = newToken(token.ASTERISK, l.ch)
	case rune('/'):
		tok = newToken(token.SLASH, l.ch)
	case rune('%'):
		tok = newToken(token.PERCENT, l.ch)
	case rune('^'):
		tok = newToken(token.CARET, l.ch)
	case rune('&'):
		if l.peekChar() == rune('&') {
			l.readChar()
			tok = token.Token{Type: token.AND_AND, Literal: "&&"}
		} else {
			tok = newToken(token.AMPERSAND, l.ch)
		}
	case rune('|'):
		if l.peekChar() == rune('|') {
			l.readChar()
			tok = token.Token{Type: token.OR_OR, Literal: "||"}
		} else {
			tok = newToken(token.PIPE, l.ch)
		}
	case rune('<'):
		if l.peekChar() == rune('<') {
			l.readChar()
			tok = token.Token{Type: token.LSHIFT, Literal: "<<"}
		} else if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.LE, Literal: "<="}
		} else {
			tok = newToken(token.LT, l.ch)
		}
	case rune('>'):
		if l.peekChar() == rune('>') {
			l.readChar()
			tok = token.Token{Type: token.RSHIFT, Literal: ">>"}
		} else if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.GE, Literal: ">="}
		} else {
			tok = newToken(token.GT, l.ch)
		}
	case rune('='):
		if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.EQ_EQ, Literal: "=="}
		} else {
			tok = token.Token{Type: token.ERROR, Literal: "unexpected character '='"}
		}
	case rune('!'):
		if l.peekChar() == rune('=') {
			l.readChar()
			tok = token.Token{Type: token.BANG_EQ, Literal: "!="}
		} else {
			tok = newToken(token.BANG, l.ch)
		}
	case rune(0):
		tok.Literal = ""
		tok.Type = token.EOF
	default:
		if isDigit(l.ch) {
			return l.readNumber()
		}
		if isIdentifierStart(l.ch) {
			lit := l.readIdentifier()
			tok.Literal = lit
			tok.Type = token.LookupIdentifier(lit)
			return tok
		}
		tok = token.Token{Type: token.ERROR, Literal: "unexpected character '" + string(l.ch) + "'"}
	}
	l.readChar()
	return tok
}

// return new token
func newToken(tokenType token.Type, ch rune) token.Token {
	return token.Token{Type: tokenType, Literal: string(ch)}
}

// skip white space
func (l *Lexer) skipWhitespace() {
	for isWhitespace(l.ch) {
		l.readChar()
	}
}

// readNumber reads an integer literal, comprising digits 0-9.
func (l *Lexer) readNumber() token.Token {
	str := ""
	for isDigit(l.ch) {
		str += string(l.ch)
		l.readChar()
	}
	return token.Token{Type: token.CONSTANT, Literal: str}
}

// peek character
func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.characters) {
		return rune(0)
	}
	return l.characters[l.readPosition]
}

// is white space
func isWhitespace(ch rune) bool {
	return ch == rune(' ') || ch == rune('\t') || ch == rune('\n') || ch == rune('\r')
}

// is Digit
func isDigit(ch rune) bool {
	return rune('0') <= ch && ch <= rune('9')
}

// readIdentifier reads an identifier or keyword: letters, digits and
// underscores, not starting with a digit.
func (l *Lexer) readIdentifier() string {
	id := ""
	for isIdentifierPart(l.ch) {
		id += string(l.ch)
		l.readChar()
	}
	return id
}

// isIdentifierStart reports whether ch may begin an identifier.
func isIdentifierStart(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == rune('_')
}

// isIdentifierPart reports whether ch may appear after the first
// character of an identifier.
func isIdentifierPart(ch rune) bool {
	return isIdentifierStart(ch) || isDigit(ch)
}
