// Package cerr holds the typed, fatal error kinds of the compiler:
// LexError, SyntaxError and UnsupportedConstructError. All
// three are concrete exported types so a driver can type-switch on
// them, rather than plain fmt.Errorf strings.
package cerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// LexError describes an unrecognised character at a position. The
// lexer does not construct it: the lexer reports such a character as a
// token.ERROR token, and the compiler turns that token into a plain
// error rather than a LexError.
type LexError struct {
	Position int
	Literal  string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("lex error at position %d: %s", e.Position, e.Literal)
}

// SyntaxError is raised by the parser: unexpected end of input,
// unexpected token type, a malformed factor, an unknown operator in
// precedence context, or trailing tokens after the program.
type SyntaxError struct {
	// Got is the literal of the offending token, or "" at end of input.
	Got string
	// Want, when non-empty, names the set of token kinds that were
	// acceptable at this point.
	Want string
}

func (e *SyntaxError) Error() string {
	if e.Want == "" {
		return fmt.Sprintf("syntax error: unexpected %q", e.Got)
	}
	return fmt.Sprintf("syntax error: unexpected %q, wanted %s", e.Got, e.Want)
}

// UnsupportedConstructError marks an AST or TAC node kind that the
// lowering pass does not recognise. Exhaustive type switches should
// make this unreachable; if it fires, it is an internal compiler
// invariant violation, not a user-facing mistake.
type UnsupportedConstructError struct {
	Kind string
}

func (e *UnsupportedConstructError) Error() string {
	return fmt.Sprintf("internal error: unsupported construct %s", e.Kind)
}

// Wrap attaches call-site context to an error while preserving its
// type for callers that want to errors.As a specific kind out again.
func Wrap(err error, context string) error {
	return errors.Wrap(err, context)
}

// Newf builds a freestanding error carrying a stack trace, for sites
// that have no existing error to wrap.
func Newf(format string, args ...interface{}) error {
	return errors.Errorf(format, args...)
}
