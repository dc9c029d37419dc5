package cerr

import (
	"strings"
	"testing"
)

// TestErrorMessages confirms each typed error renders a readable,
// distinguishable message.
func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"lex", &LexError{Position: 4, Literal: "@"}, "lex error at position 4: @"},
		{"syntax-no-want", &SyntaxError{Got: ""}, `syntax error: unexpected ""`},
		{"syntax-want", &SyntaxError{Got: "}", Want: "an expression"}, `unexpected "}", wanted an expression`},
		{"unsupported", &UnsupportedConstructError{Kind: "*ast.Weird"}, "unsupported construct *ast.Weird"},
	}

	for _, tt := range tests {
		if !strings.Contains(tt.err.Error(), tt.want) {
			t.Errorf("%s: expected message to contain %q, got %q", tt.name, tt.want, tt.err.Error())
		}
	}
}

// TestWrapPreservesCause confirms Wrap's message carries both the
// added context and the original error's message.
func TestWrapPreservesCause(t *testing.T) {
	cause := &SyntaxError{Got: "x"}
	wrapped := Wrap(cause, "parsing")

	if wrapped == nil {
		t.Fatal("expected a non-nil wrapped error")
	}
	if !strings.Contains(wrapped.Error(), "parsing") {
		t.Errorf("expected wrapped message to mention context, got %q", wrapped.Error())
	}
	if !strings.Contains(wrapped.Error(), "unexpected") {
		t.Errorf("expected wrapped message to retain the cause, got %q", wrapped.Error())
	}
}

// TestWrapNil confirms wrapping a nil error yields nil, matching
// github.com/pkg/errors' own behaviour.
func TestWrapNil(t *testing.T) {
	if Wrap(nil, "context") != nil {
		t.Errorf("expected Wrap(nil, ...) to return nil")
	}
}

// TestNewf confirms Newf formats its arguments into the message.
func TestNewf(t *testing.T) {
	err := Newf("the input program was %s", "empty")
	if !strings.Contains(err.Error(), "the input program was empty") {
		t.Errorf("expected formatted message, got %q", err.Error())
	}
}
