// Package errors defines the ECMAScript-visible error taxonomy shared by
// the compiler and the virtual machine (spec §7).
package errors

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Kind identifies one of the error categories the core can raise.
type Kind int

const (
	// SyntaxError covers static semantic violations the compiler itself
	// catches (the parser is an external collaborator and has its own).
	SyntaxError Kind = iota
	ReferenceError
	TypeError
	RangeError
	URIError
	// RuntimeLimit and OutOfMemory are uncatchable: they bypass the
	// handler table entirely and unwind straight to the host (spec §4.4,
	// §7).
	RuntimeLimit
	OutOfMemory
)

func (k Kind) String() string {
	switch k {
	case SyntaxError:
		return "SyntaxError"
	case ReferenceError:
		return "ReferenceError"
	case TypeError:
		return "TypeError"
	case RangeError:
		return "RangeError"
	case URIError:
		return "URIError"
	case RuntimeLimit:
		return "RuntimeLimit"
	case OutOfMemory:
		return "OutOfMemory"
	default:
		return "Error"
	}
}

// Catchable reports whether user script try/catch may observe this kind.
func (k Kind) Catchable() bool {
	return k != RuntimeLimit && k != OutOfMemory
}

// Span locates an error in the original source, carried through from the
// AST node that produced it (or the PC->source_info mapping in the VM).
type Span struct {
	Line, Column int
	Offset, End  int
}

func (s Span) String() string {
	return fmt.Sprintf("%d:%d", s.Line, s.Column)
}

// Error is the core's single error type. It is returned from compile and
// carried in the VM's pending-exception slot while a throw is in flight.
type Error struct {
	Kind    Kind
	Message string
	Span    Span
	// RealmID records the realm an error originated in, so instanceof
	// checks against a different realm's Error constructor can be
	// resolved correctly when errors cross realm boundaries (spec §7).
	RealmID string
	// Stack is the shadow-stack trace: function names and source
	// positions, innermost first (spec §7 "user-visible behavior").
	Stack []Frame
	// Payload carries the original thrown value for catchable kinds, so
	// the VM can hand script's try/catch the exact value it threw rather
	// than a re-synthesized Error object. Type-erased to interface{}
	// since this package cannot import values (which itself depends on
	// errors for NativeFunction's signature) without a cycle; the VM
	// type-asserts it back to values.Value.
	Payload any
}

// WithPayload attaches the original thrown value (see Payload).
func (e *Error) WithPayload(v any) *Error {
	e.Payload = v
	return e
}

// Frame is one entry of a shadow-stack trace.
type Frame struct {
	FunctionName string
	Span         Span
}

func New(kind Kind, span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s (at %s)", e.Kind, e.Message, e.Span)
}

// WithRealm stamps the originating realm onto the error.
func (e *Error) WithRealm(realmID string) *Error {
	e.RealmID = realmID
	return e
}

// WithFrame prepends a shadow-stack frame, innermost call first.
func (e *Error) WithFrame(f Frame) *Error {
	e.Stack = append([]Frame{f}, e.Stack...)
	return e
}

// RuntimeLimitError builds the one place in the codebase that needs to
// render "used X of budget Y" for a human; go-humanize turns the raw slot
// counts into readable magnitudes when they are large (stack slots,
// microtask queue depth) without us hand-rolling the scaling.
func RuntimeLimitError(span Span, resource string, used, budget uint64) *Error {
	msg := fmt.Sprintf("%s exceeded: used %s of budget %s",
		resource, humanize.Comma(int64(used)), humanize.Comma(int64(budget)))
	return New(RuntimeLimit, span, "%s", msg)
}

// OutOfMemoryError is raised by the host's allocator hook, not by any
// script-observable condition.
func OutOfMemoryError(span Span) *Error {
	return New(OutOfMemory, span, "allocation failed")
}
