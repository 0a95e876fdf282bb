package reconstruct

import (
	"errors"
	"fmt"
)

var (
	// ErrPrecondition marks caller misuse: an expired handle, a layer of the
	// wrong kind, a disconnected edge. Retrying with the same input cannot
	// succeed.
	ErrPrecondition = errors.New("precondition violation")

	// ErrAssertion marks a broken internal invariant, a defect in the graph
	// itself. Assertion failures are raised with panic.
	ErrAssertion = errors.New("assertion failure")

	// ErrUpdating is returned when the graph is mutated from inside an update
	// cycle. It is a precondition violation.
	ErrUpdating = fmt.Errorf("graph is updating: %w", ErrPrecondition)
)

// GraphError is the error type of every failed graph operation.
type GraphError struct {
	Kind error
	Op   string
	Msg  string
}

func (e *GraphError) Error() string {
	if e == nil {
		return ""
	}
	prefix := "reconstruct"
	if e.Op != "" {
		prefix += ": " + e.Op
	}
	if e.Msg == "" {
		return fmt.Sprintf("%s: %s", prefix, e.Kind.Error())
	}
	return fmt.Sprintf("%s: %s: %s", prefix, e.Kind.Error(), e.Msg)
}

func (e *GraphError) Unwrap() error { return e.Kind }

func preconditionf(op, format string, args ...any) error {
	return &GraphError{Kind: ErrPrecondition, Op: op, Msg: fmt.Sprintf(format, args...)}
}

func assertionf(op, format string, args ...any) *GraphError {
	return &GraphError{Kind: ErrAssertion, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// assert panics with an assertion GraphError when cond is false.
func assert(cond bool, op, format string, args ...any) {
	if !cond {
		panic(assertionf(op, format, args...))
	}
}

// IsAssertion reports whether v, typically a value returned by recover, is an
// assertion failure raised by the graph.
func IsAssertion(v any) bool {
	err, ok := v.(error)
	return ok && errors.Is(err, ErrAssertion)
}
