package atoms

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrReadOnly is returned when writing a key whose atom has no writer.
	ErrReadOnly = errors.New("atoms: key is read-only")
	// ErrUnknownKey is returned for keys the store does not declare.
	ErrUnknownKey = errors.New("atoms: unknown key")
	// ErrExtendCollision is returned by Define when an extension key shadows
	// a base key under CollisionReject.
	ErrExtendCollision = errors.New("atoms: extension key collides with base key")
	// ErrAccessorCollision is returned by Define when two keys generate the
	// same accessor name, e.g. "age" and "Age".
	ErrAccessorCollision = errors.New("atoms: keys generate the same accessor name")
	// ErrInvalidInitial is returned by Define for initial values that are not
	// string keyed maps or structs.
	ErrInvalidInitial = errors.New("atoms: initial value must be a string keyed map or a struct")
	// ErrNoEvaluator is returned when no evaluator can be built for a
	// computed atom.
	ErrNoEvaluator = errors.New("atoms: evaluator not configured")
	// ErrUnmounted is returned by Mounted.Sync after Unmount.
	ErrUnmounted = errors.New("atoms: provider unmounted")
)

// AccessError reports a failed keyed or atom accessor call.
type AccessError struct {
	Store string
	Key   string
	Op    string
	Err   error
}

func (e *AccessError) Error() string {
	if e == nil {
		return "<nil>"
	}
	store := e.Store
	if store == "" {
		store = "<unnamed>"
	}
	return fmt.Sprintf("atoms: %s %s.%s: %v", e.Op, store, e.Key, e.Err)
}

func (e *AccessError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// EvaluationError captures evaluator metadata alongside the originating
// error. Key names the computed atom when the failure happened while reading
// one.
type EvaluationError struct {
	Engine string
	Expr   string
	Key    string
	Scope  string
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "atoms: %s evaluator %s", e.Engine, describeExpression(e.Expr))
	if e.Key != "" {
		fmt.Fprintf(&b, " key=%s", e.Key)
	}
	if e.Scope != "" {
		fmt.Fprintf(&b, " scope=%s", e.Scope)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) || strings.HasPrefix(err.Error(), "atoms:") {
		return err
	}
	return fmt.Errorf("atoms: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches metadata to err, filling only the fields an
// existing EvaluationError leaves empty.
func wrapEvaluationError(engine, expr, scope string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Scope == "" {
			evalErr.Scope = scope
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Scope:  scope,
		Err:    err,
	}
}
