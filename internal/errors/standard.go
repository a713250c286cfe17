// Package errors provides the error taxonomy of the quasi engine.
//
// Every failure that is recovered at a construct boundary (a quotation or a
// macro-annotated declaration) is a *MetaError carrying one of the Kind
// values below. Anything else is an ordinary error and fails the whole
// file's pass.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind represents the category of a recoverable failure
type Kind string

const (
	KindClassNotFound         Kind = "CLASS_NOT_FOUND"
	KindNoMatchingConstructor Kind = "NO_MATCHING_CONSTRUCTOR"
	KindMethodNotFound        Kind = "METHOD_NOT_FOUND"
	KindInvocationFailure     Kind = "INVOCATION_FAILURE"
	KindConversionFailure     Kind = "CONVERSION_FAILURE"
	KindAmbiguousResolution   Kind = "AMBIGUOUS_RESOLUTION"
)

// Sentinels for errors.Is. A MetaError matches the sentinel of its kind.
var (
	ErrClassNotFound         = &MetaError{Kind: KindClassNotFound}
	ErrNoMatchingConstructor = &MetaError{Kind: KindNoMatchingConstructor}
	ErrMethodNotFound        = &MetaError{Kind: KindMethodNotFound}
	ErrInvocationFailure     = &MetaError{Kind: KindInvocationFailure}
	ErrConversionFailure     = &MetaError{Kind: KindConversionFailure}
	ErrAmbiguousResolution   = &MetaError{Kind: KindAmbiguousResolution}
)

// MetaError provides a consistent error format for the taxonomy
type MetaError struct {
	Kind    Kind
	Message string
	Context map[string]interface{}
	Caller  string
	Cause   error
}

// Error implements the error interface
func (e *MetaError) Error() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(string(e.Kind))
	b.WriteString("]")
	if e.Message != "" {
		b.WriteString(" ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *MetaError) Unwrap() error { return e.Cause }

// Is reports whether target is the sentinel of e's kind.
func (e *MetaError) Is(target error) bool {
	t, ok := target.(*MetaError)
	return ok && t.Message == "" && t.Cause == nil && t.Kind == e.Kind
}

// New creates a new error of the given kind
func New(kind Kind, message string, context map[string]interface{}) *MetaError {
	return &MetaError{
		Kind:    kind,
		Message: message,
		Context: context,
		Caller:  caller(2),
	}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, cause error, message string, context map[string]interface{}) *MetaError {
	e := New(kind, message, context)
	e.Caller = caller(2)
	e.Cause = cause
	return e
}

func caller(skip int) string {
	pc, _, _, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	if fn := runtime.FuncForPC(pc); fn != nil {
		return fn.Name()
	}
	return "unknown"
}

// KindOf returns the kind of the first MetaError in err's chain.
func KindOf(err error) (Kind, bool) {
	var me *MetaError
	if errors.As(err, &me) {
		return me.Kind, true
	}
	return "", false
}

// IsRecoverable reports whether err belongs to the taxonomy and is
// therefore recovered at the construct boundary.
func IsRecoverable(err error) bool {
	_, ok := KindOf(err)
	return ok
}

// Common error constructors

func ClassNotFound(name string, searched []string) *MetaError {
	return New(KindClassNotFound,
		fmt.Sprintf("macro class %s not found", name),
		map[string]interface{}{"class": name, "classpath": searched})
}

func NoMatchingConstructor(class string, arity int, causes []error) *MetaError {
	e := New(KindNoMatchingConstructor,
		fmt.Sprintf("no constructor of %s accepts %d argument(s)", class, arity),
		map[string]interface{}{"class": class, "arity": arity})
	e.Cause = errors.Join(causes...)
	return e
}

func MethodNotFound(class, detail string) *MetaError {
	return New(KindMethodNotFound,
		fmt.Sprintf("%s: %s", class, detail),
		map[string]interface{}{"class": class})
}

func InvocationFailure(class string, cause error) *MetaError {
	e := New(KindInvocationFailure,
		fmt.Sprintf("macro %s failed", class),
		map[string]interface{}{"class": class})
	e.Cause = cause
	return e
}

func ConversionFailure(what, reason string) *MetaError {
	return New(KindConversionFailure,
		fmt.Sprintf("cannot convert %s: %s", what, reason),
		map[string]interface{}{"node": what})
}

func AmbiguousResolution(name string, candidates []string) *MetaError {
	return New(KindAmbiguousResolution,
		fmt.Sprintf("%s matches imports %s", name, strings.Join(candidates, ", ")),
		map[string]interface{}{"name": name, "candidates": candidates})
}
