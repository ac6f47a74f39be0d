package jsobj

import (
	"fmt"
)

// ErrorKind classifies errors produced by the object model. ErrorKind
// implements error so that errors.Is(err, TypeErrorClass) works on any
// *PropertyError.
type ErrorKind int

const (
	TypeErrorClass ErrorKind = iota + 1
	RangeErrorClass
	CycleError
)

func (k ErrorKind) Error() string {
	switch k {
	case TypeErrorClass:
		return "TypeError"
	case RangeErrorClass:
		return "RangeError"
	case CycleError:
		return "CycleError"
	}
	return "Error"
}

// Op is the object model operation during which an error was raised.
type Op int

const (
	OpGet Op = iota
	OpSet
	OpDefine
	OpDelete
	OpEnumerate
	OpSetPrototype
	OpPreventExtensions
	OpCall
)

func (op Op) String() string {
	switch op {
	case OpGet:
		return "get"
	case OpSet:
		return "set"
	case OpDefine:
		return "define"
	case OpDelete:
		return "delete"
	case OpEnumerate:
		return "enumerate"
	case OpSetPrototype:
		return "setPrototypeOf"
	case OpPreventExtensions:
		return "preventExtensions"
	case OpCall:
		return "call"
	}
	return "unknown"
}

// PropertyError is returned by object model operations that are rejected.
type PropertyError struct {
	Kind    ErrorKind
	Op      Op
	Key     PropertyKey
	Message string
}

func (e *PropertyError) Error() string {
	return e.Kind.Error() + ": " + e.Message
}

func (e *PropertyError) Is(target error) bool {
	if k, ok := target.(ErrorKind); ok {
		return e.Kind == k
	}
	return false
}

// Exception carries a script value thrown by a host function, e.g. a getter
// that throws. The object model never creates one itself; it only propagates
// whatever error a callee returns.
type Exception struct {
	val Value
}

// NewException wraps a thrown value.
func NewException(v Value) *Exception {
	return &Exception{val: v}
}

func (e *Exception) Value() Value {
	return e.val
}

func (e *Exception) Error() string {
	if e.val == nil {
		return "<nil>"
	}
	return "Uncaught " + e.val.String()
}

func newPropertyError(kind ErrorKind, op Op, key PropertyKey, format string, args ...interface{}) *PropertyError {
	return &PropertyError{
		Kind:    kind,
		Op:      op,
		Key:     key,
		Message: fmt.Sprintf(format, args...),
	}
}

// typeErrorResult returns a TypeErrorClass error if throw is set, nil
// otherwise. Non-strict callers silently absorb the violation.
func typeErrorResult(throw bool, op Op, key PropertyKey, format string, args ...interface{}) error {
	if throw {
		return newPropertyError(TypeErrorClass, op, key, format, args...)
	}
	return nil
}
