package jsobj

import (
	"errors"
	"fmt"
	"testing"
)

func TestPropertyErrorIs(t *testing.T) {
	err := newPropertyError(TypeErrorClass, OpSet, Str("x"), "Cannot assign to read only property '%s'", "x")
	if err.Error() != "TypeError: Cannot assign to read only property 'x'" {
		t.Fatalf("Error() = %q", err.Error())
	}
	wrapped := fmt.Errorf("while running: %w", err)
	if !errors.Is(wrapped, TypeErrorClass) {
		t.Fatal("wrapped error should match TypeErrorClass")
	}
	if errors.Is(wrapped, RangeErrorClass) || errors.Is(wrapped, CycleError) {
		t.Fatal("wrong kind matched")
	}
}

func TestTypeErrorResult(t *testing.T) {
	if err := typeErrorResult(false, OpSet, Str("x"), "ignored"); err != nil {
		t.Fatalf("non-strict: %v", err)
	}
	if err := typeErrorResult(true, OpSet, Str("x"), "thrown"); !errors.Is(err, TypeErrorClass) {
		t.Fatalf("strict: %v", err)
	}
}

func TestOpString(t *testing.T) {
	tests := []struct {
		op   Op
		want string
	}{
		{OpGet, "get"},
		{OpSet, "set"},
		{OpDefine, "define"},
		{OpDelete, "delete"},
		{OpEnumerate, "enumerate"},
		{OpSetPrototype, "setPrototypeOf"},
		{OpPreventExtensions, "preventExtensions"},
		{OpCall, "call"},
		{Op(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Op(%d).String() = %q, want %q", tt.op, got, tt.want)
		}
	}
}

func TestException(t *testing.T) {
	ex := NewException(valueString("boom"))
	if ex.Error() != "Uncaught boom" {
		t.Fatalf("Error() = %q", ex.Error())
	}
}
