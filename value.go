package jsobj

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	valueFalse    Value = valueBool(false)
	valueTrue     Value = valueBool(true)
	_null         Value = valueNull{}
	_NaN          Value = valueFloat(math.NaN())
	_positiveZero Value = valueInt(0)
	negativeZero        = math.Float64frombits(0 | (1 << 63))
	_negativeZero Value = valueFloat(negativeZero)
	_undefined    Value = valueUndefined{}
)

var intCache [256]Value

func init() {
	for i := range intCache {
		intCache[i] = valueInt(i - 128)
	}
}

// Value is a script value as seen by the object model. Objects implement it
// through *Object; primitives are immutable Go values.
type Value interface {
	String() string
	ToBoolean() bool
	// SameAs implements the SameValue algorithm: NaN is the same as NaN and
	// +0 is not the same as -0.
	SameAs(Value) bool
	StrictEquals(Value) bool
	Export() interface{}
}

type valueInt int64
type valueFloat float64
type valueString string
type valueBool bool
type valueNull struct{}
type valueUndefined struct {
	valueNull
}

// FunctionCall is the argument to a host function: the this value and the arguments.
type FunctionCall struct {
	This      Value
	Arguments []Value
}

func (f FunctionCall) Argument(idx int) Value {
	if idx < len(f.Arguments) {
		return f.Arguments[idx]
	}
	return _undefined
}

// Undefined returns the undefined value.
func Undefined() Value {
	return _undefined
}

// Null returns the null value.
func Null() Value {
	return _null
}

// IsUndefined returns true if v is undefined or a nil interface.
func IsUndefined(v Value) bool {
	return v == nil || v == _undefined
}

// IsNull returns true if v is null.
func IsNull(v Value) bool {
	return v == _null
}

func intToValue(i int64) Value {
	if i >= -128 && i <= 127 {
		return intCache[i+128]
	}
	return valueInt(i)
}

func floatToValue(f float64) Value {
	if i := int64(f); float64(i) == f {
		if i == 0 && math.Signbit(f) {
			return _negativeZero
		}
		return intToValue(i)
	}
	return valueFloat(f)
}

// ToValue converts a Go value into a Value. Supported are nil, bool, Go
// integer and float types, string, Value and *Object. Anything else is
// converted to its fmt string form.
func ToValue(i interface{}) Value {
	switch i := i.(type) {
	case nil:
		return _null
	case Value:
		return i
	case bool:
		if i {
			return valueTrue
		}
		return valueFalse
	case string:
		return valueString(i)
	case int:
		return intToValue(int64(i))
	case int8:
		return intToValue(int64(i))
	case int16:
		return intToValue(int64(i))
	case int32:
		return intToValue(int64(i))
	case int64:
		return intToValue(i)
	case uint:
		if uint64(i) <= math.MaxInt64 {
			return intToValue(int64(i))
		}
		return valueFloat(float64(i))
	case uint8:
		return intToValue(int64(i))
	case uint16:
		return intToValue(int64(i))
	case uint32:
		return intToValue(int64(i))
	case uint64:
		if i <= math.MaxInt64 {
			return intToValue(int64(i))
		}
		return valueFloat(float64(i))
	case float32:
		return floatToValue(float64(i))
	case float64:
		return floatToValue(i)
	}
	return valueString(fmt.Sprint(i))
}

func (i valueInt) String() string {
	return strconv.FormatInt(int64(i), 10)
}

func (i valueInt) ToBoolean() bool {
	return i != 0
}

func (i valueInt) SameAs(other Value) bool {
	switch o := other.(type) {
	case valueInt:
		return i == o
	case valueFloat:
		return float64(i) == float64(o) && !(i == 0 && math.Signbit(float64(o)))
	}
	return false
}

func (i valueInt) StrictEquals(other Value) bool {
	switch o := other.(type) {
	case valueInt:
		return i == o
	case valueFloat:
		return float64(i) == float64(o)
	}
	return false
}

func (i valueInt) Export() interface{} {
	return int64(i)
}

func (f valueFloat) String() string {
	return numberToString(float64(f))
}

func (f valueFloat) ToBoolean() bool {
	return float64(f) != 0.0 && !math.IsNaN(float64(f))
}

func (f valueFloat) SameAs(other Value) bool {
	switch o := other.(type) {
	case valueFloat:
		this := float64(f)
		o1 := float64(o)
		if math.IsNaN(this) && math.IsNaN(o1) {
			return true
		}
		if this == o1 {
			return math.Signbit(this) == math.Signbit(o1)
		}
		return false
	case valueInt:
		return o.SameAs(f)
	}
	return false
}

func (f valueFloat) StrictEquals(other Value) bool {
	switch o := other.(type) {
	case valueFloat:
		return f == o
	case valueInt:
		return float64(f) == float64(o)
	}
	return false
}

func (f valueFloat) Export() interface{} {
	return float64(f)
}

func (s valueString) String() string {
	return string(s)
}

func (s valueString) ToBoolean() bool {
	return len(s) > 0
}

func (s valueString) SameAs(other Value) bool {
	return s.StrictEquals(other)
}

func (s valueString) StrictEquals(other Value) bool {
	if o, ok := other.(valueString); ok {
		return s == o
	}
	return false
}

func (s valueString) Export() interface{} {
	return string(s)
}

func (b valueBool) String() string {
	if b {
		return "true"
	}
	return "false"
}

func (b valueBool) ToBoolean() bool {
	return bool(b)
}

func (b valueBool) SameAs(other Value) bool {
	return b.StrictEquals(other)
}

func (b valueBool) StrictEquals(other Value) bool {
	if o, ok := other.(valueBool); ok {
		return b == o
	}
	return false
}

func (b valueBool) Export() interface{} {
	return bool(b)
}

func (n valueNull) String() string {
	return "null"
}

func (n valueNull) ToBoolean() bool {
	return false
}

func (n valueNull) SameAs(other Value) bool {
	return n.StrictEquals(other)
}

func (n valueNull) StrictEquals(other Value) bool {
	_, ok := other.(valueNull)
	return ok
}

func (n valueNull) Export() interface{} {
	return nil
}

func (u valueUndefined) String() string {
	return "undefined"
}

func (u valueUndefined) SameAs(other Value) bool {
	return u.StrictEquals(other)
}

func (u valueUndefined) StrictEquals(other Value) bool {
	_, ok := other.(valueUndefined)
	return ok
}

// numberToString formats a number the way Number.prototype.toString() does
// for radix 10.
func numberToString(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	var sign string
	if f < 0 {
		sign = "-"
		f = -f
	}
	// d.ddddde±xx
	e := strconv.FormatFloat(f, 'e', -1, 64)
	mant, exp, _ := strings.Cut(e, "e")
	digits := strings.Replace(mant, ".", "", 1)
	x, _ := strconv.Atoi(exp)
	k := len(digits)
	n := x + 1

	var b strings.Builder
	b.WriteString(sign)
	switch {
	case k <= n && n <= 21:
		b.WriteString(digits)
		b.WriteString(strings.Repeat("0", n-k))
	case 0 < n && n <= 21:
		b.WriteString(digits[:n])
		b.WriteByte('.')
		b.WriteString(digits[n:])
	case -6 < n && n <= 0:
		b.WriteString("0.")
		b.WriteString(strings.Repeat("0", -n))
		b.WriteString(digits)
	default:
		b.WriteByte(digits[0])
		if k > 1 {
			b.WriteByte('.')
			b.WriteString(digits[1:])
		}
		b.WriteByte('e')
		if n-1 >= 0 {
			b.WriteByte('+')
		}
		b.WriteString(strconv.Itoa(n - 1))
	}
	return b.String()
}
