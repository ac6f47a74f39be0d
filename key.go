package jsobj

import (
	"math"
	"strconv"
)

// maxArrayIndex is the largest valid array index, 2^32-2. 2^32-1 is a plain
// string key.
const maxArrayIndex = math.MaxUint32 - 1

// PropertyKey identifies a property. It is either an array index or a string
// name. Canonical index strings ("0", "42") always normalize to index keys, so
// Str("7") == Idx(7). PropertyKey is comparable and may be used as a map key.
type PropertyKey struct {
	name  string
	idx   uint32
	index bool
}

// Str returns the key for a property name.
func Str(name string) PropertyKey {
	if idx, ok := strToIdx(name); ok {
		return PropertyKey{idx: idx, index: true}
	}
	return PropertyKey{name: name}
}

// Idx returns the key for an index. 2^32-1 is not an array index and yields
// the equivalent string key.
func Idx(idx uint32) PropertyKey {
	if idx > maxArrayIndex {
		return PropertyKey{name: strconv.FormatUint(uint64(idx), 10)}
	}
	return PropertyKey{idx: idx, index: true}
}

// IndexKey returns the key for an integer index. Values outside [0, 2^32-1]
// cannot be expressed as an index and result in a RangeErrorClass error.
func IndexKey(idx int64) (PropertyKey, error) {
	if idx < 0 || idx > math.MaxUint32 {
		return PropertyKey{}, &PropertyError{
			Kind:    RangeErrorClass,
			Op:      OpGet,
			Key:     PropertyKey{name: strconv.FormatInt(idx, 10)},
			Message: "Invalid array index " + strconv.FormatInt(idx, 10),
		}
	}
	return Idx(uint32(idx)), nil
}

// KeyFromValue converts a primitive value into a key the way property access
// with a computed member does (obj[v]).
func KeyFromValue(v Value) PropertyKey {
	switch v := v.(type) {
	case valueInt:
		if v >= 0 && v <= maxArrayIndex {
			return PropertyKey{idx: uint32(v), index: true}
		}
	case valueFloat:
		if float64(v) == 0 {
			// -0 becomes "0"
			return PropertyKey{index: true}
		}
	case nil:
		return Str("undefined")
	}
	return Str(v.String())
}

func strToIdx(s string) (uint32, bool) {
	l := len(s)
	if l == 0 || l > 10 {
		return 0, false
	}
	if s[0] == '0' {
		return 0, l == 1
	}
	var n uint64
	for i := 0; i < l; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
	}
	if n > maxArrayIndex {
		return 0, false
	}
	return uint32(n), true
}

// IsIndex returns true if the key is an array index.
func (k PropertyKey) IsIndex() bool {
	return k.index
}

// Index returns the array index. Only meaningful if IsIndex() is true.
func (k PropertyKey) Index() uint32 {
	return k.idx
}

func (k PropertyKey) String() string {
	if k.index {
		return strconv.FormatUint(uint64(k.idx), 10)
	}
	return k.name
}

// Value returns the key as a script value: a number for index keys, a string
// otherwise.
func (k PropertyKey) Value() Value {
	if k.index {
		return intToValue(int64(k.idx))
	}
	return valueString(k.name)
}

// Keys is a convenience for building a slice of string keys.
func Keys(names ...string) []PropertyKey {
	keys := make([]PropertyKey, len(names))
	for i, n := range names {
		keys[i] = Str(n)
	}
	return keys
}
