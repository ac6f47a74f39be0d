package scenario

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dop251/jsobj"
)

const (
	tagUndefined = "!undefined"
	tagRef       = "!ref"
	tagNum       = "!num"
)

// decodeValue converts a YAML scalar into a Value. Object references are
// resolved through lookup. An absent node (zero Kind) is undefined.
func decodeValue(n *yaml.Node, lookup func(string) (jsobj.Value, error)) (jsobj.Value, error) {
	if n == nil || n.Kind == 0 {
		return jsobj.Undefined(), nil
	}
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: value must be a scalar", n.Line)
	}
	switch n.ShortTag() {
	case tagUndefined:
		return jsobj.Undefined(), nil
	case tagRef:
		return lookup(n.Value)
	case tagNum:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return jsobj.ToValue(f), nil
	case "!!null":
		return jsobj.Null(), nil
	case "!!bool", "!!int", "!!float", "!!str":
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return jsobj.ToValue(v), nil
	}
	return nil, fmt.Errorf("line %d: unsupported tag %s", n.Line, n.ShortTag())
}

func describe(v jsobj.Value) string {
	switch {
	case v == nil:
		return "<nil>"
	case jsobj.IsUndefined(v):
		return "undefined"
	}
	if _, ok := v.Export().(string); ok {
		return strconv.Quote(v.String())
	}
	return v.String()
}
