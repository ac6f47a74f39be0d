package scenario

import (
	"context"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"

	"github.com/dop251/jsobj"
)

// evalScript runs script in a fresh goja runtime with require() and console
// enabled and converts its completion value. Objects and arrays come back as
// their string form.
func evalScript(ctx context.Context, script string) (jsobj.Value, error) {
	vm := goja.New()
	new(require.Registry).Enable(vm)
	console.Enable(vm)

	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()

	v, err := vm.RunString(script)
	if err != nil {
		return nil, err
	}
	switch {
	case v == nil || goja.IsUndefined(v):
		return jsobj.Undefined(), nil
	case goja.IsNull(v):
		return jsobj.Null(), nil
	}
	switch ex := v.Export().(type) {
	case bool, string, int64, float64:
		return jsobj.ToValue(ex), nil
	}
	return jsobj.ToValue(v.String()), nil
}
