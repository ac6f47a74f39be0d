package jsobj

const (
	noSuchPropertyName = "__noSuchProperty__"
	noSuchMethodName   = "__noSuchMethod__"
)

/*
FallbackHandler supplies values for properties that are missing from an object and all of its
prototypes. A handler is attached to an object with SetFallbackHandler and is consulted for lookups
on that object and on every object that inherits from it, after a script-level __noSuchProperty__
function, if any.

NoSuchProperty returns the value to use and true, or false to let the lookup yield undefined.
receiver is the object the lookup started on.
*/
type FallbackHandler interface {
	NoSuchProperty(receiver Value, key PropertyKey) (Value, bool, error)
}

// FallbackFunc adapts a function to FallbackHandler.
type FallbackFunc func(receiver Value, key PropertyKey) (Value, bool, error)

func (f FallbackFunc) NoSuchProperty(receiver Value, key PropertyKey) (Value, bool, error) {
	return f(receiver, key)
}

// SetFallbackHandler attaches h to o. A nil h removes the handler.
func (o *Object) SetFallbackHandler(h FallbackHandler) {
	o.fallback = h
}

// chainStart returns the object fallback lookups start at: the receiver if it
// is an object, o otherwise.
func (o *Object) chainStart(receiver Value) *Object {
	if r, ok := receiver.(*Object); ok {
		return r
	}
	return o
}

// noSuchProperty is called after a lookup missed the whole chain.
func (o *Object) noSuchProperty(key PropertyKey, receiver Value) (Value, error) {
	start := o.chainStart(receiver)
	if key.name != noSuchPropertyName {
		p, _, err := start.lookup(Str(noSuchPropertyName), OpGet)
		if err != nil {
			return nil, err
		}
		if p != nil {
			fn, err := p.get(receiver)
			if err != nil {
				return nil, err
			}
			if f, ok := fn.(*Object); ok && f.IsCallable() {
				o.runtime.hook.OnFallback(receiver, key, noSuchPropertyName)
				return f.call(FunctionCall{This: receiver, Arguments: []Value{valueString(key.String())}})
			}
		}
	}
	depth := 0
	for obj := start; obj != nil && depth <= o.runtime.opts.maxPrototypeDepth; obj = obj.prototype {
		if obj.fallback != nil {
			o.runtime.hook.OnFallback(receiver, key, "handler")
			v, ok, err := obj.fallback.NoSuchProperty(receiver, key)
			if err != nil {
				return nil, err
			}
			if ok && v != nil {
				return v, nil
			}
			break
		}
		depth++
	}
	return _undefined, nil
}

// GetMethod looks up key for a method call. It behaves like Get, except that
// when key is missing from the whole chain and a callable __noSuchMethod__
// is found, the result is a function that calls __noSuchMethod__ with o as
// this and the property name prepended to the arguments.
func (o *Object) GetMethod(key PropertyKey) (Value, error) {
	p, _, err := o.lookup(key, OpGet)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p.get(o)
	}
	if key.name != noSuchMethodName {
		nsm, _, err := o.lookup(Str(noSuchMethodName), OpGet)
		if err != nil {
			return nil, err
		}
		if nsm != nil {
			fn, err := nsm.get(o)
			if err != nil {
				return nil, err
			}
			if f, ok := fn.(*Object); ok && f.IsCallable() {
				o.runtime.hook.OnFallback(o, key, noSuchMethodName)
				return o.runtime.bindNoSuchMethod(f, o, key), nil
			}
		}
	}
	return o.noSuchProperty(key, o)
}

func (r *Runtime) bindNoSuchMethod(f *Object, receiver *Object, key PropertyKey) *Object {
	name := valueString(key.String())
	return r.NewFunction(key.String(), func(call FunctionCall) (Value, error) {
		args := make([]Value, 0, len(call.Arguments)+1)
		args = append(args, name)
		args = append(args, call.Arguments...)
		return f.call(FunctionCall{This: receiver, Arguments: args})
	})
}
