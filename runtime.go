package jsobj

import (
	"sync"
	"sync/atomic"
	"weak"

	"github.com/rs/zerolog"
)

// Version of the object model. Scenario files compare their requirements
// against it.
const Version = "0.1.0"

const protoName = "__proto__"

// Runtime holds the state shared by a set of objects: the shape trees, the
// built-in prototypes and the registered inline cache sites.
//
// A Runtime and its objects must be used from one goroutine at a time. Shapes
// may be inspected from any goroutine.
type Runtime struct {
	opts   options
	logger zerolog.Logger
	hook   ObjectHook

	nextShapeID atomic.Uint32
	shapesMu    sync.Mutex
	roots       []weak.Pointer[Shape] // root shapes live as long as their prototype
	nullRoot    *Shape

	objectPrototype   *Object
	functionPrototype *Object

	sites []*InlineCacheSite
}

// New creates a runtime with Object.prototype and Function.prototype set up.
func New(opts ...Option) *Runtime {
	r := &Runtime{
		opts: defaultOptions,
		hook: BaseObjectHook{},
	}
	for _, opt := range opts {
		opt.apply(&r.opts)
	}
	if r.opts.logger != nil {
		r.logger = *r.opts.logger
	} else {
		r.logger = zerolog.Nop()
	}
	if r.opts.hook != nil {
		r.hook = r.opts.hook
	}
	r.init()
	return r
}

func (r *Runtime) init() {
	r.nullRoot = r.newRootShape(nil)
	r.objectPrototype = r.newObject(classObject, nil)
	r.functionPrototype = r.newObject(classFunction, r.objectPrototype)
	r.functionPrototype.fn = func(FunctionCall) (Value, error) {
		return _undefined, nil
	}

	getter := r.NewFunction("get __proto__", func(call FunctionCall) (Value, error) {
		o, ok := call.This.(*Object)
		if !ok {
			return _undefined, nil
		}
		if o.prototype == nil {
			return _null, nil
		}
		return o.prototype, nil
	})
	setter := r.NewFunction("set __proto__", func(call FunctionCall) (Value, error) {
		o, ok := call.This.(*Object)
		if !ok {
			return _undefined, nil
		}
		switch proto := call.Argument(0).(type) {
		case *Object:
			return _undefined, o.SetPrototypeOf(proto)
		case valueNull:
			return _undefined, o.SetPrototypeOf(nil)
		}
		return _undefined, nil
	})
	r.objectPrototype.addOwn(Str(protoName), &valueProperty{
		getter: getter,
		setter: setter,
		attrs:  attrAccessor | attrConfigurable,
	})
}

func (r *Runtime) newObject(class string, proto *Object) *Object {
	o := &Object{
		runtime:   r,
		class:     class,
		prototype: proto,
	}
	o.shape = r.rootShapeFor(proto)
	return o
}

// ObjectPrototype returns Object.prototype, the default prototype of new
// objects.
func (r *Runtime) ObjectPrototype() *Object {
	return r.objectPrototype
}

// FunctionPrototype returns the prototype of objects created by NewFunction.
func (r *Runtime) FunctionPrototype() *Object {
	return r.functionPrototype
}

// NewObject creates an empty object inheriting from Object.prototype.
func (r *Runtime) NewObject() *Object {
	return r.newObject(classObject, r.objectPrototype)
}

// NewObjectWithProto creates an empty object with the given prototype, which
// may be nil.
func (r *Runtime) NewObjectWithProto(proto *Object) *Object {
	return r.newObject(classObject, proto)
}

// NewFunction creates a callable object backed by fn. The function gets a
// non-enumerable, non-writable "name" property.
func (r *Runtime) NewFunction(name string, fn func(FunctionCall) (Value, error)) *Object {
	o := r.newObject(classFunction, r.functionPrototype)
	o.fn = fn
	o.addOwn(Str("name"), &valueProperty{value: valueString(name), attrs: attrConfigurable})
	return o
}
