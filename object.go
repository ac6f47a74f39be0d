package jsobj

const (
	classObject   = "Object"
	classFunction = "Function"
)

// Object is a script object: a shape describing its named properties, the
// storage for their values and a link to its prototype.
//
// Objects are not safe for concurrent use.
type Object struct {
	runtime *Runtime
	class   string

	shape    *Shape
	slots    []Value
	dict     *dictionary
	elements elements

	// prototype always equals shape.proto; it is kept here so the chain walk
	// does not have to go through the shape.
	prototype *Object

	// childRoot is the root shape of objects that have this object as their
	// prototype.
	childRoot *Shape

	// churn counts deletes and reconfigurations, see bumpChurn.
	churn int

	fn       func(FunctionCall) (Value, error)
	fallback FallbackHandler
}

// Runtime returns the runtime the object belongs to.
func (o *Object) Runtime() *Runtime {
	return o.runtime
}

// Class returns "Function" for callable objects and "Object" otherwise.
func (o *Object) Class() string {
	return o.class
}

// Shape returns the current shape of the object. The result changes whenever
// a property is added, removed or reconfigured, or the prototype changes.
func (o *Object) Shape() *Shape {
	return o.shape
}

// IsCallable returns true if the object was created with Runtime.NewFunction.
func (o *Object) IsCallable() bool {
	return o.fn != nil
}

func (o *Object) call(call FunctionCall) (Value, error) {
	if o.fn == nil {
		return nil, newPropertyError(TypeErrorClass, OpCall, PropertyKey{}, "%s is not a function", o)
	}
	if call.This == nil {
		call.This = _undefined
	}
	res, err := o.fn(call)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return _undefined, nil
	}
	return res, nil
}

// Call invokes a callable object with the given this value and arguments.
func (o *Object) Call(this Value, args ...Value) (Value, error) {
	return o.call(FunctionCall{This: this, Arguments: args})
}

func (o *Object) setShape(next *Shape, kind transitionKind, key PropertyKey) {
	prev := o.shape
	o.shape = next
	o.prototype = next.proto
	o.runtime.hook.OnShapeTransition(o, prev, next, kind.String(), key)
}

func (o *Object) String() string {
	if o.fn != nil {
		name := ""
		if p, ok := o.readOwn(Str("name")); ok && !p.isAccessor() {
			name = p.value.String()
		}
		return "function " + name + "() { [native code] }"
	}
	return "[object " + o.class + "]"
}

func (o *Object) ToBoolean() bool {
	return true
}

func (o *Object) SameAs(other Value) bool {
	return o.StrictEquals(other)
}

func (o *Object) StrictEquals(other Value) bool {
	if other, ok := other.(*Object); ok {
		return o == other
	}
	return false
}

// Export returns the host function for callable objects. For other objects it
// returns a map of the own enumerable data properties; accessors are not
// invoked.
func (o *Object) Export() interface{} {
	if o.fn != nil {
		return o.fn
	}
	m := make(map[string]interface{})
	for _, key := range o.ownKeys(false) {
		if p, ok := o.readOwn(key); ok && !p.isAccessor() {
			m[key.String()] = p.value.Export()
		}
	}
	return m
}

// lookup walks the prototype chain starting with o and returns the first
// property stored under key together with the object holding it. A missing
// property results in a nil property and no error.
func (o *Object) lookup(key PropertyKey, op Op) (*valueProperty, *Object, error) {
	maxDepth := o.runtime.opts.maxPrototypeDepth
	depth := 0
	for obj := o; obj != nil; obj = obj.prototype {
		if p, ok := obj.readOwn(key); ok {
			return p, obj, nil
		}
		depth++
		if depth > maxDepth {
			return nil, nil, newPropertyError(RangeErrorClass, op, key, "Maximum prototype chain depth (%d) exceeded", maxDepth)
		}
	}
	return nil, nil, nil
}

// Get returns the value of the property key, looking through the prototype
// chain. Getters are invoked with o as this.
func (o *Object) Get(key PropertyKey) (Value, error) {
	return o.GetWithReceiver(key, o)
}

// GetWithReceiver is like Get, but getters found on o or its prototypes are
// invoked with receiver as this, and fallback hooks are resolved against the
// receiver.
func (o *Object) GetWithReceiver(key PropertyKey, receiver Value) (Value, error) {
	p, _, err := o.lookup(key, OpGet)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p.get(receiver)
	}
	return o.noSuchProperty(key, receiver)
}

// Set assigns v to the property key. In strict mode violations such as
// assigning to a read-only property return a TypeErrorClass error; otherwise
// they are silently ignored.
func (o *Object) Set(key PropertyKey, v Value, strict bool) error {
	if v == nil {
		v = _undefined
	}
	p, holder, err := o.lookup(key, OpSet)
	if err != nil {
		return err
	}
	if p != nil {
		if p.isAccessor() {
			if p.setter == nil {
				return typeErrorResult(strict, OpSet, key, "Cannot set property %s of %s which has only a getter", key, o)
			}
			_, err := p.setter.call(FunctionCall{This: o, Arguments: []Value{v}})
			return err
		}
		if !p.attrs.writable() {
			return typeErrorResult(strict, OpSet, key, "Cannot assign to read only property '%s' of %s", key, o)
		}
		if holder == o {
			o.writeOwn(key, v)
			return nil
		}
	}
	if !o.IsExtensible() {
		return typeErrorResult(strict, OpSet, key, "Cannot add property %s, object is not extensible", key)
	}
	o.addOwn(key, &valueProperty{value: v, attrs: attrDefault})
	return nil
}

// Delete removes the own property key. It returns false if the property is
// not configurable, true otherwise (including when there is no such
// property). Delete never fails with an error.
func (o *Object) Delete(key PropertyKey) bool {
	p, ok := o.readOwn(key)
	if !ok {
		return true
	}
	if !p.attrs.configurable() {
		return false
	}
	o.removeOwn(key)
	return true
}

// DeleteStrict is like Delete, but a non-configurable property results in a
// TypeErrorClass error.
func (o *Object) DeleteStrict(key PropertyKey) error {
	if !o.Delete(key) {
		return newPropertyError(TypeErrorClass, OpDelete, key, "Cannot delete property '%s' of %s", key, o)
	}
	return nil
}

// HasOwnProperty returns true if key is an own property of o.
func (o *Object) HasOwnProperty(key PropertyKey) bool {
	_, ok := o.readOwn(key)
	return ok
}

// HasProperty returns true if key is an own or inherited property of o.
// Fallback hooks are not consulted.
func (o *Object) HasProperty(key PropertyKey) (bool, error) {
	p, _, err := o.lookup(key, OpGet)
	if err != nil {
		return false, err
	}
	return p != nil, nil
}

// GetOwnPropertyDescriptor returns the complete descriptor of the own
// property key. Accessor descriptors have Undefined() for a missing getter or
// setter.
func (o *Object) GetOwnPropertyDescriptor(key PropertyKey) (PropertyDescriptor, bool) {
	p, ok := o.readOwn(key)
	if !ok {
		return PropertyDescriptor{}, false
	}
	return p.descriptor(), true
}

// Prototype returns the prototype of o, or nil.
func (o *Object) Prototype() *Object {
	return o.prototype
}

// SetPrototypeOf changes the prototype of o. Setting the current prototype
// again always succeeds. A non-extensible object cannot change its prototype
// and a prototype chain that would include o results in a CycleError.
func (o *Object) SetPrototypeOf(proto *Object) error {
	if o.prototype == proto {
		return nil
	}
	key := Str(protoName)
	if !o.IsExtensible() {
		return newPropertyError(TypeErrorClass, OpSetPrototype, key, "%s is not extensible", o)
	}
	maxDepth := o.runtime.opts.maxPrototypeDepth
	depth := 0
	for p := proto; p != nil; p = p.prototype {
		if p == o {
			o.runtime.logger.Debug().
				Uint32("shape", o.shape.id).
				Uint32("proto_shape", proto.shape.id).
				Msg("rejected cyclic prototype assignment")
			return newPropertyError(CycleError, OpSetPrototype, key, "Cyclic __proto__ value")
		}
		depth++
		if depth >= maxDepth {
			return newPropertyError(RangeErrorClass, OpSetPrototype, key, "Maximum prototype chain depth (%d) exceeded", maxDepth)
		}
	}
	var next *Shape
	if o.dict != nil {
		next = o.runtime.newDictionaryShape(proto, true)
	} else {
		next = o.shape.changeProto(proto)
	}
	o.setShape(next, transitionProto, key)
	return nil
}

func (o *Object) IsExtensible() bool {
	return o.shape.IsExtensible()
}

// PreventExtensions makes the object non-extensible. It cannot be undone.
func (o *Object) PreventExtensions() {
	if !o.IsExtensible() {
		return
	}
	if o.dict != nil {
		o.setShape(o.runtime.newDictionaryShape(o.prototype, false), transitionPreventExtensions, PropertyKey{})
		return
	}
	o.setShape(o.shape.preventExtensions(), transitionPreventExtensions, PropertyKey{})
}

// Seal makes all own properties non-configurable and the object
// non-extensible.
func (o *Object) Seal() {
	if o.IsSealed() {
		return
	}
	o.restrict(transitionSeal, func(a propAttrs) propAttrs {
		return a &^ attrConfigurable
	})
}

// Freeze is like Seal and additionally makes all own data properties
// read-only.
func (o *Object) Freeze() {
	if o.IsFrozen() {
		return
	}
	o.restrict(transitionFreeze, func(a propAttrs) propAttrs {
		if a.accessor() {
			return a &^ attrConfigurable
		}
		return a &^ (attrConfigurable | attrWritable)
	})
}

func (o *Object) restrict(kind transitionKind, f func(propAttrs) propAttrs) {
	o.elements.each(func(idx uint32, el element) element {
		p := *el.property()
		p.attrs = f(p.attrs)
		return elementOf(&p)
	})
	if o.dict != nil {
		for _, e := range o.dict.order {
			if !e.deleted {
				e.prop.attrs = f(e.prop.attrs)
			}
		}
		o.setShape(o.runtime.newDictionaryShape(o.prototype, false), kind, PropertyKey{})
		return
	}
	var next *Shape
	if kind == transitionSeal {
		next = o.shape.seal()
	} else {
		next = o.shape.freeze()
	}
	o.setShape(next, kind, PropertyKey{})
}

// IsSealed returns true if the object is not extensible and none of its own
// properties is configurable.
func (o *Object) IsSealed() bool {
	return o.testIntegrity(func(a propAttrs) bool {
		return !a.configurable()
	})
}

// IsFrozen returns true if the object is sealed and none of its own data
// properties is writable.
func (o *Object) IsFrozen() bool {
	return o.testIntegrity(func(a propAttrs) bool {
		return !a.configurable() && (a.accessor() || !a.writable())
	})
}

func (o *Object) testIntegrity(f func(propAttrs) bool) bool {
	if o.IsExtensible() {
		return false
	}
	for _, key := range o.ownKeys(true) {
		if p, ok := o.readOwn(key); ok && !f(p.attrs) {
			return false
		}
	}
	return true
}
