package jsobj

type Flag int

const (
	FLAG_NOT_SET Flag = iota
	FLAG_FALSE
	FLAG_TRUE
)

func (f Flag) Bool() bool {
	return f == FLAG_TRUE
}

func ToFlag(b bool) Flag {
	if b {
		return FLAG_TRUE
	}
	return FLAG_FALSE
}

// PropertyDescriptor is a (possibly partial) property descriptor as passed to
// DefineOwnProperty. Unset fields are nil or FLAG_NOT_SET. A Getter or Setter
// of Undefined() explicitly sets the accessor function to undefined.
type PropertyDescriptor struct {
	Value Value

	Writable, Configurable, Enumerable Flag

	Getter, Setter Value
}

func (p PropertyDescriptor) IsAccessorDescriptor() bool {
	return p.Getter != nil || p.Setter != nil
}

func (p PropertyDescriptor) IsDataDescriptor() bool {
	return p.Value != nil || p.Writable != FLAG_NOT_SET
}

func (p PropertyDescriptor) IsGenericDescriptor() bool {
	return !p.IsAccessorDescriptor() && !p.IsDataDescriptor()
}

type propAttrs uint8

const (
	attrWritable propAttrs = 1 << iota
	attrEnumerable
	attrConfigurable
	attrAccessor

	attrDefault = attrWritable | attrEnumerable | attrConfigurable
)

func (a propAttrs) writable() bool {
	return a&attrWritable != 0
}

func (a propAttrs) enumerable() bool {
	return a&attrEnumerable != 0
}

func (a propAttrs) configurable() bool {
	return a&attrConfigurable != 0
}

func (a propAttrs) accessor() bool {
	return a&attrAccessor != 0
}

func (a propAttrs) with(f propAttrs, on bool) propAttrs {
	if on {
		return a | f
	}
	return a &^ f
}

func (a propAttrs) String() string {
	b := []byte("----")
	if a.writable() {
		b[0] = 'w'
	}
	if a.enumerable() {
		b[1] = 'e'
	}
	if a.configurable() {
		b[2] = 'c'
	}
	if a.accessor() {
		b[3] = 'a'
	}
	return string(b)
}

// accessorValue is what a shape slot holds for an accessor property. It never
// escapes the object model.
type accessorValue struct {
	getter, setter *Object
}

func (a *accessorValue) String() string {
	return "[accessor]"
}

func (a *accessorValue) ToBoolean() bool {
	return true
}

func (a *accessorValue) SameAs(other Value) bool {
	return a.StrictEquals(other)
}

func (a *accessorValue) StrictEquals(other Value) bool {
	o, ok := other.(*accessorValue)
	return ok && o.getter == a.getter && o.setter == a.setter
}

func (a *accessorValue) Export() interface{} {
	return nil
}

// valueProperty is a complete stored property. Slots of shaped objects keep
// their attributes in the shape; elements and dictionary entries keep a
// valueProperty when the attributes differ from the defaults.
type valueProperty struct {
	value  Value
	getter *Object
	setter *Object
	attrs  propAttrs
}

func (p *valueProperty) isAccessor() bool {
	return p.attrs.accessor()
}

func (p *valueProperty) descriptor() PropertyDescriptor {
	d := PropertyDescriptor{
		Enumerable:   ToFlag(p.attrs.enumerable()),
		Configurable: ToFlag(p.attrs.configurable()),
	}
	if p.isAccessor() {
		d.Getter, d.Setter = _undefined, _undefined
		if p.getter != nil {
			d.Getter = p.getter
		}
		if p.setter != nil {
			d.Setter = p.setter
		}
	} else {
		d.Value = p.value
		d.Writable = ToFlag(p.attrs.writable())
	}
	return d
}

func (p *valueProperty) get(receiver Value) (Value, error) {
	if !p.isAccessor() {
		return p.value, nil
	}
	if p.getter == nil {
		return _undefined, nil
	}
	return p.getter.call(FunctionCall{This: receiver})
}
