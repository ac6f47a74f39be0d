package jsobj

// DefineOwnProperty creates or updates the own property key according to
// desc. Fields that are not set in desc keep their current value; for a new
// property they default to false or undefined. A rejected definition returns
// false with a TypeErrorClass error and leaves the object unchanged.
func (o *Object) DefineOwnProperty(key PropertyKey, desc PropertyDescriptor) (bool, error) {
	if desc.IsAccessorDescriptor() && desc.IsDataDescriptor() {
		return false, newPropertyError(TypeErrorClass, OpDefine, key, "Invalid property descriptor. Cannot both specify accessors and a value or writable attribute")
	}
	getter, err := accessorFunc(key, "Getter", desc.Getter)
	if err != nil {
		return false, err
	}
	setter, err := accessorFunc(key, "Setter", desc.Setter)
	if err != nil {
		return false, err
	}

	existing, found := o.readOwn(key)
	var p valueProperty
	if found {
		p = *existing
	} else if !o.IsExtensible() {
		return false, newPropertyError(TypeErrorClass, OpDefine, key, "Cannot define property %s, object is not extensible", key)
	}

	if found && !p.attrs.configurable() {
		if desc.Configurable == FLAG_TRUE {
			goto Reject
		}
		if desc.Enumerable != FLAG_NOT_SET && desc.Enumerable.Bool() != p.attrs.enumerable() {
			goto Reject
		}
		if p.isAccessor() && desc.IsDataDescriptor() || !p.isAccessor() && desc.IsAccessorDescriptor() {
			goto Reject
		}
		if p.isAccessor() {
			if desc.Getter != nil && p.getter != getter || desc.Setter != nil && p.setter != setter {
				goto Reject
			}
		} else if !p.attrs.writable() {
			if desc.Writable == FLAG_TRUE {
				goto Reject
			}
			if desc.Value != nil && !desc.Value.SameAs(p.value) {
				goto Reject
			}
		}
	}

	if desc.Enumerable != FLAG_NOT_SET {
		p.attrs = p.attrs.with(attrEnumerable, desc.Enumerable.Bool())
	}
	if desc.Configurable != FLAG_NOT_SET {
		p.attrs = p.attrs.with(attrConfigurable, desc.Configurable.Bool())
	}

	if desc.IsAccessorDescriptor() {
		if !p.isAccessor() {
			p.value = nil
			p.getter, p.setter = nil, nil
			p.attrs = (p.attrs | attrAccessor) &^ attrWritable
		}
		if desc.Getter != nil {
			p.getter = getter
		}
		if desc.Setter != nil {
			p.setter = setter
		}
	} else if !desc.IsGenericDescriptor() || !found {
		if p.isAccessor() {
			p.getter, p.setter = nil, nil
			p.attrs &^= attrAccessor | attrWritable
		}
		if desc.Writable != FLAG_NOT_SET {
			p.attrs = p.attrs.with(attrWritable, desc.Writable.Bool())
		}
		if desc.Value != nil {
			p.value = desc.Value
		}
		if p.value == nil {
			p.value = _undefined
		}
	}

	if found {
		o.replaceOwn(key, &p)
	} else {
		o.addOwn(key, &p)
	}
	return true, nil

Reject:
	return false, newPropertyError(TypeErrorClass, OpDefine, key, "Cannot redefine property: %s", key)
}

func accessorFunc(key PropertyKey, what string, v Value) (*Object, error) {
	if v == nil || IsUndefined(v) {
		return nil, nil
	}
	if f, ok := v.(*Object); ok && f.IsCallable() {
		return f, nil
	}
	return nil, newPropertyError(TypeErrorClass, OpDefine, key, "%s must be a function: %s", what, v)
}

// DefineDataProperty is a shortcut for DefineOwnProperty with a data
// descriptor.
func (o *Object) DefineDataProperty(key PropertyKey, value Value, writable, configurable, enumerable Flag) error {
	_, err := o.DefineOwnProperty(key, PropertyDescriptor{
		Value:        value,
		Writable:     writable,
		Configurable: configurable,
		Enumerable:   enumerable,
	})
	return err
}

// DefineAccessor defines an enumerable, configurable accessor property the
// way a get/set pair in an object literal does. A nil getter or setter keeps
// the other half of an existing accessor.
func (o *Object) DefineAccessor(key PropertyKey, getter, setter *Object) (bool, error) {
	desc := PropertyDescriptor{
		Configurable: FLAG_TRUE,
		Enumerable:   FLAG_TRUE,
	}
	if getter != nil {
		desc.Getter = getter
	}
	if setter != nil {
		desc.Setter = setter
	}
	if getter == nil && setter == nil {
		desc.Getter, desc.Setter = _undefined, _undefined
	}
	return o.DefineOwnProperty(key, desc)
}
