package jsobj

// dictEntry is a named property of an object in dictionary mode.
type dictEntry struct {
	name    string
	prop    valueProperty
	deleted bool
}

// dictionary holds the named properties of an object that left shape-shared
// mode. Insertion order is kept in order; deletes leave a tombstone that is
// compacted once tombstones dominate.
type dictionary struct {
	entries    map[string]*dictEntry
	order      []*dictEntry
	tombstones int
}

func newDictionary(capacity int) *dictionary {
	return &dictionary{
		entries: make(map[string]*dictEntry, capacity),
		order:   make([]*dictEntry, 0, capacity),
	}
}

func (d *dictionary) get(name string) (*dictEntry, bool) {
	e, ok := d.entries[name]
	return e, ok
}

func (d *dictionary) put(name string, p valueProperty) {
	if e, ok := d.entries[name]; ok {
		e.prop = p
		return
	}
	e := &dictEntry{name: name, prop: p}
	d.entries[name] = e
	d.order = append(d.order, e)
}

func (d *dictionary) remove(name string) {
	e, ok := d.entries[name]
	if !ok {
		return
	}
	delete(d.entries, name)
	e.deleted = true
	d.tombstones++
	if d.tombstones > 16 && d.tombstones > len(d.order)/2 {
		d.compact()
	}
}

func (d *dictionary) compact() {
	order := make([]*dictEntry, 0, len(d.entries))
	for _, e := range d.order {
		if !e.deleted {
			order = append(order, e)
		}
	}
	d.order = order
	d.tombstones = 0
}

func (d *dictionary) names() []string {
	res := make([]string, 0, len(d.entries))
	for _, e := range d.order {
		if !e.deleted {
			res = append(res, e.name)
		}
	}
	return res
}

// readOwn returns the own property stored under key, whichever storage mode
// the object is in. The returned record is a copy for shaped properties and
// must not be mutated; use writeOwn / replaceOwn to change storage.
func (o *Object) readOwn(key PropertyKey) (*valueProperty, bool) {
	if key.index {
		el, ok := o.elements.get(key.idx)
		if !ok {
			return nil, false
		}
		return el.property(), true
	}
	if o.dict != nil {
		e, ok := o.dict.get(key.name)
		if !ok {
			return nil, false
		}
		p := e.prop
		return &p, true
	}
	slot, ok := o.shape.lookup(key.name)
	if !ok {
		return nil, false
	}
	return o.slotProperty(slot), true
}

func (o *Object) slotProperty(slot int) *valueProperty {
	attrs := o.shape.props[slot].attrs
	p := &valueProperty{attrs: attrs}
	if attrs.accessor() {
		pair := o.slots[slot].(*accessorValue)
		p.getter, p.setter = pair.getter, pair.setter
	} else {
		p.value = o.slots[slot]
	}
	return p
}

// writeOwn stores v into the existing own data property key without changing
// its attributes.
func (o *Object) writeOwn(key PropertyKey, v Value) {
	if key.index {
		el, _ := o.elements.get(key.idx)
		if el.prop != nil {
			p := *el.prop
			p.value = v
			el.prop = &p
		} else {
			el.value = v
		}
		o.elements.put(key.idx, el)
		return
	}
	if o.dict != nil {
		if e, ok := o.dict.get(key.name); ok {
			e.prop.value = v
		}
		return
	}
	if slot, ok := o.shape.lookup(key.name); ok {
		o.slots[slot] = v
	}
}

func slotValue(p *valueProperty) Value {
	if p.isAccessor() {
		return &accessorValue{getter: p.getter, setter: p.setter}
	}
	if p.value == nil {
		return _undefined
	}
	return p.value
}

// addOwn appends a new own property. The caller has checked extensibility and
// that key is absent.
func (o *Object) addOwn(key PropertyKey, p *valueProperty) {
	if key.index {
		o.elements.put(key.idx, elementOf(p))
		return
	}
	if o.dict != nil {
		o.dict.put(key.name, *p)
		return
	}
	if len(o.shape.props) >= maxFastProperties {
		o.toDictionary("too many properties")
		o.dict.put(key.name, *p)
		return
	}
	next := o.shape.addProperty(key.name, p.attrs)
	o.slots = append(o.slots, slotValue(p))
	o.setShape(next, transitionAdd, key)
}

// replaceOwn replaces an existing own property with p, transitioning the
// shape if the attributes changed.
func (o *Object) replaceOwn(key PropertyKey, p *valueProperty) {
	if key.index {
		o.elements.put(key.idx, elementOf(p))
		return
	}
	if o.dict != nil {
		o.dict.put(key.name, *p)
		return
	}
	slot, _ := o.shape.lookup(key.name)
	if attrs := o.shape.props[slot].attrs; attrs != p.attrs {
		if o.bumpChurn() {
			o.toDictionary("reconfigure churn")
			o.dict.put(key.name, *p)
			return
		}
		next := o.shape.changeAttributes(key.name, p.attrs)
		o.slots[slot] = slotValue(p)
		o.setShape(next, transitionReconfigure, key)
		return
	}
	o.slots[slot] = slotValue(p)
}

// removeOwn deletes an existing own property.
func (o *Object) removeOwn(key PropertyKey) {
	if key.index {
		o.elements.remove(key.idx)
		return
	}
	if o.dict != nil {
		o.dict.remove(key.name)
		return
	}
	if o.bumpChurn() {
		o.toDictionary("delete churn")
		o.dict.remove(key.name)
		return
	}
	slot, _ := o.shape.lookup(key.name)
	next := o.shape.removeProperty(key.name)
	copy(o.slots[slot:], o.slots[slot+1:])
	o.slots[len(o.slots)-1] = nil
	o.slots = o.slots[:len(o.slots)-1]
	o.setShape(next, transitionDelete, key)
}

func (o *Object) bumpChurn() bool {
	o.churn++
	return o.churn > o.runtime.opts.dictionaryThreshold
}

// toDictionary moves the named properties of o out of the shared shape into a
// private dictionary.
func (o *Object) toDictionary(reason string) {
	if o.dict != nil {
		return
	}
	from := o.shape
	dict := newDictionary(len(from.props) + 1)
	for slot, sp := range from.props {
		dict.put(sp.name, *o.slotProperty(slot))
	}
	o.dict = dict
	o.slots = nil
	o.setShape(o.runtime.newDictionaryShape(from.proto, from.IsExtensible()), transitionDictionary, PropertyKey{})
	o.runtime.logger.Debug().
		Uint32("from_shape", from.id).
		Int("properties", len(dict.entries)).
		Str("reason", reason).
		Msg("object switched to dictionary mode")
	o.runtime.hook.OnDictionaryMode(o, reason)
}

// namedKeys returns the named own keys in insertion order.
func (o *Object) namedKeys() []string {
	if o.dict != nil {
		return o.dict.names()
	}
	names := make([]string, len(o.shape.props))
	for i, p := range o.shape.props {
		names[i] = p.name
	}
	return names
}
