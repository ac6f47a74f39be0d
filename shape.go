package jsobj

import (
	"sync"
	"weak"
)

// Shapes with more properties than this get a hash index instead of a
// linear scan.
const linearLookupLimit = 8

// Objects with more named properties than this are kept in dictionary mode.
const maxFastProperties = 512

type shapeFlags uint8

const (
	shapeNotExtensible shapeFlags = 1 << iota
	shapeDictionary
)

type transitionKind uint8

const (
	transitionAdd transitionKind = iota
	transitionDelete
	transitionReconfigure
	transitionPreventExtensions
	transitionSeal
	transitionFreeze
	transitionProto
	transitionDictionary
)

func (k transitionKind) String() string {
	switch k {
	case transitionAdd:
		return "add"
	case transitionDelete:
		return "delete"
	case transitionReconfigure:
		return "reconfigure"
	case transitionPreventExtensions:
		return "preventExtensions"
	case transitionSeal:
		return "seal"
	case transitionFreeze:
		return "freeze"
	case transitionProto:
		return "setPrototypeOf"
	case transitionDictionary:
		return "dictionary"
	}
	return "unknown"
}

type transitionKey struct {
	kind  transitionKind
	name  string
	attrs propAttrs
}

// shapeProp describes one named property. Its slot is its position in
// Shape.props.
type shapeProp struct {
	name  string
	attrs propAttrs
}

// Shape is an immutable description of the named-property layout of an
// object: the ordered property names with their attributes, the
// extensibility flag and the prototype. Objects that went through the same
// sequence of additions from the same root share the same *Shape.
//
// Dictionary shapes are private to one object; the property table of such an
// object lives in its storage.
type Shape struct {
	id     uint32
	rt     *Runtime
	parent *Shape
	via    transitionKey
	proto  *Object
	props  []shapeProp
	index  map[string]int
	flags  shapeFlags

	mu          sync.RWMutex
	transitions map[transitionKey]*Shape
}

func (r *Runtime) newShape(parent *Shape, via transitionKey, proto *Object, props []shapeProp, flags shapeFlags) *Shape {
	s := &Shape{
		id:     r.nextShapeID.Add(1),
		rt:     r,
		parent: parent,
		via:    via,
		proto:  proto,
		props:  props,
		flags:  flags,
	}
	if flags&shapeDictionary == 0 {
		s.transitions = make(map[transitionKey]*Shape)
		if len(props) > linearLookupLimit {
			s.index = make(map[string]int, len(props))
			for i, p := range props {
				s.index[p.name] = i
			}
		}
	}
	return s
}

func (r *Runtime) newRootShape(proto *Object) *Shape {
	s := r.newShape(nil, transitionKey{}, proto, nil, 0)
	r.shapesMu.Lock()
	if len(r.roots) == cap(r.roots) {
		r.liveRootsLocked()
	}
	r.roots = append(r.roots, weak.Make(s))
	r.shapesMu.Unlock()
	return s
}

// liveRootsLocked drops the roots of collected prototypes and returns the
// remaining ones. shapesMu must be held.
func (r *Runtime) liveRootsLocked() []*Shape {
	var res []*Shape
	live := r.roots[:0]
	for _, p := range r.roots {
		if s := p.Value(); s != nil {
			res = append(res, s)
			live = append(live, p)
		}
	}
	clear(r.roots[len(live):])
	r.roots = live
	return res
}

func (r *Runtime) newDictionaryShape(proto *Object, extensible bool) *Shape {
	flags := shapeDictionary
	if !extensible {
		flags |= shapeNotExtensible
	}
	return r.newShape(nil, transitionKey{kind: transitionDictionary}, proto, nil, flags)
}

// rootShapeFor returns the initial shape of objects whose prototype is proto.
func (r *Runtime) rootShapeFor(proto *Object) *Shape {
	if proto == nil {
		return r.nullRoot
	}
	if proto.childRoot == nil {
		proto.childRoot = r.newRootShape(proto)
	}
	return proto.childRoot
}

// ID returns the runtime-unique shape id.
func (s *Shape) ID() uint32 {
	return s.id
}

// Len returns the number of named properties described by the shape.
// Dictionary shapes always report 0.
func (s *Shape) Len() int {
	return len(s.props)
}

func (s *Shape) IsExtensible() bool {
	return s.flags&shapeNotExtensible == 0
}

// IsDictionary returns true if the shape belongs to a single object in
// dictionary mode.
func (s *Shape) IsDictionary() bool {
	return s.flags&shapeDictionary != 0
}

// Prototype returns the prototype all objects of this shape have.
func (s *Shape) Prototype() *Object {
	return s.proto
}

// Keys returns the property keys in slot order.
func (s *Shape) Keys() []PropertyKey {
	keys := make([]PropertyKey, len(s.props))
	for i, p := range s.props {
		keys[i] = PropertyKey{name: p.name}
	}
	return keys
}

func (s *Shape) lookup(name string) (int, bool) {
	if s.index != nil {
		i, ok := s.index[name]
		return i, ok
	}
	for i := range s.props {
		if s.props[i].name == name {
			return i, true
		}
	}
	return -1, false
}

func (s *Shape) cachedTransition(k transitionKey) *Shape {
	s.mu.RLock()
	next := s.transitions[k]
	s.mu.RUnlock()
	return next
}

// publish stores next under k unless another goroutine got there first, in
// which case the existing shape wins.
func (s *Shape) publish(k transitionKey, next *Shape) *Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, exists := s.transitions[k]; exists {
		return existing
	}
	s.transitions[k] = next
	return next
}

// addProperty returns the shape with name appended. The result is memoized so
// repeated calls with the same arguments return the same shape.
func (s *Shape) addProperty(name string, attrs propAttrs) *Shape {
	k := transitionKey{kind: transitionAdd, name: name, attrs: attrs}
	if next := s.cachedTransition(k); next != nil {
		return next
	}
	props := make([]shapeProp, len(s.props)+1)
	copy(props, s.props)
	props[len(s.props)] = shapeProp{name: name, attrs: attrs}
	return s.publish(k, s.rt.newShape(s, k, s.proto, props, s.flags))
}

// replay rebuilds props on top of the root shape for proto, restoring the
// extensibility flag at the end. Objects that end up with the same layout
// through different histories of deletes share the replayed shape.
func (s *Shape) replay(proto *Object, props []shapeProp) *Shape {
	next := s.rt.rootShapeFor(proto)
	for _, p := range props {
		next = next.addProperty(p.name, p.attrs)
	}
	if !s.IsExtensible() {
		next = next.preventExtensions()
	}
	return next
}

// removeProperty returns the shape without name. The caller must have checked
// that the property exists.
func (s *Shape) removeProperty(name string) *Shape {
	k := transitionKey{kind: transitionDelete, name: name}
	if next := s.cachedTransition(k); next != nil {
		return next
	}
	i, _ := s.lookup(name)
	props := make([]shapeProp, 0, len(s.props)-1)
	props = append(props, s.props[:i]...)
	props = append(props, s.props[i+1:]...)
	return s.publish(k, s.replay(s.proto, props))
}

// changeAttributes returns the shape where name has attrs. Slots do not move.
func (s *Shape) changeAttributes(name string, attrs propAttrs) *Shape {
	k := transitionKey{kind: transitionReconfigure, name: name, attrs: attrs}
	if next := s.cachedTransition(k); next != nil {
		return next
	}
	i, _ := s.lookup(name)
	props := make([]shapeProp, len(s.props))
	copy(props, s.props)
	props[i].attrs = attrs
	return s.publish(k, s.replay(s.proto, props))
}

// changeProto returns the equivalent shape under a different prototype. The
// result is not memoized on s because the transition table would otherwise
// keep every prototype the object ever had alive.
func (s *Shape) changeProto(proto *Object) *Shape {
	return s.replay(proto, s.props)
}

func (s *Shape) mapAttrs(kind transitionKind, f func(propAttrs) propAttrs) *Shape {
	k := transitionKey{kind: kind}
	if next := s.cachedTransition(k); next != nil {
		return next
	}
	props := make([]shapeProp, len(s.props))
	for i, p := range s.props {
		props[i] = shapeProp{name: p.name, attrs: f(p.attrs)}
	}
	return s.publish(k, s.rt.newShape(s, k, s.proto, props, s.flags|shapeNotExtensible))
}

func (s *Shape) preventExtensions() *Shape {
	if !s.IsExtensible() {
		return s
	}
	return s.mapAttrs(transitionPreventExtensions, func(a propAttrs) propAttrs {
		return a
	})
}

func (s *Shape) seal() *Shape {
	return s.mapAttrs(transitionSeal, func(a propAttrs) propAttrs {
		return a &^ attrConfigurable
	})
}

func (s *Shape) freeze() *Shape {
	return s.mapAttrs(transitionFreeze, func(a propAttrs) propAttrs {
		if a.accessor() {
			return a &^ attrConfigurable
		}
		return a &^ (attrConfigurable | attrWritable)
	})
}
