package jsobj

// CacheState is the state of an inline cache site.
type CacheState uint8

const (
	CacheStateUninitialized CacheState = iota
	CacheStateMonomorphic              // one shape cached
	CacheStatePolymorphic              // several shapes cached
	CacheStateMegamorphic              // too many shapes, always full lookup
)

func (s CacheState) String() string {
	switch s {
	case CacheStateUninitialized:
		return "uninitialized"
	case CacheStateMonomorphic:
		return "monomorphic"
	case CacheStatePolymorphic:
		return "polymorphic"
	case CacheStateMegamorphic:
		return "megamorphic"
	}
	return "unknown"
}

// HandlerKind says how a cached access is carried out.
type HandlerKind uint8

const (
	HandlerOwnData HandlerKind = iota
	HandlerOwnAccessor
	HandlerProtoData
	HandlerProtoAccessor
	HandlerMissing
	HandlerStoreSlot
	HandlerAddProperty
)

func (k HandlerKind) String() string {
	switch k {
	case HandlerOwnData:
		return "own data"
	case HandlerOwnAccessor:
		return "own accessor"
	case HandlerProtoData:
		return "prototype data"
	case HandlerProtoAccessor:
		return "prototype accessor"
	case HandlerMissing:
		return "missing"
	case HandlerStoreSlot:
		return "store"
	case HandlerAddProperty:
		return "add"
	}
	return "unknown"
}

// PropertyHandler is the result of a full resolution that can be replayed for
// any object of the same shape. For prototype handlers the shapes of the
// prototypes up to the holder are recorded too; for missing properties and
// additions, the shapes of the whole chain.
type PropertyHandler struct {
	Kind  HandlerKind
	Slot  int
	Depth int

	chain []*Shape
	next  *Shape
}

// valid checks the recorded prototype shapes against the chain of obj. The
// receiver shape has already been matched, which fixes obj's prototype.
func (h *PropertyHandler) valid(obj *Object) bool {
	p := obj.prototype
	for _, s := range h.chain {
		if p == nil || p.shape != s {
			return false
		}
		p = p.prototype
	}
	return true
}

func (h *PropertyHandler) holder(obj *Object) *Object {
	for i := 0; i < h.Depth; i++ {
		obj = obj.prototype
	}
	return obj
}

type cacheEntry struct {
	shape   *Shape
	handler *PropertyHandler
}

// InlineCacheSite remembers how a property access at one place in the code
// was resolved for the shapes it has seen.
type InlineCacheSite struct {
	runtime *Runtime
	op      Op
	key     PropertyKey

	state   CacheState
	entries []cacheEntry
	hits    uint64
	misses  uint64
}

func (r *Runtime) newSite(op Op, key PropertyKey) *InlineCacheSite {
	s := &InlineCacheSite{
		runtime: r,
		op:      op,
		key:     key,
	}
	r.sites = append(r.sites, s)
	return s
}

// NewCacheSite creates and registers a bare site. Callers drive it with
// Resolve and Update; GetSite and SetSite do that for the common cases.
func (r *Runtime) NewCacheSite(op Op, key PropertyKey) *InlineCacheSite {
	return r.newSite(op, key)
}

func (s *InlineCacheSite) Key() PropertyKey {
	return s.key
}

func (s *InlineCacheSite) Op() Op {
	return s.op
}

func (s *InlineCacheSite) State() CacheState {
	return s.state
}

func (s *InlineCacheSite) Hits() uint64 {
	return s.hits
}

func (s *InlineCacheSite) Misses() uint64 {
	return s.misses
}

// Len returns the number of cached shapes.
func (s *InlineCacheSite) Len() int {
	return len(s.entries)
}

// Resolve returns the cached handler for obj, if there is a valid one. A
// megamorphic site never has one.
func (s *InlineCacheSite) Resolve(obj *Object) (*PropertyHandler, bool) {
	if s.state != CacheStateMegamorphic {
		for i, e := range s.entries {
			if e.shape != obj.shape || !e.handler.valid(obj) {
				continue
			}
			s.hits++
			// Move hit entry to front
			if i > 0 {
				copy(s.entries[1:i+1], s.entries[0:i])
				s.entries[0] = e
			}
			return e.handler, true
		}
	}
	s.misses++
	s.runtime.hook.OnCacheMiss(s, obj)
	return nil, false
}

// Update records h as the way to handle objects of the given shape.
// Dictionary shapes are never cached.
func (s *InlineCacheSite) Update(shape *Shape, h *PropertyHandler) {
	if s.state == CacheStateMegamorphic || h == nil || shape.IsDictionary() {
		return
	}
	for i := range s.entries {
		if s.entries[i].shape == shape {
			s.entries[i].handler = h
			return
		}
	}
	if len(s.entries) >= s.runtime.opts.megamorphicThreshold {
		s.state = CacheStateMegamorphic
		s.entries = nil
		s.runtime.logger.Debug().
			Str("op", s.op.String()).
			Str("key", s.key.String()).
			Int("threshold", s.runtime.opts.megamorphicThreshold).
			Msg("inline cache site went megamorphic")
		s.runtime.hook.OnMegamorphic(s)
		return
	}
	s.entries = append(s.entries, cacheEntry{shape: shape, handler: h})
	if len(s.entries) == 1 {
		s.state = CacheStateMonomorphic
	} else {
		s.state = CacheStatePolymorphic
	}
}

// Reset drops all cached shapes and returns the site to the uninitialized
// state. Counters are kept.
func (s *InlineCacheSite) Reset() {
	s.state = CacheStateUninitialized
	s.entries = nil
}

// cacheableChain returns the shapes of the prototypes of obj up to depth
// levels (or the whole chain if depth is negative), or false if any object
// involved is in dictionary mode.
func cacheableChain(obj *Object, depth int) ([]*Shape, bool) {
	if obj.dict != nil {
		return nil, false
	}
	var chain []*Shape
	for p := obj.prototype; p != nil && (depth < 0 || len(chain) < depth); p = p.prototype {
		if p.dict != nil {
			return nil, false
		}
		chain = append(chain, p.shape)
	}
	return chain, true
}

// getHandler resolves a named property of obj and returns a handler for it,
// or nil if the result cannot be cached.
func getHandler(obj *Object, key PropertyKey) (*PropertyHandler, error) {
	if key.index {
		return nil, nil
	}
	maxDepth := obj.runtime.opts.maxPrototypeDepth
	depth := 0
	for o := obj; o != nil; o = o.prototype {
		if o.dict == nil {
			if slot, ok := o.shape.lookup(key.name); ok {
				chain, ok := cacheableChain(obj, depth)
				if !ok {
					return nil, nil
				}
				h := &PropertyHandler{Slot: slot, Depth: depth, chain: chain}
				accessor := o.shape.props[slot].attrs.accessor()
				switch {
				case depth == 0 && accessor:
					h.Kind = HandlerOwnAccessor
				case depth == 0:
					h.Kind = HandlerOwnData
				case accessor:
					h.Kind = HandlerProtoAccessor
				default:
					h.Kind = HandlerProtoData
				}
				return h, nil
			}
		} else if o.HasOwnProperty(key) {
			return nil, nil
		}
		depth++
		if depth > maxDepth {
			return nil, newPropertyError(RangeErrorClass, OpGet, key, "Maximum prototype chain depth (%d) exceeded", maxDepth)
		}
	}
	chain, ok := cacheableChain(obj, -1)
	if !ok {
		return nil, nil
	}
	return &PropertyHandler{Kind: HandlerMissing, chain: chain}, nil
}

// setHandler returns a handler for an assignment to a named property of obj
// if the assignment is a plain slot store, a plain addition or a call to an
// inherited setter.
func setHandler(obj *Object, key PropertyKey) *PropertyHandler {
	if key.index || obj.dict != nil {
		return nil
	}
	if slot, ok := obj.shape.lookup(key.name); ok {
		if obj.shape.props[slot].attrs.writable() {
			return &PropertyHandler{Kind: HandlerStoreSlot, Slot: slot}
		}
		return nil
	}
	depth := 1
	for p := obj.prototype; p != nil; p = p.prototype {
		if p.dict != nil {
			return nil
		}
		if slot, ok := p.shape.lookup(key.name); ok {
			attrs := p.shape.props[slot].attrs
			if !attrs.accessor() || p.slots[slot].(*accessorValue).setter == nil {
				return nil
			}
			chain, _ := cacheableChain(obj, depth)
			return &PropertyHandler{Kind: HandlerProtoAccessor, Slot: slot, Depth: depth, chain: chain}
		}
		depth++
		if depth > obj.runtime.opts.maxPrototypeDepth {
			return nil
		}
	}
	if !obj.IsExtensible() || obj.shape.Len() >= maxFastProperties {
		return nil
	}
	chain, _ := cacheableChain(obj, -1)
	return &PropertyHandler{
		Kind:  HandlerAddProperty,
		Slot:  obj.shape.Len(),
		chain: chain,
		next:  obj.shape.addProperty(key.name, attrDefault),
	}
}

// GetSite is an inline cache for reading one named property.
type GetSite struct {
	*InlineCacheSite
}

// NewGetSite creates a site reading key.
func (r *Runtime) NewGetSite(key PropertyKey) *GetSite {
	return &GetSite{r.newSite(OpGet, key)}
}

// Get returns the value of the site's property of obj. It is equivalent to
// obj.Get(key).
func (s *GetSite) Get(obj *Object) (Value, error) {
	h, ok := s.Resolve(obj)
	if !ok {
		if s.state == CacheStateMegamorphic {
			return obj.Get(s.key)
		}
		var err error
		h, err = getHandler(obj, s.key)
		if err != nil {
			return nil, err
		}
		if h == nil {
			return obj.Get(s.key)
		}
		s.Update(obj.shape, h)
	}
	switch h.Kind {
	case HandlerOwnData, HandlerProtoData:
		return h.holder(obj).slots[h.Slot], nil
	case HandlerOwnAccessor, HandlerProtoAccessor:
		getter := h.holder(obj).slots[h.Slot].(*accessorValue).getter
		if getter == nil {
			return _undefined, nil
		}
		return getter.call(FunctionCall{This: obj})
	}
	return obj.noSuchProperty(s.key, obj)
}

// SetSite is an inline cache for assigning one named property.
type SetSite struct {
	*InlineCacheSite
}

// NewSetSite creates a site assigning key.
func (r *Runtime) NewSetSite(key PropertyKey) *SetSite {
	return &SetSite{r.newSite(OpSet, key)}
}

// Set assigns v to the site's property of obj. It is equivalent to
// obj.Set(key, v, strict).
func (s *SetSite) Set(obj *Object, v Value, strict bool) error {
	if v == nil {
		v = _undefined
	}
	h, ok := s.Resolve(obj)
	if !ok {
		if s.state == CacheStateMegamorphic {
			return obj.Set(s.key, v, strict)
		}
		h = setHandler(obj, s.key)
		if h == nil {
			return obj.Set(s.key, v, strict)
		}
		s.Update(obj.shape, h)
	}
	switch h.Kind {
	case HandlerStoreSlot:
		obj.slots[h.Slot] = v
		return nil
	case HandlerProtoAccessor:
		setter := h.holder(obj).slots[h.Slot].(*accessorValue).setter
		_, err := setter.call(FunctionCall{This: obj, Arguments: []Value{v}})
		return err
	case HandlerAddProperty:
		obj.slots = append(obj.slots, v)
		obj.setShape(h.next, transitionAdd, s.key)
		return nil
	}
	return obj.Set(s.key, v, strict)
}

// CacheStats summarizes the inline cache sites of a runtime.
type CacheStats struct {
	Sites         int
	Uninitialized int
	Monomorphic   int
	Polymorphic   int
	Megamorphic   int
	Hits          uint64
	Misses        uint64
}

// HitRate returns hits / (hits + misses), or 0 if no lookups happened.
func (s CacheStats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// CacheStats returns statistics over every site created by the runtime.
func (r *Runtime) CacheStats() CacheStats {
	st := CacheStats{Sites: len(r.sites)}
	for _, s := range r.sites {
		switch s.state {
		case CacheStateUninitialized:
			st.Uninitialized++
		case CacheStateMonomorphic:
			st.Monomorphic++
		case CacheStatePolymorphic:
			st.Polymorphic++
		case CacheStateMegamorphic:
			st.Megamorphic++
		}
		st.Hits += s.hits
		st.Misses += s.misses
	}
	return st
}
