package jsobj

import (
	"iter"
)

// ownKeys returns the own keys of o: indices in ascending order followed by
// names in insertion order. Non-enumerable keys are included only if all is
// set.
func (o *Object) ownKeys(all bool) []PropertyKey {
	indices := o.elements.indices()
	names := o.namedKeys()
	keys := make([]PropertyKey, 0, len(indices)+len(names))
	for _, idx := range indices {
		keys = append(keys, PropertyKey{idx: idx, index: true})
	}
	for _, name := range names {
		keys = append(keys, PropertyKey{name: name})
	}
	if all {
		return keys
	}
	n := 0
	for _, key := range keys {
		if p, _ := o.readOwn(key); p.attrs.enumerable() {
			keys[n] = key
			n++
		}
	}
	return keys[:n]
}

// OwnKeys returns the own keys of o, indices first in ascending order, then
// names in the order they were added. Non-enumerable keys are included if
// all is true.
func (o *Object) OwnKeys(all bool) []PropertyKey {
	return o.ownKeys(all)
}

// EnumerateOwnKeys returns a sequence of the own enumerable keys of o. The
// key list is taken when iteration starts; keys deleted before they are
// reached are skipped. Every range over the sequence starts afresh.
func (o *Object) EnumerateOwnKeys() iter.Seq[PropertyKey] {
	return func(yield func(PropertyKey) bool) {
		for _, key := range o.ownKeys(true) {
			p, ok := o.readOwn(key)
			if !ok || !p.attrs.enumerable() {
				continue
			}
			if !yield(key) {
				return
			}
		}
	}
}

type enumLevel struct {
	obj  *Object
	keys []PropertyKey
}

// Enumerate returns the sequence of enumerable keys a for-in loop over o
// visits: the own keys first, then those of each prototype that have not
// been seen yet. A non-enumerable key hides the same key further up the
// chain. The keys of every level are taken when iteration starts.
func (o *Object) Enumerate() iter.Seq[PropertyKey] {
	return func(yield func(PropertyKey) bool) {
		var levels []enumLevel
		for obj := o; obj != nil; obj = obj.prototype {
			if len(levels) >= o.runtime.opts.maxPrototypeDepth {
				o.runtime.logger.Debug().
					Int("depth", len(levels)).
					Msg("enumeration stopped at maximum prototype depth")
				break
			}
			levels = append(levels, enumLevel{obj: obj, keys: obj.ownKeys(true)})
		}
		seen := make(map[PropertyKey]struct{})
		for _, level := range levels {
			for _, key := range level.keys {
				if _, dup := seen[key]; dup {
					continue
				}
				p, ok := level.obj.readOwn(key)
				if !ok {
					continue
				}
				seen[key] = struct{}{}
				if !p.attrs.enumerable() {
					continue
				}
				if !yield(key) {
					return
				}
			}
		}
	}
}
