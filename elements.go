package jsobj

import (
	"sort"
)

// element is one index-keyed property. Plain writable/enumerable/configurable
// data properties keep only value; anything else keeps a full prop record.
type element struct {
	value Value
	prop  *valueProperty
}

func (e element) present() bool {
	return e.value != nil || e.prop != nil
}

func (e element) property() *valueProperty {
	if e.prop != nil {
		return e.prop
	}
	return &valueProperty{value: e.value, attrs: attrDefault}
}

func elementOf(p *valueProperty) element {
	if p.attrs == attrDefault {
		return element{value: p.value}
	}
	return element{prop: p}
}

type sparseItem struct {
	idx uint32
	element
}

// elements stores index-keyed properties. It starts dense and switches to a
// sorted sparse list when an index lands far away from the populated range, so
// that an index such as 0xfffffffe never allocates a dense array up to it.
type elements struct {
	dense    []element
	count    int
	sparse   []sparseItem
	isSparse bool
}

func (e *elements) findIdx(idx uint32) int {
	return sort.Search(len(e.sparse), func(i int) bool {
		return e.sparse[i].idx >= idx
	})
}

func (e *elements) get(idx uint32) (element, bool) {
	if e.isSparse {
		i := e.findIdx(idx)
		if i < len(e.sparse) && e.sparse[i].idx == idx {
			return e.sparse[i].element, true
		}
		return element{}, false
	}
	if int64(idx) < int64(len(e.dense)) {
		el := e.dense[idx]
		return el, el.present()
	}
	return element{}, false
}

func (e *elements) put(idx uint32, el element) {
	if e.isSparse {
		i := e.findIdx(idx)
		if i < len(e.sparse) && e.sparse[i].idx == idx {
			e.sparse[i].element = el
			return
		}
		if e.shouldBecomeDense(idx) {
			e.toDense()
			e.put(idx, el)
			return
		}
		e.sparse = append(e.sparse, sparseItem{})
		copy(e.sparse[i+1:], e.sparse[i:])
		e.sparse[i] = sparseItem{idx: idx, element: el}
		return
	}
	if int64(idx) >= int64(len(e.dense)) {
		if !e.expand(idx) {
			e.toSparse()
			e.put(idx, el)
			return
		}
	}
	if !e.dense[idx].present() {
		e.count++
	}
	e.dense[idx] = el
}

// expand grows the dense array to hold idx. It returns false if the array
// should switch to sparse storage instead.
func (e *elements) expand(idx uint32) bool {
	targetLen := int64(idx) + 1
	if targetLen <= int64(cap(e.dense)) {
		e.dense = e.dense[:targetLen]
		return true
	}
	if idx > 4096 && (e.count == 0 || int64(idx)/int64(e.count) > 10) {
		return false
	}
	// Use the same algorithm as in runtime.growSlice
	newcap := int64(cap(e.dense))
	doublecap := newcap + newcap
	if targetLen > doublecap {
		newcap = targetLen
	} else {
		if len(e.dense) < 1024 {
			newcap = doublecap
		} else {
			for newcap < targetLen {
				newcap += newcap / 4
			}
		}
	}
	dense := make([]element, targetLen, newcap)
	copy(dense, e.dense)
	e.dense = dense
	return true
}

func (e *elements) shouldBecomeDense(idx uint32) bool {
	l := len(e.sparse)
	if l < 1024 {
		return false
	}
	maxIdx := idx
	if ii := e.sparse[l-1].idx; ii > maxIdx {
		maxIdx = ii
	}
	return int(maxIdx>>3) < l
}

func (e *elements) toSparse() {
	items := make([]sparseItem, 0, e.count+1)
	for i, el := range e.dense {
		if el.present() {
			items = append(items, sparseItem{idx: uint32(i), element: el})
		}
	}
	e.sparse = items
	e.dense = nil
	e.isSparse = true
}

func (e *elements) toDense() {
	var l int
	if n := len(e.sparse); n > 0 {
		l = int(e.sparse[n-1].idx) + 1
	}
	dense := make([]element, l)
	for _, item := range e.sparse {
		dense[item.idx] = item.element
	}
	e.dense = dense
	e.count = len(e.sparse)
	e.sparse = nil
	e.isSparse = false
}

func (e *elements) remove(idx uint32) {
	if e.isSparse {
		i := e.findIdx(idx)
		if i < len(e.sparse) && e.sparse[i].idx == idx {
			copy(e.sparse[i:], e.sparse[i+1:])
			e.sparse[len(e.sparse)-1] = sparseItem{}
			e.sparse = e.sparse[:len(e.sparse)-1]
		}
		return
	}
	if int64(idx) < int64(len(e.dense)) && e.dense[idx].present() {
		e.dense[idx] = element{}
		e.count--
		if int(idx) == len(e.dense)-1 {
			l := len(e.dense) - 1
			for l > 0 && !e.dense[l-1].present() {
				l--
			}
			e.dense = e.dense[:l]
		}
	}
}

func (e *elements) size() int {
	if e.isSparse {
		return len(e.sparse)
	}
	return e.count
}

// each calls f for every present element in ascending index order. f may
// replace the element through the returned value.
func (e *elements) each(f func(idx uint32, el element) element) {
	if e.isSparse {
		for i := range e.sparse {
			e.sparse[i].element = f(e.sparse[i].idx, e.sparse[i].element)
		}
		return
	}
	for i := range e.dense {
		if e.dense[i].present() {
			e.dense[i] = f(uint32(i), e.dense[i])
		}
	}
}

func (e *elements) indices() []uint32 {
	res := make([]uint32, 0, e.size())
	e.each(func(idx uint32, el element) element {
		res = append(res, idx)
		return el
	})
	return res
}
