package jsobj

import (
	"testing"
)

func TestElementsHugeIndex(t *testing.T) {
	var e elements
	e.put(0xfffffffe, element{value: valueInt(1)})
	if !e.isSparse {
		t.Fatal("elements should be sparse")
	}
	if len(e.dense) != 0 || cap(e.dense) != 0 {
		t.Fatal("dense array allocated")
	}
	el, ok := e.get(0xfffffffe)
	if !ok || el.value != valueInt(1) {
		t.Fatalf("get: %v %v", el, ok)
	}
	if _, ok := e.get(0); ok {
		t.Fatal("index 0 should be absent")
	}
}

func TestElementsDenseToSparse(t *testing.T) {
	var e elements
	for i := uint32(0); i < 10; i++ {
		e.put(i, element{value: intToValue(int64(i))})
	}
	if e.isSparse {
		t.Fatal("10 elements should be dense")
	}
	e.put(100000, element{value: valueInt(100000)})
	if !e.isSparse {
		t.Fatal("far index should switch to sparse")
	}
	if e.size() != 11 {
		t.Fatalf("size() = %d", e.size())
	}
	indices := e.indices()
	for i := 1; i < len(indices); i++ {
		if indices[i-1] >= indices[i] {
			t.Fatalf("indices not ascending: %v", indices)
		}
	}
	if indices[len(indices)-1] != 100000 {
		t.Fatalf("last index %d", indices[len(indices)-1])
	}
}

func TestElementsSparseToDense(t *testing.T) {
	var e elements
	e.put(5000, element{value: valueInt(5000)})
	if !e.isSparse {
		t.Fatal("should start sparse")
	}
	for i := uint32(0); i <= 1100; i++ {
		e.put(i, element{value: intToValue(int64(i))})
	}
	if e.isSparse {
		t.Fatal("should have switched back to dense")
	}
	if e.size() != 1102 {
		t.Fatalf("size() = %d", e.size())
	}
	if el, ok := e.get(5000); !ok || el.value != valueInt(5000) {
		t.Fatal("5000 lost")
	}
}

func TestElementsRemove(t *testing.T) {
	var e elements
	e.put(0, element{value: valueInt(0)})
	e.put(5, element{value: valueInt(5)})
	e.remove(5)
	if len(e.dense) != 1 {
		t.Fatalf("trailing holes should be trimmed, len %d", len(e.dense))
	}
	e.remove(3)
	if e.size() != 1 {
		t.Fatalf("size() = %d", e.size())
	}

	e.put(0xfffffff0, element{value: valueInt(1)})
	e.remove(0xfffffff0)
	if _, ok := e.get(0xfffffff0); ok {
		t.Fatal("sparse remove failed")
	}
	if e.size() != 1 {
		t.Fatalf("size() = %d", e.size())
	}
}

func TestElementsAttributes(t *testing.T) {
	var e elements
	p := &valueProperty{value: valueInt(1), attrs: attrEnumerable}
	e.put(2, elementOf(p))
	el, ok := e.get(2)
	if !ok {
		t.Fatal("missing")
	}
	if got := el.property().attrs; got != attrEnumerable {
		t.Fatalf("attrs = %v", got)
	}
	e.put(3, elementOf(&valueProperty{value: valueInt(2), attrs: attrDefault}))
	if el, _ := e.get(3); el.prop != nil {
		t.Fatal("default attributes should not keep a record")
	}
}
