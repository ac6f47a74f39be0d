package jsobj

import (
	"strconv"
	"sync"
	"testing"
)

func newObjectWith(r *Runtime, proto *Object, names ...string) *Object {
	o := r.NewObjectWithProto(proto)
	for i, name := range names {
		if err := o.Set(Str(name), intToValue(int64(i)), true); err != nil {
			panic(err)
		}
	}
	return o
}

func TestShapeSharing(t *testing.T) {
	r := New()
	a := newObjectWith(r, nil, "x", "y")
	b := newObjectWith(r, nil, "x", "y")
	if a.Shape() != b.Shape() {
		t.Fatal("same addition sequence should share the shape")
	}
	c := newObjectWith(r, nil, "y", "x")
	if a.Shape() == c.Shape() {
		t.Fatal("different order should not share the shape")
	}
	if a.Shape().Len() != 2 {
		t.Fatalf("Len() = %d", a.Shape().Len())
	}
	if keys := a.Shape().Keys(); keys[0] != Str("x") || keys[1] != Str("y") {
		t.Fatalf("Keys() = %v", keys)
	}
}

func TestShapeDependsOnAttributes(t *testing.T) {
	r := New()
	a := r.NewObject()
	b := r.NewObject()
	if err := a.Set(Str("x"), valueInt(1), true); err != nil {
		t.Fatal(err)
	}
	if _, err := b.DefineOwnProperty(Str("x"), PropertyDescriptor{Value: valueInt(1), Writable: FLAG_TRUE}); err != nil {
		t.Fatal(err)
	}
	if a.Shape() == b.Shape() {
		t.Fatal("different attributes should not share the shape")
	}
}

func TestShapeSharedUnderSamePrototype(t *testing.T) {
	r := New()
	p := r.NewObject()
	c1 := newObjectWith(r, p, "a")
	c2 := newObjectWith(r, p, "a")
	if c1.Shape() != c2.Shape() {
		t.Fatal("children of the same prototype should share shapes")
	}
	if c1.Shape().Prototype() != p {
		t.Fatal("shape prototype")
	}
	other := newObjectWith(r, r.NewObject(), "a")
	if other.Shape() == c1.Shape() {
		t.Fatal("children of different prototypes should not share shapes")
	}
}

func TestPrototypeMutationIsolation(t *testing.T) {
	r := New()
	p := r.NewObject()
	child := newObjectWith(r, p, "own")
	sibling := newObjectWith(r, p, "own")
	childShape := child.Shape()
	protoShape := p.Shape()

	if err := p.Set(Str("z"), valueInt(42), true); err != nil {
		t.Fatal(err)
	}
	if p.Shape() == protoShape {
		t.Fatal("prototype shape should change")
	}
	if child.Shape() != childShape || sibling.Shape() != childShape {
		t.Fatal("descendant shapes must not change")
	}
	v, err := child.Get(Str("z"))
	if err != nil {
		t.Fatal(err)
	}
	if v != valueInt(42) {
		t.Fatalf("child.z = %v", v)
	}
}

func TestDeleteTransition(t *testing.T) {
	r := New()
	o := newObjectWith(r, nil, "a", "b", "c")
	before := o.Shape()
	if !o.Delete(Str("b")) {
		t.Fatal("Delete failed")
	}
	if o.Shape() == before {
		t.Fatal("delete should change the shape")
	}
	o2 := newObjectWith(r, nil, "a", "b", "c")
	o2.Delete(Str("b"))
	if o2.Shape() != o.Shape() {
		t.Fatal("delete transition should be memoized")
	}
	direct := newObjectWith(r, nil, "a", "c")
	if direct.Shape() != o.Shape() {
		t.Fatal("delete should end on the shape of the surviving additions")
	}
	for name, want := range map[string]Value{"a": valueInt(0), "c": valueInt(2)} {
		v, err := o.Get(Str(name))
		if err != nil {
			t.Fatal(err)
		}
		if v != want {
			t.Fatalf("%s = %v, want %v", name, v, want)
		}
	}
	if o.HasOwnProperty(Str("b")) {
		t.Fatal("b still present")
	}
}

func TestDictionaryModeAfterChurn(t *testing.T) {
	var reasons []string
	hook := &testHook{
		onDictionaryMode: func(obj *Object, reason string) {
			reasons = append(reasons, reason)
		},
	}
	r := New(WithDictionaryThreshold(2), WithHook(hook))
	o := newObjectWith(r, nil, "a", "b", "c", "d", "e")
	o.Delete(Str("a"))
	o.Delete(Str("b"))
	if o.Shape().IsDictionary() {
		t.Fatal("switched too early")
	}
	o.Delete(Str("c"))
	if !o.Shape().IsDictionary() {
		t.Fatal("object should be in dictionary mode")
	}
	if len(reasons) != 1 || reasons[0] != "delete churn" {
		t.Fatalf("reasons: %v", reasons)
	}
	keys := o.OwnKeys(true)
	if len(keys) != 2 || keys[0] != Str("d") || keys[1] != Str("e") {
		t.Fatalf("keys: %v", keys)
	}
	if v, _ := o.Get(Str("e")); v != valueInt(4) {
		t.Fatalf("e = %v", v)
	}
	if err := o.Set(Str("f"), valueInt(5), true); err != nil {
		t.Fatal(err)
	}
	if v, _ := o.Get(Str("f")); v != valueInt(5) {
		t.Fatalf("f = %v", v)
	}
}

func TestDictionaryModeTooManyProperties(t *testing.T) {
	r := New()
	o := r.NewObject()
	for i := 0; i <= maxFastProperties; i++ {
		if err := o.Set(Str("p"+strconv.Itoa(i)), intToValue(int64(i)), true); err != nil {
			t.Fatal(err)
		}
	}
	if !o.Shape().IsDictionary() {
		t.Fatal("object should be in dictionary mode")
	}
	keys := o.OwnKeys(true)
	if len(keys) != maxFastProperties+1 {
		t.Fatalf("len(keys) = %d", len(keys))
	}
	for i, k := range keys {
		if k.String() != "p"+strconv.Itoa(i) {
			t.Fatalf("key %d: %v", i, k)
		}
	}
	if v, _ := o.Get(Str("p0")); v != valueInt(0) {
		t.Fatalf("p0 = %v", v)
	}
}

func TestDictionaryCompaction(t *testing.T) {
	r := New(WithDictionaryThreshold(0))
	o := r.NewObject()
	for i := 0; i < 100; i++ {
		o.Set(Str("p"+strconv.Itoa(i)), intToValue(int64(i)), false)
	}
	for i := 0; i < 90; i++ {
		o.Delete(Str("p" + strconv.Itoa(i)))
	}
	if len(o.dict.order) >= 100 {
		t.Fatalf("tombstones were not compacted: %d", len(o.dict.order))
	}
	keys := o.OwnKeys(true)
	if len(keys) != 10 || keys[0] != Str("p90") {
		t.Fatalf("keys: %v", keys)
	}
}

func TestShapeConcurrentTransitions(t *testing.T) {
	r := New()
	root := r.nullRoot
	const n = 8
	results := make([]*Shape, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := root
			for j := 0; j < 100; j++ {
				s = s.addProperty("p"+strconv.Itoa(j), attrDefault)
			}
			results[i] = s
		}(i)
	}
	wg.Wait()
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d ended on a different shape", i)
		}
	}
}

func TestIntegrityTransitionsShared(t *testing.T) {
	r := New()
	a := newObjectWith(r, nil, "x")
	b := newObjectWith(r, nil, "x")
	a.Seal()
	b.Seal()
	if a.Shape() != b.Shape() {
		t.Fatal("sealed shapes should be shared")
	}
	if a.IsExtensible() || !a.IsSealed() || a.IsFrozen() {
		t.Fatal("a should be sealed but not frozen")
	}
	a.Freeze()
	if !a.IsFrozen() {
		t.Fatal("a should be frozen")
	}
}
