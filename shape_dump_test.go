package jsobj

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"
)

func findChild(info *ShapeInfo, key string) *ShapeInfo {
	for _, c := range info.Children {
		if c.Key == key {
			return c
		}
	}
	return nil
}

func TestShapeTree(t *testing.T) {
	r := New()
	newObjectWith(r, nil, "a", "b")
	newObjectWith(r, nil, "a", "c")
	frozen := newObjectWith(r, nil, "a")
	frozen.Freeze()

	roots := r.ShapeTree()
	var nullRoot *ShapeInfo
	for _, root := range roots {
		if root.ID == r.nullRoot.id {
			nullRoot = root
		}
	}
	if nullRoot == nil {
		t.Fatal("null root missing")
	}
	a := findChild(nullRoot, "a")
	if a == nil || a.Via != "add" || a.Attrs != "wec-" {
		t.Fatalf("a: %+v", a)
	}
	if findChild(a, "b") == nil || findChild(a, "c") == nil {
		t.Fatalf("children of a: %+v", a.Children)
	}
	var sawFreeze bool
	for _, c := range a.Children {
		if c.Via == "freeze" {
			sawFreeze = true
			if c.Extensible {
				t.Fatal("frozen shape is extensible")
			}
		}
	}
	if !sawFreeze {
		t.Fatal("freeze transition missing")
	}
	if a.Count() != 4 {
		t.Fatalf("Count() = %d", a.Count())
	}
}

func TestShapeTreeCBOR(t *testing.T) {
	r := New()
	newObjectWith(r, nil, "a", "b")
	roots := r.ShapeTree()
	data, err := MarshalShapeTree(roots)
	if err != nil {
		t.Fatal(err)
	}
	again, err := MarshalShapeTree(r.ShapeTree())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != string(again) {
		t.Fatal("encoding is not deterministic")
	}
	decoded, err := UnmarshalShapeTree(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(decoded) != len(roots) {
		t.Fatalf("%d roots, want %d", len(decoded), len(roots))
	}
	for i := range roots {
		if decoded[i].ID != roots[i].ID || decoded[i].Count() != roots[i].Count() {
			t.Fatalf("root %d differs", i)
		}
	}
	if _, err := UnmarshalShapeTree([]byte{0xff}); err == nil {
		t.Fatal("expected an error for garbage input")
	}
}

func TestMarshalCanonical(t *testing.T) {
	a, err := MarshalCanonical(map[string]int{"bb": 1, "a": 2, "c": 3})
	if err != nil {
		t.Fatal(err)
	}
	// Shorter keys sort first.
	want := []byte{0xa3, 0x61, 'a', 0x02, 0x61, 'c', 0x03, 0x62, 'b', 'b', 0x01}
	if string(a) != string(want) {
		t.Fatalf("% x, want % x", a, want)
	}

	r := New()
	newObjectWith(r, nil, "a")
	roots := r.ShapeTree()
	tree, err := MarshalShapeTree(roots)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := MarshalCanonical([]interface{}{roots})
	if err != nil {
		t.Fatal(err)
	}
	if string(doc[1:]) != string(tree) {
		t.Fatal("embedded shape tree is encoded differently")
	}
}

func TestShapeTreeDropsCollectedPrototypes(t *testing.T) {
	r := New()
	r.NewObject()
	base := len(r.ShapeTree())

	const n = 100
	var collected atomic.Int32
	for i := 0; i < n; i++ {
		proto := r.NewObject()
		newObjectWith(r, proto, "x")
		runtime.AddCleanup(proto, func(int) {
			collected.Add(1)
		}, i)
	}
	if got := len(r.ShapeTree()); got < base+n {
		t.Fatalf("%d roots before collection, want at least %d", got, base+n)
	}

	for i := 0; i < 50 && collected.Load() < n; i++ {
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if c := collected.Load(); c != n {
		t.Fatalf("%d of %d prototypes collected", c, n)
	}
	runtime.GC()
	if got := len(r.ShapeTree()); got != base {
		t.Fatalf("%d roots after collection, want %d", got, base)
	}
	r.shapesMu.Lock()
	defer r.shapesMu.Unlock()
	if len(r.roots) != base {
		t.Fatalf("%d root entries kept, want %d", len(r.roots), base)
	}
}
