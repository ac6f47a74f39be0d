package jsobj

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("jsobj: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// ShapeInfo is a snapshot of a shape and the shapes derived from it by
// additions and integrity transitions.
type ShapeInfo struct {
	ID          uint32       `cbor:"1,keyasint"`
	Via         string       `cbor:"2,keyasint,omitempty"` // transition from the parent
	Key         string       `cbor:"3,keyasint,omitempty"`
	Attrs       string       `cbor:"4,keyasint,omitempty"`
	Extensible  bool         `cbor:"5,keyasint"`
	Properties  []string     `cbor:"6,keyasint,omitempty"`
	Transitions int          `cbor:"7,keyasint"` // memoized transitions, including deletes
	Children    []*ShapeInfo `cbor:"8,keyasint,omitempty"`
}

// ShapeTree returns a snapshot of all shape trees of the runtime, one per
// live prototype that has had objects created from it, ordered by shape id.
// Dictionary shapes are private to their object and not included.
func (r *Runtime) ShapeTree() []*ShapeInfo {
	r.shapesMu.Lock()
	roots := r.liveRootsLocked()
	r.shapesMu.Unlock()

	res := make([]*ShapeInfo, 0, len(roots))
	for _, s := range roots {
		res = append(res, s.info())
	}
	return res
}

func (s *Shape) info() *ShapeInfo {
	info := &ShapeInfo{
		ID:         s.id,
		Extensible: s.IsExtensible(),
	}
	if s.parent != nil {
		info.Via = s.via.kind.String()
		info.Key = s.via.name
		if s.via.kind == transitionAdd {
			info.Attrs = s.via.attrs.String()
		}
	}
	for _, p := range s.props {
		info.Properties = append(info.Properties, p.name)
	}

	s.mu.RLock()
	info.Transitions = len(s.transitions)
	var children []*Shape
	for _, next := range s.transitions {
		// Delete and reconfigure transitions point into other branches.
		if next.parent == s {
			children = append(children, next)
		}
	}
	s.mu.RUnlock()

	sort.Slice(children, func(i, j int) bool {
		return children[i].id < children[j].id
	})
	for _, c := range children {
		info.Children = append(info.Children, c.info())
	}
	return info
}

// Count returns the number of shapes in the tree rooted at info.
func (info *ShapeInfo) Count() int {
	n := 1
	for _, c := range info.Children {
		n += c.Count()
	}
	return n
}

// MarshalShapeTree encodes a shape tree snapshot as canonical CBOR.
func MarshalShapeTree(roots []*ShapeInfo) ([]byte, error) {
	return MarshalCanonical(roots)
}

// MarshalCanonical encodes v as canonical CBOR, the encoding used for shape
// tree snapshots. Use it for documents that embed them.
func MarshalCanonical(v interface{}) ([]byte, error) {
	return cborEncMode.Marshal(v)
}

// UnmarshalShapeTree decodes a snapshot written by MarshalShapeTree.
func UnmarshalShapeTree(data []byte) ([]*ShapeInfo, error) {
	var roots []*ShapeInfo
	if err := cbor.Unmarshal(data, &roots); err != nil {
		return nil, fmt.Errorf("jsobj: unmarshal shape tree: %w", err)
	}
	return roots, nil
}
